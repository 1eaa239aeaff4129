package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatName(t *testing.T) {
	tests := map[string]string{
		"https://yale.edu":                 "yale_edu",
		"https://yale.edu/":                "yale_edu",
		"https://www.yale.edu/about/today": "www_yale_edu_about_today",
		"https://yale.edu:8080/a.b":        "yale_edu_8080_a_b",
		"not a url":                        "not_a_url",
	}
	for in, want := range tests {
		assert.Equal(t, want, FlatName(in), in)
	}
}

func TestSitePath(t *testing.T) {
	tests := map[string]string{
		"https://yale.edu":              "index",
		"https://yale.edu/":             "index",
		"https://yale.edu/news/today":   filepath.Join("news", "today"),
		"https://yale.edu/news/":        filepath.Join("news", "index"),
		"https://yale.edu/../etc/passw": filepath.Join("etc", "passw"),
	}
	for in, want := range tests {
		got, err := SitePath(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestWriter_WritePageAndSite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w, err := New(dir)
	require.NoError(t, err)

	path, err := w.WritePage("https://yale.edu/about", []byte("flat"), ".html")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "yale_edu_about.html"), path)

	path, err = w.WriteSite("https://yale.edu/news/today", []byte("nested"), ".md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "news", "today.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "nested", string(data))
}
