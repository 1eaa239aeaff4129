package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/faleproxy/core"
	"github.com/gaurav-prasanna/faleproxy/core/extract"
	"github.com/gaurav-prasanna/faleproxy/core/fetch"
	"github.com/gaurav-prasanna/faleproxy/core/output"
	"github.com/gaurav-prasanna/faleproxy/core/render"
	"github.com/gaurav-prasanna/faleproxy/core/replace"
	"github.com/gaurav-prasanna/faleproxy/core/rewrite"
	"github.com/gaurav-prasanna/faleproxy/internal/retry"
)

const sitePage = `<!DOCTYPE html><html lang="en"><head><title>Yale News</title></head><body>` +
	`<nav><a href="/">Home</a> <a href="/about">About</a></nav>` +
	`<main><h1>Yale today</h1><p>Students at YALE and <a href="https://www.yale.edu/">yale.edu</a>.</p></main>` +
	`</body></html>`

type siteHits struct {
	mu   sync.Mutex
	hits map[string]int
}

func (h *siteHits) get(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits[path]
}

func newSite(t *testing.T) *httptest.Server {
	srv, _ := newCountingSite(t)
	return srv
}

func newCountingSite(t *testing.T) (*httptest.Server, *siteHits) {
	t.Helper()
	hits := &siteHits{hits: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.mu.Lock()
		hits.hits[r.URL.Path]++
		hits.mu.Unlock()
		switch r.URL.Path {
		case "/", "/about":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(sitePage))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

func newPipeline(r core.Renderer) *pipeline {
	return &pipeline{
		fetcher:   fetch.New(fetch.Options{Retry: retry.NoRetry()}),
		rewriter:  rewrite.New(replace.Pair{Target: "Yale", Replacement: "Fale"}, nil),
		extractor: extract.New(),
		renderer:  r,
	}
}

func resetFormatFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		flagOnly, flagAll = false, false
		flagHTML, flagMarkdown, flagJSON, flagPDF = false, false, false, false
	})
}

func TestValidateFlags(t *testing.T) {
	resetFormatFlags(t)

	require.NoError(t, validateFlags())
	assert.IsType(t, &render.HTMLRenderer{}, selectRenderer())

	flagJSON = true
	require.NoError(t, validateFlags())
	assert.IsType(t, &render.JSONRenderer{}, selectRenderer())

	flagPDF = true
	assert.Error(t, validateFlags())

	flagJSON, flagPDF = false, false
	flagOnly, flagAll = true, true
	assert.Error(t, validateFlags())
}

func TestPipeline_HTML(t *testing.T) {
	srv := newSite(t)

	data, err := newPipeline(render.NewHTMLRenderer()).process(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "<title>Fale News</title>")
	assert.Contains(t, out, "<h1>Fale today</h1>")
	assert.Contains(t, out, "Students at FALE")
	assert.Contains(t, out, `href="https://www.yale.edu/">fale.edu</a>`)
}

func TestPipeline_Markdown(t *testing.T) {
	srv := newSite(t)

	data, err := newPipeline(render.NewMarkdownRenderer()).process(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "# Fale News")
	assert.Contains(t, out, "# Fale today")
	assert.Contains(t, out, "[fale.edu](https://www.yale.edu/)")
	assert.NotContains(t, out, "Home")
}

func TestPipeline_JSON(t *testing.T) {
	srv := newSite(t)

	data, err := newPipeline(render.NewJSONRenderer()).process(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	var resp core.FetchResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Fale News", resp.Title)
	assert.Equal(t, srv.URL+"/", resp.OriginalURL)
	assert.Equal(t, 4, resp.Replacements)
}

func TestPipeline_FetchError(t *testing.T) {
	srv := newSite(t)

	_, err := newPipeline(render.NewHTMLRenderer()).process(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch:")
}

func TestRunOnlyAndAll(t *testing.T) {
	srv, hits := newCountingSite(t)
	dir := t.TempDir()
	writer, err := output.New(dir)
	require.NoError(t, err)
	p := newPipeline(render.NewHTMLRenderer())

	var out bytes.Buffer
	require.NoError(t, runOnly(context.Background(), &out, srv.URL+"/about", p, writer))
	assert.Contains(t, out.String(), "✓ Written:")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, output.FlatName(srv.URL+"/about")+".html", entries[0].Name())

	out.Reset()
	siteDir := filepath.Join(dir, "site")
	writer, err = output.New(siteDir)
	require.NoError(t, err)
	require.NoError(t, runAll(context.Background(), &out, srv.URL, 10, p, writer))
	assert.Contains(t, out.String(), "Found 2 pages to process")
	assert.FileExists(t, filepath.Join(siteDir, "index.html"))
	assert.FileExists(t, filepath.Join(siteDir, "about.html"))

	// One fetch for runOnly, one shared by discovery and processing in runAll.
	assert.Equal(t, 1, hits.get("/"))
	assert.Equal(t, 2, hits.get("/about"))
}
