package render

import (
	"encoding/json"

	"gitlab.com/tozd/go/errors"

	"github.com/gaurav-prasanna/faleproxy/core"
)

// JSONRenderer writes the same envelope the HTTP service returns from /fetch.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render marshals the page into a core.FetchResponse.
func (r *JSONRenderer) Render(page *core.Page) ([]byte, error) {
	data, err := json.MarshalIndent(core.FetchResponse{
		Success:      true,
		Content:      page.HTML,
		Title:        page.Meta.Title,
		OriginalURL:  page.Meta.URL,
		Replacements: page.Meta.Replacements,
	}, "", "  ")
	if err != nil {
		return nil, errors.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}

// NeedsMarkdown is false.
func (r *JSONRenderer) NeedsMarkdown() bool {
	return false
}
