// Package render provides output renderers for rewritten pages.
package render

import "github.com/gaurav-prasanna/faleproxy/core"

// HTMLRenderer writes the rewritten document as-is.
type HTMLRenderer struct{}

// NewHTMLRenderer creates an HTMLRenderer.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{}
}

// Render returns the rewritten document bytes.
func (r *HTMLRenderer) Render(page *core.Page) ([]byte, error) {
	return []byte(page.HTML), nil
}

// Extension returns the file extension for HTML output.
func (r *HTMLRenderer) Extension() string {
	return ".html"
}

// NeedsMarkdown is false; the document is written verbatim.
func (r *HTMLRenderer) NeedsMarkdown() bool {
	return false
}
