package render

import (
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/faleproxy/core"
)

// MarkdownRenderer writes the page's main content as Markdown, headed by
// the rewritten title and the source URL.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render prefixes the Markdown body with a title heading and source line.
func (r *MarkdownRenderer) Render(page *core.Page) ([]byte, error) {
	var b strings.Builder
	if page.Meta.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", strings.TrimSpace(page.Meta.Title))
	}
	if page.Meta.URL != "" {
		fmt.Fprintf(&b, "_Source: <%s>_\n\n", page.Meta.URL)
	}
	b.WriteString(strings.TrimSpace(page.Markdown))
	b.WriteString("\n")
	return []byte(b.String()), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}

// NeedsMarkdown is true.
func (r *MarkdownRenderer) NeedsMarkdown() bool {
	return true
}
