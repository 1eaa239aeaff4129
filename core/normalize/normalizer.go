// Package normalize implements the Normalizer interface.
// It converts extracted HTML into Markdown for the Markdown and PDF outputs.
package normalize

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"gitlab.com/tozd/go/errors"
)

// MarkdownNormalizer converts HTML to Markdown using html-to-markdown.
type MarkdownNormalizer struct {
	// Domain resolves relative links and images, e.g. "https://example.com".
	Domain string
}

// New creates a MarkdownNormalizer. domain may be empty.
func New(domain string) *MarkdownNormalizer {
	return &MarkdownNormalizer{Domain: domain}
}

// Normalize converts a cleaned HTML fragment into Markdown.
func (n *MarkdownNormalizer) Normalize(html string) (string, error) {
	var opts []converter.ConvertOptionFunc
	if n.Domain != "" {
		opts = append(opts, converter.WithDomain(n.Domain))
	}
	markdown, err := htmltomarkdown.ConvertString(html, opts...)
	if err != nil {
		return "", errors.Errorf("converting HTML to markdown: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}
