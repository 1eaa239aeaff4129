// Package extract implements the Extractor interface.
// It isolates the main content of a rewritten page for the Markdown and PDF
// outputs:
//  1. Removing noise elements (nav, footer, scripts, forms, ...)
//  2. Picking the best content container (<main>, <article>, or <body>)
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/net/html"
)

// ErrNoContent is returned when the page has no usable content container.
var ErrNoContent = errors.Base("no content container found in HTML")

// noise matches elements that contribute no readable text to the page.
var noise = cascadia.MustCompile(strings.Join([]string{
	"script", "style", "noscript", "template",
	"nav", "footer", "header", "aside",
	"img", "picture", "figure", "figcaption",
	"iframe", "video", "audio", "object", "embed",
	"svg", "canvas",
	"form", "button", "input", "select", "textarea",
	".sidebar", ".menu", ".navigation", ".ads", ".advertisement",
	"[aria-hidden=true]",
}, ", "))

// containers are tried in order; <main> is the most specific.
var containers = []string{"main", "article", "body"}

// HTMLExtractor strips noise from HTML and returns the main content fragment.
type HTMLExtractor struct{}

// New creates an HTMLExtractor.
func New() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract returns the outer HTML of the main content container with noise removed.
func (e *HTMLExtractor) Extract(src string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return "", errors.Errorf("parsing HTML: %w", err)
	}

	for _, root := range doc.Nodes {
		removeAll(cascadia.QueryAll(root, noise))
	}

	for _, tag := range containers {
		sel := doc.Find(tag).First()
		if sel.Length() == 0 {
			continue
		}
		out, err := goquery.OuterHtml(sel)
		if err != nil {
			return "", errors.Errorf("serializing content: %w", err)
		}
		return out, nil
	}
	return "", ErrNoContent
}

func removeAll(nodes []*html.Node) {
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}
