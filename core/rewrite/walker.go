// Package rewrite applies term replacement to parsed HTML documents.
// Only text content and the page title change; attributes, comments,
// scripts and element structure are left exactly as parsed.
package rewrite

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/gaurav-prasanna/faleproxy/core"
	"github.com/gaurav-prasanna/faleproxy/core/replace"
)

// nodeKind is the closed set of node variants the walker distinguishes.
type nodeKind int

const (
	kindElement nodeKind = iota
	kindText
	kindComment
	kindOther // document, doctype, raw nodes
)

func kindOf(n *html.Node) nodeKind {
	switch n.Type {
	case html.ElementNode:
		return kindElement
	case html.TextNode:
		return kindText
	case html.CommentNode:
		return kindComment
	default:
		return kindOther
	}
}

// rawTextElements hold character data that is code or markup, not page text.
var rawTextElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
}

// Walker rewrites the text nodes of a document with a Replacer.
type Walker struct {
	replacer *replace.Replacer
}

// NewWalker creates a Walker bound to the given Replacer.
func NewWalker(r *replace.Replacer) *Walker {
	return &Walker{replacer: r}
}

// Transform rewrites doc in place and reports what changed.
//
// Text nodes are taken from the body, or from the whole tree when there is
// no body. Every title element is handled separately since it normally sits
// in the head.
func (w *Walker) Transform(doc *goquery.Document) core.RewriteStats {
	var stats core.RewriteStats

	scope := doc.Find("body").First()
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	scope.Find("*").AddBack().Contents().Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			w.visit(n, &stats)
		}
	})

	doc.Find("title").Each(func(_ int, s *goquery.Selection) {
		original := s.Text()
		updated, n := w.replacer.ReplaceCount(original)
		if n == 0 || updated == original {
			return
		}
		s.SetText(updated)
		stats.TitleRewritten = true
		stats.Replacements += n
	})

	return stats
}

func (w *Walker) visit(n *html.Node, stats *core.RewriteStats) {
	switch kindOf(n) {
	case kindText:
		if n.Parent != nil && n.Parent.Type == html.ElementNode && rawTextElements[n.Parent.Data] {
			return
		}
		if n.Data == "" {
			return
		}
		stats.TextNodes++
		updated, count := w.replacer.ReplaceCount(n.Data)
		if count == 0 || updated == n.Data {
			return
		}
		n.Data = updated
		stats.RewrittenNodes++
		stats.Replacements += count
	case kindElement, kindComment, kindOther:
		// Structure, attributes and comments are never rewritten.
	}
}
