// Package core defines the pipeline interfaces for faleproxy.
// A page flows fetch → rewrite → (extract → normalize) → render; each stage
// is a small interface so the CLI and the HTTP service can share them.
package core

import "context"

// FetchResult holds the raw HTML and response metadata from a fetch.
type FetchResult struct {
	URL         string // requested URL
	FinalURL    string // URL after redirects
	StatusCode  int
	ContentType string
	HTML        string
}

// RewriteStats summarises what a rewrite changed.
type RewriteStats struct {
	TextNodes      int  `json:"text_nodes"`
	RewrittenNodes int  `json:"rewritten_nodes"`
	Replacements   int  `json:"replacements"`
	TitleRewritten bool `json:"title_rewritten"`
}

// RewriteResult is a rewritten page, serialised.
type RewriteResult struct {
	HTML     string
	Title    string
	Language string
	Stats    RewriteStats
}

// PageMetadata holds metadata about a rewritten page.
type PageMetadata struct {
	URL          string `json:"url"`
	Domain       string `json:"domain"`
	Path         string `json:"path"`
	Title        string `json:"title"`
	Language     string `json:"language"`
	FetchedAt    string `json:"fetched_at"` // RFC3339
	Replacements int    `json:"replacements"`
}

// Page is everything a Renderer may need.
type Page struct {
	Meta     PageMetadata
	HTML     string // full rewritten document
	Markdown string // main content as Markdown, empty when not needed
}

// FetchResponse is the JSON envelope returned for a successful fetch.
type FetchResponse struct {
	Success      bool   `json:"success"`
	Content      string `json:"content"`
	Title        string `json:"title"`
	OriginalURL  string `json:"originalUrl"`
	Replacements int    `json:"replacements"`
}

// ErrorResponse is the JSON envelope returned for a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Fetcher retrieves raw HTML from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Rewriter applies the term replacement to an HTML payload.
type Rewriter interface {
	Rewrite(ctx context.Context, html string) (*RewriteResult, error)
}

// Extractor pulls the main content from HTML, stripping noise.
type Extractor interface {
	Extract(html string) (string, error)
}

// Normalizer converts cleaned HTML into Markdown.
type Normalizer interface {
	Normalize(html string) (string, error)
}

// Renderer converts a rewritten page into a final output format.
type Renderer interface {
	Render(page *Page) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".html", ".pdf").
	Extension() string
	// NeedsMarkdown reports whether Page.Markdown must be filled in.
	NeedsMarkdown() bool
}
