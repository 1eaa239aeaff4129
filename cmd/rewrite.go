// Rewrite command: the page pipeline
// fetch → rewrite → (extract → normalize) → render → write,
// for a single URL (--only, the default) or a whole site (--all).

package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/gaurav-prasanna/faleproxy/core"
	"github.com/gaurav-prasanna/faleproxy/core/extract"
	"github.com/gaurav-prasanna/faleproxy/core/fetch"
	"github.com/gaurav-prasanna/faleproxy/core/normalize"
	"github.com/gaurav-prasanna/faleproxy/core/output"
	"github.com/gaurav-prasanna/faleproxy/core/render"
	"github.com/gaurav-prasanna/faleproxy/core/rewrite"
	"github.com/gaurav-prasanna/faleproxy/crawl"
)

// Flag variables.
var (
	flagOnly      bool
	flagAll       bool
	flagHTML      bool
	flagMarkdown  bool
	flagJSON      bool
	flagPDF       bool
	flagOutputDir string
	flagMaxPages  int
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <url>",
	Short: "Rewrite a page (or a whole site) to disk",
	Long: `Rewrite fetches a page, replaces the target term in its text and title,
and writes the result as HTML (default), Markdown, JSON or PDF.

Examples:
  faleproxy rewrite https://www.yale.edu
  faleproxy rewrite https://www.yale.edu --markdown --output_dir ./out
  faleproxy rewrite https://www.yale.edu --all --pdf
  faleproxy rewrite https://www.yale.edu --target Harvard --replacement Carvard --json`,
	Args: cobra.ExactArgs(1),
	RunE: runRewrite,
}

func init() {
	rootCmd.AddCommand(rewriteCmd)

	rewriteCmd.Flags().BoolVar(&flagOnly, "only", false, "Rewrite only the given URL (default)")
	rewriteCmd.Flags().BoolVar(&flagAll, "all", false, "Rewrite every discovered page of the site")

	rewriteCmd.Flags().BoolVar(&flagHTML, "html", false, "Output the rewritten HTML document (default)")
	rewriteCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Output the main content as Markdown")
	rewriteCmd.Flags().BoolVar(&flagJSON, "json", false, "Output the /fetch JSON envelope")
	rewriteCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Output PDF")

	rewriteCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: current directory)")
	rewriteCmd.Flags().IntVar(&flagMaxPages, "max_pages", 0, "Page limit for --all (default from config, 100)")
}

func runRewrite(cmd *cobra.Command, args []string) error {
	rawURL := args[0]

	if err := validateFlags(); err != nil {
		return err
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return errors.Errorf("invalid URL: %s (must be absolute http(s), e.g. https://www.yale.edu)", rawURL)
	}

	writer, err := output.New(flagOutputDir)
	if err != nil {
		return errors.Errorf("initializing output writer: %w", err)
	}

	p := &pipeline{
		fetcher:   newFetcher(nil),
		rewriter:  rewrite.New(cfg.Terms, nil),
		extractor: extract.New(),
		renderer:  selectRenderer(),
	}

	out := cmd.OutOrStdout()
	if flagAll {
		maxPages := cfg.Crawl.MaxPages
		if flagMaxPages > 0 {
			maxPages = flagMaxPages
		}
		return runAll(cmd.Context(), out, rawURL, maxPages, p, writer)
	}
	return runOnly(cmd.Context(), out, rawURL, p, writer)
}

// runOnly rewrites a single URL.
func runOnly(ctx context.Context, out io.Writer, rawURL string, p *pipeline, writer *output.Writer) error {
	data, err := p.process(ctx, rawURL)
	if err != nil {
		return err
	}
	path, err := writer.WritePage(rawURL, data, p.renderer.Extension())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Written: %s\n", path)
	return nil
}

// runAll discovers the site's pages and rewrites each, mirroring URL paths.
// Pages fetched during discovery are reused rather than fetched again.
// Individual page failures are reported and skipped.
func runAll(ctx context.Context, out io.Writer, rawURL string, maxPages int, p *pipeline, writer *output.Writer) error {
	fmt.Fprintf(out, "Discovering pages from %s...\n", rawURL)

	site := *p
	site.fetcher = fetch.NewCache(p.fetcher)
	p = &site

	urls, err := crawl.DiscoverAll(ctx, rawURL, p.fetcher, maxPages)
	if err != nil {
		return errors.Errorf("discovering pages: %w", err)
	}
	fmt.Fprintf(out, "Found %d pages to process\n", len(urls))

	var failed int
	for i, pageURL := range urls {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintf(out, "[%d/%d] Processing %s\n", i+1, len(urls), pageURL)

		data, err := p.process(ctx, pageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ✗ Error: %v\n", err)
			failed++
			continue
		}
		path, err := writer.WriteSite(pageURL, data, p.renderer.Extension())
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ✗ Write error: %v\n", err)
			failed++
			continue
		}
		fmt.Fprintf(out, "  ✓ Written: %s\n", path)
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "\n%d/%d pages failed\n", failed, len(urls))
	}
	if failed == len(urls) {
		return errors.New("no pages were written")
	}
	return nil
}

// pipeline holds one run's stages.
type pipeline struct {
	fetcher   core.Fetcher
	rewriter  core.Rewriter
	extractor core.Extractor
	renderer  core.Renderer
}

// process runs a single URL through the pipeline and returns the rendered bytes.
func (p *pipeline) process(ctx context.Context, rawURL string) ([]byte, error) {
	fetched, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, errors.Errorf("fetch: %w", err)
	}

	rewritten, err := p.rewriter.Rewrite(ctx, fetched.HTML)
	if err != nil {
		return nil, errors.Errorf("rewrite: %w", err)
	}

	page := &core.Page{
		Meta: buildMetadata(rawURL, rewritten),
		HTML: rewritten.HTML,
	}

	if p.renderer.NeedsMarkdown() {
		content, err := p.extractor.Extract(rewritten.HTML)
		if err != nil {
			return nil, errors.Errorf("extract: %w", err)
		}
		var normalizer core.Normalizer = normalize.New(origin(fetched.FinalURL, rawURL))
		page.Markdown, err = normalizer.Normalize(content)
		if err != nil {
			return nil, errors.Errorf("normalize: %w", err)
		}
	}

	data, err := p.renderer.Render(page)
	if err != nil {
		return nil, errors.Errorf("render: %w", err)
	}
	return data, nil
}

// buildMetadata constructs PageMetadata from the URL and the rewrite result.
func buildMetadata(rawURL string, res *core.RewriteResult) core.PageMetadata {
	meta := core.PageMetadata{
		URL:          rawURL,
		Title:        res.Title,
		Language:     res.Language,
		FetchedAt:    time.Now().UTC().Format(time.RFC3339),
		Replacements: res.Stats.Replacements,
	}
	if u, err := url.Parse(rawURL); err == nil {
		meta.Domain = u.Host
		meta.Path = u.Path
	}
	return meta
}

// origin returns scheme://host of the first parseable absolute URL.
func origin(candidates ...string) string {
	for _, c := range candidates {
		if u, err := url.Parse(c); err == nil && u.Host != "" {
			return u.Scheme + "://" + u.Host
		}
	}
	return ""
}

// validateFlags checks that at most one output format is chosen and that
// --only and --all are not both given.
func validateFlags() error {
	if flagOnly && flagAll {
		return errors.New("--only and --all are mutually exclusive")
	}

	formats := 0
	for _, set := range []bool{flagHTML, flagMarkdown, flagJSON, flagPDF} {
		if set {
			formats++
		}
	}
	if formats > 1 {
		return errors.Errorf("only one output format allowed per run (got %d)", formats)
	}
	return nil
}

// selectRenderer picks the renderer for the chosen format, HTML when none is set.
func selectRenderer() core.Renderer {
	switch {
	case flagMarkdown:
		return render.NewMarkdownRenderer()
	case flagJSON:
		return render.NewJSONRenderer()
	case flagPDF:
		return render.NewPDFRenderer()
	default:
		return render.NewHTMLRenderer()
	}
}
