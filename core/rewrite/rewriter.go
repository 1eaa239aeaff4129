package rewrite

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/gaurav-prasanna/faleproxy/core"
	"github.com/gaurav-prasanna/faleproxy/core/replace"
	"github.com/gaurav-prasanna/faleproxy/internal/metrics"
)

// Rewriter parses an HTML payload, runs the Walker over it and serialises
// the result. It implements core.Rewriter.
type Rewriter struct {
	walker   *Walker
	recorder metrics.Recorder
}

// New creates a Rewriter for the given term pair. A nil recorder disables metrics.
func New(pair replace.Pair, recorder metrics.Recorder) *Rewriter {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Rewriter{
		walker:   NewWalker(replace.New(pair)),
		recorder: recorder,
	}
}

// Rewrite returns the rewritten document and its title.
func (r *Rewriter) Rewrite(ctx context.Context, pageHTML string) (*core.RewriteResult, error) {
	start := time.Now()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, errors.Errorf("parsing HTML: %w", err)
	}

	stats := r.walker.Transform(doc)

	out, err := doc.Html()
	if err != nil {
		return nil, errors.Errorf("serializing HTML: %w", err)
	}

	lang, _ := doc.Find("html").First().Attr("lang")
	result := &core.RewriteResult{
		HTML:     out,
		Title:    doc.Find("title").Text(),
		Language: lang,
		Stats:    stats,
	}

	elapsed := time.Since(start)
	r.recorder.ObserveRewrite(elapsed, stats.RewrittenNodes, stats.Replacements)
	zerolog.Ctx(ctx).Debug().
		Int("text_nodes", stats.TextNodes).
		Int("rewritten_nodes", stats.RewrittenNodes).
		Int("replacements", stats.Replacements).
		Bool("title_rewritten", stats.TitleRewritten).
		Dur("duration", elapsed).
		Msg("rewrote document")

	return result, nil
}
