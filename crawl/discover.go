// Package crawl discovers the internal pages of a site for whole-site rewrites.
// Pages come from sitemap.xml when the site publishes one, otherwise from a
// breadth-first walk of same-host links.
package crawl

import (
	"context"
	"encoding/xml"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/gaurav-prasanna/faleproxy/core"
)

// ErrNoPages is returned when discovery yields nothing to process.
var ErrNoPages = errors.Base("no pages discovered")

type sitemapEntry struct {
	Loc string `xml:"loc"`
}

type sitemapURLSet struct {
	URLs []sitemapEntry `xml:"url"`
}

// Discoverer finds the pages of a site through a core.Fetcher, so sitemap
// and page requests share the fetcher's timeouts and retries.
type Discoverer struct {
	fetcher  core.Fetcher
	maxPages int
}

// NewDiscoverer creates a Discoverer. maxPages <= 0 means no limit.
func NewDiscoverer(fetcher core.Fetcher, maxPages int) *Discoverer {
	return &Discoverer{fetcher: fetcher, maxPages: maxPages}
}

// Discover returns the normalized URLs to process for baseURL. A link walk
// starts at baseURL and keeps only pages that could be fetched.
func (d *Discoverer) Discover(ctx context.Context, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Errorf("parsing base URL: %w", err)
	}
	if base.Host == "" {
		return nil, errors.Errorf("base URL %q has no host", baseURL)
	}
	log := zerolog.Ctx(ctx).With().Str("host", base.Host).Logger()

	sitemap := (&url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/sitemap.xml"}).String()
	urls, err := d.fromSitemap(ctx, sitemap, base.Host)
	switch {
	case err != nil:
		log.Debug().Err(err).Msg("sitemap unavailable, walking links")
	case len(urls) > 0:
		log.Info().Int("pages", len(urls)).Msg("discovered pages from sitemap")
		return urls, nil
	}

	urls = d.fromLinks(ctx, baseURL, base.Host)
	if len(urls) == 0 {
		return nil, ErrNoPages
	}
	log.Info().Int("pages", len(urls)).Msg("discovered pages from links")
	return urls, nil
}

func (d *Discoverer) fromSitemap(ctx context.Context, sitemapURL, host string) ([]string, error) {
	result, err := d.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	var set sitemapURLSet
	if err := xml.Unmarshal([]byte(result.HTML), &set); err != nil {
		return nil, errors.Errorf("parsing sitemap: %w", err)
	}

	q := NewQueue()
	for _, entry := range set.URLs {
		loc := strings.TrimSpace(entry.Loc)
		if IsSameHost(loc, host) && !IsStaticAsset(loc) {
			q.Add(NormalizeURL(loc))
		}
		if d.limitReached(q.Len()) {
			break
		}
	}
	return q.All(), nil
}

// fromLinks walks same-host links breadth-first and returns the pages that
// fetched successfully.
func (d *Discoverer) fromLinks(ctx context.Context, startURL, host string) []string {
	log := zerolog.Ctx(ctx)
	q := NewQueue()
	q.Add(NormalizeURL(startURL))

	var pages []string
	for q.HasNext() && !d.limitReached(len(pages)) && ctx.Err() == nil {
		current := q.Next()

		result, err := d.fetcher.Fetch(ctx, current)
		if err != nil {
			log.Warn().Err(err).Str("url", current).Msg("skipping page")
			continue
		}
		pages = append(pages, current)

		links, err := ExtractLinks(result.HTML, current)
		if err != nil {
			log.Warn().Err(err).Str("url", current).Msg("skipping links")
			continue
		}
		for _, link := range links {
			if IsSameHost(link, host) && !IsStaticAsset(link) {
				q.Add(NormalizeURL(link))
			}
		}
	}
	return pages
}

func (d *Discoverer) limitReached(n int) bool {
	return d.maxPages > 0 && n >= d.maxPages
}

// ExtractLinks returns the absolute targets of every <a href> in src,
// resolved against pageURL and stripped of fragments.
func ExtractLinks(src, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, errors.Errorf("parsing page URL: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return nil, errors.Errorf("parsing HTML: %w", err)
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if link := resolve(s.AttrOr("href", ""), base); link != "" {
			links = append(links, link)
		}
	})
	return links, nil
}

func resolve(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

// DiscoverAll is shorthand for NewDiscoverer(fetcher, maxPages).Discover(ctx, baseURL).
func DiscoverAll(ctx context.Context, baseURL string, fetcher core.Fetcher, maxPages int) ([]string, error) {
	return NewDiscoverer(fetcher, maxPages).Discover(ctx, baseURL)
}
