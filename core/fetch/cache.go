package fetch

import (
	"context"
	"sync"

	"github.com/gaurav-prasanna/faleproxy/core"
)

// Cache wraps a core.Fetcher and remembers successful results. A remembered
// result is handed out once and then forgotten, so a crawl that fetches a
// page during discovery does not fetch it again when processing it.
type Cache struct {
	next  core.Fetcher
	mu    sync.Mutex
	pages map[string]*core.FetchResult
}

// NewCache wraps next.
func NewCache(next core.Fetcher) *Cache {
	return &Cache{next: next, pages: make(map[string]*core.FetchResult)}
}

// Fetch returns the remembered result for url if there is one, otherwise it
// fetches through the wrapped fetcher and remembers the result.
func (c *Cache) Fetch(ctx context.Context, url string) (*core.FetchResult, error) {
	c.mu.Lock()
	res, ok := c.pages[url]
	delete(c.pages, url)
	c.mu.Unlock()
	if ok {
		return res, nil
	}

	res, err := c.next.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.pages[url] = res
	c.mu.Unlock()
	return res, nil
}

// Len is the number of results waiting to be handed out.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}
