// Package fetch implements the Fetcher interface.
// It performs HTTP GET requests with a timeout, a body size cap and retries
// for transient upstream failures.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/gaurav-prasanna/faleproxy/core"
	"github.com/gaurav-prasanna/faleproxy/internal/metrics"
	"github.com/gaurav-prasanna/faleproxy/internal/retry"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultUserAgent    = "faleproxy/1.0 (+https://github.com/gaurav-prasanna/faleproxy)"
	defaultMaxBodyBytes = 10 << 20
)

// ErrBodyTooLarge is returned when a response exceeds Options.MaxBodyBytes.
var ErrBodyTooLarge = errors.Base("response body too large")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// Options configures an HTTPFetcher. Zero values fall back to defaults.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	Retry        retry.Policy
	Recorder     metrics.Recorder
	Client       *http.Client // overrides Timeout when set
}

// HTTPFetcher fetches web pages via HTTP.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
	policy    retry.Policy
	recorder  metrics.Recorder
	sleep     func(ctx context.Context, d time.Duration) error
}

// New creates an HTTPFetcher.
func New(opts Options) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.Retry.Validate() != nil {
		opts.Retry = retry.DefaultPolicy()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPFetcher{
		client:    client,
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
		policy:    opts.Retry,
		recorder:  opts.Recorder,
		sleep:     sleepContext,
	}
}

// Fetch retrieves the HTML content of the given URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*core.FetchResult, error) {
	logger := zerolog.Ctx(ctx)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	var result *core.FetchResult
	for attempt := 0; ; attempt++ {
		result, err = f.fetchOnce(req)
		if err == nil || attempt >= f.policy.MaxRetries || ctx.Err() != nil || !isTransient(err) {
			break
		}
		delay := f.policy.Delay(attempt + 1)
		logger.Warn().Err(err).Str("url", url).Int("retry", attempt+1).Dur("delay", delay).Msg("retrying fetch")
		f.recorder.IncFetchRetry()
		if serr := f.sleep(ctx, delay); serr != nil {
			err = errors.Errorf("fetching %s: %w", url, serr)
			break
		}
	}

	f.recorder.ObserveFetchDuration(time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("url", url).Int("status", result.StatusCode).Int("bytes", len(result.HTML)).Msg("fetched page")
	return result, nil
}

func (f *HTTPFetcher) fetchOnce(req *http.Request) (*core.FetchResult, error) {
	url := req.URL.String()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, errors.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, errors.Errorf("%s exceeds %d bytes: %w", url, f.maxBody, ErrBodyTooLarge)
	}

	contentType := resp.Header.Get("Content-Type")
	body, err = toUTF8(body, contentType)
	if err != nil {
		return nil, errors.Errorf("decoding %s: %w", url, err)
	}

	return &core.FetchResult{
		URL:         url,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		HTML:        string(body),
	}, nil
}

// toUTF8 converts body to UTF-8 using the Content-Type charset, a BOM or a
// <meta charset> declaration. Bodies already in UTF-8 are returned as-is.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" {
		return body, nil
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// isTransient reports whether another attempt may succeed: transport
// errors, 429 and 5xx responses.
func isTransient(err error) bool {
	if errors.Is(err, ErrBodyTooLarge) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
