// Package metrics records fetch, rewrite and HTTP metrics.
package metrics

import "time"

// Recorder defines the observability hooks used across faleproxy. Implementations
// may forward to Prometheus; NoopRecorder is used when metrics are not configured.
type Recorder interface {
	ObserveFetchDuration(d time.Duration, success bool)
	IncFetchRetry()
	ObserveRewrite(d time.Duration, rewrittenNodes, replacements int)
	IncHTTPRequest(route string, status int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveFetchDuration(time.Duration, bool) {}
func (NoopRecorder) IncFetchRetry()                           {}
func (NoopRecorder) ObserveRewrite(time.Duration, int, int)   {}
func (NoopRecorder) IncHTTPRequest(string, int)               {}
