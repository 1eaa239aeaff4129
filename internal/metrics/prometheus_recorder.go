package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "faleproxy"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg             *prom.Registry
	fetchDuration   *prom.HistogramVec
	fetchRetries    prom.Counter
	rewriteDuration prom.Histogram
	replacements    prom.Counter
	rewrittenNodes  prom.Counter
	httpRequests    *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of upstream page fetches",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		fetchRetries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Upstream fetch retries after transient failures",
		}),
		rewriteDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "rewrite_duration_seconds",
			Help:      "Duration of document parse, rewrite and serialization",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		replacements: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "replacements_total",
			Help:      "Term occurrences replaced",
		}),
		rewrittenNodes: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rewritten_text_nodes_total",
			Help:      "Text nodes whose content changed",
		}),
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "status"}),
	}
	reg.MustRegister(pr.fetchDuration, pr.fetchRetries, pr.rewriteDuration, pr.replacements, pr.rewrittenNodes, pr.httpRequests)
	return pr
}

func (p *PrometheusRecorder) ObserveFetchDuration(d time.Duration, success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.fetchDuration.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncFetchRetry() {
	if p == nil {
		return
	}
	p.fetchRetries.Inc()
}

func (p *PrometheusRecorder) ObserveRewrite(d time.Duration, rewrittenNodes, replacements int) {
	if p == nil {
		return
	}
	p.rewriteDuration.Observe(d.Seconds())
	p.rewrittenNodes.Add(float64(rewrittenNodes))
	p.replacements.Add(float64(replacements))
}

func (p *PrometheusRecorder) IncHTTPRequest(route string, status int) {
	if p == nil {
		return
	}
	p.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
