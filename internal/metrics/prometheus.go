package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry          *prom.Registry
	httpDuration      *prom.HistogramVec
	cacheHits         *prom.CounterVec
	cacheMisses       *prom.CounterVec
	docRenderDuration prom.Histogram
	fulfillments      *prom.CounterVec
	newsletterSignups *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers all site metrics on
// the given registry (a fresh one when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	r := &PrometheusRecorder{registry: reg}
	r.httpDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "site",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration by route and status",
		Buckets:   prom.DefBuckets,
	}, []string{"route", "status"})
	r.cacheHits = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "site",
		Name:      "cache_hits_total",
		Help:      "Cache hits by cache name",
	}, []string{"cache"})
	r.cacheMisses = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "site",
		Name:      "cache_misses_total",
		Help:      "Cache misses by cache name",
	}, []string{"cache"})
	r.docRenderDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "site",
		Name:      "doc_render_duration_seconds",
		Help:      "Duration of markdown document rendering",
		Buckets:   prom.DefBuckets,
	})
	r.fulfillments = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "site",
		Name:      "license_fulfillments_total",
		Help:      "License fulfillment outcomes",
	}, []string{"outcome"})
	r.newsletterSignups = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "site",
		Name:      "newsletter_signups_total",
		Help:      "Newsletter signup outcomes",
	}, []string{"outcome"})

	reg.MustRegister(r.httpDuration, r.cacheHits, r.cacheMisses, r.docRenderDuration, r.fulfillments, r.newsletterSignups)
	return r
}

func (r *PrometheusRecorder) ObserveHTTPRequest(route string, status int, d time.Duration) {
	r.httpDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (r *PrometheusRecorder) ObserveCacheHit(name string)  { r.cacheHits.WithLabelValues(name).Inc() }
func (r *PrometheusRecorder) ObserveCacheMiss(name string) { r.cacheMisses.WithLabelValues(name).Inc() }

func (r *PrometheusRecorder) ObserveDocRender(d time.Duration) {
	r.docRenderDuration.Observe(d.Seconds())
}

func (r *PrometheusRecorder) ObserveFulfillment(outcome string) {
	r.fulfillments.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRecorder) ObserveNewsletterSignup(outcome string) {
	r.newsletterSignups.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry for the /metrics route.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
