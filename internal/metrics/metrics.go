package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

// Metrics owns the service collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	replies          *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	streamFragments  prometheus.Counter
}

// New creates the collectors on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "neuranest_replies_total",
			Help: "Replies returned, by source (ai, rules, degraded)",
		}, []string{"source"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "neuranest_upstream_requests_total",
			Help: "Upstream model calls, by outcome (ok, error)",
		}, []string{"outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "neuranest_upstream_duration_seconds",
			Help:    "Duration of upstream model calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60, 120},
		}, []string{"mode"}),
		streamFragments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "neuranest_stream_fragments_total",
			Help: "Text fragments relayed to streaming clients",
		}),
	}

	m.registry.MustRegister(m.replies, m.upstreamRequests, m.upstreamDuration, m.streamFragments)
	return m
}

// IncReply counts one reply by source.
func (m *Metrics) IncReply(source string) {
	m.replies.WithLabelValues(source).Inc()
}

// ObserveUpstream records one upstream call. mode is "complete" or "stream".
func (m *Metrics) ObserveUpstream(mode string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstreamRequests.WithLabelValues(outcome).Inc()
	m.upstreamDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}

// IncFragment counts one relayed stream fragment.
func (m *Metrics) IncFragment() {
	m.streamFragments.Inc()
}

// Registry exposes the registry for scraping and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Module provides the service metrics
func Module() fx.Option {
	return fx.Module(
		"metrics",
		fx.Provide(
			New,
		),
	)
}
