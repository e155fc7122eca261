package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "piicleaner"

// Prometheus records metrics on its own registry, exposed by Handler.
type Prometheus struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	detections *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// NewPrometheus creates the instruments on a fresh registry.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Prometheus{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		detections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "PII spans reported, by detector.",
		}, []string{"detector"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"route"}),
	}
}

// Incr ignores rate; Prometheus counters are never sampled.
func (p *Prometheus) Incr(name string, tags []string, _ float64) {
	switch name {
	case MetricRequests:
		p.requests.WithLabelValues(tagValue(tags, "route"), tagValue(tags, "status")).Inc()
	case MetricDetections:
		p.detections.WithLabelValues(tagValue(tags, "detector")).Inc()
	}
}

func (p *Prometheus) Timing(name string, value time.Duration, tags []string, _ float64) {
	if name == MetricLatency {
		p.latency.WithLabelValues(tagValue(tags, "route")).Observe(value.Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
