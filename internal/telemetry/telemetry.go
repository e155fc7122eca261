package telemetry

import (
	"fmt"
	"strings"
	"time"
)

// Metric names. Tags are "key:value" strings.
const (
	MetricRequests   = "piicleaner.requests"
	MetricDetections = "piicleaner.detections"
	MetricLatency    = "piicleaner.latency"
)

// Provider is a metrics sink.
type Provider interface {
	Incr(name string, tags []string, rate float64)
	Timing(name string, value time.Duration, tags []string, rate float64)
}

// Nop discards every metric.
type Nop struct{}

func (Nop) Incr(string, []string, float64)                 {}
func (Nop) Timing(string, time.Duration, []string, float64) {}

// Config selects and configures a provider.
type Config struct {
	Provider   string
	StatsdAddr string
}

// New builds the provider named by cfg.Provider: "none", "statsd" or
// "prometheus".
func New(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "", "none":
		return Nop{}, nil
	case "statsd":
		return NewStatsd(cfg.StatsdAddr)
	case "prometheus":
		return NewPrometheus(), nil
	default:
		return nil, fmt.Errorf("unsupported telemetry provider %q", cfg.Provider)
	}
}

// Tag formats a statsd-style tag.
func Tag(key, value string) string {
	return key + ":" + value
}

// tagValue returns the value of the first tag with key, or "".
func tagValue(tags []string, key string) string {
	for _, t := range tags {
		if k, v, ok := strings.Cut(t, ":"); ok && k == key {
			return v
		}
	}
	return ""
}
