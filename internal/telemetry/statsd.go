package telemetry

import (
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// Statsd sends metrics to a DogStatsD agent.
type Statsd struct {
	client *statsd.Client
}

// NewStatsd connects to addr, for example "127.0.0.1:8125".
func NewStatsd(addr string, opts ...statsd.Option) (*Statsd, error) {
	c, err := statsd.New(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Statsd{client: c}, nil
}

func (s *Statsd) Incr(name string, tags []string, rate float64) {
	if s != nil {
		_ = s.client.Incr(name, tags, rate)
	}
}

func (s *Statsd) Timing(name string, value time.Duration, tags []string, rate float64) {
	if s != nil {
		_ = s.client.Timing(name, value, tags, rate)
	}
}

// Flush sends buffered metrics.
func (s *Statsd) Flush() error {
	return s.client.Flush()
}

// Close flushes and closes the connection.
func (s *Statsd) Close() error {
	return s.client.Close()
}
