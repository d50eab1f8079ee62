package store

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/taskboard/client-go/internal/metrics"
)

type options struct {
	ttl     time.Duration
	now     func() time.Time
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// Option configures a store.
type Option func(*options)

// WithTTL sets the staleness window.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithClock replaces the time source, used by tests to advance a
// simulated clock.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the store logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics wires cache hit/miss counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func applyOptions(opts []Option) options {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
