package client

import (
	"github.com/uber-go/tally/v4"

	"github.com/capbridge/capbridge/common/capability"
	"github.com/capbridge/capbridge/common/log"
	"github.com/capbridge/capbridge/common/metrics"
)

type (
	options struct {
		logger   log.Logger
		registry *capability.Registry
		metrics  metrics.Handler
	}

	// Option customizes a handle at construction time.
	Option func(*options)
)

func newOptions(opts []Option) options {
	settings := options{
		logger:   log.NewNoopLogger(),
		registry: capability.DefaultRegistry(),
		metrics:  metrics.NoopHandler,
	}
	for _, opt := range opts {
		opt(&settings)
	}
	return settings
}

// WithLogger sets the diagnostics sink. Defaults to a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry sets the interface descriptor registry consulted during
// resolution. Defaults to capability.DefaultRegistry.
func WithRegistry(registry *capability.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithMetricsScope emits client metrics into the given tally scope.
func WithMetricsScope(scope tally.Scope) Option {
	return func(o *options) {
		o.metrics = metrics.NewHandler(scope)
	}
}
