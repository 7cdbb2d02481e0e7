package aks

import (
	"log/slog"

	"github.com/giantswarm/mcp-podfs/internal/instrumentation"
)

// Option configures a Client or a Periscope.
type Option func(*settings)

type settings struct {
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

func newSettings(opts []Option) settings {
	s := settings{logger: slog.Default()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records Azure calls on metrics. A nil value disables recording.
func WithMetrics(metrics *instrumentation.Metrics) Option {
	return func(s *settings) {
		s.metrics = metrics
	}
}
