package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
)

// Option defines a functional option for configuring the Harness.
type Option func(*Harness)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithWorkers sets the number of plans executed concurrently. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(h *Harness) {
		h.workers = max(n, 1)
	}
}

// WithLifecycleHooks registers observability hooks. Multiple calls are merged.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(h *Harness) {
		h.hooks = domain.MergeHooks(h.hooks, hooks)
	}
}

// WithStepTimeout bounds the duration of every event execution.
func WithStepTimeout(d time.Duration) Option {
	return func(h *Harness) {
		h.stepTimeout = d
	}
}
