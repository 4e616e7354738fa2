package multicast

import (
	"context"
	"log/slog"
)

// FailureHandler receives failures of dispatched listener calls.
// It may run on any goroutine, including background ones and the main loop.
type FailureHandler func(ctx context.Context, err *DispatchError)

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger. The default logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithFailureHandler sets the hook that receives listener failures.
// Without it, failures are logged at error level through the hub logger.
func WithFailureHandler(fn FailureHandler) Option {
	return func(h *Hub) {
		if fn != nil {
			h.onFailure = fn
		}
	}
}

// WithExecutor sets the main loop executor at construction time, equivalent to calling Init.
func WithExecutor(exec Executor) Option {
	return func(h *Hub) {
		if exec != nil {
			h.executor = exec
		}
	}
}

// WithMaxBackground bounds how many Background calls may run at once.
// Scheduling never blocks: excess calls wait on their own goroutine. Zero means unbounded.
func WithMaxBackground(n int64) Option {
	return func(h *Hub) {
		if n >= 0 {
			h.maxBackground = n
		}
	}
}
