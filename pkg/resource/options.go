package resource

import (
	"context"
	"log/slog"
	"time"
)

// Option configures a resource at construction.
type Option func(*settings)

type settings struct {
	name       string
	logger     *slog.Logger
	baseCtx    context.Context
	retryCount int
	retryDelay time.Duration
	middleware []Middleware

	// Typed callbacks are stored untyped because Option is not generic;
	// New checks them against the resource's value type.
	onSuccess any
	onError   func(error)
	equal     any
}

func defaultSettings() settings {
	return settings{
		name:    "anonymous",
		logger:  slog.Default(),
		baseCtx: context.Background(),
	}
}

// WithName names the resource in logs, metrics and traces.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithContext sets the parent context of every load. Cancelling it cancels
// loads in flight; later loads fail immediately with the context's error.
func WithContext(ctx context.Context) Option {
	return func(s *settings) {
		if ctx != nil {
			s.baseCtx = ctx
		}
	}
}

// WithRetry retries a failing load up to count more times, waiting delay
// between attempts. Streams are retried only when opening them fails. A
// negative count means no retries.
func WithRetry(count int, delay time.Duration) Option {
	return func(s *settings) {
		s.retryCount = max(count, 0)
		s.retryDelay = delay
	}
}

// WithMiddleware appends load middleware. The first middleware is the
// outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(s *settings) {
		s.middleware = append(s.middleware, mw...)
	}
}

// WithOnSuccess registers a callback for every value a load produces.
// T must match the resource's value type.
func WithOnSuccess[T any](fn func(T)) Option {
	return func(s *settings) {
		s.onSuccess = fn
	}
}

// WithOnError registers a callback for load failures.
func WithOnError(fn func(error)) Option {
	return func(s *settings) {
		s.onError = fn
	}
}

// WithEqual overrides how successive values are compared. A value equal to
// the current one does not notify dependants.
func WithEqual[T any](fn func(a, b T) bool) Option {
	return func(s *settings) {
		s.equal = fn
	}
}
