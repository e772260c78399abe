package gate

import (
	"context"

	"github.com/vango-dev/gated/internal/errors"
	"github.com/vango-dev/gated/pkg/resource"
)

// Filter reports whether a request should reach the data source.
type Filter[R any] func(R) bool

// Options configures Resource. Exactly one of Loader and Stream must be set.
type Options[R, T any] struct {
	// Request is read under dependency tracking. Every new request is run
	// through Filter again.
	Request func() R

	// Filter gates the data source. A nil Filter accepts every request.
	Filter Filter[R]

	Loader resource.Loader[R, T]
	Stream resource.StreamLoader[R, T]

	// DefaultValue is surfaced before the first load and whenever Filter
	// rejects the request.
	DefaultValue T
}

// ObservableOptions configures ObservableResource.
type ObservableOptions[R, T any] struct {
	Request      func() R
	Filter       Filter[R]
	Loader       resource.ObservableLoader[R, T]
	DefaultValue T
}

// Resource creates a loader or stream resource whose data source only runs
// for requests accepted by opts.Filter.
func Resource[R, T any](opts Options[R, T], options ...resource.Option) (*resource.Resource[T], error) {
	if (opts.Loader == nil) == (opts.Stream == nil) {
		return nil, errors.New(errors.CodeInvalidOptions).
			WithDetail("a gated resource needs exactly one of Loader or Stream")
	}

	ro := resource.Options[R, T]{
		Request:      opts.Request,
		DefaultValue: opts.DefaultValue,
	}
	if opts.Loader != nil {
		ro.Loader = gateLoader(opts.Filter, opts.DefaultValue, opts.Loader)
	} else {
		ro.Stream = gateStream(opts.Filter, opts.DefaultValue, opts.Stream)
	}
	return resource.New(ro, options...)
}

// ObservableResource creates an observable resource that only subscribes for
// requests accepted by opts.Filter.
func ObservableResource[R, T any](opts ObservableOptions[R, T], options ...resource.Option) (*resource.Resource[T], error) {
	if opts.Loader == nil {
		return nil, errors.New(errors.CodeInvalidOptions).
			WithDetail("a gated observable resource needs a Loader")
	}

	return resource.New(resource.Options[R, T]{
		Request:      opts.Request,
		DefaultValue: opts.DefaultValue,
		Stream:       gateStream(opts.Filter, opts.DefaultValue, resource.ObservableStream(opts.Loader)),
	}, options...)
}

// MustResource is like Resource but panics on invalid options.
func MustResource[R, T any](opts Options[R, T], options ...resource.Option) *resource.Resource[T] {
	r, err := Resource(opts, options...)
	if err != nil {
		panic(err)
	}
	return r
}

// MustObservableResource is like ObservableResource but panics on invalid
// options.
func MustObservableResource[R, T any](opts ObservableOptions[R, T], options ...resource.Option) *resource.Resource[T] {
	r, err := ObservableResource(opts, options...)
	if err != nil {
		panic(err)
	}
	return r
}

func gateLoader[R, T any](filter Filter[R], def T, next resource.Loader[R, T]) resource.Loader[R, T] {
	return func(ctx context.Context, p resource.LoaderParams[R]) (T, error) {
		if !allowed(ctx, filter, p.Request) {
			return def, nil
		}
		return next(ctx, p)
	}
}

func gateStream[R, T any](filter Filter[R], def T, next resource.StreamLoader[R, T]) resource.StreamLoader[R, T] {
	return func(ctx context.Context, p resource.LoaderParams[R]) (<-chan resource.Result[T], error) {
		if !allowed(ctx, filter, p.Request) {
			ch := make(chan resource.Result[T], 1)
			ch <- resource.Result[T]{Value: def}
			close(ch)
			return ch, nil
		}
		return next(ctx, p)
	}
}

// allowed runs filter and records a rejection on the load's info so that
// middleware can tell gated loads apart.
func allowed[R any](ctx context.Context, filter Filter[R], req R) bool {
	if filter == nil || filter(req) {
		return true
	}
	if info := resource.InfoFromContext(ctx); info != nil {
		info.Gated = true
	}
	return false
}
