// Package gated provides the public API for gated reactive resources: a
// resource whose loader, stream or observable only runs while a filter
// accepts the current request.
//
// This is the recommended import for most applications:
//
//	import "github.com/vango-dev/gated"
//
// Usage:
//
//	query := gated.NewSignal("")
//	results, err := gated.Resource(gated.Options[string, []Item]{
//	    Request:      query.Get,
//	    Filter:       gated.MinLength(3),
//	    Loader:       search,
//	    DefaultValue: nil,
//	})
package gated

import (
	"github.com/vango-dev/gated/pkg/gate"
	"github.com/vango-dev/gated/pkg/reactive"
	"github.com/vango-dev/gated/pkg/resource"
)

// =============================================================================
// Gated resources (re-export from pkg/gate)
// =============================================================================

// Filter decides whether a request may reach the loader.
type Filter[R any] = gate.Filter[R]

// Options configures a gated loader or stream resource.
type Options[R, T any] = gate.Options[R, T]

// ObservableOptions configures a gated observable resource.
type ObservableOptions[R, T any] = gate.ObservableOptions[R, T]

// Resource creates a loader or stream resource that returns DefaultValue
// without loading while Filter rejects the request.
func Resource[R, T any](opts Options[R, T], options ...Option) (*resource.Resource[T], error) {
	return gate.Resource(opts, options...)
}

// ObservableResource is Resource for observable factories.
func ObservableResource[R, T any](opts ObservableOptions[R, T], options ...Option) (*resource.Resource[T], error) {
	return gate.ObservableResource(opts, options...)
}

// MinLength accepts strings of at least n runes after trimming spaces.
func MinLength(n int) Filter[string] {
	return gate.MinLength(n)
}

// =============================================================================
// Resource types (re-export from pkg/resource)
// =============================================================================

// State is the lifecycle state of a resource.
type State = resource.State

// State constants.
const (
	Pending   State = resource.Pending
	Loading   State = resource.Loading
	Reloading State = resource.Reloading
	Ready     State = resource.Ready
	Error     State = resource.Error
	Local     State = resource.Local
)

// LoaderParams is passed to loaders and streams.
type LoaderParams[R any] = resource.LoaderParams[R]

// Result is one item of a stream.
type Result[T any] = resource.Result[T]

// Option configures a resource.
type Option = resource.Option

// Middleware wraps every load attempt.
type Middleware = resource.Middleware

// Option constructors.
var (
	WithName       = resource.WithName
	WithLogger     = resource.WithLogger
	WithRetry      = resource.WithRetry
	WithMiddleware = resource.WithMiddleware
	WithOnError    = resource.WithOnError
)

// ErrInvalidOptions is returned when a resource is configured with neither
// or both of a loader and a stream.
var ErrInvalidOptions = resource.ErrInvalidOptions

// =============================================================================
// Reactive primitives (re-export from pkg/reactive)
// =============================================================================

// Signal is a reactive value.
type Signal[T any] = reactive.Signal[T]

// Owner scopes effects and resources; disposing it stops them.
type Owner = reactive.Owner

// NewSignal creates a signal holding initial.
func NewSignal[T any](initial T) *Signal[T] {
	return reactive.NewSignal(initial)
}

// NewOwner creates an owner under parent, which may be nil.
func NewOwner(parent *Owner) *Owner {
	return reactive.NewOwner(parent)
}

// WithOwner runs fn with o as the current owner.
func WithOwner(o *Owner, fn func()) {
	reactive.WithOwner(o, fn)
}

// Batch defers notifications until fn returns.
func Batch(fn func()) {
	reactive.Batch(fn)
}
