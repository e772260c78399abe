package resource

import "context"

// LoadInfo describes one load attempt. Middleware may read it before and
// after calling next; wrappers may update it through InfoFromContext.
type LoadInfo struct {
	// Resource is the name given with WithName.
	Resource string

	// Request is the request the load was started for.
	Request any

	// Attempt is 1 for the first try and grows with retries.
	Attempt int

	// Reload is set for loads started by Reload.
	Reload bool

	// Stream is set when the data source is a stream or observable.
	Stream bool

	// Gated is set by wrappers that answered with a default value instead of
	// calling the underlying data source.
	Gated bool
}

// Middleware wraps one load attempt. It must call next exactly once unless
// it decides to fail the attempt itself.
type Middleware func(ctx context.Context, info *LoadInfo, next func(context.Context) error) error

type infoKey struct{}

// InfoFromContext returns the LoadInfo of the attempt running under ctx, or
// nil outside a load.
func InfoFromContext(ctx context.Context) *LoadInfo {
	info, _ := ctx.Value(infoKey{}).(*LoadInfo)
	return info
}

func withInfo(ctx context.Context, info *LoadInfo) context.Context {
	return context.WithValue(ctx, infoKey{}, info)
}

// chain composes mws around final, outermost first.
func chain(mws []Middleware, info *LoadInfo, final func(context.Context) error) func(context.Context) error {
	next := final
	for i := len(mws) - 1; i >= 0; i-- {
		mw, inner := mws[i], next
		next = func(ctx context.Context) error {
			return mw(ctx, info, inner)
		}
	}
	return next
}
