// Package resource provides reactive async data containers.
//
// A Resource is driven by a request producer. The producer is read under
// dependency tracking, so whenever a signal it reads changes the resource
// cancels any load in flight and starts a new one for the new request.
//
//	query := reactive.NewSignal("logs/")
//	objects, err := resource.New(resource.Options[string, []catalog.Object]{
//	    Request: query.Get,
//	    Loader: func(ctx context.Context, p resource.LoaderParams[string]) ([]catalog.Object, error) {
//	        return lister.List(ctx, p.Request, 50)
//	    },
//	})
//
//	return objects.Match(
//	    resource.OnLoading[[]catalog.Object](func() *vdom.VNode { return Spinner() }),
//	    resource.OnError[[]catalog.Object](func(err error) *vdom.VNode { return Failure(err) }),
//	    resource.OnReady(func(objs []catalog.Object) *vdom.VNode { return List(objs) }),
//	)
//
// Three data sources are supported: a Loader producing one value, a
// StreamLoader producing a sequence of values over a channel, and (through
// FromObservable) an observable.Observable.
//
// # Lifecycle
//
// The resource's driving effect belongs to the owner that is current when
// the resource is created. Disposing that owner, or calling Destroy, cancels
// the load in flight.
//
// # Middleware
//
// Every load attempt runs through the configured Middleware chain, which is
// how metrics and tracing are attached (see package instrument). Wrappers
// that short-circuit a load mark it with InfoFromContext(ctx).Gated.
package resource
