package resource

import (
	"context"
	stderrors "errors"

	"github.com/vango-dev/gated/internal/errors"
	"github.com/vango-dev/gated/pkg/observable"
)

// ObservableLoader returns the observable to subscribe to for a request.
type ObservableLoader[R, T any] func(p LoaderParams[R]) observable.Observable[T]

// ObservableOptions configures FromObservable.
type ObservableOptions[R, T any] struct {
	Request      func() R
	Loader       ObservableLoader[R, T]
	DefaultValue T
}

// FromObservable creates a resource fed by an observable. Every emitted
// value is surfaced; a terminal error moves the resource to Error. The
// subscription is cancelled when the request changes or the resource is
// destroyed.
func FromObservable[R, T any](opts ObservableOptions[R, T], options ...Option) (*Resource[T], error) {
	if opts.Loader == nil {
		return nil, errors.New(errors.CodeInvalidOptions).
			WithDetail("an observable resource needs a Loader")
	}
	return New(Options[R, T]{
		Request:      opts.Request,
		DefaultValue: opts.DefaultValue,
		Stream:       ObservableStream(opts.Loader),
	}, options...)
}

// ObservableStream adapts an observable factory to a StreamLoader.
func ObservableStream[R, T any](load ObservableLoader[R, T]) StreamLoader[R, T] {
	return func(ctx context.Context, p LoaderParams[R]) (<-chan Result[T], error) {
		obs := load(p)
		ch := make(chan Result[T])

		go func() {
			defer close(ch)
			err := obs(ctx, func(v T) error {
				select {
				case ch <- Result[T]{Value: v}:
					return nil
				case <-ctx.Done():
					return observable.ErrUnsubscribed
				}
			})
			if err == nil || ctx.Err() != nil || stderrors.Is(err, observable.ErrUnsubscribed) {
				return
			}
			select {
			case ch <- Result[T]{Err: err}:
			case <-ctx.Done():
			}
		}()
		return ch, nil
	}
}
