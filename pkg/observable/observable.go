// Package observable provides push-based, context-cancelled value
// sequences.
//
// An Observable is a producer function: it pushes values through emit until
// it returns. A nil return means the sequence completed; a non-nil return is
// a terminal error. Cancelling the context passed to the producer
// unsubscribes.
package observable

import (
	"context"
	"errors"
	"time"
)

// ErrUnsubscribed is returned by emit once the subscriber has gone away.
// Producers should stop and return when they see it.
var ErrUnsubscribed = errors.New("observable: unsubscribed")

// Observable is a cold sequence of T. Each subscription runs the producer
// afresh.
type Observable[T any] func(ctx context.Context, emit func(T) error) error

// Observer receives the events of one subscription. Any field may be nil.
type Observer[T any] struct {
	Next     func(T)
	Error    func(error)
	Complete func()
}

// Subscription is a running subscription.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Unsubscribe cancels the producer and waits for it to return.
func (s *Subscription) Unsubscribe() {
	s.cancel()
	<-s.done
}

// Done is closed once the producer has returned.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Subscribe runs obs on its own goroutine and delivers its events to o.
// Events are delivered sequentially. Nothing is delivered after the
// subscription is cancelled; cancellation is not reported as an error.
func Subscribe[T any](ctx context.Context, obs Observable[T], o Observer[T]) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer cancel()

		err := obs(ctx, func(v T) error {
			if ctx.Err() != nil {
				return ErrUnsubscribed
			}
			if o.Next != nil {
				o.Next(v)
			}
			return nil
		})

		if ctx.Err() != nil || errors.Is(err, ErrUnsubscribed) {
			return
		}
		if err != nil {
			if o.Error != nil {
				o.Error(err)
			}
			return
		}
		if o.Complete != nil {
			o.Complete()
		}
	}()

	return sub
}

// Of emits values in order and completes.
func Of[T any](values ...T) Observable[T] {
	return func(ctx context.Context, emit func(T) error) error {
		for _, v := range values {
			if err := emit(v); err != nil {
				return err
			}
		}
		return nil
	}
}

// Empty completes without emitting.
func Empty[T any]() Observable[T] {
	return Of[T]()
}

// Fail terminates immediately with err.
func Fail[T any](err error) Observable[T] {
	return func(context.Context, func(T) error) error {
		return err
	}
}

// FromChannel emits every value received from ch and completes when ch is
// closed.
func FromChannel[T any](ch <-chan T) Observable[T] {
	return func(ctx context.Context, emit func(T) error) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case v, ok := <-ch:
				if !ok {
					return nil
				}
				if err := emit(v); err != nil {
					return err
				}
			}
		}
	}
}

// Poll calls fn immediately and then every interval, emitting each result.
// The first error from fn terminates the sequence.
func Poll[T any](interval time.Duration, fn func(context.Context) (T, error)) Observable[T] {
	return func(ctx context.Context, emit func(T) error) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			v, err := fn(ctx)
			if err != nil {
				return err
			}
			if err := emit(v); err != nil {
				return err
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}
}

// Map transforms every value of src with fn.
func Map[T, U any](src Observable[T], fn func(T) U) Observable[U] {
	return func(ctx context.Context, emit func(U) error) error {
		return src(ctx, func(v T) error {
			return emit(fn(v))
		})
	}
}
