package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/vango-dev/gated/pkg/observable"
)

// Notifier is implemented by listers that can announce changes.
type Notifier interface {
	Changes() observable.Observable[uint64]
}

// DefaultWatchInterval is used by Watch when interval is not positive.
const DefaultWatchInterval = 5 * time.Second

// Watch returns an observable of the Summary for prefix. It emits on
// subscription and then whenever the summary differs from the last one
// emitted, checking every interval. Listers that implement Notifier also
// trigger a check on every change. The first listing error terminates the
// sequence.
func Watch(l Lister, prefix string, interval time.Duration) observable.Observable[Summary] {
	return func(ctx context.Context, emit func(Summary) error) error {
		ctx, cancel := context.WithCancel(ctx)
		var wg sync.WaitGroup
		defer func() {
			cancel()
			wg.Wait()
		}()

		changed := make(chan struct{}, 1)
		if n, ok := l.(Notifier); ok {
			wg.Add(1)
			go func() {
				defer wg.Done()
				n.Changes()(ctx, func(uint64) error {
					select {
					case changed <- struct{}{}:
					default:
					}
					return nil
				})
			}()
		}

		if interval <= 0 {
			interval = DefaultWatchInterval
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last Summary
		first := true
		for {
			s, err := Summarize(ctx, l, prefix)
			if err != nil {
				return err
			}
			if first || !s.Equal(last) {
				if err := emit(s); err != nil {
					return err
				}
				last, first = s, false
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			case <-changed:
			}
		}
	}
}
