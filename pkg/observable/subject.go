package observable

import (
	"context"
	"sync"
)

// Subject is a hot observable: values passed to Next are delivered to every
// current subscriber. Late subscribers receive the most recent value first.
type Subject[T any] struct {
	mu     sync.Mutex
	subs   map[chan T]struct{}
	last   T
	hasVal bool
	closed bool
}

// NewSubject creates an empty subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{subs: make(map[chan T]struct{})}
}

// Next publishes v. Slow subscribers only keep the newest pending value.
func (s *Subject[T]) Next(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.last, s.hasVal = v, true
	for ch := range s.subs {
		offerLatest(ch, v)
	}
}

// offerLatest places v in the single-slot channel, replacing an unread
// value if there is one.
func offerLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// Close completes every current and future subscription.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}

// Observe returns the subject as a cold-subscribable Observable.
func (s *Subject[T]) Observe() Observable[T] {
	return func(ctx context.Context, emit func(T) error) error {
		ch, ok := s.attach()
		if !ok {
			return nil
		}
		defer s.detach(ch)
		return FromChannel(ch)(ctx, emit)
	}
}

func (s *Subject[T]) attach() (chan T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	ch := make(chan T, 1)
	if s.hasVal {
		ch <- s.last
	}
	s.subs[ch] = struct{}{}
	return ch, true
}

func (s *Subject[T]) detach(ch chan T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		return
	}
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
	}
}
