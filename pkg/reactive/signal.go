package reactive

import (
	"reflect"
	"sync"
)

// source is the type-erased subscriber list shared by every signal.
type source struct {
	id   uint64
	mu   sync.RWMutex
	subs []Listener
}

func (s *source) subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := l.ID()
	for _, existing := range s.subs {
		if existing.ID() == id {
			return
		}
	}
	s.subs = append(s.subs, l)
}

func (s *source) unsubscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := l.ID()
	for i, existing := range s.subs {
		if existing.ID() == id {
			last := len(s.subs) - 1
			s.subs[i] = s.subs[last]
			s.subs = s.subs[:last]
			return
		}
	}
}

func (s *source) subscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// notify marks every subscriber dirty, or queues them when the calling
// goroutine is inside a Batch. Subscribers are copied first so no lock is
// held while listeners run.
func (s *source) notify() {
	s.mu.RLock()
	subs := make([]Listener, len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	tc := current()
	if tc.batchDepth > 0 {
		tc.pending = append(tc.pending, subs...)
		return
	}
	release()
	for _, l := range subs {
		l.MarkDirty()
	}
}

// track subscribes the current listener, if any, to s.
func (s *source) track() {
	l := currentListener()
	if l == nil {
		return
	}
	s.subscribe(l)
	if st, ok := l.(interface{ addSource(*source) }); ok {
		st.addSource(s)
	}
}

// Signal is a reactive value container.
type Signal[T any] struct {
	src   source
	mu    sync.RWMutex
	value T
	equal func(a, b T) bool
}

// NewSignal creates a signal holding initial.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{
		src:   source{id: nextID()},
		value: initial,
	}
}

// Get returns the current value and subscribes the current listener.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	v := s.value
	s.mu.RUnlock()

	// Track after releasing the value lock; subscribing may call back into
	// listeners that read this signal.
	s.src.track()
	return v
}

// Peek returns the current value without subscribing.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set stores v and notifies subscribers if it differs from the current value.
func (s *Signal[T]) Set(v T) {
	s.Update(func(T) T { return v })
}

// Update replaces the value with fn(current) under the signal's lock.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	next := fn(s.value)
	changed := !s.equals(s.value, next)
	if changed {
		s.value = next
	}
	s.mu.Unlock()

	if changed {
		s.src.notify()
	}
}

// WithEquals overrides the change-detection function.
func (s *Signal[T]) WithEquals(fn func(a, b T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the signal's unique identifier.
func (s *Signal[T]) ID() uint64 {
	return s.src.id
}

// Subscribers reports how many listeners currently depend on the signal.
func (s *Signal[T]) Subscribers() int {
	return s.src.subscriberCount()
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for common comparable kinds and reflect.DeepEqual
// for everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case string:
		return same(av, any(b))
	case bool:
		return same(av, any(b))
	case int:
		return same(av, any(b))
	case int64:
		return same(av, any(b))
	case uint64:
		return same(av, any(b))
	case float64:
		return same(av, any(b))
	case error:
		// Errors compare by identity: a new error with the same message is
		// still a change.
		bv, ok := any(b).(error)
		if !ok || reflect.TypeOf(av) != reflect.TypeOf(bv) {
			return false
		}
		if !reflect.TypeOf(av).Comparable() {
			return false
		}
		return av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}

func same[V comparable](a V, b any) bool {
	bv, ok := b.(V)
	return ok && a == bv
}
