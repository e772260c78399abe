package reactive

import "sync/atomic"

// Listener is anything that can be notified when a dependency changes.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies changed.
	MarkDirty()

	// ID returns a unique identifier used for deduplication.
	ID() uint64
}

// Cleanup is returned by effects. It runs before the effect re-runs and
// when the effect is disposed.
type Cleanup func()

// ListenerFunc adapts a plain function to the Listener interface.
// Each call to NewListenerFunc allocates a fresh ID.
type ListenerFunc struct {
	id uint64
	fn func()
}

// NewListenerFunc returns a Listener that calls fn on every change.
func NewListenerFunc(fn func()) *ListenerFunc {
	return &ListenerFunc{id: nextID(), fn: fn}
}

// MarkDirty implements Listener.
func (l *ListenerFunc) MarkDirty() { l.fn() }

// ID implements Listener.
func (l *ListenerFunc) ID() uint64 { return l.id }

var idCounter uint64

// nextID returns a process-unique, never reused identifier.
func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}
