package reactive

import (
	"sync"
	"sync/atomic"
)

// Effect is a side effect that re-runs whenever a signal it read during its
// last run changes.
type Effect struct {
	id    uint64
	fn    func() Cleanup
	owner *Owner

	// runMu serialises runs; cleanup is only touched under it.
	runMu   sync.Mutex
	cleanup Cleanup

	sourcesMu sync.Mutex
	sources   []*source

	pending  atomic.Bool
	running  atomic.Bool
	disposed atomic.Bool
}

// CreateEffect creates an effect owned by the current owner and runs it once
// immediately.
//
//	reactive.CreateEffect(func() reactive.Cleanup {
//	    ctx, cancel := context.WithCancel(context.Background())
//	    go load(ctx, request.Get())
//	    return cancel
//	})
func CreateEffect(fn func() Cleanup) *Effect {
	e := &Effect{
		id:    nextID(),
		fn:    fn,
		owner: CurrentOwner(),
	}
	if e.owner != nil {
		e.owner.registerEffect(e)
	}

	e.pending.Store(true)
	e.drain()
	return e
}

// ID implements Listener.
func (e *Effect) ID() uint64 { return e.id }

// MarkDirty implements Listener. Owned effects are queued on their owner;
// unowned effects re-run on the calling goroutine.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}
	if !e.pending.CompareAndSwap(false, true) {
		return
	}
	if e.owner != nil {
		e.owner.scheduleEffect(e)
		return
	}
	e.drain()
}

// drain runs the effect until no further change is pending. Only one
// goroutine drains at a time; a concurrent MarkDirty leaves the pending flag
// for the active drainer to pick up.
func (e *Effect) drain() {
	for {
		if !e.running.CompareAndSwap(false, true) {
			return
		}
		for e.pending.Load() && !e.disposed.Load() {
			e.run()
		}
		e.running.Store(false)

		if !e.pending.Load() || e.disposed.Load() {
			return
		}
	}
}

func (e *Effect) run() {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	e.pending.Store(false)

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
	e.clearSources()

	WithListener(e, func() {
		e.cleanup = e.fn()
	})
}

func (e *Effect) addSource(s *source) {
	e.sourcesMu.Lock()
	defer e.sourcesMu.Unlock()
	for _, existing := range e.sources {
		if existing == s {
			return
		}
	}
	e.sources = append(e.sources, s)
}

func (e *Effect) clearSources() {
	e.sourcesMu.Lock()
	sources := e.sources
	e.sources = nil
	e.sourcesMu.Unlock()

	for _, s := range sources {
		s.unsubscribe(e)
	}
}

// Dispose runs the last cleanup and unsubscribes the effect from all of its
// sources. It is safe to call more than once.
func (e *Effect) Dispose() {
	if e.disposed.Swap(true) {
		return
	}

	e.runMu.Lock()
	cleanup := e.cleanup
	e.cleanup = nil
	e.runMu.Unlock()

	if cleanup != nil {
		cleanup()
	}
	e.clearSources()
}

// Disposed reports whether Dispose has been called.
func (e *Effect) Disposed() bool {
	return e.disposed.Load()
}

// OnCleanup registers fn with the current owner. With no current owner fn
// is never called.
func OnCleanup(fn func()) {
	if o := CurrentOwner(); o != nil {
		o.OnCleanup(fn)
	}
}
