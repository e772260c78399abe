package reactive

import (
	"sync"
	"sync/atomic"
)

// Owner is a disposal scope for effects, cleanups and child owners. Owners
// form a tree mirroring the component tree; disposing one disposes its whole
// subtree.
type Owner struct {
	id     uint64
	parent *Owner

	mu       sync.Mutex
	children []*Owner
	effects  []*Effect
	cleanups []func()
	pending  []*Effect

	disposed atomic.Bool
}

// NewOwner creates an owner registered as a child of parent. A nil parent
// creates a root owner.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{id: nextID(), parent: parent}
	if parent != nil {
		parent.mu.Lock()
		parent.children = append(parent.children, o)
		parent.mu.Unlock()
	}
	return o
}

// ID returns the owner's unique identifier.
func (o *Owner) ID() uint64 { return o.id }

// Parent returns the parent owner, nil for roots.
func (o *Owner) Parent() *Owner { return o.parent }

// IsDisposed reports whether Dispose has run.
func (o *Owner) IsDisposed() bool { return o.disposed.Load() }

func (o *Owner) registerEffect(e *Effect) {
	if o.disposed.Load() {
		return
	}
	o.mu.Lock()
	o.effects = append(o.effects, e)
	o.mu.Unlock()
}

func (o *Owner) scheduleEffect(e *Effect) {
	if o.disposed.Load() {
		return
	}
	o.mu.Lock()
	o.pending = append(o.pending, e)
	o.mu.Unlock()
}

// OnCleanup registers fn to run when the owner is disposed. If the owner is
// already disposed fn runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed.Load() {
		fn()
		return
	}
	o.mu.Lock()
	o.cleanups = append(o.cleanups, fn)
	o.mu.Unlock()
}

// RunPendingEffects runs every effect queued on this owner and its
// descendants. Effects that become dirty while running are queued again and
// picked up by the next call.
func (o *Owner) RunPendingEffects() {
	if o.disposed.Load() {
		return
	}

	o.mu.Lock()
	queued := o.pending
	o.pending = nil
	children := append([]*Owner(nil), o.children...)
	o.mu.Unlock()

	for _, e := range queued {
		if e.pending.Load() {
			e.drain()
		}
	}
	for _, child := range children {
		child.RunPendingEffects()
	}
}

// HasPendingEffects reports whether this owner or any descendant has queued
// effects.
func (o *Owner) HasPendingEffects() bool {
	if o.disposed.Load() {
		return false
	}

	o.mu.Lock()
	has := len(o.pending) > 0
	children := append([]*Owner(nil), o.children...)
	o.mu.Unlock()

	if has {
		return true
	}
	for _, child := range children {
		if child.HasPendingEffects() {
			return true
		}
	}
	return false
}

// Dispose disposes children (last created first), then effects, then runs
// cleanups in reverse registration order.
func (o *Owner) Dispose() {
	if o.disposed.Swap(true) {
		return
	}

	if p := o.parent; p != nil {
		p.mu.Lock()
		for i, c := range p.children {
			if c == o {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
		p.mu.Unlock()
	}

	o.mu.Lock()
	children := o.children
	effects := o.effects
	cleanups := o.cleanups
	o.children, o.effects, o.cleanups, o.pending = nil, nil, nil, nil
	o.mu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}
	for _, e := range effects {
		e.Dispose()
	}
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}
