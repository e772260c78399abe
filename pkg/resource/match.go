package resource

import "github.com/vango-dev/gated/pkg/vdom"

// Handler renders a resource in one or more states.
type Handler[T any] interface {
	handle(r *Resource[T], s State) (*vdom.VNode, bool)
}

type handlerFunc[T any] func(r *Resource[T], s State) (*vdom.VNode, bool)

func (f handlerFunc[T]) handle(r *Resource[T], s State) (*vdom.VNode, bool) { return f(r, s) }

// Match renders the first handler that accepts the current state. The state
// is read once, so every handler sees the same snapshot. Returns nil if no
// handler matches.
func (r *Resource[T]) Match(handlers ...Handler[T]) *vdom.VNode {
	s := r.State()
	for _, h := range handlers {
		if node, ok := h.handle(r, s); ok {
			return node
		}
	}
	return nil
}

// OnPending handles the Pending state.
func OnPending[T any](fn func() *vdom.VNode) Handler[T] {
	return handlerFunc[T](func(_ *Resource[T], s State) (*vdom.VNode, bool) {
		if s != Pending {
			return nil, false
		}
		return fn(), true
	})
}

// OnLoading handles Loading and Reloading.
func OnLoading[T any](fn func() *vdom.VNode) Handler[T] {
	return handlerFunc[T](func(_ *Resource[T], s State) (*vdom.VNode, bool) {
		if s != Loading && s != Reloading {
			return nil, false
		}
		return fn(), true
	})
}

// OnLoadingOrPending handles every busy state.
func OnLoadingOrPending[T any](fn func() *vdom.VNode) Handler[T] {
	return handlerFunc[T](func(_ *Resource[T], s State) (*vdom.VNode, bool) {
		if !s.Busy() {
			return nil, false
		}
		return fn(), true
	})
}

// OnError handles the Error state.
func OnError[T any](fn func(error) *vdom.VNode) Handler[T] {
	return handlerFunc[T](func(r *Resource[T], s State) (*vdom.VNode, bool) {
		if s != Error {
			return nil, false
		}
		return fn(r.Error()), true
	})
}

// OnReady handles Ready and Local.
func OnReady[T any](fn func(T) *vdom.VNode) Handler[T] {
	return handlerFunc[T](func(r *Resource[T], s State) (*vdom.VNode, bool) {
		if s != Ready && s != Local {
			return nil, false
		}
		return fn(r.Value()), true
	})
}

// OnLocal handles only the Local state. List it before OnReady to render
// local edits differently.
func OnLocal[T any](fn func(T) *vdom.VNode) Handler[T] {
	return handlerFunc[T](func(r *Resource[T], s State) (*vdom.VNode, bool) {
		if s != Local {
			return nil, false
		}
		return fn(r.Value()), true
	})
}
