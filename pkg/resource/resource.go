package resource

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/gated/internal/errors"
	"github.com/vango-dev/gated/pkg/reactive"
)

// ErrInvalidOptions matches every configuration error returned by New and
// FromObservable.
var ErrInvalidOptions error = errors.New(errors.CodeInvalidOptions)

// LoaderParams is passed to every data source.
type LoaderParams[R any] struct {
	// Request is the value the request producer returned.
	Request R

	// Previous is the resource state when the load started.
	Previous State
}

// Loader produces a single value for a request.
type Loader[R, T any] func(ctx context.Context, p LoaderParams[R]) (T, error)

// Result is one element of a stream: a value or an error.
type Result[T any] struct {
	Value T
	Err   error
}

// StreamLoader opens a stream of results for a request. The resource reads
// the channel until it is closed or the load's context is cancelled; the
// producer must stop sending once ctx is done.
type StreamLoader[R, T any] func(ctx context.Context, p LoaderParams[R]) (<-chan Result[T], error)

// Options configures New. Exactly one of Loader and Stream must be set.
type Options[R, T any] struct {
	// Request is read under dependency tracking. When nil the resource
	// loads once with the zero request.
	Request func() R

	Loader Loader[R, T]
	Stream StreamLoader[R, T]

	// DefaultValue is the value before the first load completes and while a
	// load for a new request is in flight.
	DefaultValue T
}

// Resource is a reactive async value. All accessors except Snapshot are
// tracked reads.
type Resource[T any] struct {
	settings     settings
	log          *slog.Logger
	defaultValue T
	onSuccess    func(T)

	state *reactive.Signal[State]
	value *reactive.Signal[T]
	err   *reactive.Signal[error]

	mu         sync.Mutex
	seq        uint64
	cancel     context.CancelFunc
	idle       chan struct{}
	idleClosed bool
	restart    func()
	effect     *reactive.Effect
	destroyed  bool
}

// New creates a resource for a loader or a stream and starts the first load.
//
// The driving effect is owned by the current owner; see package reactive.
func New[R, T any](opts Options[R, T], options ...Option) (*Resource[T], error) {
	if (opts.Loader == nil) == (opts.Stream == nil) {
		return nil, errors.New(errors.CodeInvalidOptions).
			WithDetail("exactly one of Loader or Stream must be set")
	}

	r, err := newResource(opts.DefaultValue, options)
	if err != nil {
		return nil, err
	}

	if loader := opts.Loader; loader != nil {
		bind(r, opts.Request, false, func(ctx context.Context, id uint64, p LoaderParams[R]) error {
			v, err := loader(ctx, p)
			if err != nil {
				return err
			}
			r.publish(id, v)
			return nil
		})
		return r, nil
	}

	stream := opts.Stream
	bind(r, opts.Request, true, func(ctx context.Context, id uint64, p LoaderParams[R]) error {
		return consume(ctx, r, id, stream, p)
	})
	return r, nil
}

func newResource[T any](def T, options []Option) (*Resource[T], error) {
	s := defaultSettings()
	for _, opt := range options {
		opt(&s)
	}

	r := &Resource[T]{
		settings:     s,
		log:          s.logger.With("resource", s.name),
		defaultValue: def,
		state:        reactive.NewSignal(Pending),
		value:        reactive.NewSignal(def),
		err:          reactive.NewSignal[error](nil),
		idle:         make(chan struct{}),
	}

	if s.onSuccess != nil {
		fn, ok := s.onSuccess.(func(T))
		if !ok {
			return nil, errors.New(errors.CodeInvalidOptions).
				WithDetailf("WithOnSuccess callback is %T, which does not match the resource value type", s.onSuccess)
		}
		r.onSuccess = fn
	}
	if s.equal != nil {
		fn, ok := s.equal.(func(a, b T) bool)
		if !ok {
			return nil, errors.New(errors.CodeInvalidOptions).
				WithDetailf("WithEqual function is %T, which does not match the resource value type", s.equal)
		}
		r.value.WithEquals(fn)
	}
	return r, nil
}

// bind installs the effect that tracks request and launches run for every
// new request.
func bind[R, T any](r *Resource[T], request func() R, stream bool, run func(context.Context, uint64, LoaderParams[R]) error) {
	var (
		lastMu sync.Mutex
		last   R
	)

	launch := func(req R, reload bool) {
		id, ctx, prev, ok := r.begin(reload)
		if !ok {
			return
		}
		info := &LoadInfo{
			Resource: r.settings.name,
			Request:  req,
			Reload:   reload,
			Stream:   stream,
		}
		p := LoaderParams[R]{Request: req, Previous: prev}
		go r.execute(ctx, id, info, func(ctx context.Context) error {
			return run(ctx, id, p)
		})
	}

	r.restart = func() {
		lastMu.Lock()
		req := last
		lastMu.Unlock()
		launch(req, true)
	}

	effect := reactive.CreateEffect(func() reactive.Cleanup {
		var req R
		if request != nil {
			req = request()
		}
		lastMu.Lock()
		last = req
		lastMu.Unlock()

		reactive.Untracked(func() { launch(req, false) })
		return nil
	})

	r.mu.Lock()
	r.effect = effect
	r.mu.Unlock()

	if o := reactive.CurrentOwner(); o != nil {
		o.OnCleanup(r.Destroy)
	}
}

// begin supersedes any load in flight and moves the resource into a busy
// state. It returns false once the resource is destroyed.
func (r *Resource[T]) begin(reload bool) (id uint64, ctx context.Context, prev State, ok bool) {
	reactive.Batch(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.destroyed {
			return
		}

		if r.cancel != nil {
			r.cancel()
		}
		r.seq++
		id = r.seq
		ctx, r.cancel = context.WithCancel(r.settings.baseCtx)
		if r.idleClosed {
			r.idle = make(chan struct{})
			r.idleClosed = false
		}

		prev = r.state.Peek()
		next := Loading
		if reload && (prev == Ready || prev == Local) {
			next = Reloading
		} else {
			r.value.Set(r.defaultValue)
		}
		r.state.Set(next)
		r.err.Set(nil)
		ok = true
	})
	if ok {
		r.log.Debug("resource load started", "seq", id, "reload", reload)
	}
	return id, ctx, prev, ok
}

func (r *Resource[T]) execute(ctx context.Context, id uint64, info *LoadInfo, attempt func(context.Context) error) {
	ctx = withInfo(ctx, info)
	log := r.log.With("seq", id)

	var err error
	for n := 1; n <= 1+r.settings.retryCount; n++ {
		if n > 1 {
			if !sleep(ctx, r.settings.retryDelay) {
				break
			}
			log.Debug("retrying resource load", "attempt", n, "error", err)
		}
		info.Attempt = n
		err = chain(r.settings.middleware, info, attempt)(ctx)
		if err == nil || ctx.Err() != nil {
			break
		}
	}

	switch {
	case ctx.Err() != nil:
		if base := r.settings.baseCtx.Err(); base != nil {
			log.Debug("resource load canceled by parent context", "error", base)
			r.fail(id, base)
			return
		}
		log.Debug("resource load canceled")
	case err != nil:
		log.Warn("resource load failed", "error", err, "attempts", info.Attempt)
		r.fail(id, err)
	default:
		r.finish(id)
		log.Debug("resource load finished", "gated", info.Gated)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// consume drains a stream into the resource.
func consume[R, T any](ctx context.Context, r *Resource[T], id uint64, src StreamLoader[R, T], p LoaderParams[R]) error {
	ch, err := src(ctx, p)
	if err != nil {
		return err
	}
	if ch == nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, ok := <-ch:
			if !ok {
				return nil
			}
			if item.Err != nil {
				r.fail(id, item.Err)
				continue
			}
			r.publish(id, item.Value)
		}
	}
}

func (r *Resource[T]) publish(id uint64, v T) {
	applied := false
	reactive.Batch(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if id != r.seq || r.destroyed {
			return
		}
		r.value.Set(v)
		r.err.Set(nil)
		r.state.Set(Ready)
		r.markIdleLocked()
		applied = true
	})
	if applied && r.onSuccess != nil {
		r.onSuccess(v)
	}
}

func (r *Resource[T]) fail(id uint64, err error) {
	applied := false
	reactive.Batch(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if id != r.seq || r.destroyed {
			return
		}
		r.err.Set(err)
		r.state.Set(Error)
		r.markIdleLocked()
		applied = true
	})
	if applied && r.settings.onError != nil {
		r.settings.onError(err)
	}
}

// finish settles a load that ended without publishing, such as a stream
// that closed before emitting.
func (r *Resource[T]) finish(id uint64) {
	reactive.Batch(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if id != r.seq || r.destroyed || !r.state.Peek().Busy() {
			return
		}
		r.state.Set(Ready)
		r.markIdleLocked()
	})
}

func (r *Resource[T]) markIdleLocked() {
	if !r.idleClosed {
		close(r.idle)
		r.idleClosed = true
	}
}

// Name returns the name given with WithName.
func (r *Resource[T]) Name() string {
	return r.settings.name
}

// State returns the current state.
func (r *Resource[T]) State() State {
	return r.state.Get()
}

// IsLoading reports whether a load is in flight.
func (r *Resource[T]) IsLoading() bool {
	return r.State().Busy()
}

// IsReady reports whether the value is usable: loaded or set locally.
func (r *Resource[T]) IsReady() bool {
	s := r.State()
	return s == Ready || s == Local
}

// IsError reports whether the last load failed.
func (r *Resource[T]) IsError() bool {
	return r.State() == Error
}

// HasValue reports whether Value holds loaded or local data, including the
// value kept while reloading.
func (r *Resource[T]) HasValue() bool {
	s := r.State()
	return s == Ready || s == Local || s == Reloading
}

// Value returns the current value. Before the first load completes it is
// the default value.
func (r *Resource[T]) Value() T {
	return r.value.Get()
}

// ValueOr returns the value when HasValue, fallback otherwise.
func (r *Resource[T]) ValueOr(fallback T) T {
	if r.HasValue() {
		return r.Value()
	}
	return fallback
}

// Error returns the error of the last failed load, or nil.
func (r *Resource[T]) Error() error {
	return r.err.Get()
}

// Snapshot returns value, state and error without tracking.
func (r *Resource[T]) Snapshot() (T, State, error) {
	return r.value.Peek(), r.state.Peek(), r.err.Peek()
}

// Reload re-runs the load for the current request, keeping the current value
// visible while it runs. It returns false if the resource is destroyed.
func (r *Resource[T]) Reload() bool {
	r.mu.Lock()
	restart, destroyed := r.restart, r.destroyed
	r.mu.Unlock()

	if destroyed || restart == nil {
		return false
	}
	restart()
	return true
}

// Set replaces the value locally, cancelling any load in flight. The state
// becomes Local until the request changes or Reload is called.
func (r *Resource[T]) Set(v T) {
	reactive.Batch(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.destroyed {
			return
		}
		if r.cancel != nil {
			r.cancel()
			r.cancel = nil
		}
		r.seq++
		r.value.Set(v)
		r.err.Set(nil)
		r.state.Set(Local)
		r.markIdleLocked()
	})
}

// Update is Set(fn(current value)).
func (r *Resource[T]) Update(fn func(T) T) {
	r.Set(fn(r.value.Peek()))
}

// Wait blocks until no load is in flight, then returns the resource error.
// A stream counts as settled once it has produced its first result.
// Waiting on a destroyed resource returns a G003 error.
func (r *Resource[T]) Wait(ctx context.Context) error {
	r.mu.Lock()
	idle := r.idle
	r.mu.Unlock()

	select {
	case <-idle:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.mu.Lock()
	destroyed := r.destroyed
	r.mu.Unlock()
	if destroyed {
		return errors.New(errors.CodeLoadCanceled)
	}
	return r.err.Peek()
}

// Destroy stops tracking the request and cancels any load in flight. It is
// called automatically when the owning scope is disposed.
func (r *Resource[T]) Destroy() {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return
	}
	r.destroyed = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.seq++
	r.markIdleLocked()
	effect := r.effect
	r.mu.Unlock()

	if effect != nil {
		effect.Dispose()
	}
	r.log.Debug("resource destroyed")
}
