package reactive

import (
	"runtime"
	"sync"
)

// trackingContext is the reactive state of one goroutine.
type trackingContext struct {
	owner      *Owner
	listener   Listener
	batchDepth int
	pending    []Listener
}

var contexts sync.Map // goroutine id -> *trackingContext

// goroutineID parses the current goroutine id out of the stack header
// ("goroutine 42 [running]:").
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}

func current() *trackingContext {
	gid := goroutineID()
	if tc, ok := contexts.Load(gid); ok {
		return tc.(*trackingContext)
	}
	tc := &trackingContext{}
	contexts.Store(gid, tc)
	return tc
}

// release drops the tracking context of the current goroutine once it
// carries no state, so short-lived goroutines do not accumulate entries.
func release() {
	gid := goroutineID()
	v, ok := contexts.Load(gid)
	if !ok {
		return
	}
	tc := v.(*trackingContext)
	if tc.owner == nil && tc.listener == nil && tc.batchDepth == 0 && len(tc.pending) == 0 {
		contexts.Delete(gid)
	}
}

func currentListener() Listener {
	return current().listener
}

func swapListener(l Listener) Listener {
	tc := current()
	old := tc.listener
	tc.listener = l
	return old
}

func swapOwner(o *Owner) *Owner {
	tc := current()
	old := tc.owner
	tc.owner = o
	return old
}

// CurrentOwner returns the owner new effects will be attached to, or nil.
func CurrentOwner() *Owner {
	return current().owner
}

// WithOwner runs fn with o as the current owner.
func WithOwner(o *Owner, fn func()) {
	old := swapOwner(o)
	defer func() {
		swapOwner(old)
		release()
	}()
	fn()
}

// WithListener runs fn with l tracking every signal read.
func WithListener(l Listener, fn func()) {
	old := swapListener(l)
	defer func() {
		swapListener(old)
		release()
	}()
	fn()
}

// Untracked runs fn without subscribing the current listener to any reads.
func Untracked(fn func()) {
	old := swapListener(nil)
	defer swapListener(old)
	fn()
}
