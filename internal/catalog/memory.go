package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vango-dev/gated/pkg/observable"
)

// MemoryLister is an in-memory Lister. It notifies watchers on every
// change.
type MemoryLister struct {
	mu      sync.RWMutex
	objects map[string]Object
	latency time.Duration
	version uint64
	changes *observable.Subject[uint64]
}

// NewMemoryLister creates a lister holding objects.
func NewMemoryLister(objects ...Object) *MemoryLister {
	m := &MemoryLister{
		objects: make(map[string]Object, len(objects)),
		changes: observable.NewSubject[uint64](),
	}
	for _, o := range objects {
		m.objects[o.Key] = o
	}
	return m
}

// WithLatency delays every List call by d, to make loading states visible.
func (m *MemoryLister) WithLatency(d time.Duration) *MemoryLister {
	m.mu.Lock()
	m.latency = d
	m.mu.Unlock()
	return m
}

// Put adds or replaces an object.
func (m *MemoryLister) Put(o Object) {
	if o.LastModified.IsZero() {
		o.LastModified = time.Now().UTC()
	}
	m.mu.Lock()
	m.objects[o.Key] = o
	m.version++
	v := m.version
	m.mu.Unlock()
	m.changes.Next(v)
}

// Delete removes key. It reports whether the key existed.
func (m *MemoryLister) Delete(key string) bool {
	m.mu.Lock()
	_, ok := m.objects[key]
	if ok {
		delete(m.objects, key)
		m.version++
	}
	v := m.version
	m.mu.Unlock()

	if ok {
		m.changes.Next(v)
	}
	return ok
}

// Changes emits the store version after every change. Subscribers first
// receive the latest version, if any change happened.
func (m *MemoryLister) Changes() observable.Observable[uint64] {
	return m.changes.Observe()
}

// Close completes every Changes subscription.
func (m *MemoryLister) Close() {
	m.changes.Close()
}

// List implements Lister.
func (m *MemoryLister) List(ctx context.Context, prefix string, limit int) ([]Object, error) {
	m.mu.RLock()
	latency := m.latency
	m.mu.RUnlock()

	if latency > 0 {
		t := time.NewTimer(latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	m.mu.RLock()
	objects := make([]Object, 0, len(m.objects))
	for key, o := range m.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, o)
		}
	}
	m.mu.RUnlock()

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	if limit > 0 && len(objects) > limit {
		objects = objects[:limit]
	}
	return objects, nil
}
