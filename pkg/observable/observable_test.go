package observable

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder[T any] struct {
	mu       sync.Mutex
	values   []T
	err      error
	complete bool
}

func (r *recorder[T]) observer() Observer[T] {
	return Observer[T]{
		Next: func(v T) {
			r.mu.Lock()
			r.values = append(r.values, v)
			r.mu.Unlock()
		},
		Error: func(err error) {
			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
		},
		Complete: func() {
			r.mu.Lock()
			r.complete = true
			r.mu.Unlock()
		},
	}
}

func (r *recorder[T]) snapshot() ([]T, error, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.values...), r.err, r.complete
}

func waitDone(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for subscription to finish")
	}
}

func TestOfEmitsAndCompletes(t *testing.T) {
	var rec recorder[int]
	sub := Subscribe(context.Background(), Of(1, 2, 3), rec.observer())
	waitDone(t, sub)

	values, err, complete := rec.snapshot()
	if len(values) != 3 || values[0] != 1 || values[2] != 3 {
		t.Errorf("expected [1 2 3], got %v", values)
	}
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !complete {
		t.Error("expected completion")
	}
}

func TestFailReportsError(t *testing.T) {
	boom := errors.New("boom")
	var rec recorder[string]
	sub := Subscribe(context.Background(), Fail[string](boom), rec.observer())
	waitDone(t, sub)

	_, err, complete := rec.snapshot()
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if complete {
		t.Error("errored sequence must not complete")
	}
}

func TestEmptyCompletes(t *testing.T) {
	var rec recorder[int]
	sub := Subscribe(context.Background(), Empty[int](), rec.observer())
	waitDone(t, sub)
	values, _, complete := rec.snapshot()
	if len(values) != 0 || !complete {
		t.Errorf("expected empty completed sequence, got %v complete=%v", values, complete)
	}
}

func TestUnsubscribeStopsProducer(t *testing.T) {
	ch := make(chan int)
	got := make(chan int, 1)
	var failed, completed bool
	sub := Subscribe(context.Background(), FromChannel(ch), Observer[int]{
		Next:     func(v int) { got <- v },
		Error:    func(error) { failed = true },
		Complete: func() { completed = true },
	})

	ch <- 1
	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for first value")
	}
	sub.Unsubscribe()

	if failed || completed {
		t.Errorf("cancellation should be silent, got failed=%v completed=%v", failed, completed)
	}
}

func TestFromChannelCompletesOnClose(t *testing.T) {
	ch := make(chan string, 2)
	ch <- "a"
	ch <- "b"
	close(ch)

	var rec recorder[string]
	waitDone(t, Subscribe(context.Background(), FromChannel(ch), rec.observer()))
	values, _, complete := rec.snapshot()
	if len(values) != 2 || !complete {
		t.Errorf("expected [a b] and completion, got %v complete=%v", values, complete)
	}
}

func TestPollEmitsUntilError(t *testing.T) {
	stop := errors.New("stop")
	n := 0
	obs := Poll(time.Millisecond, func(context.Context) (int, error) {
		n++
		if n > 3 {
			return 0, stop
		}
		return n, nil
	})

	var rec recorder[int]
	waitDone(t, Subscribe(context.Background(), obs, rec.observer()))
	values, err, _ := rec.snapshot()
	if len(values) != 3 {
		t.Errorf("expected 3 values, got %v", values)
	}
	if !errors.Is(err, stop) {
		t.Errorf("expected stop error, got %v", err)
	}
}

func TestMap(t *testing.T) {
	var rec recorder[string]
	obs := Map(Of(1, 2), func(n int) string { return string(rune('a' + n)) })
	waitDone(t, Subscribe(context.Background(), obs, rec.observer()))
	values, _, _ := rec.snapshot()
	if len(values) != 2 || values[0] != "b" || values[1] != "c" {
		t.Errorf("expected [b c], got %v", values)
	}
}

func TestSubjectReplaysLatestAndCompletesOnClose(t *testing.T) {
	s := NewSubject[int]()
	s.Next(1)
	s.Next(2)

	got := make(chan int, 4)
	sub := Subscribe(context.Background(), s.Observe(), Observer[int]{
		Next: func(v int) { got <- v },
	})

	select {
	case v := <-got:
		if v != 2 {
			t.Errorf("expected replay of latest value 2, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for replay")
	}

	s.Next(3)
	select {
	case v := <-got:
		if v != 3 {
			t.Errorf("expected 3, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for 3")
	}

	s.Close()
	waitDone(t, sub)
	s.Next(4)
}

func TestSubjectObserveAfterClose(t *testing.T) {
	s := NewSubject[int]()
	s.Close()
	var rec recorder[int]
	waitDone(t, Subscribe(context.Background(), s.Observe(), rec.observer()))
	_, _, complete := rec.snapshot()
	if !complete {
		t.Error("observing a closed subject should complete immediately")
	}
}
