package gated_test

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vango-dev/gated"
)

func TestFacadeGatesLoader(t *testing.T) {
	var calls atomic.Int32
	query := gated.NewSignal("ab")

	r, err := gated.Resource(gated.Options[string, int]{
		Request: query.Get,
		Filter:  gated.MinLength(3),
		Loader: func(_ context.Context, p gated.LoaderParams[string]) (int, error) {
			calls.Add(1)
			return len(p.Request), nil
		},
		DefaultValue: -1,
	}, gated.WithName("facade"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := r.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if r.Value() != -1 || r.State() != gated.Ready || calls.Load() != 0 {
		t.Fatalf("gated: value=%d state=%v calls=%d", r.Value(), r.State(), calls.Load())
	}

	query.Set("abcd")
	deadline := time.Now().Add(time.Second)
	for r.Value() != 4 {
		if time.Now().After(deadline) {
			t.Fatalf("value = %d after accepted query, want 4", r.Value())
		}
		time.Sleep(time.Millisecond)
	}
	if calls.Load() != 1 {
		t.Errorf("loader calls = %d, want 1", calls.Load())
	}
}

func TestFacadeInvalidOptions(t *testing.T) {
	_, err := gated.Resource(gated.Options[string, int]{})
	if !stderrors.Is(err, gated.ErrInvalidOptions) {
		t.Errorf("expected ErrInvalidOptions, got %v", err)
	}
}
