package demo

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/vango-dev/gated/internal/catalog"
	"github.com/vango-dev/gated/internal/errors"
	"github.com/vango-dev/gated/pkg/render"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingLister struct {
	catalog.Lister
	calls atomic.Int32
}

func (c *countingLister) List(ctx context.Context, prefix string, limit int) ([]catalog.Object, error) {
	c.calls.Add(1)
	return c.Lister.List(ctx, prefix, limit)
}

type brokenLister struct{}

func (brokenLister) List(context.Context, string, int) ([]catalog.Object, error) {
	return nil, stderrors.New("bucket unreachable")
}

var day = time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *catalog.MemoryLister {
	t.Helper()
	m := catalog.NewMemoryLister(
		catalog.Object{Key: "docs/guide.md", Size: 2048, LastModified: day},
		catalog.Object{Key: "docs/intro.md", Size: 100, LastModified: day},
		catalog.Object{Key: "images/cat.png", Size: 5 << 20, LastModified: day},
	)
	t.Cleanup(m.Close)
	return m
}

func newSearch(t *testing.T, lister catalog.Lister, query string) *ObjectSearch {
	t.Helper()
	s, err := NewObjectSearch(Options{Lister: lister, WatchInterval: time.Hour}, query)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Dispose)
	return s
}

func settle(t *testing.T, s *ObjectSearch) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return s.Wait(ctx)
}

func html(t *testing.T, s *ObjectSearch) string {
	t.Helper()
	out, err := render.NewRenderer(render.RendererConfig{}).RenderToString(s.Render())
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestShortQueryNeverHitsCatalog(t *testing.T) {
	lister := &countingLister{Lister: newStore(t)}
	s := newSearch(t, lister, "do")

	if err := settle(t, s); err != nil {
		t.Fatal(err)
	}
	if n := lister.calls.Load(); n != 0 {
		t.Errorf("catalog listed %d times for a gated query", n)
	}
	if v := s.Results.Value(); v == nil || len(v) != 0 {
		t.Errorf("expected empty default results, got %v", v)
	}

	out := html(t, s)
	if !strings.Contains(out, "at least 3 characters are needed") {
		t.Errorf("expected hint, got %s", out)
	}
	if strings.Contains(out, "<ul") {
		t.Error("no result list should render for a gated query")
	}
}

func TestEmptyQueryHint(t *testing.T) {
	s := newSearch(t, newStore(t), "")
	settle(t, s)
	if out := html(t, s); !strings.Contains(out, "Type a key prefix") {
		t.Errorf("expected empty-query hint, got %s", out)
	}
}

func TestQueryChangeLoadsResults(t *testing.T) {
	lister := &countingLister{Lister: newStore(t)}
	s := newSearch(t, lister, "")
	settle(t, s)

	s.SetQuery("  docs/ ")
	s.RunPending()
	if err := settle(t, s); err != nil {
		t.Fatal(err)
	}

	results := s.Results.Value()
	if len(results) != 2 || results[0].Key != "docs/guide.md" {
		t.Fatalf("unexpected results %v", results)
	}
	if sum := s.Summary.Value(); sum.Objects != 2 || sum.Bytes != 2148 || sum.Prefix != "docs/" {
		t.Errorf("unexpected summary %+v", sum)
	}

	out := html(t, s)
	for _, want := range []string{
		`<code>docs/guide.md</code>`,
		`2.0 KiB`,
		`2 objects, 2.1 KiB under &quot;docs/&quot;`,
		`aria-busy="false"`,
		`value="  docs/ "`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered HTML missing %q:\n%s", want, out)
		}
	}
	if lister.calls.Load() == 0 {
		t.Error("accepted query should reach the catalog")
	}
}

func TestNoMatches(t *testing.T) {
	s := newSearch(t, newStore(t), "videos/")
	settle(t, s)
	if out := html(t, s); !strings.Contains(out, "No objects match &quot;videos/&quot;.") {
		t.Errorf("expected empty state, got %s", out)
	}
}

func TestCatalogErrorRendered(t *testing.T) {
	s := newSearch(t, brokenLister{}, "anything")
	if err := settle(t, s); err == nil {
		t.Fatal("expected the listing error from Wait")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Summary.Wait(ctx)

	out := html(t, s)
	if !strings.Contains(out, "Search failed: bucket unreachable") {
		t.Errorf("expected error message, got %s", out)
	}
	if !strings.Contains(out, "Summary unavailable") {
		t.Errorf("expected summary error, got %s", out)
	}
}

func TestSummaryFollowsStore(t *testing.T) {
	store := newStore(t)
	s := newSearch(t, store, "images/")
	settle(t, s)

	store.Put(catalog.Object{Key: "images/dog.png", Size: 1, LastModified: day})
	deadline := time.Now().Add(time.Second)
	for s.Summary.Value().Objects != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("summary did not update, got %+v", s.Summary.Value())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWriteText(t *testing.T) {
	s := newSearch(t, newStore(t), "docs")
	settle(t, s)

	var buf bytes.Buffer
	if err := s.WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "docs/intro.md\t100 B\t2024-03-09T00:00:00Z") {
		t.Errorf("missing object line:\n%s", out)
	}
	if !strings.Contains(out, `-- 2 of 2 objects under "docs"`) {
		t.Errorf("missing summary line:\n%s", out)
	}

	buf.Reset()
	s.SetQuery("x")
	s.RunPending()
	settle(t, s)
	s.WriteText(&buf)
	if !strings.Contains(buf.String(), "catalog not searched") {
		t.Errorf("expected gated notice, got %q", buf.String())
	}
}

func TestDisposeStopsLoads(t *testing.T) {
	lister := &countingLister{Lister: newStore(t)}
	s := newSearch(t, lister, "")
	s.Dispose()

	s.SetQuery("docs/")
	s.RunPending()
	time.Sleep(10 * time.Millisecond)
	if n := lister.calls.Load(); n != 0 {
		t.Errorf("disposed search listed %d times", n)
	}
}

func TestNewObjectSearchRequiresLister(t *testing.T) {
	if _, err := NewObjectSearch(Options{}, ""); !errors.HasCode(err, errors.CodeInvalidOptions) {
		t.Errorf("expected G001, got %v", err)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:       "0 B",
		1023:    "1023 B",
		1024:    "1.0 KiB",
		1536:    "1.5 KiB",
		5 << 20: "5.0 MiB",
		3 << 30: "3.0 GiB",
	}
	for in, want := range tests {
		if got := FormatBytes(in); got != want {
			t.Errorf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
