package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/gated/internal/catalog"
	"github.com/vango-dev/gated/internal/demo"
	"github.com/vango-dev/gated/internal/errors"
)

var day = time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

type countingLister struct {
	catalog.Lister
	calls atomic.Int32
}

func (c *countingLister) List(ctx context.Context, prefix string, limit int) ([]catalog.Object, error) {
	c.calls.Add(1)
	return c.Lister.List(ctx, prefix, limit)
}

func newTestServer(t *testing.T, reg *prometheus.Registry) (*Server, *countingLister, *httptest.Server) {
	t.Helper()
	store := catalog.NewMemoryLister(
		catalog.Object{Key: "docs/guide.md", Size: 2048, LastModified: day},
		catalog.Object{Key: "docs/intro.md", Size: 100, LastModified: day},
	)
	t.Cleanup(store.Close)
	lister := &countingLister{Lister: store}

	srv, err := New(Config{
		Title:    "Catalog",
		Lister:   lister,
		Search:   demo.Options{WatchInterval: time.Hour},
		Registry: reg,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, lister, ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(body)
}

func TestHealthz(t *testing.T) {
	_, _, ts := newTestServer(t, nil)
	code, body := get(t, ts.URL+"/healthz")
	if code != http.StatusOK || body != "ok\n" {
		t.Errorf("GET /healthz = %d %q", code, body)
	}
}

func TestPageWithShortQuery(t *testing.T) {
	_, lister, ts := newTestServer(t, nil)

	code, body := get(t, ts.URL+"/?q=do")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !strings.HasPrefix(body, "<!DOCTYPE html><html lang=\"en\">") {
		t.Errorf("expected a full document, got %.60q", body)
	}
	if !strings.Contains(body, "<title>Catalog</title>") {
		t.Error("missing title")
	}
	if !strings.Contains(body, "Keep typing") {
		t.Errorf("expected the gated hint, got %s", body)
	}
	if n := lister.calls.Load(); n != 0 {
		t.Errorf("a gated page listed the catalog %d times", n)
	}
}

func TestPageWithResults(t *testing.T) {
	_, _, ts := newTestServer(t, nil)

	_, body := get(t, ts.URL+"/?q=docs/")
	for _, want := range []string{"<code>docs/guide.md</code>", "<code>docs/intro.md</code>", "2 objects"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q:\n%s", want, body)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, _, ts := newTestServer(t, reg)

	get(t, ts.URL+"/?q=docs/")

	// Load middleware finishes after the value is published, so poll.
	var body string
	waitFor(t, func() bool {
		var code int
		code, body = get(t, ts.URL+"/metrics")
		return code == http.StatusOK &&
			strings.Contains(body, `gated_resource_loads_total{outcome="ok",resource="object_search"} 1`)
	})
	for _, want := range []string{
		"gated_resource_load_duration_seconds_bucket",
		"gated_live_sessions 0",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestMetricsDisabled(t *testing.T) {
	_, _, ts := newTestServer(t, nil)
	if code, _ := get(t, ts.URL+"/metrics"); code != http.StatusNotFound {
		t.Errorf("GET /metrics without a registry = %d, want 404", code)
	}
}

func dialLive(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/live?q=" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads frames until one contains want.
func readUntil(t *testing.T, conn *websocket.Conn, want string) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q: %v", want, err)
		}
		if strings.Contains(string(data), want) {
			return string(data)
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLiveSearch(t *testing.T) {
	srv, lister, ts := newTestServer(t, nil)
	conn := dialLive(t, ts, "")

	readUntil(t, conn, "Type a key prefix")
	waitFor(t, func() bool { return srv.LiveSessions() == 1 })

	if err := conn.WriteMessage(websocket.TextMessage, []byte("do")); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, "Keep typing")
	if n := lister.calls.Load(); n != 0 {
		t.Errorf("gated live query listed the catalog %d times", n)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("docs/")); err != nil {
		t.Fatal(err)
	}
	frame := readUntil(t, conn, "docs/guide.md")
	if strings.Contains(frame, "<html") {
		t.Error("live frames should be fragments, not documents")
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	waitFor(t, func() bool { return srv.LiveSessions() == 0 })
}

func TestShutdownClosesLiveSessions(t *testing.T) {
	srv, _, ts := newTestServer(t, nil)
	conn := dialLive(t, ts, "docs/")
	readUntil(t, conn, "docs/intro.md")

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
				t.Errorf("expected going-away close, got %v", err)
			}
			break
		}
	}
	waitFor(t, func() bool { return srv.LiveSessions() == 0 })
}

func TestServeStopsWithContext(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	waitFor(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestRunReportsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	srv, err := New(Config{Address: ln.Addr().String(), Lister: catalog.NewMemoryLister()})
	if err != nil {
		t.Fatal(err)
	}
	if err := srv.Run(context.Background()); !errors.HasCode(err, errors.CodeServerStart) {
		t.Errorf("expected G007 for a busy port, got %v", err)
	}
}

func TestNewRequiresLister(t *testing.T) {
	if _, err := New(Config{}); !errors.HasCode(err, errors.CodeServerStart) {
		t.Errorf("expected G007, got %v", err)
	}
}
