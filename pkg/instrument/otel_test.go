package instrument

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"

	"github.com/vango-dev/gated/pkg/resource"
)

// recordingProvider keeps every span started through it.
type recordingProvider struct {
	embedded.TracerProvider

	mu    sync.Mutex
	spans []*recordedSpan
}

func (p *recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return &recordingTracer{p: p}
}

func (p *recordingProvider) last(t *testing.T) *recordedSpan {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.spans) == 0 {
		t.Fatal("no span recorded")
	}
	return p.spans[len(p.spans)-1]
}

type recordingTracer struct {
	embedded.Tracer
	p *recordingProvider
}

func (tr *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordedSpan{
		Span:  trace.SpanFromContext(context.Background()),
		name:  name,
		kind:  cfg.SpanKind(),
		attrs: map[attribute.Key]attribute.Value{},
	}
	s.SetAttributes(cfg.Attributes()...)

	tr.p.mu.Lock()
	tr.p.spans = append(tr.p.spans, s)
	tr.p.mu.Unlock()
	return trace.ContextWithSpan(ctx, s), s
}

type recordedSpan struct {
	trace.Span

	name   string
	kind   trace.SpanKind
	attrs  map[attribute.Key]attribute.Value
	status codes.Code
	errs   []error
	ended  bool
}

func (s *recordedSpan) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}

func (s *recordedSpan) SetStatus(code codes.Code, _ string) { s.status = code }

func (s *recordedSpan) RecordError(err error, _ ...trace.EventOption) { s.errs = append(s.errs, err) }

func (s *recordedSpan) End(...trace.SpanEndOption) { s.ended = true }

func TestOpenTelemetrySpan(t *testing.T) {
	tp := &recordingProvider{}
	mw := OpenTelemetry(
		WithTracerProvider(tp),
		WithAttributes(attribute.String("service", "demo")),
	)
	info := &resource.LoadInfo{Resource: "search", Request: "secret", Attempt: 2, Stream: true}

	var inner trace.Span
	err := mw(context.Background(), info, func(ctx context.Context) error {
		inner = trace.SpanFromContext(ctx)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := tp.last(t)
	if s.name != "resource.load search" {
		t.Errorf("span name = %q", s.name)
	}
	if inner != trace.Span(s) {
		t.Error("the data source should run under the load span")
	}
	if s.kind != trace.SpanKindInternal {
		t.Errorf("span kind = %v", s.kind)
	}
	if !s.ended || s.status != codes.Ok {
		t.Errorf("expected ended span with Ok status, got ended=%v status=%v", s.ended, s.status)
	}
	checks := map[attribute.Key]attribute.Value{
		"resource.name":    attribute.StringValue("search"),
		"resource.attempt": attribute.IntValue(2),
		"resource.stream":  attribute.BoolValue(true),
		"resource.gated":   attribute.BoolValue(false),
		"resource.outcome": attribute.StringValue(OutcomeOK),
		"service":          attribute.StringValue("demo"),
	}
	for k, want := range checks {
		if got := s.attrs[k]; got != want {
			t.Errorf("%s = %v, want %v", k, got.Emit(), want.Emit())
		}
	}
	if _, ok := s.attrs["resource.request"]; ok {
		t.Error("request attribute must be opt-in")
	}
}

func TestOpenTelemetryError(t *testing.T) {
	tp := &recordingProvider{}
	mw := OpenTelemetry(WithTracerProvider(tp), WithIncludeRequest(true))

	boom := errors.New("boom")
	err := mw(context.Background(), &resource.LoadInfo{Resource: "r", Request: 7}, func(context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	s := tp.last(t)
	if s.status != codes.Error || len(s.errs) != 1 {
		t.Errorf("expected Error status with recorded error, got %v / %v", s.status, s.errs)
	}
	if got := s.attrs["resource.request"].AsString(); got != "7" {
		t.Errorf("resource.request = %q, want 7", got)
	}
}

func TestOpenTelemetryGatedAndCanceled(t *testing.T) {
	tp := &recordingProvider{}
	mw := OpenTelemetry(WithTracerProvider(tp))

	info := &resource.LoadInfo{Resource: "g"}
	mw(context.Background(), info, func(context.Context) error {
		info.Gated = true
		return nil
	})
	if s := tp.last(t); !s.attrs["resource.gated"].AsBool() || s.attrs["resource.outcome"].AsString() != OutcomeGated {
		t.Errorf("gated load not marked: %v", s.attrs)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mw(ctx, &resource.LoadInfo{Resource: "c"}, func(ctx context.Context) error { return ctx.Err() })
	s := tp.last(t)
	if s.status == codes.Error || len(s.errs) != 0 {
		t.Error("a canceled load is not an error")
	}
	if s.attrs["resource.outcome"].AsString() != OutcomeCanceled {
		t.Errorf("outcome = %q", s.attrs["resource.outcome"].AsString())
	}
}

func TestOpenTelemetryGlobalProvider(t *testing.T) {
	mw := OpenTelemetry(WithTracerName("test"))
	called := false
	if err := mw(context.Background(), &resource.LoadInfo{Resource: "x"}, func(context.Context) error {
		called = true
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("next was not called")
	}
}
