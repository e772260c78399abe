package instrument

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/gated/pkg/resource"
)

const defaultTracerName = "github.com/vango-dev/gated"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer.
	TracerName string

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider

	// IncludeRequest adds the request, formatted with %v, as the
	// resource.request attribute. Requests may carry user input, so this is
	// disabled by default.
	IncludeRequest bool

	// Attributes are added to every span.
	Attributes []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeRequest enables the resource.request attribute.
func WithIncludeRequest(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeRequest = include
	}
}

// WithAttributes adds constant span attributes.
func WithAttributes(attrs ...attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// OpenTelemetry returns middleware that wraps every load attempt in a span
// named "resource.load <name>". The span context is passed on to the data
// source, so spans it starts become children of the load.
//
// Without WithTracerProvider the global provider is used. Configure it in
// main before creating resources:
//
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) resource.Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}

	var tracer trace.Tracer
	if config.TracerProvider != nil {
		tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}

	return func(ctx context.Context, info *resource.LoadInfo, next func(context.Context) error) error {
		attrs := []attribute.KeyValue{
			attribute.String("resource.name", info.Resource),
			attribute.Int("resource.attempt", info.Attempt),
			attribute.Bool("resource.reload", info.Reload),
			attribute.Bool("resource.stream", info.Stream),
		}
		if config.IncludeRequest {
			attrs = append(attrs, attribute.String("resource.request", fmt.Sprintf("%v", info.Request)))
		}
		attrs = append(attrs, config.Attributes...)

		spanCtx, span := tracer.Start(ctx, "resource.load "+info.Resource,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		err := next(spanCtx)

		outcome := Outcome(spanCtx, info, err)
		span.SetAttributes(
			attribute.Bool("resource.gated", info.Gated),
			attribute.String("resource.outcome", outcome),
		)
		if err != nil && outcome != OutcomeCanceled {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return err
	}
}
