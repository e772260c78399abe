// Package instrument provides resource load middleware for Prometheus
// metrics and OpenTelemetry tracing.
//
// Both are plain resource.Middleware values and compose with
// resource.WithMiddleware:
//
//	r, err := gate.Resource(opts,
//	    resource.WithName("search"),
//	    resource.WithMiddleware(
//	        instrument.OpenTelemetry(),
//	        instrument.Prometheus(instrument.WithRegistry(reg)),
//	    ),
//	)
//
// Loads answered by a gate filter are reported with outcome "gated" and the
// span attribute resource.gated=true.
package instrument
