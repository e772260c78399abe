// Package gate wraps resource constructors with a request filter.
//
// A gated resource only calls its loader, stream or observable factory when
// Filter accepts the current request. Otherwise it settles in the Ready
// state with DefaultValue:
//
//	results, err := gate.Resource(gate.Options[string, []catalog.Object]{
//	    Request: query.Get,
//	    Filter:  func(q string) bool { return len(q) >= 3 },
//	    Loader:  search,
//	    DefaultValue: []catalog.Object{},
//	})
//
// Signal propagation, cancellation of superseded loads and disposal are all
// handled by package resource; gate only decides whether a load reaches the
// data source.
package gate
