// Package demo contains the example consumer of package gate: a catalog
// search component whose queries only reach the catalog once they are long
// enough.
package demo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/gated/internal/catalog"
	"github.com/vango-dev/gated/internal/errors"
	"github.com/vango-dev/gated/pkg/gate"
	"github.com/vango-dev/gated/pkg/observable"
	"github.com/vango-dev/gated/pkg/reactive"
	"github.com/vango-dev/gated/pkg/resource"
	. "github.com/vango-dev/gated/pkg/vdom"
)

// Options configures NewObjectSearch.
type Options struct {
	// Lister is the catalog to search. Required.
	Lister catalog.Lister

	// Prefix is prepended to every query and scopes the summary.
	Prefix string

	// MinQueryLength is the shortest trimmed query that reaches the
	// catalog. Defaults to 3.
	MinQueryLength int

	// Limit caps the number of results. Defaults to 50.
	Limit int

	// WatchInterval is how often the summary is refreshed.
	WatchInterval time.Duration

	// Retries is the number of retries for a failed listing.
	Retries int

	Logger *slog.Logger

	// Middleware is applied to both resources.
	Middleware []resource.Middleware
}

// ObjectSearch is a search box over a catalog. Results lists the objects
// matching Query; Summary follows the totals for the same prefix. Both are
// gated: a query shorter than MinQueryLength leaves them at their defaults
// without touching the catalog.
type ObjectSearch struct {
	Query   *reactive.Signal[string]
	Results *resource.Resource[[]catalog.Object]
	Summary *resource.Resource[catalog.Summary]

	opts   Options
	filter gate.Filter[string]
	owner  *reactive.Owner
}

// NewObjectSearch creates the component under a new owner, child of the
// current one. Call Dispose to stop it.
func NewObjectSearch(opts Options, initialQuery string) (*ObjectSearch, error) {
	if opts.Lister == nil {
		return nil, errors.New(errors.CodeInvalidOptions).WithDetail("object search needs a catalog Lister")
	}
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = 3
	}
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &ObjectSearch{
		Query:  reactive.NewSignal(initialQuery),
		opts:   opts,
		filter: gate.MinLength(opts.MinQueryLength),
		owner:  reactive.NewOwner(reactive.CurrentOwner()),
	}

	var err error
	reactive.WithOwner(s.owner, func() {
		err = s.setup()
	})
	if err != nil {
		s.owner.Dispose()
		return nil, err
	}
	return s, nil
}

func (s *ObjectSearch) setup() error {
	request := func() string { return strings.TrimSpace(s.Query.Get()) }
	common := []resource.Option{
		resource.WithLogger(s.opts.Logger),
		resource.WithMiddleware(s.opts.Middleware...),
	}

	results, err := gate.Resource(gate.Options[string, []catalog.Object]{
		Request: request,
		Filter:  s.filter,
		Loader: func(ctx context.Context, p resource.LoaderParams[string]) ([]catalog.Object, error) {
			return s.opts.Lister.List(ctx, s.opts.Prefix+p.Request, s.opts.Limit)
		},
		DefaultValue: []catalog.Object{},
	}, append(common,
		resource.WithName("object_search"),
		resource.WithRetry(s.opts.Retries, 100*time.Millisecond),
	)...)
	if err != nil {
		return err
	}

	summary, err := gate.ObservableResource(gate.ObservableOptions[string, catalog.Summary]{
		Request: request,
		Filter:  s.filter,
		Loader: func(p resource.LoaderParams[string]) observable.Observable[catalog.Summary] {
			return catalog.Watch(s.opts.Lister, s.opts.Prefix+p.Request, s.opts.WatchInterval)
		},
		DefaultValue: catalog.Summary{},
	}, append(common, resource.WithName("object_summary"))...)
	if err != nil {
		return err
	}

	s.Results, s.Summary = results, summary
	return nil
}

// SetQuery replaces the query. Resources follow once the owner's pending
// effects run; see RunPending.
func (s *ObjectSearch) SetQuery(q string) {
	s.Query.Set(q)
}

// RunPending runs effects scheduled by query changes.
func (s *ObjectSearch) RunPending() {
	s.owner.RunPendingEffects()
}

// Owner returns the component's owner.
func (s *ObjectSearch) Owner() *reactive.Owner {
	return s.owner
}

// Accepts reports whether q is long enough to reach the catalog.
func (s *ObjectSearch) Accepts(q string) bool {
	return s.filter(strings.TrimSpace(q))
}

// Wait blocks until both resources have settled or ctx is done. It returns
// the first resource error.
func (s *ObjectSearch) Wait(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Results.Wait(ctx) })
	g.Go(func() error { return s.Summary.Wait(ctx) })
	return g.Wait()
}

// Dispose stops both resources and cancels their loads.
func (s *ObjectSearch) Dispose() {
	s.owner.Dispose()
}

// Render renders the component.
func (s *ObjectSearch) Render() *VNode {
	query := s.Query.Get()
	accepted := s.Accepts(query)

	return Section(Class("object-search"),
		Form(Role("search"), AttrKV("method", "get"), AttrKV("action", "/"),
			Label(AttrKV("for", "q"), "Search objects"),
			Input(ID("q"), Type("search"), Name("q"), Value(query),
				Placeholder(fmt.Sprintf("At least %d characters", s.opts.MinQueryLength)),
				Autofocus(),
			),
		),
		Div(ID("summary"), Class("summary"), s.renderSummary(accepted)),
		Div(ID("results"), AriaLive("polite"), AriaBusy(s.Results.IsLoading()),
			s.renderResults(query, accepted),
		),
	)
}

func (s *ObjectSearch) renderSummary(accepted bool) *VNode {
	if !accepted {
		return nil
	}
	return s.Summary.Match(
		resource.OnLoading[catalog.Summary](func() *VNode {
			return Small("Counting objects…")
		}),
		resource.OnError[catalog.Summary](func(err error) *VNode {
			return Small(Class("error"), "Summary unavailable")
		}),
		resource.OnReady(func(sum catalog.Summary) *VNode {
			return Small(Textf("%d objects, %s under %q", sum.Objects, FormatBytes(sum.Bytes), sum.Prefix))
		}),
	)
}

func (s *ObjectSearch) renderResults(query string, accepted bool) *VNode {
	if !accepted {
		if strings.TrimSpace(query) == "" {
			return P(Class("hint"), "Type a key prefix to search the catalog.")
		}
		return P(Class("hint"), Textf("Keep typing: at least %d characters are needed.", s.opts.MinQueryLength))
	}

	return s.Results.Match(
		resource.OnLoadingOrPending[[]catalog.Object](func() *VNode {
			return P(Class("loading"), "Searching…")
		}),
		resource.OnError[[]catalog.Object](func(err error) *VNode {
			return P(Class("error"), Textf("Search failed: %v", err))
		}),
		resource.OnReady(func(objects []catalog.Object) *VNode {
			if len(objects) == 0 {
				return P(Class("empty"), Textf("No objects match %q.", strings.TrimSpace(query)))
			}
			return Ul(Class("results"),
				Range(objects, func(o catalog.Object) *VNode {
					return Li(Key(o.Key),
						Code(o.Key), " ",
						Small(Textf("%s, %s", FormatBytes(o.Size), o.LastModified.Format(time.DateOnly))),
					)
				}),
			)
		}),
	)
}

// WriteText writes the current state as plain text, one object per line.
func (s *ObjectSearch) WriteText(w io.Writer) error {
	query := strings.TrimSpace(s.Query.Peek())
	if !s.Accepts(query) {
		_, err := fmt.Fprintf(w, "query %q is shorter than %d characters; catalog not searched\n", query, s.opts.MinQueryLength)
		return err
	}

	objects, state, err := s.Results.Snapshot()
	if state == resource.Error {
		return err
	}
	for _, o := range objects {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", o.Key, FormatBytes(o.Size), o.LastModified.Format(time.RFC3339)); err != nil {
			return err
		}
	}

	if sum, state, _ := s.Summary.Snapshot(); state == resource.Ready {
		_, err := fmt.Fprintf(w, "-- %d of %d objects under %q (%s)\n", len(objects), sum.Objects, sum.Prefix, FormatBytes(sum.Bytes))
		return err
	}
	return nil
}

// FormatBytes formats n using binary units.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
