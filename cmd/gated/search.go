package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/gated/internal/config"
	"github.com/vango-dev/gated/internal/demo"
	"github.com/vango-dev/gated/internal/errors"
	"github.com/vango-dev/gated/pkg/render"
)

func searchCmd(global *globalOptions) *cobra.Command {
	var (
		format  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one search and print the result",
		Long: `Run the search component once and print its state.

Queries shorter than search.minQueryLength never reach the catalog.

Examples:
  gated search docs/
  gated search reports --format=html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runSearch(ctx, cmd.OutOrStdout(), cfg, args[0], format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or html")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "How long to wait for the catalog")

	return cmd
}

func runSearch(ctx context.Context, w io.Writer, cfg *config.Config, query, format string) error {
	if format != "text" && format != "html" {
		return errors.New(errors.CodeInvalidOptions).
			WithDetailf("unknown format %q", format).
			WithSuggestion("Use --format=text or --format=html")
	}

	lister, release, err := newLister(cfg)
	if err != nil {
		return err
	}
	defer release()

	search, err := demo.NewObjectSearch(demo.Options{
		Lister:         lister,
		MinQueryLength: cfg.Search.MinQueryLength,
		Limit:          cfg.Search.Limit,
		WatchInterval:  cfg.WatchInterval(),
		Retries:        cfg.Search.Retries,
		Logger:         cfg.NewLogger(io.Discard),
	}, query)
	if err != nil {
		return err
	}
	defer search.Dispose()

	if search.Accepts(query) {
		if err := search.Wait(ctx); err != nil {
			if stderrors.Is(err, context.DeadlineExceeded) {
				return errors.New(errors.CodeLoadCanceled).
					WithDetailf("search for %q timed out", strings.TrimSpace(query)).
					Wrap(err)
			}
			if format == "text" {
				return err
			}
		}
	}

	if format == "text" {
		return search.WriteText(w)
	}
	r := render.NewRenderer(render.RendererConfig{Pretty: true})
	if err := r.RenderToWriter(w, search.Render()); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w)
	return err
}
