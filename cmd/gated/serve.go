package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/gated/internal/config"
	"github.com/vango-dev/gated/internal/demo"
	"github.com/vango-dev/gated/internal/server"
)

func serveCmd(global *globalOptions) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the search server",
		Long: `Start the HTTP server.

Routes:
  GET /          server-rendered search page (?q= prefills the query)
  GET /live      websocket pushing fresh results as the query changes
  GET /metrics   Prometheus metrics (when metrics.enabled)
  GET /healthz   liveness probe

Examples:
  gated serve
  gated serve --port=9000 --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from gated.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from gated.json)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := cfg.NewLogger(os.Stderr)

	lister, release, err := newLister(cfg)
	if err != nil {
		return err
	}
	defer release()

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	srv, err := server.New(server.Config{
		Address: cfg.Address(),
		Title:   cfg.Name,
		Lister:  lister,
		Search: demo.Options{
			MinQueryLength: cfg.Search.MinQueryLength,
			Limit:          cfg.Search.Limit,
			WatchInterval:  cfg.WatchInterval(),
			Retries:        cfg.Search.Retries,
		},
		RenderTimeout:    cfg.RenderTimeout(),
		ShutdownTimeout:  cfg.ShutdownTimeout(),
		Registry:         reg,
		MetricsPath:      cfg.Metrics.Path,
		MetricsNamespace: cfg.Metrics.Namespace,
		Tracing:          cfg.Tracing.Enabled,
		TracerName:       cfg.Tracing.TracerName,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	logger.Info("catalog ready", "backend", cfg.Catalog.Backend, "bucket", cfg.Catalog.Bucket)
	return srv.Run(ctx)
}
