// Package server serves the object search component over HTTP: a
// server-rendered page, a websocket channel that pushes fresh fragments as
// the component changes, and the operational endpoints.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/gated/internal/catalog"
	"github.com/vango-dev/gated/internal/demo"
	"github.com/vango-dev/gated/internal/errors"
	"github.com/vango-dev/gated/pkg/instrument"
	"github.com/vango-dev/gated/pkg/render"
	"github.com/vango-dev/gated/pkg/resource"
)

// Config configures a Server.
type Config struct {
	// Address is the listen address for Run.
	Address string

	// Title is shown in the page header.
	Title string

	// Lister is the catalog to search. Required.
	Lister catalog.Lister

	// Search configures every component instance. Its Lister, Logger and
	// Middleware fields are set by the server.
	Search demo.Options

	// RenderTimeout bounds how long GET / waits for results.
	RenderTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// WriteTimeout bounds each websocket write.
	WriteTimeout time.Duration

	// Registry enables metrics when set.
	Registry *prometheus.Registry

	// MetricsPath is where Registry is exposed. Defaults to /metrics.
	MetricsPath string

	// MetricsNamespace defaults to "gated".
	MetricsNamespace string

	// Tracing wraps resource loads in OpenTelemetry spans.
	Tracing bool

	// TracerName is the OpenTelemetry tracer name.
	TracerName string

	Logger *slog.Logger
}

// Server is the HTTP front end of the search component.
type Server struct {
	config     Config
	router     chi.Router
	upgrader   websocket.Upgrader
	renderer   *render.Renderer
	middleware []resource.Middleware
	logger     *slog.Logger

	liveGauge prometheus.Gauge

	mu         sync.Mutex
	live       map[string]*liveSession
	httpServer *http.Server
}

// New creates a Server.
func New(config Config) (*Server, error) {
	if config.Lister == nil {
		return nil, errors.New(errors.CodeServerStart).WithDetail("a catalog Lister is required")
	}
	if config.Title == "" {
		config.Title = "gated"
	}
	if config.RenderTimeout <= 0 {
		config.RenderTimeout = 2 * time.Second
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 10 * time.Second
	}
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}
	if config.MetricsNamespace == "" {
		config.MetricsNamespace = "gated"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	s := &Server{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		renderer: render.NewRenderer(render.RendererConfig{Doctype: true}),
		logger:   config.Logger.With("component", "server"),
		live:     make(map[string]*liveSession),
	}

	if config.Tracing {
		s.middleware = append(s.middleware, instrument.OpenTelemetry(instrument.WithTracerName(config.TracerName)))
	}
	if config.Registry != nil {
		metrics := instrument.NewMetrics(
			instrument.WithRegistry(config.Registry),
			instrument.WithNamespace(config.MetricsNamespace),
		)
		s.middleware = append(s.middleware, metrics.Middleware())
		s.liveGauge = promauto.With(config.Registry).NewGauge(prometheus.GaugeOpts{
			Namespace: config.MetricsNamespace,
			Name:      "live_sessions",
			Help:      "Number of open live search connections",
		})
	}

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/", s.handlePage)
	r.Get("/live", s.handleLive)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	})
	if s.config.Registry != nil {
		r.Method(http.MethodGet, s.config.MetricsPath, promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on the configured address and serves until ctx is done, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return errors.New(errors.CodeServerStart).
			WithDetailf("cannot listen on %s", s.config.Address).
			WithSuggestion("Choose another port with --port or server.port").
			Wrap(err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server starting", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	})
	return g.Wait()
}

// Shutdown closes live connections and gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	srv := s.httpServer
	sessions := make([]*liveSession, 0, len(s.live))
	for _, ls := range s.live {
		sessions = append(sessions, ls)
	}
	s.mu.Unlock()

	for _, ls := range sessions {
		ls.close(websocket.CloseGoingAway, "server shutting down")
	}

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("server shutdown complete")
	return nil
}

// LiveSessions returns the number of open live connections.
func (s *Server) LiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func (s *Server) newSearch(query string, log *slog.Logger) (*demo.ObjectSearch, error) {
	opts := s.config.Search
	opts.Lister = s.config.Lister
	opts.Logger = log
	opts.Middleware = append(append([]resource.Middleware(nil), opts.Middleware...), s.middleware...)
	return demo.NewObjectSearch(opts, query)
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
