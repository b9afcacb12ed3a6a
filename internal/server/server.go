// Package server exposes configured tables as JSON resources over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/leaporm/internal/config"
	"github.com/leapstack-labs/leaporm/pkg/orm"
	"github.com/leapstack-labs/leaporm/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// Server serves model resources.
type Server struct {
	store     store.Backend
	cfg       config.ServerConfig
	resources map[string]*orm.Model
	logger    *slog.Logger
	registry  *prometheus.Registry
	metrics   *httpMetrics
}

// Options holds what a Server needs.
type Options struct {
	Store     store.Backend
	Config    config.ServerConfig
	Resources []config.ResourceConfig
	Logger    *slog.Logger
	// Registry receives HTTP and store metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
}

// New loads the schema of every resource and returns a ready server.
func New(ctx context.Context, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	s := &Server{
		store:     opts.Store,
		cfg:       opts.Config,
		resources: make(map[string]*orm.Model, len(opts.Resources)),
		logger:    logger,
		registry:  reg,
		metrics:   newHTTPMetrics(reg),
	}
	opts.Store.SetMetrics(store.NewMetrics(reg))

	for _, rc := range opts.Resources {
		proto, err := orm.New(ctx, opts.Store, rc.Entity(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to load resource %s: %w", rc.Table, err)
		}
		s.resources[rc.Table] = proto
		logger.Debug("resource loaded", "table", proto.Table(), "primary_key", proto.PrimaryColumn())
	}
	return s, nil
}

// Handler returns the HTTP handler with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		requestID,
		observe(s.logger, s.metrics),
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api/{table}", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Get("/{id}", s.show)
		r.Put("/{id}", s.update)
		r.Delete("/{id}", s.remove)
	})
	return r
}

// Serve listens on the configured address and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting server", "addr", ln.Addr().String(), "resources", len(s.resources))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = config.DefaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.GetVar(r.Context(), "SELECT 1"); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": s.store.Name()})
}
