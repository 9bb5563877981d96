// Package web provides the HTTP server and handlers for the tariff dashboard.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/tariffdash/internal/config"
	"github.com/JonMunkholm/tariffdash/internal/core"
	mw "github.com/JonMunkholm/tariffdash/internal/web/middleware"
)

// Server is the HTTP server for the dashboard. It only reads from the
// snapshot store; publishing happens elsewhere.
type Server struct {
	store    *core.SnapshotStore
	cfg      *config.Config
	registry *prometheus.Registry
	limiter  *mw.RateLimiter
	router   *chi.Mux
	server   *http.Server

	// sweep bounds the rate limiter's cleanup loop
	sweep context.Context
	stop  context.CancelFunc
}

// NewServer creates a Server. HTTP metrics are registered with reg, which
// is also what /metrics exposes. A nil reg gets a fresh registry.
func NewServer(store *core.SnapshotStore, cfg *config.Config, reg *prometheus.Registry) *Server {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := &Server{
		store:    store,
		cfg:      cfg,
		registry: reg,
		router:   chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.limiter = mw.NewRateLimiter(cfg.Rate.RequestsPerMinute, cfg.Rate.Burst)
	}
	s.sweep, s.stop = context.WithCancel(context.Background())
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(mw.NewHTTPMetrics(s.registry).Handler)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(s.securityHeaders)

	if s.limiter != nil {
		s.router.Use(s.limiter.Handler(s.handleRateLimited))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleDashboard)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.cfg.Security))
		r.Use(s.requireSnapshot)

		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/combined", s.handleCombined)
		r.Get("/datasets", s.handleDatasets)

		r.Get("/trends", s.handleTrends)
		r.Get("/trends/{country}", s.handleTrend)

		r.Get("/charts", s.handleCharts)
		r.Get("/charts/{chart}", s.handleChart)

		r.Get("/summary", s.handleSummary)
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, errNotFound, http.StatusNotFound)
	})
}

// Start begins listening for HTTP requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	if s.limiter != nil {
		go s.limiter.Run(s.sweep, time.Minute)
	}

	slog.Info("server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// The dashboard uses one inline stylesheet and no scripts
		if s.cfg.Security.EnableCSP {
			w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'none'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		}

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
