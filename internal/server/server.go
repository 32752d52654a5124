// Package server exposes the tool registry, admission state and operational
// endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ghlink/ghlink/internal/core"
	"github.com/ghlink/ghlink/internal/core/engine"
	apperrors "github.com/ghlink/ghlink/internal/errors"
	"github.com/ghlink/ghlink/internal/observability"
	"github.com/ghlink/ghlink/internal/server/handlers"
	servermw "github.com/ghlink/ghlink/internal/server/middleware"
	"github.com/ghlink/ghlink/internal/tools"
)

// AdmissionSource reports the shared admission window.
type AdmissionSource interface {
	Snapshot() engine.AdmissionSnapshot
}

// QuotaLister returns the last quota GitHub reported per resource.
type QuotaLister interface {
	ListQuotas(ctx context.Context) ([]core.Quota, error)
}

// Options configures a Server. Registry is required; Admission, Quotas and
// Health may be nil, which disables the routes that need them.
type Options struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	Registry   *tools.Registry
	Admission  AdmissionSource
	Quotas     QuotaLister
	Health     *handlers.HealthManager
	AdminToken string
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	opts   Options
}

// New creates a new HTTP server instance
func New(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, errors.New("server: tool registry is required")
	}
	if opts.Health == nil {
		opts.Health = handlers.NewHealthManager(handlers.AppVersion)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	// Order: request ID first for correlation, metrics around everything,
	// recovery innermost so panics still produce a measured 500.
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s := &Server{router: r, opts: opts}
	handlers.SetHTTPErrorResponder(HandleError)
	s.registerRoutes()
	return s, nil
}

// Start listens until Shutdown. It returns http.ErrServerClosed after a
// graceful shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  durationOr(s.opts.ReadTimeout, 30*time.Second),
		WriteTimeout: durationOr(s.opts.WriteTimeout, 30*time.Second),
		IdleTimeout:  durationOr(s.opts.IdleTimeout, 120*time.Second),
	}

	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Starting HTTP server",
			zap.String("addr", addr),
			zap.Int("tools", s.opts.Registry.Len()))
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Shutting down HTTP server")
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.opts.Port
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
