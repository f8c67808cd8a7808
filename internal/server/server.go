// Package server exposes flows and records over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/medportal/medassist/internal/docstore"
	"github.com/medportal/medassist/internal/flow"
)

// Records is the read-only document access the server needs.
type Records interface {
	Get(ctx context.Context, collection, id string) (*docstore.Document, error)
	Query(ctx context.Context, collection string, f docstore.Filter, limit int) ([]docstore.Document, error)
	Collections(ctx context.Context) ([]string, error)
}

// Server is the HTTP surface.
type Server struct {
	echo    *echo.Echo
	exec    *flow.Executor
	records Records
	logger  zerolog.Logger

	bodyLimit       string
	corsOrigins     []string
	shutdownTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithRecords enables the /v1/records routes.
func WithRecords(r Records) Option {
	return func(s *Server) {
		s.records = r
	}
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithBodyLimit caps request bodies, e.g. "8M".
func WithBodyLimit(limit string) Option {
	return func(s *Server) {
		s.bodyLimit = limit
	}
}

// WithCORSOrigins allows browser calls from the given origins.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// New builds a server for exec.
func New(exec *flow.Executor, opts ...Option) *Server {
	s := &Server{
		exec:            exec,
		logger:          zerolog.Nop(),
		bodyLimit:       "8M",
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler

	e.Use(Recovery(s.logger))
	e.Use(RequestID())
	e.Use(Logger(s.logger))
	e.Use(echomw.BodyLimit(s.bodyLimit))
	if len(s.corsOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: s.corsOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost},
			AllowHeaders: []string{"Content-Type", RequestIDHeader},
		}))
	}

	s.echo = e
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", s.health)

	v1 := s.echo.Group("/v1")
	v1.GET("/flows", s.listFlows)
	v1.GET("/flows/:name", s.getFlow)
	v1.POST("/flows/:name", s.invokeFlow)

	if s.records != nil {
		v1.GET("/records", s.listCollections)
		v1.GET("/records/:collection", s.queryRecords)
		v1.GET("/records/:collection/:id", s.getRecord)
	}
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("starting server")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info().Msg("server stopped")
	return nil
}
