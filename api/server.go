// Package api provides the HTTP surface of the product assistant.
//
// Endpoints:
//
//	GET  /health            → liveness probe
//	GET  /api/capabilities  → configured tools and upstream key status
//	POST /api/query         → run the agent, return the final answer
//	GET  /api/query/stream  → run the agent, stream progress over SSE
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/save-ai/save/internal/agent"
	"github.com/save-ai/save/internal/config"
	"github.com/save-ai/save/internal/log"
	"github.com/save-ai/save/internal/tools"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout guards against Slowloris-style clients.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout bounds a response. Generous because an agent run
	// may take several model and tool round trips.
	WriteTimeout = 120 * time.Second

	// IdleTimeout closes idle keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// runner starts an agent run and returns its event stream.
// Satisfied by *agent.Orchestrator.
type runner interface {
	Run(ctx context.Context, sessionID, input string) <-chan agent.Event
}

// Server is the HTTP server for the assistant API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	health *HealthHandler
	query  *QueryHandler
}

// NewServer creates the server with all routes registered.
func NewServer(orch runner, cfg *config.Config, descriptors []tools.Descriptor, logger log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:    mux,
		logger: logger,
		health: NewHealthHandler(cfg, descriptors),
		query:  NewQueryHandler(orch, logger),
	}
	s.health.RegisterRoutes(mux)
	s.query.RegisterRoutes(mux)
	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger))
}

// Run starts the server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
