// Package server exposes the sync service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/invoicebridge/internal/graphql"
	"github.com/tournevent/invoicebridge/internal/syncer"
	"github.com/tournevent/invoicebridge/pkg/orders"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Runner triggers and reports sync runs.
type Runner interface {
	Run(ctx context.Context) (*syncer.Summary, error)
	LastSummary() *syncer.Summary
	Running() bool
}

// Server is the HTTP server for the sync service.
type Server struct {
	port     int
	runner   Runner
	prober   orders.Prober
	gatherer prometheus.Gatherer
	logger   *otelzap.Logger
	resolver *graphql.Resolver
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance. gatherer backs /metrics.
func New(cfg Config, runner Runner, prober orders.Prober, gatherer prometheus.Gatherer, logger *otelzap.Logger) *Server {
	return &Server{
		port:     cfg.Port,
		runner:   runner,
		prober:   prober,
		gatherer: gatherer,
		logger:   logger,
		resolver: graphql.NewResolver(runner, logger),
	}
}

// Handler returns the service routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /diag/orders", s.handleDiagnostics)
	mux.HandleFunc("GET /diag/wsdl", s.handleDiagnostics)
	mux.HandleFunc("POST /sync", s.handleSync)
	mux.HandleFunc("GET /sync/last", s.handleLastSync)
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/graphql", s.resolver)

	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	// POST /sync answers only after a whole run.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.prober.Probe(r.Context()))
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	summary, err := s.runner.Run(r.Context())
	switch {
	case errors.Is(err, syncer.ErrRunInProgress):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, syncer.ErrRunAborted) && summary != nil:
		writeJSON(w, http.StatusBadGateway, summary)
	case err != nil:
		s.logger.Ctx(r.Context()).Error("Manual sync failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, summary)
	}
}

func (s *Server) handleLastSync(w http.ResponseWriter, r *http.Request) {
	summary := s.runner.LastSummary()
	if summary == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
