// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api serves health, ensemble status and metrics endpoints while a
// survey is running.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/exosurvey/internal/ensemble"
	"github.com/ManuGH/exosurvey/internal/log"
	"github.com/ManuGH/exosurvey/internal/version"
)

// StatusSource exposes ensemble progress to the status endpoint.
type StatusSource interface {
	Progress() ensemble.Progress
}

// Config holds the server settings.
type Config struct {
	Listen string
	// RateLimit is requests per minute per client IP.
	RateLimit int
}

// Server is the survey status HTTP server.
type Server struct {
	cfg    Config
	status StatusSource
	srv    *http.Server
	logger zerolog.Logger
}

// New builds the server; status may be nil when no ensemble is running.
func New(cfg Config, status StatusSource) *Server {
	s := &Server{
		cfg:    cfg,
		status: status,
		logger: log.WithComponent("api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httprate.Limit(
		cfg.RateLimit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	))

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/status", s.handleStatus)
	r.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the route tree, used directly in tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("listen", s.cfg.Listen).Msg("status server listening")
	if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains connections until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.status == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "no ensemble running",
		})
		return
	}
	writeJSON(w, http.StatusOK, s.status.Progress())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
