// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes preview, learn, stats and compare over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/shipcheck/internal/convert"
	"github.com/pdiddy/shipcheck/internal/learn"
	"github.com/pdiddy/shipcheck/internal/metrics"
	"github.com/pdiddy/shipcheck/internal/preview"
	"github.com/pdiddy/shipcheck/pkg/types"
)

const (
	defaultMaxUploadMB = 16
	shutdownTimeout    = 10 * time.Second
)

// StatsSource reports pattern store coverage.
type StatsSource interface {
	Stats(ctx context.Context) (types.PatternStats, error)
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Orchestrator *preview.Orchestrator
	Learner      *learn.Learner
	Stats        StatsSource
	// Converter reads uploaded PDFs; nil accepts plain-text uploads only.
	Converter convert.Converter
	Metrics   *metrics.Metrics
}

// Server is the HTTP surface.
type Server struct {
	cfg    types.ServerConfig
	deps   Deps
	router chi.Router
}

// New builds a Server and its routes.
func New(cfg types.ServerConfig, deps Deps) *Server {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = defaultMaxUploadMB
	}
	s := &Server{cfg: cfg, deps: deps}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/preview", s.handlePreview)
	r.Post("/learn", s.handleLearn)
	r.Get("/learning/stats", s.handleStats)
	r.Post("/compare", s.handleCompare)
	r.Post("/compare_direct", s.handleCompareDirect)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		zap.L().Info("listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "server: listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	zap.L().Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server: shutdown")
	}
	return nil
}

// requestLogger logs one line per request with the zap global logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
