// Package server exposes the read API and the sync trigger over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/clawtrends/claw-trends/pkg/models"
)

// SyncRunner runs one reconciliation cycle.
type SyncRunner interface {
	Sync(ctx context.Context) (*models.SyncStats, error)
}

// ClusterReader serves aggregated clusters from the relational store.
type ClusterReader interface {
	Clusters(ctx context.Context, typ models.RecordType, since *time.Time) ([]models.Cluster, error)
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	syncer     SyncRunner
	clusters   ClusterReader
	cronSecret string
	log        zerolog.Logger
}

func New(syncer SyncRunner, clusters ClusterReader, cronSecret string, log zerolog.Logger) *Server {
	return &Server{
		syncer:     syncer,
		clusters:   clusters,
		cronSecret: cronSecret,
		log:        log,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.With(s.requireCronSecret).Get("/sync", s.handleSync)
		r.Get("/clusters", s.handleClusters)
	})

	return r
}

// ListenAndServe blocks until the context is canceled, then shuts down with a
// short grace period.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
