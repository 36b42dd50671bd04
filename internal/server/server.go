// Package server exposes the CRUD surface: templates, pipeline runs, source
// uploads, and output downloads. Runs are handed off to the orchestrator
// through the broker queue; nothing here does extraction work.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tanjoen/forenaide/internal/broker"
	"github.com/tanjoen/forenaide/internal/repository"
	"github.com/tanjoen/forenaide/internal/storage"
)

type Config struct {
	Addr          string
	SourcesBucket string
	OutputsBucket string
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds and wires all routes.
func New(cfg Config, runs repository.RunRepository, templates repository.TemplateRepository,
	outputRecs repository.OutputRepository, store storage.ObjectStore, queue broker.Queue, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	h := &handlers{
		cfg:       cfg,
		runs:      runs,
		templates: templates,
		outputs:   outputRecs,
		store:     store,
		queue:     queue,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(api chi.Router) {
		api.Get("/strategies", h.listStrategies)

		api.Route("/templates", func(t chi.Router) {
			t.Post("/", h.createTemplate)
			t.Get("/", h.listTemplates)
			t.Get("/{templateID}", h.getTemplate)
			t.Delete("/{templateID}", h.deleteTemplate)
		})

		api.Route("/pipelines", func(p chi.Router) {
			p.Post("/", h.createRun)
			p.Get("/", h.listRuns)
			p.Get("/{runID}", h.getRun)
		})

		api.Post("/sources/upload", h.uploadSource)
		api.Delete("/sources/{storagePath}", h.deleteSource)
		api.Get("/outputs/{runID}.json", h.downloadJSON)
		api.Get("/outputs/{runID}.csv", h.downloadCSV)
		api.Get("/outputs/{runID}.xlsx", h.downloadXLSX)
	})

	return &Server{
		httpServer: &http.Server{Addr: cfg.Addr, Handler: r},
		logger:     logger,
	}
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("server.listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server.shutdown")
	return s.httpServer.Shutdown(ctx)
}
