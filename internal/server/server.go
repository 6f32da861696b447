// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: the file store, the embedding client, the
// vector index backend, the services, and the handlers are all wired
// together here, so main.go stays minimal.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/teamtalks/knowledgebase/internal/config"
	"github.com/teamtalks/knowledgebase/internal/handler"
	"github.com/teamtalks/knowledgebase/internal/index"
	"github.com/teamtalks/knowledgebase/internal/index/openai"
	"github.com/teamtalks/knowledgebase/internal/index/pinecone"
	"github.com/teamtalks/knowledgebase/internal/index/sqlitevec"
	"github.com/teamtalks/knowledgebase/internal/middleware"
	filerepo "github.com/teamtalks/knowledgebase/internal/repository/file"
	"github.com/teamtalks/knowledgebase/internal/service"
)

// Server owns the router and every long-lived resource behind it. The
// embedded SQLite index (when configured) holds a file lock, so the server
// closes it during shutdown.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger

	indexCloser io.Closer // nil unless the index backend needs closing
}

// New assembles the full dependency chain:
//
//	file.Store → QuestionService → QuestionHandler
//	Embedder + VectorIndex → Synchronizer (feeds QuestionService)
//	                       → SearchService → SearchHandler
//
// Each layer only receives what it needs — the handler never touches the
// store, the service never touches HTTP.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
	}

	store, err := filerepo.New(cfg.Store.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening question store: %w", err)
	}

	var (
		sync      *index.Synchronizer
		searchSvc *service.SearchService
	)
	if cfg.IndexingEnabled() {
		embedder := openai.New(openai.Config{
			BaseURL:   cfg.Embedding.BaseURL,
			APIKey:    cfg.Embedding.APIKey,
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
			Timeout:   cfg.Embedding.Timeout,
		})

		backend, err := s.buildIndexBackend()
		if err != nil {
			return nil, err
		}

		sync = index.NewSynchronizer(embedder, backend, cfg.Index.BatchSize, logger)
		searchSvc = service.NewSearchService(embedder, backend, logger)
	}

	questionSvc := service.NewQuestionService(store, sync, logger)
	s.setupRoutes(questionSvc, searchSvc)
	return s, nil
}

func (s *Server) buildIndexBackend() (index.VectorIndex, error) {
	switch s.cfg.Index.Backend {
	case config.IndexBackendPinecone:
		return pinecone.New(pinecone.Config{
			Host:    s.cfg.Index.PineconeHost,
			APIKey:  s.cfg.Index.PineconeKey,
			Timeout: s.cfg.Index.Timeout,
		}), nil

	case config.IndexBackendSQLite:
		idx, err := sqlitevec.New(s.cfg.Index.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening vector database: %w", err)
		}
		s.indexCloser = idx
		return idx, nil

	default:
		return nil, fmt.Errorf("unknown index backend %q", s.cfg.Index.Backend)
	}
}

// setupRoutes configures all middleware and route handlers.
//
// Middleware order matters: request IDs first so the logger can report them,
// Recoverer last so panics inside handlers still produce a logged 500.
func (s *Server) setupRoutes(questionSvc *service.QuestionService, searchSvc *service.SearchService) {
	s.router.Use(middleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	questionHandler := handler.NewQuestionHandler(questionSvc, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		// Legacy list-all route kept for clients written against the old API.
		r.Get("/knowledgedata", questionHandler.HandleList)

		r.Get("/questions", questionHandler.HandleList)
		r.Post("/questions", questionHandler.HandleCreate)
		r.Get("/questions/{id}", questionHandler.HandleGet)
		r.Put("/questions/{id}", questionHandler.HandleAppendAnswer)
		r.Patch("/questions/{id}", questionHandler.HandlePatch)
		r.Patch("/questions/{id}/answers/{answerId}/upvote", questionHandler.HandleUpvoteAnswer)

		r.Get("/contributors/top", questionHandler.HandleTopContributors)
		r.Post("/reindex", questionHandler.HandleReindex)

		if searchSvc != nil {
			searchHandler := handler.NewSearchHandler(searchSvc, s.logger)
			r.Get("/search", searchHandler.HandleSearch)
		}
	})
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the index backend.
func (s *Server) Start() error {
	defer s.closeIndex()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Server.Port),
			slog.String("data_dir", s.cfg.Store.DataDir),
			slog.String("index_backend", s.cfg.Index.Backend),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

func (s *Server) closeIndex() {
	if s.indexCloser == nil {
		return
	}
	if err := s.indexCloser.Close(); err != nil {
		s.logger.Error("failed to close vector index", slog.String("error", err.Error()))
	}
}
