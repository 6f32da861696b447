// Package main rebuilds the vector index from the question files on disk.
//
// Run this after bulk-editing records, after an index outage, or when
// switching embedding models:
//
//	reindex -config knowledgebase.yaml
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/teamtalks/knowledgebase/internal/config"
	"github.com/teamtalks/knowledgebase/internal/index"
	"github.com/teamtalks/knowledgebase/internal/index/openai"
	"github.com/teamtalks/knowledgebase/internal/index/pinecone"
	"github.com/teamtalks/knowledgebase/internal/index/sqlitevec"
	filerepo "github.com/teamtalks/knowledgebase/internal/repository/file"
	"github.com/teamtalks/knowledgebase/internal/service"
)

func main() {
	cfgFile := flag.String("config", "", "config file (default: ./knowledgebase.yaml or ~/.config/knowledgebase/config.yaml)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if !cfg.IndexingEnabled() {
		logger.Error("no index backend configured; set index.backend to pinecone or sqlite")
		os.Exit(1)
	}

	// Ctrl+C aborts between batches; already-committed batches stay in place.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := filerepo.New(cfg.Store.DataDir, logger)
	if err != nil {
		logger.Error("failed to open question store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	embedder := openai.New(openai.Config{
		BaseURL:   cfg.Embedding.BaseURL,
		APIKey:    cfg.Embedding.APIKey,
		Model:     cfg.Embedding.Model,
		Dimension: cfg.Embedding.Dimension,
		Timeout:   cfg.Embedding.Timeout,
	})

	var backend index.VectorIndex
	switch cfg.Index.Backend {
	case config.IndexBackendPinecone:
		backend = pinecone.New(pinecone.Config{
			Host:    cfg.Index.PineconeHost,
			APIKey:  cfg.Index.PineconeKey,
			Timeout: cfg.Index.Timeout,
		})
	case config.IndexBackendSQLite:
		idx, err := sqlitevec.New(cfg.Index.SQLitePath)
		if err != nil {
			logger.Error("failed to open vector database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer idx.Close()
		backend = idx
	}

	sync := index.NewSynchronizer(embedder, backend, cfg.Index.BatchSize, logger)
	svc := service.NewQuestionService(store, sync, logger)

	n, err := svc.ReindexAll(ctx)
	if err != nil {
		logger.Error("reindex failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("reindex completed", slog.Int("indexed", n))
}
