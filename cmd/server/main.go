// Package main is the entry point for the knowledge base server.
//
// The main package stays minimal: load configuration, build a logger, hand
// everything to internal/server. All actual logic lives in imported packages.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/teamtalks/knowledgebase/internal/config"
	"github.com/teamtalks/knowledgebase/internal/server"
)

func main() {
	cfgFile := flag.String("config", "", "config file (default: ./knowledgebase.yaml or ~/.config/knowledgebase/config.yaml)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
