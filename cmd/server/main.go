// Package main is the entry point for the playlister API server.
//
// main only assembles dependencies:
//  1. configuration (.env + environment)
//  2. logger
//  3. storage backend selected by DB_TYPE, wrapped with metrics, connected
//  4. HTTP server
//
// Everything else lives under internal/.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sakif/playlister/internal/config"
	"github.com/sakif/playlister/internal/observability"
	"github.com/sakif/playlister/internal/repository/backend"
	"github.com/sakif/playlister/internal/repository/instrumented"
	"github.com/sakif/playlister/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.Env)

	// Metrics live on their own registry, exposed at /metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	raw, err := backend.New(cfg.Database, logger)
	if err != nil {
		logger.Error("invalid database configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	store := instrumented.Wrap(raw, prom)

	// Connect up front so a bad DSN fails at boot, not on the first request.
	if err := store.Connect(context.Background()); err != nil {
		logger.Error("failed to connect to database",
			slog.String("backend", store.Backend()),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	srv, err := server.New(cfg, store, reg, prom, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		store.Disconnect(context.Background())
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM and disconnects the store on the way out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
