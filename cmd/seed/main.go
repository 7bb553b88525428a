// Command seed loads example users and playlists into the configured
// backend (DB_TYPE and friends, as for the server).
//
//	go run ./cmd/seed -file data/example-db-data.json
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/sakif/playlister/internal/auth"
	"github.com/sakif/playlister/internal/config"
	"github.com/sakif/playlister/internal/observability"
	"github.com/sakif/playlister/internal/repository/backend"
	"github.com/sakif/playlister/internal/seed"
)

func main() {
	file := flag.String("file", "data/example-db-data.json", "example data document")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.Env)

	if err := run(cfg, *file, logger); err != nil {
		logger.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, file string, logger *slog.Logger) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := seed.Parse(f)
	if err != nil {
		return err
	}

	store, err := backend.New(cfg.Database, logger)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := store.Connect(ctx); err != nil {
		return err
	}
	defer store.Disconnect(ctx)

	_, err = seed.NewLoader(store, auth.NewPasswordService(), logger).Load(ctx, data)
	return err
}
