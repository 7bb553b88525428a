// Package backend picks the storage engine named by configuration.
package backend

import (
	"log/slog"
	"strings"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/config"
	"github.com/sakif/playlister/internal/repository"
	"github.com/sakif/playlister/internal/repository/document"
	"github.com/sakif/playlister/internal/repository/relational"
)

// New returns an unconnected store for cfg.Type. Names match
// case-insensitively:
//
//	document, mongodb, mongo             → document backend (DB_CONNECT, DB_NAME)
//	relational, postgres, postgresql     → relational backend on postgres
//	sqlite                               → relational backend on sqlite (DB_PATH)
//
// An unknown name, or a backend missing its connection parameters, fails
// with apperror.ErrConfiguration.
func New(cfg config.Database, logger *slog.Logger) (repository.Store, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Type))
	switch name {
	case "document", "mongodb", "mongo":
		return store(document.New(document.Config{
			URI:      cfg.URI,
			Database: cfg.Name,
			Timeout:  cfg.Timeout,
		}, logger))

	case "relational", "postgres", "postgresql":
		return store(relational.New(relational.Config{
			Dialect: relational.DialectPostgres,
			DSN:     cfg.PostgresDSN(),
			Timeout: cfg.Timeout,
		}, logger))

	case "sqlite":
		return store(relational.New(relational.Config{
			Dialect: relational.DialectSQLite,
			Path:    cfg.Path,
			Timeout: cfg.Timeout,
		}, logger))
	}

	return nil, apperror.Misconfigured("unknown database type %q", cfg.Type)
}

// store keeps a failed constructor's typed nil out of the interface.
func store[S repository.Store](s S, err error) (repository.Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
