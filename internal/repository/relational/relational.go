// Package relational implements repository.Store on a relational database
// through GORM.
//
// SCHEMA:
//
//	users(id, first_name, last_name, email UNIQUE, password_hash, created_at, updated_at)
//	playlists(id, name, owner_email, songs, created_at, updated_at)
//
// IDs are auto-increment integers. A user's playlists are the rows whose
// owner_email equals the user's email: the association is keyed by email,
// not by id, because email is the one key both backends share. There is no
// membership array to maintain, so the membership fields of
// repository.UserPatch are ignored.
//
// DIALECTS:
//   - "postgres": gorm.io/driver/postgres (pgx under the hood)
//   - "sqlite":   modernc.org/sqlite, the pure-Go driver, handed to
//     gorm.io/driver/sqlite as an already-open *sql.DB. ":memory:" gives
//     every test its own throwaway database.
package relational

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/repository"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Config holds the connection parameters. Only the fields of the selected
// dialect are read.
type Config struct {
	Dialect string
	DSN     string // postgres connection string
	Path    string // sqlite file path or ":memory:"

	MaxOpenConns int
	Timeout      time.Duration // engine-level busy/connect timeout
}

// Store is the relational backend.
type Store struct {
	cfg    Config
	logger *slog.Logger

	life repository.Lifecycle
	db   *gorm.DB
}

// compile-time check that *Store implements the full contract
var _ repository.Store = (*Store)(nil)

// New validates cfg and returns an unconnected Store. Nothing touches the
// network or disk until Connect or the first operation.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	cfg.Dialect = strings.ToLower(strings.TrimSpace(cfg.Dialect))
	switch cfg.Dialect {
	case "", "postgresql":
		cfg.Dialect = DialectPostgres
	}

	switch cfg.Dialect {
	case DialectPostgres:
		if cfg.DSN == "" {
			return nil, apperror.Misconfigured("relational: postgres dialect requires a DSN")
		}
	case DialectSQLite:
		if cfg.Path == "" {
			return nil, apperror.Misconfigured("relational: sqlite dialect requires a path")
		}
	default:
		return nil, apperror.Misconfigured("relational: unsupported dialect %q", cfg.Dialect)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	return &Store{cfg: cfg, logger: logger}, nil
}

func (s *Store) Backend() string { return "relational" }

// Connect opens the pool, verifies it and creates the tables if missing.
// Repeated calls are no-ops; concurrent first calls share one attempt.
func (s *Store) Connect(ctx context.Context) error {
	return s.life.Connect(ctx, s.open)
}

// Disconnect closes the pool. A second call is a no-op.
func (s *Store) Disconnect(ctx context.Context) error {
	return s.life.Disconnect(ctx, func(context.Context) error {
		sqlDB, err := s.db.DB()
		if err != nil {
			return apperror.Backend("relational: getting pool", err)
		}
		if err := sqlDB.Close(); err != nil {
			return apperror.Backend("relational: closing pool", err)
		}
		s.db = nil
		s.logger.Info("relational store disconnected", slog.String("dialect", s.cfg.Dialect))
		return nil
	})
}

func (s *Store) open(ctx context.Context) error {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Unique violations come back as gorm.ErrDuplicatedKey where the
		// dialect knows how to translate them.
		TranslateError: true,
		// The users→playlists association is ORM-level only; a playlist may
		// reference an email that has no account yet.
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch s.cfg.Dialect {
	case DialectPostgres:
		db, err = gorm.Open(postgres.Open(s.cfg.DSN), gormCfg)
	case DialectSQLite:
		var conn *sql.DB
		conn, err = s.openSQLite(ctx)
		if err != nil {
			return err
		}
		db, err = gorm.Open(gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", Conn: conn}), gormCfg)
		if err != nil {
			s.closeAfterFailure(conn)
		}
	}
	if err != nil {
		return apperror.Backend("relational: opening "+s.cfg.Dialect, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return apperror.Backend("relational: getting pool", err)
	}
	if s.cfg.MaxOpenConns > 0 && s.cfg.Dialect == DialectPostgres {
		sqlDB.SetMaxOpenConns(s.cfg.MaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		s.closeAfterFailure(sqlDB)
		return apperror.Backend("relational: pinging "+s.cfg.Dialect, err)
	}

	if err := migrate(ctx, db); err != nil {
		s.closeAfterFailure(sqlDB)
		return apperror.Backend("relational: running migrations", err)
	}

	s.db = db
	s.logger.Info("relational store connected", slog.String("dialect", s.cfg.Dialect))
	return nil
}

// openSQLite opens the pure-Go driver and applies connection pragmas.
func (s *Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", s.cfg.Path)
	if err != nil {
		return nil, apperror.Backend("relational: opening sqlite", err)
	}

	// An in-memory database lives and dies with its connection, so the
	// pool must never hold more than one.
	if s.cfg.Path == ":memory:" || strings.Contains(s.cfg.Path, "mode=memory") {
		conn.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", s.cfg.Timeout.Milliseconds()),
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			s.closeAfterFailure(conn)
			return nil, apperror.Backend("relational: "+p, err)
		}
	}
	return conn, nil
}

// closeAfterFailure releases a pool that failed to come up. The open error
// is what the caller sees; a close error is only logged.
func (s *Store) closeAfterFailure(conn io.Closer) {
	if err := conn.Close(); err != nil {
		s.logger.Warn("relational: closing pool after failed connect",
			slog.String("dialect", s.cfg.Dialect),
			slog.String("error", err.Error()),
		)
	}
}

// migrate creates the tables and indexes if they do not exist yet. There is
// no versioned migration history; AutoMigrate only adds what is missing.
func migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(&userRow{}, &playlistRow{})
}

// conn returns a context-bound handle, connecting first if needed.
func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	return s.db.WithContext(ctx), nil
}
