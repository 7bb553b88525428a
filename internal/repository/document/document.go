// Package document implements repository.Store on MongoDB.
//
// COLLECTIONS:
//
//	users     {_id, firstName, lastName, email, passwordHash, playlists: [ObjectID], createdAt, updatedAt}
//	playlists {_id, name, ownerEmail, songs: [{title, artist, youTubeId}], createdAt, updatedAt}
//
// users.playlists is the explicit membership array. CreatePlaylist and
// DeletePlaylist leave it alone; service.PlaylistService keeps it in sync
// through UpdateUser. Identifiers that are not valid ObjectID hex read as
// absent records.
package document

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/repository"
)

const (
	usersCollection     = "users"
	playlistsCollection = "playlists"
)

// Config holds the connection parameters.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration // server selection and connect timeout
}

// Store is the document backend.
type Store struct {
	cfg    Config
	logger *slog.Logger

	life   repository.Lifecycle
	client *mongo.Client
	db     *mongo.Database
}

var _ repository.Store = (*Store)(nil)

// New validates cfg and returns an unconnected Store.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.URI == "" {
		return nil, apperror.Misconfigured("document: connection URI is required")
	}
	if cfg.Database == "" {
		return nil, apperror.Misconfigured("document: database name is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Store{cfg: cfg, logger: logger}, nil
}

// NewFromDatabase wraps a database handle the caller already connected. The
// store counts as connected; Disconnect drops the handle but leaves the
// caller's client open. Indexes are not created.
func NewFromDatabase(db *mongo.Database, logger *slog.Logger) *Store {
	s := &Store{cfg: Config{Database: db.Name()}, logger: logger}
	s.life.Connect(context.Background(), func(context.Context) error {
		s.db = db
		return nil
	})
	return s
}

func (s *Store) Backend() string { return "document" }

// Connect dials the server, pings the primary and ensures indexes.
// Repeated calls are no-ops; concurrent first calls share one attempt.
func (s *Store) Connect(ctx context.Context) error {
	return s.life.Connect(ctx, s.open)
}

// Disconnect closes the client. A second call is a no-op.
func (s *Store) Disconnect(ctx context.Context) error {
	return s.life.Disconnect(ctx, func(ctx context.Context) error {
		if s.client != nil {
			if err := s.client.Disconnect(ctx); err != nil {
				return apperror.Backend("document: disconnecting", err)
			}
			s.client = nil
		}
		s.db = nil
		s.logger.Info("document store disconnected", slog.String("database", s.cfg.Database))
		return nil
	})
}

// disconnectAfterFailure tears down a client that failed to come up. Only
// the open error reaches the caller; a disconnect error is logged.
func (s *Store) disconnectAfterFailure(ctx context.Context, client *mongo.Client) {
	if err := client.Disconnect(ctx); err != nil {
		s.logger.Warn("document: disconnecting after failed connect",
			slog.String("database", s.cfg.Database),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Store) open(ctx context.Context) error {
	opts := options.Client().
		ApplyURI(s.cfg.URI).
		SetConnectTimeout(s.cfg.Timeout).
		SetServerSelectionTimeout(s.cfg.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return apperror.Backend("document: connecting", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		s.disconnectAfterFailure(ctx, client)
		return apperror.Backend("document: pinging", err)
	}

	db := client.Database(s.cfg.Database)
	if err := ensureIndexes(ctx, db); err != nil {
		s.disconnectAfterFailure(ctx, client)
		return apperror.Backend("document: creating indexes", err)
	}

	s.client = client
	s.db = db
	s.logger.Info("document store connected", slog.String("database", s.cfg.Database))
	return nil
}

// ensureIndexes creates the unique email index and the owner lookup index.
// CreateOne is a no-op for an index that already exists with the same spec.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(playlistsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ownerEmail", Value: 1}},
	})
	return err
}

// collection connects lazily and returns the named collection.
func (s *Store) collection(ctx context.Context, name string) (*mongo.Collection, error) {
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	return s.db.Collection(name), nil
}
