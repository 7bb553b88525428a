// Package repository defines the persistence contract every storage backend
// satisfies. Services depend on these interfaces only; which engine sits
// behind them is decided once, at startup, by the backend package.
//
// ABSENT RECORDS:
// Lookups that find nothing return an error wrapping apperror.ErrNotFound.
// Callers that treat absence as a normal outcome check it with errors.Is.
package repository

import (
	"context"

	"github.com/sakif/playlister/internal/model"
)

// NewUser carries the fields required to register an account.
type NewUser struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
}

// UserPatch is a partial update. Nil pointer fields are left unchanged.
//
// Membership has three mutually exclusive forms. Playlists replaces the
// whole view when non-nil; pass an empty, non-nil slice to clear it.
// AddPlaylists and RemovePlaylists edit it in place on the server, so two
// writers touching different entries do not overwrite each other. Backends
// without an explicit membership array ignore all three.
type UserPatch struct {
	FirstName    *string
	LastName     *string
	Email        *string
	PasswordHash *string

	Playlists       []model.ID
	AddPlaylists    []model.ID
	RemovePlaylists []model.ID
}

// NewPlaylist carries the fields required to create a playlist.
// A nil Songs slice is stored as an empty sequence.
type NewPlaylist struct {
	Name       string
	OwnerEmail string
	Songs      []model.Song
}

// PlaylistUpdate replaces name and songs wholesale. There is no merge with
// the previous value.
type PlaylistUpdate struct {
	Name  string
	Songs []model.Song
}

type UserRepository interface {
	CreateUser(ctx context.Context, in NewUser) (*model.User, error)
	GetUserByID(ctx context.Context, id model.ID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, id model.ID, patch UserPatch) (*model.User, error)
	DeleteUser(ctx context.Context, id model.ID) (*model.User, error)
}

// PlaylistRepository stores playlists. CreatePlaylist and DeletePlaylist do
// not touch the owner's membership view; keeping it consistent is the
// caller's job (see service.PlaylistService).
type PlaylistRepository interface {
	CreatePlaylist(ctx context.Context, in NewPlaylist) (*model.Playlist, error)
	GetPlaylistByID(ctx context.Context, id model.ID) (*model.Playlist, error)
	GetPlaylistsByOwnerEmail(ctx context.Context, email string) ([]model.Playlist, error)
	GetPlaylistPairsByOwnerEmail(ctx context.Context, email string) ([]model.PlaylistPair, error)
	UpdatePlaylist(ctx context.Context, id model.ID, update PlaylistUpdate) (*model.Playlist, error)
	DeletePlaylist(ctx context.Context, id model.ID) (*model.Playlist, error)

	// GetUserPlaylists dereferences the user's membership view. Entries that
	// point at playlists which no longer exist are skipped.
	GetUserPlaylists(ctx context.Context, userID model.ID) ([]model.Playlist, error)
}

// Store is the full persistence contract.
//
// Connect and Disconnect are idempotent. Data operations connect lazily, so
// calling Connect up front only moves a connection failure to startup.
type Store interface {
	UserRepository
	PlaylistRepository

	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	// Backend names the engine, e.g. "document" or "relational".
	Backend() string
}
