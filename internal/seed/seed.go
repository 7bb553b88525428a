// Package seed loads example accounts and playlists into whichever backend
// is configured.
//
// Users are written through the store; playlists owned by a known account go
// through service.PlaylistService so the owner's membership view is kept.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/auth"
	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/repository"
	"github.com/sakif/playlister/internal/service"
)

// Data is the example-data document.
type Data struct {
	Users     []User     `json:"users"`
	Playlists []Playlist `json:"playlists"`
}

// User carries either a plaintext Password, which is hashed on load, or a
// precomputed PasswordHash, which is stored as-is.
type User struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Password     string `json:"password,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

type Playlist struct {
	Name       string       `json:"name"`
	OwnerEmail string       `json:"ownerEmail"`
	Songs      []model.Song `json:"songs"`
}

// Result counts what Load did.
type Result struct {
	UsersCreated     int
	UsersSkipped     int // email already registered
	PlaylistsCreated int
	Orphans          int // playlists whose owner email has no account
}

// Parse decodes a Data document.
func Parse(r io.Reader) (*Data, error) {
	var d Data
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("seed: decoding data: %w", err)
	}
	return &d, nil
}

type Loader struct {
	store     repository.Store
	playlists *service.PlaylistService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewLoader(store repository.Store, passwords *auth.PasswordService, logger *slog.Logger) *Loader {
	return &Loader{
		store:     store,
		playlists: service.NewPlaylistService(store, logger),
		passwords: passwords,
		logger:    logger,
	}
}

// Load inserts d. Users whose email is already registered are skipped, so
// rerunning Load does not fail on accounts; playlists are inserted every
// time. Load stops at the first error other than a duplicate account.
func (l *Loader) Load(ctx context.Context, d *Data) (Result, error) {
	var res Result

	for _, u := range d.Users {
		created, err := l.createUser(ctx, u)
		if err != nil {
			return res, err
		}
		if created {
			res.UsersCreated++
		} else {
			res.UsersSkipped++
		}
	}

	for _, p := range d.Playlists {
		orphan, err := l.createPlaylist(ctx, p)
		if err != nil {
			return res, err
		}
		res.PlaylistsCreated++
		if orphan {
			res.Orphans++
		}
	}

	l.logger.Info("seed complete",
		slog.String("backend", l.store.Backend()),
		slog.Int("users_created", res.UsersCreated),
		slog.Int("users_skipped", res.UsersSkipped),
		slog.Int("playlists_created", res.PlaylistsCreated),
		slog.Int("orphans", res.Orphans),
	)
	return res, nil
}

func (l *Loader) createUser(ctx context.Context, u User) (bool, error) {
	email := service.NormalizeEmail(u.Email)
	hash := u.PasswordHash
	if hash == "" {
		if u.Password == "" {
			return false, apperror.ValidationFailed("password", "seed user "+email+" has neither password nor passwordHash")
		}
		var err error
		if hash, err = l.passwords.Hash(u.Password); err != nil {
			return false, fmt.Errorf("seed: hashing password for %s: %w", email, err)
		}
	}

	_, err := l.store.CreateUser(ctx, repository.NewUser{
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        email,
		PasswordHash: hash,
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperror.ErrConflict):
		l.logger.Info("seed user exists", slog.String("email", email))
		return false, nil
	default:
		return false, fmt.Errorf("seed: creating user %s: %w", email, err)
	}
}

// createPlaylist reports whether the playlist was stored without an owning
// account.
func (l *Loader) createPlaylist(ctx context.Context, p Playlist) (bool, error) {
	email := service.NormalizeEmail(p.OwnerEmail)
	owner, err := l.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if _, err := l.playlists.Create(ctx, owner.ID, p.Name, p.Songs); err != nil {
			return false, fmt.Errorf("seed: creating playlist %q: %w", p.Name, err)
		}
		return false, nil

	case errors.Is(err, apperror.ErrNotFound):
		l.logger.Warn("seed playlist has no owner account",
			slog.String("name", p.Name),
			slog.String("ownerEmail", email),
		)
		_, err := l.store.CreatePlaylist(ctx, repository.NewPlaylist{
			Name:       p.Name,
			OwnerEmail: email,
			Songs:      p.Songs,
		})
		if err != nil {
			return false, fmt.Errorf("seed: creating playlist %q: %w", p.Name, err)
		}
		return true, nil

	default:
		return false, fmt.Errorf("seed: looking up owner %s: %w", email, err)
	}
}
