// Package authz decides whether a requester may act on a playlist.
//
// Ownership is recorded on the playlist as an email, while requesters are
// identified by user ID. The guard bridges the two by loading the owner
// account and comparing identities with identity.Equal.
package authz

import (
	"context"
	"errors"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/identity"
	"github.com/sakif/playlister/internal/model"
)

// OwnerLookup is the slice of the store the guard needs.
type OwnerLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

type Guard struct {
	users OwnerLookup
}

func NewGuard(users OwnerLookup) *Guard {
	return &Guard{users: users}
}

// Authorize returns the playlist's owner when requesterID is that owner.
//
// A playlist whose owner account no longer resolves yields ErrNotFound
// ("owner account missing"), not ErrForbidden. A mismatch yields
// ErrForbidden and nothing about the playlist.
func (g *Guard) Authorize(ctx context.Context, playlist *model.Playlist, requesterID model.ID) (*model.User, error) {
	owner, err := g.users.GetUserByEmail(ctx, playlist.OwnerEmail)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.OwnerMissing(playlist.OwnerEmail)
		}
		return nil, err
	}

	if !identity.Equal(owner.ID, requesterID) {
		return nil, apperror.Forbidden("playlist belongs to another user")
	}
	return owner, nil
}
