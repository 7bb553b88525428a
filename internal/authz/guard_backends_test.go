package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/identity"
	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/repository"
	"github.com/sakif/playlister/internal/repository/backend/backendtest"
)

// =========================================================================
// STORED RECORDS, EVERY ENGINE
// =========================================================================

func TestAuthorize_Engines(t *testing.T) {
	backendtest.Run(t, func(t *testing.T, e backendtest.Engine) {
		ctx := context.Background()
		store := e.New(t)
		g := NewGuard(store)

		owner, err := store.CreateUser(ctx, repository.NewUser{
			FirstName: "Owner", LastName: "One", Email: "owner@example.com", PasswordHash: "h",
		})
		require.NoError(t, err)
		other, err := store.CreateUser(ctx, repository.NewUser{
			FirstName: "Other", LastName: "Two", Email: "other@example.com", PasswordHash: "h",
		})
		require.NoError(t, err)
		created, err := store.CreatePlaylist(ctx, repository.NewPlaylist{Name: "Mine", OwnerEmail: owner.Email})
		require.NoError(t, err)

		// Read back so the guard sees exactly what the engine returns.
		playlist, err := store.GetPlaylistByID(ctx, created.ID)
		require.NoError(t, err)

		t.Run("owner", func(t *testing.T) {
			got, err := g.Authorize(ctx, playlist, owner.ID)
			require.NoError(t, err)
			assert.True(t, identity.Equal(owner.ID, got.ID))
		})

		t.Run("owner id with whitespace", func(t *testing.T) {
			_, err := g.Authorize(ctx, playlist, " "+owner.ID+" ")
			assert.NoError(t, err)
		})

		t.Run("other user", func(t *testing.T) {
			_, err := g.Authorize(ctx, playlist, other.ID)
			assert.ErrorIs(t, err, apperror.ErrForbidden)
		})

		t.Run("id from the other engine family", func(t *testing.T) {
			foreign := model.ID("1")
			if !e.HexIDs {
				foreign = "65f1c2e4a1b2c3d4e5f60718"
			}
			_, err := g.Authorize(ctx, playlist, foreign)
			assert.ErrorIs(t, err, apperror.ErrForbidden)
		})

		t.Run("owner deleted", func(t *testing.T) {
			_, err := store.DeleteUser(ctx, owner.ID)
			require.NoError(t, err)

			_, err = g.Authorize(ctx, playlist, owner.ID)
			assert.ErrorIs(t, err, apperror.ErrNotFound)
			assert.NotErrorIs(t, err, apperror.ErrForbidden)
		})
	})
}
