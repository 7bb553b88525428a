package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/identity"
	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/repository/backend/backendtest"
)

// Every test in this file runs once per engine in backendtest.Engines.

// assertMembership checks that u's membership view holds exactly want, in
// order, comparing ids with identity.Equal.
func assertMembership(t *testing.T, want []model.ID, u *model.User) {
	t.Helper()
	require.Len(t, u.Playlists, len(want), "membership = %v", u.Playlists)
	for i := range want {
		assert.True(t, identity.Equal(want[i], u.Playlists[i]), "membership[%d] = %s, want %s", i, u.Playlists[i], want[i])
	}
}

func TestEngines_RoadTripPairs(t *testing.T) {
	backendtest.Run(t, func(t *testing.T, e backendtest.Engine) {
		store := e.New(t)
		svc := NewPlaylistService(store, testLogger())
		u := createTestUser(t, store, "a@b.com")

		_, err := svc.Create(context.Background(), u.ID, "Road Trip", songs)
		require.NoError(t, err)

		pairs, err := svc.Pairs(context.Background(), u.ID)
		require.NoError(t, err)
		require.Len(t, pairs, 1)
		assert.Equal(t, "Road Trip", pairs[0].Name)
	})
}

func TestEngines_MembershipTracksCreateAndDelete(t *testing.T) {
	backendtest.Run(t, func(t *testing.T, e backendtest.Engine) {
		ctx := context.Background()
		store := e.New(t)
		svc := NewPlaylistService(store, testLogger())
		owner := createTestUser(t, store, "owner@example.com")

		first, err := svc.Create(ctx, owner.ID, "First", nil)
		require.NoError(t, err)
		u, err := store.GetUserByID(ctx, owner.ID)
		require.NoError(t, err)
		assertMembership(t, []model.ID{first.ID}, u)

		second, err := svc.Create(ctx, owner.ID, "Second", nil)
		require.NoError(t, err)
		u, err = store.GetUserByID(ctx, owner.ID)
		require.NoError(t, err)
		assertMembership(t, []model.ID{first.ID, second.ID}, u)

		if e.HexIDs {
			for _, id := range u.Playlists {
				assert.Len(t, id.String(), 24, "expected an ObjectID hex id, got %q", id)
			}
		}

		_, err = svc.Delete(ctx, owner.ID, first.ID)
		require.NoError(t, err)
		u, err = store.GetUserByID(ctx, owner.ID)
		require.NoError(t, err)
		assertMembership(t, []model.ID{second.ID}, u)

		members, err := svc.Membership(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.True(t, identity.Equal(second.ID, members[0].ID))
	})
}

func TestEngines_ConcurrentCreatesKeepEveryEntry(t *testing.T) {
	backendtest.Run(t, func(t *testing.T, e backendtest.Engine) {
		ctx := context.Background()
		store := e.New(t)
		svc := NewPlaylistService(store, testLogger())
		owner := createTestUser(t, store, "busy@example.com")

		const n = 8
		ids := make([]model.ID, n)
		var g errgroup.Group
		for i := 0; i < n; i++ {
			i := i
			g.Go(func() error {
				p, err := svc.Create(ctx, owner.ID, fmt.Sprintf("List %d", i), nil)
				if err != nil {
					return err
				}
				ids[i] = p.ID
				return nil
			})
		}
		require.NoError(t, g.Wait())

		u, err := store.GetUserByID(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, u.Playlists, n)
		for _, id := range ids {
			found := false
			for _, have := range u.Playlists {
				found = found || identity.Equal(id, have)
			}
			assert.True(t, found, "playlist %s missing from membership", id)
		}
	})
}

func TestEngines_Ownership(t *testing.T) {
	backendtest.Run(t, func(t *testing.T, e backendtest.Engine) {
		ctx := context.Background()
		store := e.New(t)
		svc := NewPlaylistService(store, testLogger())
		owner := createTestUser(t, store, "owner@example.com")
		other := createTestUser(t, store, "other@example.com")
		p, err := svc.Create(ctx, owner.ID, "Mine", songs)
		require.NoError(t, err)

		got, err := svc.Get(ctx, owner.ID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mine", got.Name)

		_, err = svc.Get(ctx, other.ID, p.ID)
		assert.ErrorIs(t, err, apperror.ErrForbidden)
		_, err = svc.Update(ctx, other.ID, p.ID, "Stolen", nil)
		assert.ErrorIs(t, err, apperror.ErrForbidden)
		_, err = svc.Delete(ctx, other.ID, p.ID)
		assert.ErrorIs(t, err, apperror.ErrForbidden)

		replacement := []model.Song{{Title: "Teardrop", Artist: "Massive Attack", YouTubeID: "u7K72X4eo_s"}}
		updated, err := svc.Update(ctx, owner.ID, p.ID, "Renamed", replacement)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
		assert.Equal(t, replacement, updated.Songs)

		u, err := store.GetUserByID(ctx, owner.ID)
		require.NoError(t, err)
		assertMembership(t, []model.ID{p.ID}, u)
	})
}
