package repotest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/identity"
	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/repository"
)

// Factory returns a fresh, empty store. It should register its own cleanup.
type Factory func(t *testing.T) repository.Store

// Absent IDs in both backends' formats. Every backend must read all of them
// as "not found", never as a type error.
var absentIDs = []model.ID{
	"000000000000000000000000",
	"65f1c2e4a1b2c3d4e5f60718",
	"999999",
	"not-an-id",
	"",
}

// RunContract runs the persistence contract against stores built by newStore.
// Backends call it from their own tests so that every engine is held to the
// same observable behavior.
func RunContract(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("ConnectIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Connect(ctx))
		require.NoError(t, s.Connect(ctx))
		require.NoError(t, s.Disconnect(ctx))
		require.NoError(t, s.Disconnect(ctx))
	})

	t.Run("CreateAndGetUser", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created := createUser(t, s, "ada@example.com")
		assert.NotEmpty(t, created.ID)
		assert.Empty(t, created.Playlists)

		byID, err := s.GetUserByID(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, identity.Equal(created.ID, byID.ID))
		assert.Equal(t, "Ada", byID.FirstName)
		assert.Equal(t, "Lovelace", byID.LastName)
		assert.Equal(t, "hash", byID.PasswordHash)

		byEmail, err := s.GetUserByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.True(t, identity.Equal(created.ID, byEmail.ID))
	})

	t.Run("DuplicateEmailConflicts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		first := createUser(t, s, "dup@example.com")

		_, err := s.CreateUser(ctx, repository.NewUser{
			FirstName: "Other", LastName: "Person", Email: "dup@example.com", PasswordHash: "x",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.ErrConflict)

		got, err := s.GetUserByEmail(ctx, "dup@example.com")
		require.NoError(t, err)
		assert.True(t, identity.Equal(first.ID, got.ID), "the original account must be untouched")
		assert.Equal(t, "Ada", got.FirstName)
	})

	t.Run("CreateUserValidates", func(t *testing.T) {
		s := newStore(t)
		_, err := s.CreateUser(context.Background(), repository.NewUser{Email: "x@example.com"})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("AbsentUser", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for _, id := range absentIDs {
			_, err := s.GetUserByID(ctx, id)
			assert.ErrorIs(t, err, apperror.ErrNotFound, "GetUserByID(%q)", id)
			_, err = s.UpdateUser(ctx, id, repository.UserPatch{})
			assert.ErrorIs(t, err, apperror.ErrNotFound, "UpdateUser(%q)", id)
			_, err = s.DeleteUser(ctx, id)
			assert.ErrorIs(t, err, apperror.ErrNotFound, "DeleteUser(%q)", id)
		}
		_, err := s.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("UpdateUserPatchesOnlyGivenFields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		u := createUser(t, s, "patch@example.com")

		first := "Augusta"
		updated, err := s.UpdateUser(ctx, u.ID, repository.UserPatch{FirstName: &first})
		require.NoError(t, err)
		assert.Equal(t, "Augusta", updated.FirstName)
		assert.Equal(t, "Lovelace", updated.LastName)
		assert.Equal(t, "patch@example.com", updated.Email)
	})

	t.Run("UpdateUserEmailCarriesPlaylists", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		u := createUser(t, s, "old@example.com")
		p := createPlaylist(t, s, "Mine", "old@example.com", nil)

		email := "new@example.com"
		_, err := s.UpdateUser(ctx, u.ID, repository.UserPatch{Email: &email})
		require.NoError(t, err)

		got, err := s.GetPlaylistByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", got.OwnerEmail)

		old, err := s.GetPlaylistsByOwnerEmail(ctx, "old@example.com")
		require.NoError(t, err)
		assert.Empty(t, old)
	})

	t.Run("UpdateUserEmailConflicts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		createUser(t, s, "taken@example.com")
		u := createUser(t, s, "mover@example.com")

		email := "taken@example.com"
		_, err := s.UpdateUser(ctx, u.ID, repository.UserPatch{Email: &email})
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("DeleteUserReturnsDeleted", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		u := createUser(t, s, "gone@example.com")

		deleted, err := s.DeleteUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "gone@example.com", deleted.Email)

		_, err = s.GetUserByID(ctx, u.ID)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("PlaylistRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		songs := []model.Song{
			{Title: "Clocks", Artist: "Coldplay", YouTubeID: "d020hcWA_Wg"},
			{Title: "Teardrop", Artist: "Massive Attack", YouTubeID: "u7K72X4eo_s"},
		}
		created := createPlaylist(t, s, "Focus", "owner@example.com", songs)

		got, err := s.GetPlaylistByID(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, identity.Equal(created.ID, got.ID))
		assert.Equal(t, "Focus", got.Name)
		assert.Equal(t, "owner@example.com", got.OwnerEmail)
		assert.Equal(t, songs, got.Songs, "song order must be preserved")
	})

	t.Run("NilSongsStoredAsEmpty", func(t *testing.T) {
		s := newStore(t)
		created := createPlaylist(t, s, "Empty", "owner@example.com", nil)

		got, err := s.GetPlaylistByID(context.Background(), created.ID)
		require.NoError(t, err)
		assert.NotNil(t, got.Songs)
		assert.Empty(t, got.Songs)
	})

	t.Run("CreatePlaylistValidates", func(t *testing.T) {
		s := newStore(t)
		_, err := s.CreatePlaylist(context.Background(), repository.NewPlaylist{OwnerEmail: "a@example.com"})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("AbsentPlaylist", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for _, id := range absentIDs {
			_, err := s.GetPlaylistByID(ctx, id)
			assert.ErrorIs(t, err, apperror.ErrNotFound, "GetPlaylistByID(%q)", id)
			_, err = s.UpdatePlaylist(ctx, id, repository.PlaylistUpdate{Name: "x"})
			assert.ErrorIs(t, err, apperror.ErrNotFound, "UpdatePlaylist(%q)", id)
			_, err = s.DeletePlaylist(ctx, id)
			assert.ErrorIs(t, err, apperror.ErrNotFound, "DeletePlaylist(%q)", id)
		}
	})

	t.Run("ListByOwnerEmail", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := createPlaylist(t, s, "A", "one@example.com", nil)
		b := createPlaylist(t, s, "B", "one@example.com", nil)
		createPlaylist(t, s, "C", "two@example.com", nil)

		lists, err := s.GetPlaylistsByOwnerEmail(ctx, "one@example.com")
		require.NoError(t, err)
		require.Len(t, lists, 2)
		assert.ElementsMatch(t, []string{a.Name, b.Name}, []string{lists[0].Name, lists[1].Name})

		none, err := s.GetPlaylistsByOwnerEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("PairsProjectIDAndName", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		p := createPlaylist(t, s, "Chill", "pairs@example.com", []model.Song{{Title: "t", Artist: "a", YouTubeID: "y"}})

		pairs, err := s.GetPlaylistPairsByOwnerEmail(ctx, "pairs@example.com")
		require.NoError(t, err)
		require.Len(t, pairs, 1)
		assert.True(t, identity.Equal(p.ID, pairs[0].ID))
		assert.Equal(t, "Chill", pairs[0].Name)

		none, err := s.GetPlaylistPairsByOwnerEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("UpdatePlaylistReplacesWholesale", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		p := createPlaylist(t, s, "Before", "owner@example.com", []model.Song{
			{Title: "one", Artist: "a", YouTubeID: "1"},
			{Title: "two", Artist: "b", YouTubeID: "2"},
		})

		replacement := []model.Song{{Title: "three", Artist: "c", YouTubeID: "3"}}
		updated, err := s.UpdatePlaylist(ctx, p.ID, repository.PlaylistUpdate{Name: "After", Songs: replacement})
		require.NoError(t, err)
		assert.Equal(t, "After", updated.Name)
		assert.Equal(t, replacement, updated.Songs)
		assert.Equal(t, "owner@example.com", updated.OwnerEmail)

		got, err := s.GetPlaylistByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, replacement, got.Songs)

		cleared, err := s.UpdatePlaylist(ctx, p.ID, repository.PlaylistUpdate{Name: "After"})
		require.NoError(t, err)
		assert.NotNil(t, cleared.Songs)
		assert.Empty(t, cleared.Songs)
	})

	t.Run("DeletePlaylistReturnsDeleted", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		p := createPlaylist(t, s, "Doomed", "owner@example.com", nil)

		deleted, err := s.DeletePlaylist(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Doomed", deleted.Name)

		_, err = s.GetPlaylistByID(ctx, p.ID)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
		_, err = s.DeletePlaylist(ctx, p.ID)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("UserPlaylistsSkipsStaleEntries", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		u := createUser(t, s, "member@example.com")
		keep := createPlaylist(t, s, "Keep", u.Email, nil)
		drop := createPlaylist(t, s, "Drop", u.Email, nil)

		// Backends with an explicit membership array need it written;
		// the others ignore the patch.
		_, err := s.UpdateUser(ctx, u.ID, repository.UserPatch{Playlists: []model.ID{keep.ID, drop.ID}})
		require.NoError(t, err)

		lists, err := s.GetUserPlaylists(ctx, u.ID)
		require.NoError(t, err)
		assert.Len(t, lists, 2)

		_, err = s.DeletePlaylist(ctx, drop.ID)
		require.NoError(t, err)

		lists, err = s.GetUserPlaylists(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, lists, 1)
		assert.True(t, identity.Equal(keep.ID, lists[0].ID))

		_, err = s.GetUserPlaylists(ctx, "000000000000000000000000")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("MembershipViewListsOwnedPlaylists", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		u := createUser(t, s, "view@example.com")
		p := createPlaylist(t, s, "Mine", u.Email, nil)
		_, err := s.UpdateUser(ctx, u.ID, repository.UserPatch{Playlists: []model.ID{p.ID}})
		require.NoError(t, err)

		got, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, got.Playlists, 1)
		assert.True(t, identity.Equal(p.ID, got.Playlists[0]))
	})

	t.Run("MembershipAddAndRemoveInPlace", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		u := createUser(t, s, "inplace@example.com")
		first := createPlaylist(t, s, "First", u.Email, nil)
		second := createPlaylist(t, s, "Second", u.Email, nil)

		for _, id := range []model.ID{first.ID, second.ID, first.ID} {
			_, err := s.UpdateUser(ctx, u.ID, repository.UserPatch{AddPlaylists: []model.ID{id}})
			require.NoError(t, err)
		}
		got, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Len(t, got.Playlists, 2, "adding an existing entry must not duplicate it")

		_, err = s.UpdateUser(ctx, u.ID, repository.UserPatch{RemovePlaylists: []model.ID{first.ID}})
		require.NoError(t, err)
		_, err = s.DeletePlaylist(ctx, first.ID)
		require.NoError(t, err)

		got, err = s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, got.Playlists, 1)
		assert.True(t, identity.Equal(second.ID, got.Playlists[0]))
	})

	t.Run("MembershipFormsAreExclusive", func(t *testing.T) {
		s := newStore(t)
		u := createUser(t, s, "exclusive@example.com")
		p := createPlaylist(t, s, "Only", u.Email, nil)

		_, err := s.UpdateUser(context.Background(), u.ID, repository.UserPatch{
			AddPlaylists:    []model.ID{p.ID},
			RemovePlaylists: []model.ID{p.ID},
		})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})
}

func createUser(t *testing.T, s repository.Store, email string) *model.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), repository.NewUser{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        email,
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return u
}

func createPlaylist(t *testing.T, s repository.Store, name, owner string, songs []model.Song) *model.Playlist {
	t.Helper()
	p, err := s.CreatePlaylist(context.Background(), repository.NewPlaylist{
		Name:       name,
		OwnerEmail: owner,
		Songs:      songs,
	})
	require.NoError(t, err)
	return p
}
