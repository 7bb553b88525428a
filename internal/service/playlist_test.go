package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/repository"
	"github.com/sakif/playlister/internal/repository/repotest"
)

func modelID(s string) model.ID { return model.ID(s) }

var songs = []model.Song{
	{Title: "Hoppípolla", Artist: "Sigur Rós", YouTubeID: "ZXtimhT-ff4"},
	{Title: "Saturn", Artist: "Sleeping At Last", YouTubeID: "dzNvk80XY9s"},
}

// =========================================================================
// Create TESTS
// =========================================================================

func TestPlaylistCreate_RecordsMembership(t *testing.T) {
	svc, store := newTestPlaylistService(t)
	ctx := context.Background()
	u := createTestUser(t, store, "owner@example.com")

	p, err := svc.Create(ctx, u.ID, "  Road Trip  ", songs)
	require.NoError(t, err)
	assert.Equal(t, "Road Trip", p.Name)
	assert.Equal(t, "owner@example.com", p.OwnerEmail)
	assert.Equal(t, songs, p.Songs)

	owner, err := store.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.ID{p.ID}, owner.Playlists)
}

func TestPlaylistCreate_Validation(t *testing.T) {
	svc, store := newTestPlaylistService(t)
	u := createTestUser(t, store, "owner@example.com")

	_, err := svc.Create(context.Background(), u.ID, "   ", nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(context.Background(), u.ID, strings.Repeat("x", MaxPlaylistNameLength+1), nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestPlaylistCreate_UnknownRequester(t *testing.T) {
	svc, _ := newTestPlaylistService(t)

	_, err := svc.Create(context.Background(), "404", "Mix", nil)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestPlaylistCreate_MembershipFailureIsPartialWrite(t *testing.T) {
	svc, store := newTestPlaylistService(t)
	ctx := context.Background()
	u := createTestUser(t, store, "owner@example.com")
	store.Fail("UpdateUser", apperror.Backend("memory", errors.New("write failed")))

	p, err := svc.Create(ctx, u.ID, "Mix", songs)
	require.ErrorIs(t, err, apperror.ErrPartialWrite)
	require.NotNil(t, p, "the persisted playlist is returned")

	// The playlist exists but is not listed on the owner.
	_, err = store.GetPlaylistByID(ctx, p.ID)
	assert.NoError(t, err)
	owner, err := store.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, owner.Playlists)
}

// interleavingStore runs a hook at the point where the service already
// holds a copy of the owner, standing in for a second request that lands in
// that window. Each hook fires once.
type interleavingStore struct {
	*repotest.MemoryStore
	beforeCreate     func()
	afterOwnerLookup func()
}

func (s *interleavingStore) CreatePlaylist(ctx context.Context, in repository.NewPlaylist) (*model.Playlist, error) {
	if hook := s.beforeCreate; hook != nil {
		s.beforeCreate = nil
		hook()
	}
	return s.MemoryStore.CreatePlaylist(ctx, in)
}

func (s *interleavingStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.MemoryStore.GetUserByEmail(ctx, email)
	if hook := s.afterOwnerLookup; hook != nil {
		s.afterOwnerLookup = nil
		hook()
	}
	return u, err
}

func TestPlaylistCreate_KeepsEntriesWrittenMeanwhile(t *testing.T) {
	ctx := context.Background()
	store := &interleavingStore{MemoryStore: repotest.NewMemoryStore()}
	svc := NewPlaylistService(store, testLogger())
	u := createTestUser(t, store, "owner@example.com")
	earlier, err := svc.Create(ctx, u.ID, "Earlier", nil)
	require.NoError(t, err)

	var meanwhile *model.Playlist
	store.beforeCreate = func() {
		var err error
		meanwhile, err = svc.Create(ctx, u.ID, "Meanwhile", nil)
		require.NoError(t, err)
	}
	p, err := svc.Create(ctx, u.ID, "Mine", nil)
	require.NoError(t, err)

	owner, err := store.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.ID{earlier.ID, meanwhile.ID, p.ID}, owner.Playlists)
}

func TestPlaylistDelete_KeepsEntriesWrittenMeanwhile(t *testing.T) {
	ctx := context.Background()
	store := &interleavingStore{MemoryStore: repotest.NewMemoryStore()}
	svc := NewPlaylistService(store, testLogger())
	u := createTestUser(t, store, "owner@example.com")
	doomed, err := svc.Create(ctx, u.ID, "Doomed", nil)
	require.NoError(t, err)

	var meanwhile *model.Playlist
	store.afterOwnerLookup = func() {
		var err error
		meanwhile, err = svc.Create(ctx, u.ID, "Meanwhile", nil)
		require.NoError(t, err)
	}
	_, err = svc.Delete(ctx, u.ID, doomed.ID)
	require.NoError(t, err)

	owner, err := store.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.ID{meanwhile.ID}, owner.Playlists)
}

// =========================================================================
// Get / Update TESTS
// =========================================================================

func TestPlaylistGet_Authorization(t *testing.T) {
	svc, store := newTestPlaylistService(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "owner@example.com")
	other := createTestUser(t, store, "other@example.com")
	p, err := svc.Create(ctx, owner.ID, "Private", songs)
	require.NoError(t, err)

	got, err := svc.Get(ctx, owner.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	got, err = svc.Get(ctx, other.ID, p.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Nil(t, got)

	_, err = svc.Get(ctx, owner.ID, "404")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Get(ctx, owner.ID, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestPlaylistGet_OwnerMissing(t *testing.T) {
	svc, store := newTestPlaylistService(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "owner@example.com")
	p, err := svc.Create(ctx, owner.ID, "Orphan", nil)
	require.NoError(t, err)
	_, err = store.DeleteUser(ctx, owner.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, owner.ID, p.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NotErrorIs(t, err, apperror.ErrForbidden)
}

func TestPlaylistUpdate(t *testing.T) {
	svc, store := newTestPlaylistService(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "owner@example.com")
	other := createTestUser(t, store, "other@example.com")
	p, err := svc.Create(ctx, owner.ID, "Before", songs)
	require.NoError(t, err)

	_, err = svc.Update(ctx, other.ID, p.ID, "Hijacked", nil)
	require.ErrorIs(t, err, apperror.ErrForbidden)

	updated, err := svc.Update(ctx, owner.ID, p.ID, "After", songs[:1])
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, songs[:1], updated.Songs)

	stored, err := store.GetPlaylistByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", stored.Name, "forbidden update must not have applied")
}

// =========================================================================
// Delete TESTS
// =========================================================================

func TestPlaylistDelete_RemovesMembershipAndRecord(t *testing.T) {
	svc, store := newTestPlaylistService(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "owner@example.com")
	keep, err := svc.Create(ctx, owner.ID, "Keep", nil)
	require.NoError(t, err)
	drop, err := svc.Create(ctx, owner.ID, "Drop", nil)
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, owner.ID, drop.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drop", deleted.Name)

	_, err = store.GetPlaylistByID(ctx, drop.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	u, err := store.GetUserByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.ID{keep.ID}, u.Playlists)
}

func TestPlaylistDelete_LastPlaylistLeavesEmptyMembership(t *testing.T) {
	svc, store := newTestPlaylistService(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "owner@example.com")
	p, err := svc.Create(ctx, owner.ID, "Only", nil)
	require.NoError(t, err)

	_, err = svc.Delete(ctx, owner.ID, p.ID)
	require.NoError(t, err)

	u, err := store.GetUserByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.NotNil(t, u.Playlists)
	assert.Empty(t, u.Playlists)
}

func TestPlaylistDelete_Forbidden(t *testing.T) {
	svc, store := newTestPlaylistService(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "owner@example.com")
	other := createTestUser(t, store, "other@example.com")
	p, err := svc.Create(ctx, owner.ID, "Mine", nil)
	require.NoError(t, err)

	_, err = svc.Delete(ctx, other.ID, p.ID)
	require.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = store.GetPlaylistByID(ctx, p.ID)
	assert.NoError(t, err)
	u, err := store.GetUserByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, u.Playlists, 1)
}

func TestPlaylistDelete_MembershipFailureKeepsPlaylist(t *testing.T) {
	svc, store := newTestPlaylistService(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "owner@example.com")
	p, err := svc.Create(ctx, owner.ID, "Mine", nil)
	require.NoError(t, err)
	store.Fail("UpdateUser", apperror.Backend("memory", errors.New("write failed")))

	_, err = svc.Delete(ctx, owner.ID, p.ID)
	require.ErrorIs(t, err, apperror.ErrBackend)

	_, err = store.GetPlaylistByID(ctx, p.ID)
	assert.NoError(t, err, "the record stays when the first step fails")
}

func TestPlaylistDelete_RecordFailureIsPartialWrite(t *testing.T) {
	svc, store := newTestPlaylistService(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "owner@example.com")
	p, err := svc.Create(ctx, owner.ID, "Mine", nil)
	require.NoError(t, err)
	store.Fail("DeletePlaylist", apperror.Backend("memory", errors.New("write failed")))

	got, err := svc.Delete(ctx, owner.ID, p.ID)
	require.ErrorIs(t, err, apperror.ErrPartialWrite)
	assert.Equal(t, p.ID, got.ID)

	u, err := store.GetUserByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, u.Playlists)
}

// =========================================================================
// LISTING TESTS
// =========================================================================

func TestPlaylistListing(t *testing.T) {
	svc, store := newTestPlaylistService(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "owner@example.com")
	other := createTestUser(t, store, "other@example.com")
	a, err := svc.Create(ctx, owner.ID, "A", songs)
	require.NoError(t, err)
	b, err := svc.Create(ctx, owner.ID, "B", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, other.ID, "C", nil)
	require.NoError(t, err)

	lists, err := svc.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, lists, 2)

	pairs, err := svc.Pairs(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.PlaylistPair{{ID: a.ID, Name: "A"}, {ID: b.ID, Name: "B"}}, pairs)

	members, err := svc.Membership(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, a.ID, members[0].ID)
}

func TestPlaylistPairs_EmptyIsNotAnError(t *testing.T) {
	svc, store := newTestPlaylistService(t)
	u := createTestUser(t, store, "new@example.com")

	pairs, err := svc.Pairs(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotNil(t, pairs)
	assert.Empty(t, pairs)
}
