// Package service holds the business rules that sit between the HTTP
// handlers and the storage contract.
//
//	Handler (HTTP) → Service (validation, ownership, orchestration) → repository.Store
//
// Services speak in model types and apperror kinds only. They never see a
// backend-specific type, so the same code runs on every backend.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/authz"
	"github.com/sakif/playlister/internal/identity"
	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/repository"
)

const MaxPlaylistNameLength = 100

// PlaylistService manages playlists on behalf of an authenticated user.
//
// MEMBERSHIP ORCHESTRATION:
// The store's CreatePlaylist and DeletePlaylist only touch the playlist
// record. This service keeps the owner's membership view in step:
//
//	Create: CreatePlaylist, then UpdateUser(AddPlaylists: id)
//	Delete: UpdateUser(RemovePlaylists: id), then DeletePlaylist
//
// The membership edits are in-place patches, not a rewrite of the list read
// earlier, so concurrent creates and deletes for one owner keep each
// other's entries.
//
// Neither pair is atomic. A failure on the second step returns the record
// together with apperror.ErrPartialWrite. A crash between the Delete steps
// leaves an unlisted playlist, never a dangling membership entry.
type PlaylistService struct {
	store  repository.Store
	guard  *authz.Guard
	logger *slog.Logger
}

func NewPlaylistService(store repository.Store, logger *slog.Logger) *PlaylistService {
	return &PlaylistService{
		store:  store,
		guard:  authz.NewGuard(store),
		logger: logger,
	}
}

// Create stores a new playlist owned by the requester. The owner email is
// taken from the requester's account, never from input.
func (s *PlaylistService) Create(ctx context.Context, requesterID model.ID, name string, songs []model.Song) (*model.Playlist, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	owner, err := s.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	playlist, err := s.store.CreatePlaylist(ctx, repository.NewPlaylist{
		Name:       name,
		OwnerEmail: owner.Email,
		Songs:      songs,
	})
	if err != nil {
		s.logger.Error("failed to create playlist",
			slog.String("owner", owner.Email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating playlist: %w", err)
	}

	patch := repository.UserPatch{AddPlaylists: []model.ID{playlist.ID}}
	if _, err := s.store.UpdateUser(ctx, owner.ID, patch); err != nil {
		s.logger.Error("playlist created but membership not recorded",
			slog.String("playlist_id", playlist.ID.String()),
			slog.String("owner", owner.Email),
			slog.String("error", err.Error()),
		)
		return playlist, apperror.PartialWrite("playlist created but not added to owner", err)
	}

	s.logger.Info("playlist created",
		slog.String("id", playlist.ID.String()),
		slog.String("owner", owner.Email),
		slog.Int("songs", len(playlist.Songs)),
	)
	return playlist, nil
}

// Get returns a playlist the requester owns.
func (s *PlaylistService) Get(ctx context.Context, requesterID, id model.ID) (*model.Playlist, error) {
	playlist, _, err := s.authorized(ctx, requesterID, id)
	if err != nil {
		return nil, err
	}
	return playlist, nil
}

// Update replaces name and songs of a playlist the requester owns.
func (s *PlaylistService) Update(ctx context.Context, requesterID, id model.ID, name string, songs []model.Song) (*model.Playlist, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.authorized(ctx, requesterID, id); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdatePlaylist(ctx, id, repository.PlaylistUpdate{Name: name, Songs: songs})
	if err != nil {
		return nil, fmt.Errorf("updating playlist %s: %w", id, err)
	}

	s.logger.Info("playlist updated", slog.String("id", id.String()))
	return updated, nil
}

// Delete removes a playlist the requester owns and returns it.
func (s *PlaylistService) Delete(ctx context.Context, requesterID, id model.ID) (*model.Playlist, error) {
	playlist, owner, err := s.authorized(ctx, requesterID, id)
	if err != nil {
		return nil, err
	}

	patch := repository.UserPatch{RemovePlaylists: []model.ID{playlist.ID}}
	if _, err := s.store.UpdateUser(ctx, owner.ID, patch); err != nil {
		return nil, fmt.Errorf("removing playlist %s from owner: %w", id, err)
	}

	deleted, err := s.store.DeletePlaylist(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("membership removed but playlist not deleted",
			slog.String("id", id.String()),
			slog.String("error", err.Error()),
		)
		return playlist, apperror.PartialWrite("playlist removed from owner but not deleted", err)
	}

	s.logger.Info("playlist deleted",
		slog.String("id", id.String()),
		slog.String("owner", owner.Email),
	)
	return deleted, nil
}

// List returns the requester's playlists with songs.
func (s *PlaylistService) List(ctx context.Context, requesterID model.ID) ([]model.Playlist, error) {
	user, err := s.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	lists, err := s.store.GetPlaylistsByOwnerEmail(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}
	return lists, nil
}

// Pairs returns {id, name} for each of the requester's playlists. No
// playlists is an empty list, not an error.
func (s *PlaylistService) Pairs(ctx context.Context, requesterID model.ID) ([]model.PlaylistPair, error) {
	user, err := s.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	pairs, err := s.store.GetPlaylistPairsByOwnerEmail(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("listing playlist pairs: %w", err)
	}
	return pairs, nil
}

// Membership resolves the requester's membership view to playlists.
func (s *PlaylistService) Membership(ctx context.Context, requesterID model.ID) ([]model.Playlist, error) {
	if _, err := s.requester(ctx, requesterID); err != nil {
		return nil, err
	}
	lists, err := s.store.GetUserPlaylists(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("loading membership: %w", err)
	}
	return lists, nil
}

// authorized loads the playlist and runs the ownership guard.
func (s *PlaylistService) authorized(ctx context.Context, requesterID, id model.ID) (*model.Playlist, *model.User, error) {
	if identity.Canonical(id) == "" {
		return nil, nil, apperror.ValidationFailed("id", "playlist id is required")
	}

	playlist, err := s.store.GetPlaylistByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	owner, err := s.guard.Authorize(ctx, playlist, requesterID)
	if err != nil {
		if errors.Is(err, apperror.ErrForbidden) {
			s.logger.Warn("playlist access denied",
				slog.String("id", id.String()),
				slog.String("requester", requesterID.String()),
			)
		}
		return nil, nil, err
	}
	return playlist, owner, nil
}

// requester loads the account behind an authenticated ID. A token whose
// account has since been deleted is treated as unauthenticated.
func (s *PlaylistService) requester(ctx context.Context, requesterID model.ID) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("account not found")
		}
		return nil, fmt.Errorf("loading requester: %w", err)
	}
	return user, nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "playlist name is required")
	}
	if len(name) > MaxPlaylistNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("playlist name must be %d characters or less", MaxPlaylistNameLength))
	}
	return name, nil
}
