package relational

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/repository"
)

// CreatePlaylist inserts a playlist row. Ownership is the owner_email column;
// nothing on the users table changes.
func (s *Store) CreatePlaylist(ctx context.Context, in repository.NewPlaylist) (*model.Playlist, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	row := playlistRow{
		Name:       in.Name,
		OwnerEmail: in.OwnerEmail,
		Songs:      repository.SongsOrEmpty(in.Songs),
	}
	if err := db.Create(&row).Error; err != nil {
		return nil, apperror.Backend("relational: inserting playlist", err)
	}
	return row.toModel(), nil
}

func (s *Store) GetPlaylistByID(ctx context.Context, id model.ID) (*model.Playlist, error) {
	row, err := s.findPlaylist(ctx, id)
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (s *Store) GetPlaylistsByOwnerEmail(ctx context.Context, email string) ([]model.Playlist, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var rows []playlistRow
	if err := db.Where("owner_email = ?", email).Order("id").Find(&rows).Error; err != nil {
		return nil, apperror.Backend("relational: listing playlists", err)
	}
	return toPlaylists(rows), nil
}

// GetPlaylistPairsByOwnerEmail selects only id and name, leaving the songs
// column on disk.
func (s *Store) GetPlaylistPairsByOwnerEmail(ctx context.Context, email string) ([]model.PlaylistPair, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var rows []playlistRow
	err = db.Select("id", "name").
		Where("owner_email = ?", email).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, apperror.Backend("relational: listing playlist pairs", err)
	}

	pairs := make([]model.PlaylistPair, 0, len(rows))
	for _, r := range rows {
		pairs = append(pairs, model.PlaylistPair{ID: idOf(r.ID), Name: r.Name})
	}
	return pairs, nil
}

// UpdatePlaylist replaces name and songs. The previous song list is not
// merged with the new one. The write is a conditional UPDATE rather than a
// read-modify-save, so a row deleted concurrently stays deleted.
func (s *Store) UpdatePlaylist(ctx context.Context, id model.ID, update repository.PlaylistUpdate) (*model.Playlist, error) {
	pk, ok := parseKey(id)
	if !ok {
		return nil, apperror.NotFound("playlist", id.String())
	}
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	result := db.Model(&playlistRow{}).Where("id = ?", pk).Updates(map[string]any{
		"name":  update.Name,
		"songs": datatypes.JSONSlice[model.Song](repository.SongsOrEmpty(update.Songs)),
	})
	if result.Error != nil {
		return nil, apperror.Backend("relational: updating playlist "+id.String(), result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperror.NotFound("playlist", id.String())
	}

	row, err := s.findPlaylist(ctx, id)
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (s *Store) DeletePlaylist(ctx context.Context, id model.ID) (*model.Playlist, error) {
	row, err := s.findPlaylist(ctx, id)
	if err != nil {
		return nil, err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	result := db.Delete(&playlistRow{}, row.ID)
	if result.Error != nil {
		return nil, apperror.Backend("relational: deleting playlist "+id.String(), result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperror.NotFound("playlist", id.String())
	}
	return row.toModel(), nil
}

// GetUserPlaylists follows the users→playlists association. Since the
// association is a join, it can never contain a stale entry.
func (s *Store) GetUserPlaylists(ctx context.Context, userID model.ID) ([]model.Playlist, error) {
	pk, ok := parseKey(userID)
	if !ok {
		return nil, apperror.NotFound("user", userID.String())
	}
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var user userRow
	err = db.Preload("Playlists", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id")
	}).First(&user, pk).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("user", userID.String())
		}
		return nil, apperror.Backend("relational: loading user playlists", err)
	}
	return toPlaylists(user.Playlists), nil
}

func (s *Store) findPlaylist(ctx context.Context, id model.ID) (*playlistRow, error) {
	pk, ok := parseKey(id)
	if !ok {
		return nil, apperror.NotFound("playlist", id.String())
	}
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var row playlistRow
	if err := db.First(&row, pk).Error; err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("playlist", id.String())
		}
		return nil, apperror.Backend("relational: getting playlist "+id.String(), err)
	}
	return &row, nil
}

func toPlaylists(rows []playlistRow) []model.Playlist {
	out := make([]model.Playlist, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toModel())
	}
	return out
}
