package repository

import (
	"strings"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/model"
)

// Validate checks the fields every backend requires to create a user.
func (in NewUser) Validate() error {
	switch {
	case strings.TrimSpace(in.FirstName) == "":
		return apperror.ValidationFailed("firstName", "first name is required")
	case strings.TrimSpace(in.LastName) == "":
		return apperror.ValidationFailed("lastName", "last name is required")
	case strings.TrimSpace(in.Email) == "":
		return apperror.ValidationFailed("email", "email is required")
	case in.PasswordHash == "":
		return apperror.ValidationFailed("passwordHash", "password hash is required")
	}
	return nil
}

// Validate checks the fields every backend requires to create a playlist.
func (in NewPlaylist) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperror.ValidationFailed("name", "playlist name is required")
	}
	if strings.TrimSpace(in.OwnerEmail) == "" {
		return apperror.ValidationFailed("ownerEmail", "owner email is required")
	}
	return nil
}

// Validate rejects a patch that combines more than one membership form.
func (p UserPatch) Validate() error {
	forms := 0
	if p.Playlists != nil {
		forms++
	}
	if len(p.AddPlaylists) > 0 {
		forms++
	}
	if len(p.RemovePlaylists) > 0 {
		forms++
	}
	if forms > 1 {
		return apperror.ValidationFailed("playlists", "only one membership change may be given")
	}
	return nil
}

// SongsOrEmpty normalizes a nil song list to an empty one so that both
// backends store and return [] rather than null.
func SongsOrEmpty(songs []model.Song) []model.Song {
	if songs == nil {
		return []model.Song{}
	}
	return songs
}
