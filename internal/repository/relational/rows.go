package relational

import (
	"strconv"
	"time"

	"gorm.io/datatypes"

	"github.com/sakif/playlister/internal/identity"
	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/repository"
)

// userRow is the GORM mapping of the users table.
//
// Playlists is a has-many association joined on playlists.owner_email =
// users.email rather than on the primary key.
type userRow struct {
	ID           uint          `gorm:"primaryKey;autoIncrement"`
	FirstName    string        `gorm:"not null"`
	LastName     string        `gorm:"not null"`
	Email        string        `gorm:"uniqueIndex;not null"`
	PasswordHash string        `gorm:"not null"`
	Playlists    []playlistRow `gorm:"foreignKey:OwnerEmail;references:Email"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

// playlistRow is the GORM mapping of the playlists table. Songs is a JSON
// column (JSONB on postgres) that the database never looks inside.
type playlistRow struct {
	ID         uint                            `gorm:"primaryKey;autoIncrement"`
	Name       string                          `gorm:"not null"`
	OwnerEmail string                          `gorm:"index;not null"`
	Songs      datatypes.JSONSlice[model.Song] `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (playlistRow) TableName() string { return "playlists" }

func idOf(pk uint) model.ID {
	return model.ID(strconv.FormatUint(uint64(pk), 10))
}

// parseKey turns an identity into a primary key.
//
// Identifiers shaped like document-store ObjectIDs are rejected before any
// numeric parse, so stale client state from the other backend reads as
// "absent" rather than as a type error. The same holds for any other
// non-numeric or zero value.
func parseKey(id model.ID) (uint, bool) {
	s := identity.Canonical(id)
	if s == "" || identity.LooksLikeObjectID(s) {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 0)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func (r *userRow) toModel() *model.User {
	u := &model.User{
		ID:           idOf(r.ID),
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Playlists:    make([]model.ID, 0, len(r.Playlists)),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	for _, p := range r.Playlists {
		u.Playlists = append(u.Playlists, idOf(p.ID))
	}
	return u
}

func (r *playlistRow) toModel() *model.Playlist {
	return &model.Playlist{
		ID:         idOf(r.ID),
		Name:       r.Name,
		OwnerEmail: r.OwnerEmail,
		Songs:      repository.SongsOrEmpty(r.Songs),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
