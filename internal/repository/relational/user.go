package relational

import (
	"context"

	"gorm.io/gorm"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/repository"
)

// CreateUser inserts a user. The UNIQUE index on email turns a duplicate
// registration into apperror.ErrConflict; the existing row is untouched.
func (s *Store) CreateUser(ctx context.Context, in repository.NewUser) (*model.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	row := userRow{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
	}
	if err := db.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("user", "email "+in.Email)
		}
		return nil, apperror.Backend("relational: inserting user", err)
	}

	return row.toModel(), nil
}

// GetUserByID loads a user and derives its membership view from the
// email-keyed association.
func (s *Store) GetUserByID(ctx context.Context, id model.ID) (*model.User, error) {
	pk, ok := parseKey(id)
	if !ok {
		return nil, apperror.NotFound("user", id.String())
	}
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var row userRow
	if err := withMembership(db).First(&row, pk).Error; err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("user", id.String())
		}
		return nil, apperror.Backend("relational: getting user "+id.String(), err)
	}
	return row.toModel(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var row userRow
	if err := withMembership(db).Where("email = ?", email).First(&row).Error; err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("user", "email "+email)
		}
		return nil, apperror.Backend("relational: getting user by email", err)
	}
	return row.toModel(), nil
}

// UpdateUser applies the non-nil fields of patch.
//
// Membership is implicit here, so the membership fields of patch are
// checked for consistency and otherwise ignored. Because
// playlists reference their owner by email, an email change is carried over
// to the owned playlists in the same transaction.
func (s *Store) UpdateUser(ctx context.Context, id model.ID, patch repository.UserPatch) (*model.User, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	pk, ok := parseKey(id)
	if !ok {
		return nil, apperror.NotFound("user", id.String())
	}
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var current userRow
		if err := tx.First(&current, pk).Error; err != nil {
			return err
		}

		changes := map[string]any{}
		if patch.FirstName != nil {
			changes["first_name"] = *patch.FirstName
		}
		if patch.LastName != nil {
			changes["last_name"] = *patch.LastName
		}
		if patch.Email != nil {
			changes["email"] = *patch.Email
		}
		if patch.PasswordHash != nil {
			changes["password_hash"] = *patch.PasswordHash
		}
		if len(changes) == 0 {
			return nil
		}

		// Updates writes the map back into current, so keep the old key.
		oldEmail := current.Email
		if err := tx.Model(&current).Updates(changes).Error; err != nil {
			return err
		}
		if patch.Email != nil && *patch.Email != oldEmail {
			return tx.Model(&playlistRow{}).
				Where("owner_email = ?", oldEmail).
				Update("owner_email", *patch.Email).Error
		}
		return nil
	})
	if err != nil {
		switch {
		case isNotFound(err):
			return nil, apperror.NotFound("user", id.String())
		case isUniqueViolation(err):
			return nil, apperror.Conflict("user", "email "+*patch.Email)
		}
		return nil, apperror.Backend("relational: updating user "+id.String(), err)
	}

	return s.GetUserByID(ctx, id)
}

// DeleteUser removes the account and returns it. Owned playlists are left in
// place; there is no cascading constraint.
func (s *Store) DeleteUser(ctx context.Context, id model.ID) (*model.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pk, _ := parseKey(id)

	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	result := db.Delete(&userRow{}, pk)
	if result.Error != nil {
		return nil, apperror.Backend("relational: deleting user "+id.String(), result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperror.NotFound("user", id.String())
	}
	return user, nil
}

// withMembership preloads only the columns needed to build the membership
// view, not the song payloads.
func withMembership(db *gorm.DB) *gorm.DB {
	return db.Preload("Playlists", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "owner_email").Order("id")
	})
}
