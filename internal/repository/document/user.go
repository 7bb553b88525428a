package document

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/repository"
)

func (s *Store) CreateUser(ctx context.Context, in repository.NewUser) (*model.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	users, err := s.collection(ctx, usersCollection)
	if err != nil {
		return nil, err
	}

	t := now()
	doc := userDoc{
		ID:           primitive.NewObjectID(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Playlists:    []primitive.ObjectID{},
		CreatedAt:    t,
		UpdatedAt:    t,
	}
	if _, err := users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperror.Conflict("user", "email "+in.Email)
		}
		return nil, apperror.Backend("document: inserting user", err)
	}
	return doc.toModel(), nil
}

func (s *Store) GetUserByID(ctx context.Context, id model.ID) (*model.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, apperror.NotFound("user", id.String())
	}
	doc, err := s.findUser(ctx, bson.M{"_id": oid})
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("user", id.String())
		}
		return nil, apperror.Backend("document: getting user "+id.String(), err)
	}
	return doc.toModel(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	doc, err := s.findUser(ctx, bson.M{"email": email})
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("user", "email "+email)
		}
		return nil, apperror.Backend("document: getting user by email", err)
	}
	return doc.toModel(), nil
}

// UpdateUser applies the non-nil fields of patch, including the membership
// array. An email change is then carried over to the owner's playlists.
// The two writes are separate; a failure in between leaves playlists under
// the old email, which a retry of the same patch repairs.
func (s *Store) UpdateUser(ctx context.Context, id model.ID, patch repository.UserPatch) (*model.User, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	oid, ok := objectID(id)
	if !ok {
		return nil, apperror.NotFound("user", id.String())
	}

	set := bson.M{"updatedAt": now()}
	if patch.FirstName != nil {
		set["firstName"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["lastName"] = *patch.LastName
	}
	if patch.PasswordHash != nil {
		set["passwordHash"] = *patch.PasswordHash
	}
	update := bson.M{"$set": set}
	switch {
	case patch.Playlists != nil:
		ids, err := playlistIDs(patch.Playlists)
		if err != nil {
			return nil, err
		}
		set["playlists"] = ids
	case len(patch.AddPlaylists) > 0:
		ids, err := playlistIDs(patch.AddPlaylists)
		if err != nil {
			return nil, err
		}
		update["$addToSet"] = bson.M{"playlists": bson.M{"$each": ids}}
	case len(patch.RemovePlaylists) > 0:
		// An id that is not an ObjectID can never be in the array.
		ids := make([]primitive.ObjectID, 0, len(patch.RemovePlaylists))
		for _, pid := range patch.RemovePlaylists {
			if poid, ok := objectID(pid); ok {
				ids = append(ids, poid)
			}
		}
		if len(ids) > 0 {
			update["$pull"] = bson.M{"playlists": bson.M{"$in": ids}}
		}
	}

	var oldEmail string
	if patch.Email != nil {
		current, err := s.findUser(ctx, bson.M{"_id": oid})
		if err != nil {
			if isNotFound(err) {
				return nil, apperror.NotFound("user", id.String())
			}
			return nil, apperror.Backend("document: getting user "+id.String(), err)
		}
		oldEmail = current.Email
		set["email"] = *patch.Email
	}

	users, err := s.collection(ctx, usersCollection)
	if err != nil {
		return nil, err
	}

	var doc userDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	if err != nil {
		switch {
		case isNotFound(err):
			return nil, apperror.NotFound("user", id.String())
		case mongo.IsDuplicateKeyError(err):
			return nil, apperror.Conflict("user", "email "+*patch.Email)
		}
		return nil, apperror.Backend("document: updating user "+id.String(), err)
	}

	if patch.Email != nil && *patch.Email != oldEmail {
		playlists, err := s.collection(ctx, playlistsCollection)
		if err != nil {
			return nil, err
		}
		_, err = playlists.UpdateMany(ctx,
			bson.M{"ownerEmail": oldEmail},
			bson.M{"$set": bson.M{"ownerEmail": *patch.Email}},
		)
		if err != nil {
			return nil, apperror.Backend("document: moving playlists to new email", err)
		}
	}

	return doc.toModel(), nil
}

func (s *Store) DeleteUser(ctx context.Context, id model.ID) (*model.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, apperror.NotFound("user", id.String())
	}
	users, err := s.collection(ctx, usersCollection)
	if err != nil {
		return nil, err
	}

	var doc userDoc
	if err := users.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("user", id.String())
		}
		return nil, apperror.Backend("document: deleting user "+id.String(), err)
	}
	return doc.toModel(), nil
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*userDoc, error) {
	users, err := s.collection(ctx, usersCollection)
	if err != nil {
		return nil, err
	}
	var doc userDoc
	if err := users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// playlistIDs converts membership entries to ObjectIDs. Ids from the other
// backend are rejected rather than stored as strings.
func playlistIDs(in []model.ID) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(in))
	for _, pid := range in {
		poid, ok := objectID(pid)
		if !ok {
			return nil, apperror.ValidationFailed("playlists", "invalid playlist id "+pid.String())
		}
		ids = append(ids, poid)
	}
	return ids, nil
}
