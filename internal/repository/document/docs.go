package document

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sakif/playlister/internal/identity"
	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/repository"
)

type userDoc struct {
	ID           primitive.ObjectID   `bson:"_id"`
	FirstName    string               `bson:"firstName"`
	LastName     string               `bson:"lastName"`
	Email        string               `bson:"email"`
	PasswordHash string               `bson:"passwordHash"`
	Playlists    []primitive.ObjectID `bson:"playlists"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

type playlistDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	Name       string             `bson:"name"`
	OwnerEmail string             `bson:"ownerEmail"`
	Songs      []model.Song       `bson:"songs"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

type pairDoc struct {
	ID   primitive.ObjectID `bson:"_id"`
	Name string             `bson:"name"`
}

func (d *userDoc) toModel() *model.User {
	u := &model.User{
		ID:           model.ID(identity.Canonical(d.ID)),
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Playlists:    make([]model.ID, 0, len(d.Playlists)),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	for _, id := range d.Playlists {
		u.Playlists = append(u.Playlists, model.ID(identity.Canonical(id)))
	}
	return u
}

func (d *playlistDoc) toModel() *model.Playlist {
	return &model.Playlist{
		ID:         model.ID(identity.Canonical(d.ID)),
		Name:       d.Name,
		OwnerEmail: d.OwnerEmail,
		Songs:      repository.SongsOrEmpty(d.Songs),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// objectID parses an identity into an ObjectID. Anything that is not 24 hex
// characters, or is the zero id, is reported as not ok.
func objectID(id model.ID) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(identity.Canonical(id))
	if err != nil || oid.IsZero() {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// now truncates to milliseconds, the resolution BSON dates are stored at, so
// returned values equal what a later read yields.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
