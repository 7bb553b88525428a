package document

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/identity"
	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/repository"
)

func (s *Store) CreatePlaylist(ctx context.Context, in repository.NewPlaylist) (*model.Playlist, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	playlists, err := s.collection(ctx, playlistsCollection)
	if err != nil {
		return nil, err
	}

	t := now()
	doc := playlistDoc{
		ID:         primitive.NewObjectID(),
		Name:       in.Name,
		OwnerEmail: in.OwnerEmail,
		Songs:      repository.SongsOrEmpty(in.Songs),
		CreatedAt:  t,
		UpdatedAt:  t,
	}
	if _, err := playlists.InsertOne(ctx, doc); err != nil {
		return nil, apperror.Backend("document: inserting playlist", err)
	}
	return doc.toModel(), nil
}

func (s *Store) GetPlaylistByID(ctx context.Context, id model.ID) (*model.Playlist, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, apperror.NotFound("playlist", id.String())
	}
	playlists, err := s.collection(ctx, playlistsCollection)
	if err != nil {
		return nil, err
	}

	var doc playlistDoc
	if err := playlists.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("playlist", id.String())
		}
		return nil, apperror.Backend("document: getting playlist "+id.String(), err)
	}
	return doc.toModel(), nil
}

func (s *Store) GetPlaylistsByOwnerEmail(ctx context.Context, email string) ([]model.Playlist, error) {
	docs, err := s.findPlaylists(ctx, bson.M{"ownerEmail": email})
	if err != nil {
		return nil, apperror.Backend("document: listing playlists", err)
	}
	out := make([]model.Playlist, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].toModel())
	}
	return out, nil
}

// GetPlaylistPairsByOwnerEmail projects {_id, name}. It reads the playlists
// collection only, never the owner's membership array.
func (s *Store) GetPlaylistPairsByOwnerEmail(ctx context.Context, email string) ([]model.PlaylistPair, error) {
	playlists, err := s.collection(ctx, playlistsCollection)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "name": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := playlists.Find(ctx, bson.M{"ownerEmail": email}, opts)
	if err != nil {
		return nil, apperror.Backend("document: listing playlist pairs", err)
	}
	var docs []pairDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperror.Backend("document: reading playlist pairs", err)
	}

	pairs := make([]model.PlaylistPair, 0, len(docs))
	for _, d := range docs {
		pairs = append(pairs, model.PlaylistPair{ID: model.ID(identity.Canonical(d.ID)), Name: d.Name})
	}
	return pairs, nil
}

// UpdatePlaylist replaces name and songs. ownerEmail is never written here.
func (s *Store) UpdatePlaylist(ctx context.Context, id model.ID, update repository.PlaylistUpdate) (*model.Playlist, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, apperror.NotFound("playlist", id.String())
	}
	playlists, err := s.collection(ctx, playlistsCollection)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"name":      update.Name,
		"songs":     repository.SongsOrEmpty(update.Songs),
		"updatedAt": now(),
	}
	var doc playlistDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := playlists.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("playlist", id.String())
		}
		return nil, apperror.Backend("document: updating playlist "+id.String(), err)
	}
	return doc.toModel(), nil
}

func (s *Store) DeletePlaylist(ctx context.Context, id model.ID) (*model.Playlist, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, apperror.NotFound("playlist", id.String())
	}
	playlists, err := s.collection(ctx, playlistsCollection)
	if err != nil {
		return nil, err
	}

	var doc playlistDoc
	if err := playlists.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("playlist", id.String())
		}
		return nil, apperror.Backend("document: deleting playlist "+id.String(), err)
	}
	return doc.toModel(), nil
}

// GetUserPlaylists resolves the membership array in its stored order.
// Entries whose playlist no longer exists are skipped.
func (s *Store) GetUserPlaylists(ctx context.Context, userID model.ID) ([]model.Playlist, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Playlists) == 0 {
		return []model.Playlist{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(user.Playlists))
	for _, id := range user.Playlists {
		if oid, ok := objectID(id); ok {
			ids = append(ids, oid)
		}
	}
	docs, err := s.findPlaylists(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperror.Backend("document: loading user playlists", err)
	}

	byID := make(map[string]*playlistDoc, len(docs))
	for i := range docs {
		byID[identity.Canonical(docs[i].ID)] = &docs[i]
	}
	out := make([]model.Playlist, 0, len(docs))
	for _, id := range user.Playlists {
		if d, ok := byID[identity.Canonical(id)]; ok {
			out = append(out, *d.toModel())
		}
	}
	return out, nil
}

func (s *Store) findPlaylists(ctx context.Context, filter bson.M) ([]playlistDoc, error) {
	playlists, err := s.collection(ctx, playlistsCollection)
	if err != nil {
		return nil, err
	}
	cur, err := playlists.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []playlistDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
