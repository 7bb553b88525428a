// Package instrumented decorates a repository.Store with Prometheus metrics.
package instrumented

import (
	"context"

	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/observability"
	"github.com/sakif/playlister/internal/repository"
)

// Store forwards every call to the wrapped store and records its latency
// and outcome under the wrapped store's backend name.
type Store struct {
	next repository.Store
	prom *observability.Prom
}

var _ repository.Store = (*Store)(nil)

func Wrap(next repository.Store, prom *observability.Prom) *Store {
	return &Store{next: next, prom: prom}
}

// Unwrap returns the decorated store.
func (s *Store) Unwrap() repository.Store { return s.next }

func (s *Store) Backend() string { return s.next.Backend() }

func (s *Store) observe(op string, fn func() error) error {
	return s.prom.ObserveStore(s.next.Backend(), op, fn)
}

func (s *Store) Connect(ctx context.Context) error {
	return s.observe("Connect", func() error { return s.next.Connect(ctx) })
}

func (s *Store) Disconnect(ctx context.Context) error {
	return s.observe("Disconnect", func() error { return s.next.Disconnect(ctx) })
}

func (s *Store) CreateUser(ctx context.Context, in repository.NewUser) (u *model.User, err error) {
	err = s.observe("CreateUser", func() error {
		u, err = s.next.CreateUser(ctx, in)
		return err
	})
	return u, err
}

func (s *Store) GetUserByID(ctx context.Context, id model.ID) (u *model.User, err error) {
	err = s.observe("GetUserByID", func() error {
		u, err = s.next.GetUserByID(ctx, id)
		return err
	})
	return u, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (u *model.User, err error) {
	err = s.observe("GetUserByEmail", func() error {
		u, err = s.next.GetUserByEmail(ctx, email)
		return err
	})
	return u, err
}

func (s *Store) UpdateUser(ctx context.Context, id model.ID, patch repository.UserPatch) (u *model.User, err error) {
	err = s.observe("UpdateUser", func() error {
		u, err = s.next.UpdateUser(ctx, id, patch)
		return err
	})
	return u, err
}

func (s *Store) DeleteUser(ctx context.Context, id model.ID) (u *model.User, err error) {
	err = s.observe("DeleteUser", func() error {
		u, err = s.next.DeleteUser(ctx, id)
		return err
	})
	return u, err
}

func (s *Store) CreatePlaylist(ctx context.Context, in repository.NewPlaylist) (p *model.Playlist, err error) {
	err = s.observe("CreatePlaylist", func() error {
		p, err = s.next.CreatePlaylist(ctx, in)
		return err
	})
	return p, err
}

func (s *Store) GetPlaylistByID(ctx context.Context, id model.ID) (p *model.Playlist, err error) {
	err = s.observe("GetPlaylistByID", func() error {
		p, err = s.next.GetPlaylistByID(ctx, id)
		return err
	})
	return p, err
}

func (s *Store) GetPlaylistsByOwnerEmail(ctx context.Context, email string) (ps []model.Playlist, err error) {
	err = s.observe("GetPlaylistsByOwnerEmail", func() error {
		ps, err = s.next.GetPlaylistsByOwnerEmail(ctx, email)
		return err
	})
	return ps, err
}

func (s *Store) GetPlaylistPairsByOwnerEmail(ctx context.Context, email string) (pairs []model.PlaylistPair, err error) {
	err = s.observe("GetPlaylistPairsByOwnerEmail", func() error {
		pairs, err = s.next.GetPlaylistPairsByOwnerEmail(ctx, email)
		return err
	})
	return pairs, err
}

func (s *Store) UpdatePlaylist(ctx context.Context, id model.ID, update repository.PlaylistUpdate) (p *model.Playlist, err error) {
	err = s.observe("UpdatePlaylist", func() error {
		p, err = s.next.UpdatePlaylist(ctx, id, update)
		return err
	})
	return p, err
}

func (s *Store) DeletePlaylist(ctx context.Context, id model.ID) (p *model.Playlist, err error) {
	err = s.observe("DeletePlaylist", func() error {
		p, err = s.next.DeletePlaylist(ctx, id)
		return err
	})
	return p, err
}

func (s *Store) GetUserPlaylists(ctx context.Context, userID model.ID) (ps []model.Playlist, err error) {
	err = s.observe("GetUserPlaylists", func() error {
		ps, err = s.next.GetUserPlaylists(ctx, userID)
		return err
	})
	return ps, err
}
