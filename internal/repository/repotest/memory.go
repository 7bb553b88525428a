// Package repotest provides test support for code built on repository.Store:
// an in-memory Store and a contract suite every backend must pass.
package repotest

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/identity"
	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/repository"
)

// MemoryStore is a map-backed repository.Store.
//
// It keeps an explicit membership array on each user, like the document
// backend, so service code that maintains membership is exercised for real.
// Fail injects an error into a named operation for failure-path tests.
type MemoryStore struct {
	mu        sync.Mutex
	life      repository.Lifecycle
	seq       int
	users     map[string]*model.User
	playlists map[string]*model.Playlist
	failures  map[string]error
	objectIDs bool
	created   map[string]int // playlist key → sequence at creation

	Connects    int
	Disconnects int
}

var _ repository.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]*model.User),
		playlists: make(map[string]*model.Playlist),
		failures:  make(map[string]error),
		created:   make(map[string]int),
	}
}

// Fail makes every later call to op (a method name such as "UpdateUser")
// return err. A nil err clears the failure.
func (m *MemoryStore) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

func (m *MemoryStore) Backend() string { return "memory" }

func (m *MemoryStore) Connect(ctx context.Context) error {
	return m.life.Connect(ctx, func(context.Context) error {
		m.mu.Lock()
		m.Connects++
		m.mu.Unlock()
		return nil
	})
}

func (m *MemoryStore) Disconnect(ctx context.Context) error {
	return m.life.Disconnect(ctx, func(context.Context) error {
		m.mu.Lock()
		m.Disconnects++
		m.mu.Unlock()
		return nil
	})
}

// begin connects lazily and takes the lock. The caller must unlock.
func (m *MemoryStore) begin(ctx context.Context, op string) error {
	if err := m.Connect(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	if err := m.failures[op]; err != nil {
		m.mu.Unlock()
		return err
	}
	return nil
}

// NewObjectIDMemoryStore returns a MemoryStore that issues ObjectID hex
// strings, the id shape of the document backend.
func NewObjectIDMemoryStore() *MemoryStore {
	m := NewMemoryStore()
	m.objectIDs = true
	return m
}

func (m *MemoryStore) nextID() model.ID {
	m.seq++
	if m.objectIDs {
		return model.ID(primitive.NewObjectID().Hex())
	}
	return model.ID(strconv.Itoa(m.seq))
}

func (m *MemoryStore) CreateUser(ctx context.Context, in repository.NewUser) (*model.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := m.begin(ctx, "CreateUser"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	if m.findEmail(in.Email) != nil {
		return nil, apperror.Conflict("user", "email "+in.Email)
	}
	now := time.Now().UTC()
	u := &model.User{
		ID:           m.nextID(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Playlists:    []model.ID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[identity.Canonical(u.ID)] = u
	return copyUser(u), nil
}

func (m *MemoryStore) GetUserByID(ctx context.Context, id model.ID) (*model.User, error) {
	if err := m.begin(ctx, "GetUserByID"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	u, ok := m.users[identity.Canonical(id)]
	if !ok {
		return nil, apperror.NotFound("user", id.String())
	}
	return copyUser(u), nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := m.begin(ctx, "GetUserByEmail"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	u := m.findEmail(email)
	if u == nil {
		return nil, apperror.NotFound("user", "email "+email)
	}
	return copyUser(u), nil
}

func (m *MemoryStore) UpdateUser(ctx context.Context, id model.ID, patch repository.UserPatch) (*model.User, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if err := m.begin(ctx, "UpdateUser"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	u, ok := m.users[identity.Canonical(id)]
	if !ok {
		return nil, apperror.NotFound("user", id.String())
	}
	if patch.Email != nil && *patch.Email != u.Email {
		if m.findEmail(*patch.Email) != nil {
			return nil, apperror.Conflict("user", "email "+*patch.Email)
		}
		for _, p := range m.playlists {
			if p.OwnerEmail == u.Email {
				p.OwnerEmail = *patch.Email
			}
		}
		u.Email = *patch.Email
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	switch {
	case patch.Playlists != nil:
		u.Playlists = slices.Clone(patch.Playlists)
	case len(patch.AddPlaylists) > 0:
		for _, pid := range patch.AddPlaylists {
			if !slices.ContainsFunc(u.Playlists, func(have model.ID) bool { return identity.Equal(have, pid) }) {
				u.Playlists = append(u.Playlists, pid)
			}
		}
	case len(patch.RemovePlaylists) > 0:
		u.Playlists = slices.DeleteFunc(u.Playlists, func(have model.ID) bool {
			return slices.ContainsFunc(patch.RemovePlaylists, func(gone model.ID) bool { return identity.Equal(have, gone) })
		})
	}
	u.UpdatedAt = time.Now().UTC()
	return copyUser(u), nil
}

func (m *MemoryStore) DeleteUser(ctx context.Context, id model.ID) (*model.User, error) {
	if err := m.begin(ctx, "DeleteUser"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	key := identity.Canonical(id)
	u, ok := m.users[key]
	if !ok {
		return nil, apperror.NotFound("user", id.String())
	}
	delete(m.users, key)
	return copyUser(u), nil
}

func (m *MemoryStore) CreatePlaylist(ctx context.Context, in repository.NewPlaylist) (*model.Playlist, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := m.begin(ctx, "CreatePlaylist"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	now := time.Now().UTC()
	p := &model.Playlist{
		ID:         m.nextID(),
		Name:       in.Name,
		OwnerEmail: in.OwnerEmail,
		Songs:      slices.Clone(repository.SongsOrEmpty(in.Songs)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	key := identity.Canonical(p.ID)
	m.playlists[key] = p
	m.created[key] = m.seq
	return copyPlaylist(p), nil
}

func (m *MemoryStore) GetPlaylistByID(ctx context.Context, id model.ID) (*model.Playlist, error) {
	if err := m.begin(ctx, "GetPlaylistByID"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	p, ok := m.playlists[identity.Canonical(id)]
	if !ok {
		return nil, apperror.NotFound("playlist", id.String())
	}
	return copyPlaylist(p), nil
}

func (m *MemoryStore) GetPlaylistsByOwnerEmail(ctx context.Context, email string) ([]model.Playlist, error) {
	if err := m.begin(ctx, "GetPlaylistsByOwnerEmail"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	out := []model.Playlist{}
	for _, p := range m.sortedPlaylists() {
		if p.OwnerEmail == email {
			out = append(out, *copyPlaylist(p))
		}
	}
	return out, nil
}

func (m *MemoryStore) GetPlaylistPairsByOwnerEmail(ctx context.Context, email string) ([]model.PlaylistPair, error) {
	if err := m.begin(ctx, "GetPlaylistPairsByOwnerEmail"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	out := []model.PlaylistPair{}
	for _, p := range m.sortedPlaylists() {
		if p.OwnerEmail == email {
			out = append(out, model.PlaylistPair{ID: p.ID, Name: p.Name})
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdatePlaylist(ctx context.Context, id model.ID, update repository.PlaylistUpdate) (*model.Playlist, error) {
	if err := m.begin(ctx, "UpdatePlaylist"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	p, ok := m.playlists[identity.Canonical(id)]
	if !ok {
		return nil, apperror.NotFound("playlist", id.String())
	}
	p.Name = update.Name
	p.Songs = slices.Clone(repository.SongsOrEmpty(update.Songs))
	p.UpdatedAt = time.Now().UTC()
	return copyPlaylist(p), nil
}

func (m *MemoryStore) DeletePlaylist(ctx context.Context, id model.ID) (*model.Playlist, error) {
	if err := m.begin(ctx, "DeletePlaylist"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	key := identity.Canonical(id)
	p, ok := m.playlists[key]
	if !ok {
		return nil, apperror.NotFound("playlist", id.String())
	}
	delete(m.playlists, key)
	delete(m.created, key)
	return copyPlaylist(p), nil
}

func (m *MemoryStore) GetUserPlaylists(ctx context.Context, userID model.ID) ([]model.Playlist, error) {
	if err := m.begin(ctx, "GetUserPlaylists"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	u, ok := m.users[identity.Canonical(userID)]
	if !ok {
		return nil, apperror.NotFound("user", userID.String())
	}
	out := []model.Playlist{}
	for _, id := range u.Playlists {
		if p, ok := m.playlists[identity.Canonical(id)]; ok {
			out = append(out, *copyPlaylist(p))
		}
	}
	return out, nil
}

func (m *MemoryStore) findEmail(email string) *model.User {
	for _, u := range m.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

// sortedPlaylists returns playlists in creation order.
func (m *MemoryStore) sortedPlaylists() []*model.Playlist {
	out := make([]*model.Playlist, 0, len(m.playlists))
	for _, p := range m.playlists {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *model.Playlist) int {
		return m.created[identity.Canonical(a.ID)] - m.created[identity.Canonical(b.ID)]
	})
	return out
}

func copyUser(u *model.User) *model.User {
	c := *u
	c.Playlists = slices.Clone(u.Playlists)
	if c.Playlists == nil {
		c.Playlists = []model.ID{}
	}
	return &c
}

func copyPlaylist(p *model.Playlist) *model.Playlist {
	c := *p
	c.Songs = slices.Clone(p.Songs)
	if c.Songs == nil {
		c.Songs = []model.Song{}
	}
	return &c
}
