package backend

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/config"
	"github.com/sakif/playlister/internal/repository/document"
	"github.com/sakif/playlister/internal/repository/relational"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNew_SelectsBackend(t *testing.T) {
	tests := []struct {
		typ     string
		backend string
	}{
		{"mongodb", "document"},
		{"MongoDB", "document"},
		{"mongo", "document"},
		{"document", "document"},
		{"postgres", "relational"},
		{"PostgreSQL", "relational"},
		{"relational", "relational"},
		{"sqlite", "relational"},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			s, err := New(config.Database{
				Type: tt.typ,
				URI:  "mongodb://localhost:27017",
				Name: "playlister",
				Host: "localhost",
				Port: 5432,
				Path: ":memory:",
			}, quiet)
			require.NoError(t, err)
			assert.Equal(t, tt.backend, s.Backend())
		})
	}
}

func TestNew_ConcreteTypes(t *testing.T) {
	s, err := New(config.Database{Type: "mongo", URI: "mongodb://x", Name: "db"}, quiet)
	require.NoError(t, err)
	assert.IsType(t, &document.Store{}, s)

	s, err = New(config.Database{Type: "sqlite", Path: ":memory:"}, quiet)
	require.NoError(t, err)
	assert.IsType(t, &relational.Store{}, s)
}

func TestNew_Unknown(t *testing.T) {
	for _, typ := range []string{"", "cassandra", "redis"} {
		_, err := New(config.Database{Type: typ}, quiet)
		assert.ErrorIs(t, err, apperror.ErrConfiguration, "type %q", typ)
	}
}

func TestNew_MissingParameters(t *testing.T) {
	_, err := New(config.Database{Type: "mongodb", Name: "db"}, quiet)
	assert.ErrorIs(t, err, apperror.ErrConfiguration)

	_, err = New(config.Database{Type: "sqlite"}, quiet)
	assert.ErrorIs(t, err, apperror.ErrConfiguration)
}

// The selector only constructs; a sqlite store still works end to end.
func TestNew_SQLiteIsUsable(t *testing.T) {
	s, err := New(config.Database{Type: "sqlite", Path: ":memory:"}, quiet)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))
	t.Cleanup(func() { s.Disconnect(ctx) })

	pairs, err := s.GetPlaylistPairsByOwnerEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, pairs)
}
