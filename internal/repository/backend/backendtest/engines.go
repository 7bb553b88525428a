// Package backendtest hands tests of code above repository.Store one fresh
// store per engine, so that the same scenario runs on every backend.
//
// The in-memory and sqlite engines always run. The document engine needs a
// live server and is only included when MONGO_TEST_URI is set.
package backendtest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/playlister/internal/config"
	"github.com/sakif/playlister/internal/repository"
	"github.com/sakif/playlister/internal/repository/backend"
	"github.com/sakif/playlister/internal/repository/repotest"
)

// Engine names a store constructor.
type Engine struct {
	Name string
	// HexIDs is set when the engine issues ObjectID hex strings.
	HexIDs bool
	New    repotest.Factory
}

// Engines lists every engine available in this environment.
func Engines() []Engine {
	engines := []Engine{
		{Name: "memory", New: func(*testing.T) repository.Store { return repotest.NewMemoryStore() }},
		{Name: "memory-objectid", HexIDs: true, New: func(*testing.T) repository.Store { return repotest.NewObjectIDMemoryStore() }},
		{Name: "sqlite", New: newSQLite},
	}
	if uri := os.Getenv("MONGO_TEST_URI"); uri != "" {
		engines = append(engines, Engine{Name: "document", HexIDs: true, New: func(t *testing.T) repository.Store {
			return newDocument(t, uri)
		}})
	}
	return engines
}

// Run runs fn once per engine as a subtest named after the engine.
func Run(t *testing.T, fn func(t *testing.T, e Engine)) {
	t.Helper()
	for _, e := range Engines() {
		t.Run(e.Name, func(t *testing.T) { fn(t, e) })
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSQLite(t *testing.T) repository.Store {
	t.Helper()
	s, err := backend.New(config.Database{Type: "sqlite", Path: ":memory:"}, discardLogger())
	require.NoError(t, err)
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() { s.Disconnect(context.Background()) })
	return s
}

// newDocument connects to a throwaway database that is dropped on cleanup.
func newDocument(t *testing.T, uri string) repository.Store {
	t.Helper()
	name := "playlister_test_" + xid.New().String()
	s, err := backend.New(config.Database{Type: "document", URI: uri, Name: name}, discardLogger())
	require.NoError(t, err)
	require.NoError(t, s.Connect(context.Background()))

	t.Cleanup(func() {
		ctx := context.Background()
		s.Disconnect(ctx)

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			t.Logf("connecting to drop %s: %v", name, err)
			return
		}
		defer client.Disconnect(ctx)
		if err := client.Database(name).Drop(ctx); err != nil {
			t.Logf("dropping %s: %v", name, err)
		}
	})
	return s
}
