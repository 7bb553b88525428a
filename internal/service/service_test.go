package service

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/sakif/playlister/internal/auth"
	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/repository"
	"github.com/sakif/playlister/internal/repository/repotest"
)

// =========================================================================
// SHARED HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestAuthService(t *testing.T, users repository.UserRepository) *AuthService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	// Cost 4 is the bcrypt minimum.
	return NewAuthService(users, ts, auth.NewPasswordServiceWithCost(4), testLogger())
}

func newTestPlaylistService(t *testing.T) (*PlaylistService, *repotest.MemoryStore) {
	t.Helper()
	store := repotest.NewMemoryStore()
	return NewPlaylistService(store, testLogger()), store
}

func createTestUser(t *testing.T, store repository.Store, email string) *model.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), repository.NewUser{
		FirstName: "Test", LastName: "User", Email: email, PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}
