package instrumented

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/observability"
	"github.com/sakif/playlister/internal/repository"
	"github.com/sakif/playlister/internal/repository/repotest"
)

func TestContract(t *testing.T) {
	repotest.RunContract(t, func(t *testing.T) repository.Store {
		return Wrap(repotest.NewMemoryStore(), observability.NewProm(prometheus.NewRegistry()))
	})
}

func TestRecordsOutcomes(t *testing.T) {
	prom := observability.NewProm(prometheus.NewRegistry())
	s := Wrap(repotest.NewMemoryStore(), prom)
	ctx := context.Background()

	in := repository.NewUser{FirstName: "A", LastName: "B", Email: "a@example.com", PasswordHash: "h"}
	_, err := s.CreateUser(ctx, in)
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, in)
	require.ErrorIs(t, err, apperror.ErrConflict)
	_, err = s.GetUserByID(ctx, "404")
	require.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Equal(t, float64(1), testutil.ToFloat64(prom.StoreErrorsTotal.WithLabelValues("memory", "CreateUser", "conflict")))
	// Absent records are not errors.
	assert.Equal(t, 1, testutil.CollectAndCount(prom.StoreErrorsTotal))
	assert.Equal(t, "memory", s.Backend())
}
