package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NASWA-OpenUI/Playground/internal/models"
)

// Postgres tests run only against a real database, pointed at by
// CLAIMS_TEST_POSTGRES_URL. The schema must already be migrated.
func setupPostgres(t *testing.T) *PostgresRepository {
	t.Helper()
	connString := os.Getenv("CLAIMS_TEST_POSTGRES_URL")
	if connString == "" {
		t.Skip("CLAIMS_TEST_POSTGRES_URL not set")
	}

	repo, err := NewPostgresRepository(context.Background(), connString)
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

func TestPostgresClaimRoundTrip(t *testing.T) {
	repo := setupPostgres(t)
	ctx := context.Background()

	ref := "CLM-PGTEST-" + time.Now().UTC().Format("20060102150405.000000000")
	claim := &models.Claim{
		ID:                ref + "-id",
		ClaimReferenceID:  ref,
		SourceSystem:      "claimant-portal",
		StatusCode:        models.StatusReceived,
		WorkflowStage:     models.StageInitial,
		ReceivedTimestamp: time.Now().UTC(),
		LastUpdated:       time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, claim))

	err := repo.Create(ctx, claim)
	assert.ErrorIs(t, err, ErrClaimExists)

	got, err := repo.GetByReferenceID(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReceived, got.StatusCode)

	updated, err := repo.Mutate(ctx, ref, func(c *models.Claim) error {
		c.UpdateStatus(models.StatusAwaitingEmployer, "Awaiting Employer Information", "test")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingEmployer, updated.StatusCode)

	_, err = repo.GetByReferenceID(ctx, "CLM-PGTEST-MISSING")
	assert.ErrorIs(t, err, ErrClaimNotFound)
}

func TestPostgresRegistryRoundTrip(t *testing.T) {
	repo := setupPostgres(t)
	store := repo.RegistryStore()
	ctx := context.Background()

	id := "pgtest-svc-" + time.Now().UTC().Format("150405.000000000")
	reg := models.NewServiceRegistration(id, "PG Test Service", "go", "REST", "http://pgtest:8080")
	require.NoError(t, store.Save(ctx, reg))
	defer store.Delete(ctx, id)

	got, err := store.GetByServiceID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "UP", got.Status)

	updated, err := store.Mutate(ctx, id, func(r *models.ServiceRegistration) error {
		r.MarkAsDown("No heartbeat received")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "DOWN", updated.Status)

	require.NoError(t, store.Delete(ctx, id))
	assert.ErrorIs(t, store.Delete(ctx, id), ErrServiceNotFound)
}
