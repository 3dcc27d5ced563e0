package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NASWA-OpenUI/Playground/internal/models"
	"github.com/NASWA-OpenUI/Playground/internal/repository"
)

func newTestRegistry(staleAfter time.Duration) (*Registry, *repository.InMemoryRegistryStore) {
	store := repository.NewInMemoryRegistryStore()
	return NewRegistry(store, staleAfter), store
}

func TestRegisterService(t *testing.T) {
	reg, _ := newTestRegistry(0)
	ctx := context.Background()

	svc, err := reg.RegisterService(ctx, "employer-svc", "Employer Service", "node", "GraphQL", "http://employer:4000", "http://employer:4000/health")
	require.NoError(t, err)

	assert.Equal(t, "UP", svc.Status)
	assert.Equal(t, "Service registered", svc.LastMessage)
	assert.Equal(t, "http://employer:4000/health", svc.HealthEndpoint)
	assert.False(t, svc.RegistrationDate.IsZero())
}

func TestRegisterServiceAgainKeepsRegistrationDate(t *testing.T) {
	reg, store := newTestRegistry(0)
	ctx := context.Background()

	first, err := reg.RegisterService(ctx, "tax-svc", "Tax Service", "dotnet", "SOAP", "http://tax:8081", "")
	require.NoError(t, err)
	originalDate := first.RegistrationDate

	// Simulate the service having gone quiet before it comes back.
	_, err = store.Mutate(ctx, "tax-svc", func(s *models.ServiceRegistration) error {
		s.MarkAsDown("No heartbeat received")
		return nil
	})
	require.NoError(t, err)

	second, err := reg.RegisterService(ctx, "tax-svc", "Tax Calculation Service", "dotnet", "SOAP", "http://tax:8081", "")
	require.NoError(t, err)

	assert.Equal(t, "UP", second.Status)
	assert.Equal(t, "Service re-registered", second.LastMessage)
	assert.Equal(t, "Tax Calculation Service", second.Name)
	assert.Equal(t, originalDate, second.RegistrationDate)
}

func TestUpdateHeartbeat(t *testing.T) {
	reg, store := newTestRegistry(0)
	ctx := context.Background()

	_, err := reg.RegisterService(ctx, "payment-svc", "Payment Service", "go", "REST", "http://payment:8082", "")
	require.NoError(t, err)

	_, err = store.Mutate(ctx, "payment-svc", func(s *models.ServiceRegistration) error {
		s.MarkAsDown("No heartbeat received")
		return nil
	})
	require.NoError(t, err)

	// A heartbeat revives a DOWN service.
	got, err := reg.UpdateHeartbeat(ctx, "payment-svc", "")
	require.NoError(t, err)
	assert.Equal(t, "UP", got.Status)
	assert.Equal(t, "Heartbeat received", got.LastMessage)

	_, err = reg.UpdateHeartbeat(ctx, "ghost", "")
	assert.ErrorIs(t, err, repository.ErrServiceNotFound)
}

func TestUpdateHeartbeatCallerStatus(t *testing.T) {
	reg, _ := newTestRegistry(0)
	ctx := context.Background()

	_, err := reg.RegisterService(ctx, "degraded-svc", "Degraded", "go", "REST", "http://degraded:8080", "")
	require.NoError(t, err)

	got, err := reg.UpdateHeartbeat(ctx, "degraded-svc", "DEGRADED")
	require.NoError(t, err)
	assert.Equal(t, "DEGRADED", got.Status)
	assert.False(t, got.LastHeartbeat.IsZero())
}

func TestUnregister(t *testing.T) {
	reg, _ := newTestRegistry(0)
	ctx := context.Background()

	_, err := reg.RegisterService(ctx, "old-svc", "Old Service", "java", "SOAP", "http://old:8083", "")
	require.NoError(t, err)

	require.NoError(t, reg.Unregister(ctx, "old-svc"))
	assert.ErrorIs(t, reg.Unregister(ctx, "old-svc"), repository.ErrServiceNotFound)

	_, err = reg.GetService(ctx, "old-svc")
	assert.ErrorIs(t, err, repository.ErrServiceNotFound)
}

func TestCountActive(t *testing.T) {
	reg, store := newTestRegistry(0)
	ctx := context.Background()

	_, err := reg.RegisterService(ctx, "a-svc", "A", "go", "REST", "http://a:8080", "")
	require.NoError(t, err)
	_, err = reg.RegisterService(ctx, "b-svc", "B", "node", "REST", "http://b:8080", "")
	require.NoError(t, err)

	_, err = store.Mutate(ctx, "b-svc", func(s *models.ServiceRegistration) error {
		s.MarkAsDown("No heartbeat received")
		return nil
	})
	require.NoError(t, err)

	count, err := reg.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMarkStaleServicesAsDown(t *testing.T) {
	reg, store := newTestRegistry(2 * time.Minute)
	ctx := context.Background()

	_, err := reg.RegisterService(ctx, "fresh-svc", "Fresh", "go", "REST", "http://fresh:8080", "")
	require.NoError(t, err)

	_, err = reg.RegisterService(ctx, "stale-svc", "Stale", "node", "REST", "http://stale:8080", "")
	require.NoError(t, err)
	_, err = store.Mutate(ctx, "stale-svc", func(s *models.ServiceRegistration) error {
		s.LastHeartbeat = time.Now().UTC().Add(-10 * time.Minute)
		return nil
	})
	require.NoError(t, err)

	// Already DOWN services are not counted again.
	_, err = reg.RegisterService(ctx, "down-svc", "Down", "java", "SOAP", "http://down:8081", "")
	require.NoError(t, err)
	_, err = store.Mutate(ctx, "down-svc", func(s *models.ServiceRegistration) error {
		s.MarkAsDown("No heartbeat received")
		s.LastHeartbeat = time.Now().UTC().Add(-10 * time.Minute)
		return nil
	})
	require.NoError(t, err)

	marked, err := reg.MarkStaleServicesAsDown(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	flipped, err := reg.GetService(ctx, "stale-svc")
	require.NoError(t, err)
	assert.Equal(t, "DOWN", flipped.Status)
	assert.Equal(t, "No heartbeat received", flipped.LastMessage)

	fresh, err := reg.GetService(ctx, "fresh-svc")
	require.NoError(t, err)
	assert.Equal(t, "UP", fresh.Status)

	// Second sweep finds nothing new.
	marked, err = reg.MarkStaleServicesAsDown(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, marked)
}
