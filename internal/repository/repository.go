// Package repository defines the persistence interfaces for claims and
// service registrations, with in-memory, PostgreSQL and Redis
// implementations.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/NASWA-OpenUI/Playground/internal/models"
)

var (
	ErrClaimNotFound   = errors.New("claim not found")
	ErrClaimExists     = errors.New("claim already exists")
	ErrServiceNotFound = errors.New("service registration not found")
)

// ClaimStore is durable keyed storage of claim records. Claims are
// keyed by their externally assigned reference id and are never
// deleted. Mutate applies a read-modify-write atomically with respect
// to concurrent mutations of the same claim; if fn returns an error
// nothing is persisted.
type ClaimStore interface {
	Create(ctx context.Context, claim *models.Claim) error
	GetByReferenceID(ctx context.Context, ref string) (*models.Claim, error)
	Mutate(ctx context.Context, ref string, fn func(*models.Claim) error) (*models.Claim, error)

	List(ctx context.Context) ([]*models.Claim, error)
	ListByStatus(ctx context.Context, status models.ClaimStatus) ([]*models.Claim, error)
	ListByStatuses(ctx context.Context, statuses []models.ClaimStatus) ([]*models.Claim, error)
	ListByStage(ctx context.Context, stage models.WorkflowStage) ([]*models.Claim, error)
	ListByEmployer(ctx context.Context, employerID string) ([]*models.Claim, error)
	ListBySourceSystem(ctx context.Context, sourceSystem string) ([]*models.Claim, error)
	ListWithErrors(ctx context.Context) ([]*models.Claim, error)
	ListReceivedBetween(ctx context.Context, from, to time.Time) ([]*models.Claim, error)
	ListStale(ctx context.Context, cutoff time.Time) ([]*models.Claim, error)
	ListForProcessing(ctx context.Context, statuses []models.ClaimStatus, since time.Time, limit int) ([]*models.Claim, error)

	CountsByStatus(ctx context.Context) (map[models.ClaimStatus]int, error)
	CountsBySourceSystem(ctx context.Context) (map[string]int, error)
}

// RegistryStore is keyed storage of service liveness records. Mutate
// has the same atomicity contract as ClaimStore.Mutate.
type RegistryStore interface {
	Save(ctx context.Context, reg *models.ServiceRegistration) error
	GetByServiceID(ctx context.Context, serviceID string) (*models.ServiceRegistration, error)
	Mutate(ctx context.Context, serviceID string, fn func(*models.ServiceRegistration) error) (*models.ServiceRegistration, error)
	Delete(ctx context.Context, serviceID string) error

	List(ctx context.Context) ([]*models.ServiceRegistration, error)
	ListByStatus(ctx context.Context, status string) ([]*models.ServiceRegistration, error)
	CountByStatus(ctx context.Context, status string) (int, error)
	ListStale(ctx context.Context, cutoff time.Time) ([]*models.ServiceRegistration, error)
}
