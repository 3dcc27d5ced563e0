package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/NASWA-OpenUI/Playground/internal/models"
)

// InMemoryClaimStore keeps claims in a mutex-guarded map. Used for
// tests and single-node deployments without a database.
type InMemoryClaimStore struct {
	claims map[string]*models.Claim
	mu     sync.RWMutex
}

func NewInMemoryClaimStore() *InMemoryClaimStore {
	return &InMemoryClaimStore{
		claims: make(map[string]*models.Claim),
	}
}

func (s *InMemoryClaimStore) Create(ctx context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.claims[claim.ClaimReferenceID]; exists {
		return ErrClaimExists
	}

	cp := *claim
	s.claims[claim.ClaimReferenceID] = &cp
	return nil
}

func (s *InMemoryClaimStore) GetByReferenceID(ctx context.Context, ref string) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claim, exists := s.claims[ref]
	if !exists {
		return nil, ErrClaimNotFound
	}
	cp := *claim
	return &cp, nil
}

// Mutate applies fn to a copy of the stored claim under the write lock.
// The copy is stored back only when fn succeeds, so a failed mutation
// leaves the record untouched.
func (s *InMemoryClaimStore) Mutate(ctx context.Context, ref string, fn func(*models.Claim) error) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	claim, exists := s.claims[ref]
	if !exists {
		return nil, ErrClaimNotFound
	}

	cp := *claim
	if err := fn(&cp); err != nil {
		return nil, err
	}

	s.claims[ref] = &cp
	out := cp
	return &out, nil
}

func (s *InMemoryClaimStore) snapshot(filter func(*models.Claim) bool) []*models.Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Claim, 0)
	for _, claim := range s.claims {
		if filter == nil || filter(claim) {
			cp := *claim
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ReceivedTimestamp.Before(out[j].ReceivedTimestamp)
	})
	return out
}

func (s *InMemoryClaimStore) List(ctx context.Context) ([]*models.Claim, error) {
	return s.snapshot(nil), nil
}

func (s *InMemoryClaimStore) ListByStatus(ctx context.Context, status models.ClaimStatus) ([]*models.Claim, error) {
	return s.snapshot(func(c *models.Claim) bool {
		return c.StatusCode == status
	}), nil
}

func (s *InMemoryClaimStore) ListByStatuses(ctx context.Context, statuses []models.ClaimStatus) ([]*models.Claim, error) {
	return s.snapshot(func(c *models.Claim) bool {
		return c.IsInStatus(statuses...)
	}), nil
}

func (s *InMemoryClaimStore) ListByStage(ctx context.Context, stage models.WorkflowStage) ([]*models.Claim, error) {
	return s.snapshot(func(c *models.Claim) bool {
		return c.WorkflowStage == stage
	}), nil
}

func (s *InMemoryClaimStore) ListByEmployer(ctx context.Context, employerID string) ([]*models.Claim, error) {
	return s.snapshot(func(c *models.Claim) bool {
		return c.EmployerID == employerID
	}), nil
}

func (s *InMemoryClaimStore) ListBySourceSystem(ctx context.Context, sourceSystem string) ([]*models.Claim, error) {
	return s.snapshot(func(c *models.Claim) bool {
		return c.SourceSystem == sourceSystem
	}), nil
}

func (s *InMemoryClaimStore) ListWithErrors(ctx context.Context) ([]*models.Claim, error) {
	return s.snapshot(func(c *models.Claim) bool {
		return c.ErrorCount > 0 || c.StatusCode == models.StatusError
	}), nil
}

func (s *InMemoryClaimStore) ListReceivedBetween(ctx context.Context, from, to time.Time) ([]*models.Claim, error) {
	return s.snapshot(func(c *models.Claim) bool {
		return !c.ReceivedTimestamp.Before(from) && !c.ReceivedTimestamp.After(to)
	}), nil
}

func (s *InMemoryClaimStore) ListStale(ctx context.Context, cutoff time.Time) ([]*models.Claim, error) {
	return s.snapshot(func(c *models.Claim) bool {
		return c.LastUpdated.Before(cutoff) && !c.StatusCode.Terminal()
	}), nil
}

func (s *InMemoryClaimStore) ListForProcessing(ctx context.Context, statuses []models.ClaimStatus, since time.Time, limit int) ([]*models.Claim, error) {
	claims := s.snapshot(func(c *models.Claim) bool {
		return c.IsInStatus(statuses...) && !c.LastUpdated.Before(since)
	})
	if limit > 0 && len(claims) > limit {
		claims = claims[:limit]
	}
	return claims, nil
}

func (s *InMemoryClaimStore) CountsByStatus(ctx context.Context) (map[models.ClaimStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.ClaimStatus]int)
	for _, claim := range s.claims {
		counts[claim.StatusCode]++
	}
	return counts, nil
}

func (s *InMemoryClaimStore) CountsBySourceSystem(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, claim := range s.claims {
		counts[claim.SourceSystem]++
	}
	return counts, nil
}

// InMemoryRegistryStore keeps service registrations in a mutex-guarded
// map keyed by service id.
type InMemoryRegistryStore struct {
	services map[string]*models.ServiceRegistration
	mu       sync.RWMutex
}

func NewInMemoryRegistryStore() *InMemoryRegistryStore {
	return &InMemoryRegistryStore{
		services: make(map[string]*models.ServiceRegistration),
	}
}

func (s *InMemoryRegistryStore) Save(ctx context.Context, reg *models.ServiceRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *reg
	s.services[reg.ServiceID] = &cp
	return nil
}

func (s *InMemoryRegistryStore) GetByServiceID(ctx context.Context, serviceID string) (*models.ServiceRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, exists := s.services[serviceID]
	if !exists {
		return nil, ErrServiceNotFound
	}
	cp := *reg
	return &cp, nil
}

func (s *InMemoryRegistryStore) Mutate(ctx context.Context, serviceID string, fn func(*models.ServiceRegistration) error) (*models.ServiceRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, exists := s.services[serviceID]
	if !exists {
		return nil, ErrServiceNotFound
	}

	cp := *reg
	if err := fn(&cp); err != nil {
		return nil, err
	}

	s.services[serviceID] = &cp
	out := cp
	return &out, nil
}

func (s *InMemoryRegistryStore) Delete(ctx context.Context, serviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.services[serviceID]; !exists {
		return ErrServiceNotFound
	}
	delete(s.services, serviceID)
	return nil
}

func (s *InMemoryRegistryStore) list(filter func(*models.ServiceRegistration) bool) []*models.ServiceRegistration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ServiceRegistration, 0)
	for _, reg := range s.services {
		if filter == nil || filter(reg) {
			cp := *reg
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ServiceID < out[j].ServiceID
	})
	return out
}

func (s *InMemoryRegistryStore) List(ctx context.Context) ([]*models.ServiceRegistration, error) {
	return s.list(nil), nil
}

func (s *InMemoryRegistryStore) ListByStatus(ctx context.Context, status string) ([]*models.ServiceRegistration, error) {
	return s.list(func(r *models.ServiceRegistration) bool {
		return r.Status == status
	}), nil
}

func (s *InMemoryRegistryStore) CountByStatus(ctx context.Context, status string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, reg := range s.services {
		if reg.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryRegistryStore) ListStale(ctx context.Context, cutoff time.Time) ([]*models.ServiceRegistration, error) {
	return s.list(func(r *models.ServiceRegistration) bool {
		return r.LastHeartbeat.Before(cutoff)
	}), nil
}
