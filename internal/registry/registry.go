// Package registry tracks the liveness of participating services.
// Services register once, then refresh a heartbeat; the periodic
// sweeper marks services DOWN when the heartbeat goes quiet.
package registry

import (
	"context"
	"log/slog"
	"time"

	"github.com/NASWA-OpenUI/Playground/internal/metrics"
	"github.com/NASWA-OpenUI/Playground/internal/models"
	"github.com/NASWA-OpenUI/Playground/internal/repository"
)

// DefaultStaleAfter is how long a service may go without a heartbeat
// before the sweeper marks it DOWN.
const DefaultStaleAfter = 2 * time.Minute

// Registry manages service registrations and heartbeat bookkeeping.
type Registry struct {
	store      repository.RegistryStore
	staleAfter time.Duration
	logger     *slog.Logger
}

// NewRegistry creates a registry over the given store. staleAfter <= 0
// selects DefaultStaleAfter.
func NewRegistry(store repository.RegistryStore, staleAfter time.Duration) *Registry {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Registry{
		store:      store,
		staleAfter: staleAfter,
		logger:     slog.Default().With(slog.String("component", "registry")),
	}
}

// RegisterService registers a service or refreshes an existing
// registration in place. Re-registering an existing service keeps its
// original registration date.
func (r *Registry) RegisterService(ctx context.Context, serviceID, name, technology, protocol, endpoint, healthEndpoint string) (*models.ServiceRegistration, error) {
	existing, err := r.store.GetByServiceID(ctx, serviceID)
	if err != nil && err != repository.ErrServiceNotFound {
		return nil, err
	}

	var reg *models.ServiceRegistration
	if existing != nil {
		reg = existing
		reg.Name = name
		reg.Technology = technology
		reg.Protocol = protocol
		reg.Endpoint = endpoint
		reg.HealthEndpoint = healthEndpoint
		reg.Status = "UP"
		reg.LastMessage = "Service re-registered"
		reg.LastHeartbeat = time.Now().UTC()
		reg.LastUpdated = time.Now().UTC()
	} else {
		reg = models.NewServiceRegistration(serviceID, name, technology, protocol, endpoint)
		reg.HealthEndpoint = healthEndpoint
		reg.LastMessage = "Service registered"
	}

	if err := r.store.Save(ctx, reg); err != nil {
		return nil, err
	}

	r.logger.Info("Service registered",
		slog.String("service_id", serviceID),
		slog.String("technology", technology),
		slog.Bool("re_registration", existing != nil))

	return reg, nil
}

// UpdateHeartbeat refreshes a service's heartbeat. status is the
// caller-reported health and defaults to "UP" when empty; a heartbeat
// therefore revives a service previously marked DOWN. Returns
// repository.ErrServiceNotFound for unknown services.
func (r *Registry) UpdateHeartbeat(ctx context.Context, serviceID, status string) (*models.ServiceRegistration, error) {
	if status == "" {
		status = "UP"
	}
	reg, err := r.store.Mutate(ctx, serviceID, func(s *models.ServiceRegistration) error {
		s.UpdateHeartbeat()
		s.Status = status
		s.LastMessage = "Heartbeat received"
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Heartbeat received", slog.String("service_id", serviceID))
	return reg, nil
}

// Unregister removes a service's registration.
func (r *Registry) Unregister(ctx context.Context, serviceID string) error {
	if err := r.store.Delete(ctx, serviceID); err != nil {
		return err
	}
	r.logger.Info("Service unregistered", slog.String("service_id", serviceID))
	return nil
}

// GetService retrieves one registration.
func (r *Registry) GetService(ctx context.Context, serviceID string) (*models.ServiceRegistration, error) {
	return r.store.GetByServiceID(ctx, serviceID)
}

// ListServices retrieves all registrations.
func (r *Registry) ListServices(ctx context.Context) ([]*models.ServiceRegistration, error) {
	return r.store.List(ctx)
}

// ListServicesByStatus retrieves registrations in the given raw status.
func (r *Registry) ListServicesByStatus(ctx context.Context, status string) ([]*models.ServiceRegistration, error) {
	return r.store.ListByStatus(ctx, status)
}

// CountActive returns the number of services currently UP.
func (r *Registry) CountActive(ctx context.Context) (int, error) {
	return r.store.CountByStatus(ctx, "UP")
}

// MarkStaleServicesAsDown flips every UP service whose heartbeat is
// older than the staleness window to DOWN. Services already DOWN are
// left untouched. Returns the number of services flipped.
func (r *Registry) MarkStaleServicesAsDown(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-r.staleAfter)

	stale, err := r.store.ListStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, s := range stale {
		if s.Status != "UP" {
			continue
		}
		flipped := false
		_, err := r.store.Mutate(ctx, s.ServiceID, func(reg *models.ServiceRegistration) error {
			// Re-check under the mutation lock; a heartbeat may have
			// landed between the list and the write.
			if reg.Status != "UP" || reg.LastHeartbeat.After(cutoff) {
				return nil
			}
			reg.MarkAsDown("No heartbeat received")
			flipped = true
			return nil
		})
		if err != nil {
			if err == repository.ErrServiceNotFound {
				continue
			}
			return marked, err
		}
		if !flipped {
			continue
		}
		marked++
		metrics.ServicesMarkedDown.Inc()
		r.logger.Warn("Service marked as down",
			slog.String("service_id", s.ServiceID),
			slog.Time("last_heartbeat", s.LastHeartbeat))
	}

	if active, err := r.store.CountByStatus(ctx, "UP"); err == nil {
		metrics.ActiveServices.Set(float64(active))
	}

	return marked, nil
}
