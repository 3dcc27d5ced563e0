// Package health aggregates registry state into the gateway status
// snapshot served to dashboards.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/NASWA-OpenUI/Playground/internal/models"
	"github.com/NASWA-OpenUI/Playground/internal/registry"
)

// ServiceStatus is the per-service view inside a snapshot.
type ServiceStatus struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Technology  string               `json:"technology"`
	Protocol    string               `json:"protocol"`
	Endpoint    string               `json:"endpoint"`
	Health      models.ServiceHealth `json:"health"`
	Message     string               `json:"message"`
	LastChecked time.Time            `json:"lastChecked"`
}

// Snapshot is the aggregated gateway status document.
type Snapshot struct {
	Timestamp         time.Time                `json:"timestamp"`
	GatewayStatus     string                   `json:"gatewayStatus"`
	ActiveConnections int                      `json:"activeConnections"`
	Services          map[string]ServiceStatus `json:"services"`
}

// Monitor builds status snapshots from the service registry and caches
// the most recent one for cheap reads between sweeps.
type Monitor struct {
	registry *registry.Registry

	mu     sync.RWMutex
	cached *Snapshot
}

// NewMonitor creates a health monitor over the registry.
func NewMonitor(reg *registry.Registry) *Monitor {
	return &Monitor{registry: reg}
}

// GetCurrentStatus builds a fresh snapshot from the registry and
// caches it. An empty registry yields a valid snapshot with zero
// active connections and an empty services map.
func (m *Monitor) GetCurrentStatus(ctx context.Context) (*Snapshot, error) {
	active, err := m.registry.CountActive(ctx)
	if err != nil {
		return nil, err
	}

	registrations, err := m.registry.ListServices(ctx)
	if err != nil {
		return nil, err
	}

	services := make(map[string]ServiceStatus, len(registrations))
	for _, reg := range registrations {
		message := reg.LastMessage
		if message == "" {
			message = "Service registered"
		}
		services[reg.ServiceID] = ServiceStatus{
			ID:          reg.ServiceID,
			Name:        reg.Name,
			Technology:  reg.Technology,
			Protocol:    reg.Protocol,
			Endpoint:    reg.Endpoint,
			Health:      models.MapServiceHealth(reg.Status),
			Message:     message,
			LastChecked: reg.LastHeartbeat,
		}
	}

	snapshot := &Snapshot{
		Timestamp:         time.Now().UTC(),
		GatewayStatus:     "RUNNING",
		ActiveConnections: active,
		Services:          services,
	}

	m.mu.Lock()
	m.cached = snapshot
	m.mu.Unlock()

	return snapshot, nil
}

// CachedStatus returns the last snapshot built by GetCurrentStatus, or
// nil if none has been built yet.
func (m *Monitor) CachedStatus() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cached
}
