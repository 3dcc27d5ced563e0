// Package scheduler provides periodic execution of the registry
// liveness sweep.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/NASWA-OpenUI/Playground/internal/health"
	"github.com/NASWA-OpenUI/Playground/internal/metrics"
	"github.com/NASWA-OpenUI/Playground/internal/registry"
)

// DefaultInterval is how often the sweep runs when not configured.
const DefaultInterval = 30 * time.Second

// Metrics summarizes sweeper activity since startup.
type Metrics struct {
	SweepsRun          uint64    `json:"sweepsRun"`
	ServicesMarkedDown uint64    `json:"servicesMarkedDown"`
	LastSweepTime      time.Time `json:"lastSweepTime"`
}

// Sweeper periodically marks stale services DOWN and refreshes the
// cached health snapshot.
type Sweeper struct {
	registry *registry.Registry
	monitor  *health.Monitor
	interval time.Duration
	logger   *slog.Logger

	stop    chan struct{}
	stopped chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	running bool
	stats   Metrics
}

// NewSweeper creates a sweeper. interval <= 0 selects DefaultInterval.
func NewSweeper(reg *registry.Registry, monitor *health.Monitor, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		registry: reg,
		monitor:  monitor,
		interval: interval,
		logger:   slog.Default().With(slog.String("component", "sweeper")),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start begins the sweep loop. Call in a goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	defer close(s.stopped)

	s.logger.Info("Liveness sweeper started", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stop:
			s.logger.Info("Liveness sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Liveness sweeper context cancelled")
			return
		}
	}
}

// Stop signals the sweeper to stop and waits for the loop and any
// in-flight sweep to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.stopped
	s.wg.Wait()
}

// Stats returns a copy of the sweeper's counters.
func (s *Sweeper) Stats() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Sweeper) sweep(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		// Previous sweep still in flight; skip this tick.
		s.mu.Unlock()
		s.logger.Warn("Sweep still running, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	marked, err := s.registry.MarkStaleServicesAsDown(ctx)
	if err != nil {
		s.logger.Error("Liveness sweep failed", slog.String("error", err.Error()))
		return
	}

	if _, err := s.monitor.GetCurrentStatus(ctx); err != nil {
		s.logger.Error("Failed to refresh health snapshot", slog.String("error", err.Error()))
	}

	metrics.SweepsRun.Inc()

	s.mu.Lock()
	s.stats.SweepsRun++
	s.stats.ServicesMarkedDown += uint64(marked)
	s.stats.LastSweepTime = time.Now().UTC()
	s.mu.Unlock()

	if marked > 0 {
		s.logger.Info("Liveness sweep completed", slog.Int("services_marked_down", marked))
	} else {
		s.logger.Debug("Liveness sweep completed, no stale services")
	}
}
