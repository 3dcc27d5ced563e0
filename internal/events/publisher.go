// Package events emits claim lifecycle events onto the notification
// bus. Publication is fire-and-forget: a broker outage or a full
// buffer must never fail the workflow mutation that triggered the
// event.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/NASWA-OpenUI/Playground/internal/metrics"
	"github.com/NASWA-OpenUI/Playground/internal/models"
	"github.com/NASWA-OpenUI/Playground/pkg/messaging"
)

// Publisher emits claim transition events. Implementations must not
// block the caller and must not surface emission failures.
type Publisher interface {
	PublishClaimReceived(claimReferenceID, sourceSystem string)
	PublishStatusChanged(claimReferenceID string, previous, current models.ClaimStatus, updatedBy, sourceSystem string)
	PublishWorkflowAdvanced(claimReferenceID string, previous, current models.WorkflowStage, updatedBy, sourceSystem string)
	Close()
}

const defaultBufferSize = 256

// BusPublisher queues events on a buffered channel drained by a single
// worker that owns serialization and broker writes. When the buffer is
// full the event is dropped and counted rather than blocking the
// workflow engine.
type BusPublisher struct {
	bus       messaging.Publisher
	queue     chan models.ClaimEvent
	wg        sync.WaitGroup
	closeOnce sync.Once
	logger    *slog.Logger
}

// NewBusPublisher starts the drain worker. bufferSize <= 0 selects the
// default.
func NewBusPublisher(bus messaging.Publisher, bufferSize int) *BusPublisher {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	p := &BusPublisher{
		bus:    bus,
		queue:  make(chan models.ClaimEvent, bufferSize),
		logger: slog.Default().With(slog.String("component", "event-publisher")),
	}

	p.wg.Add(1)
	go p.drain()

	return p
}

func (p *BusPublisher) drain() {
	defer p.wg.Done()

	for event := range p.queue {
		p.send(event)
	}
}

func (p *BusPublisher) send(event models.ClaimEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		metrics.EventPublishErrors.Inc()
		p.logger.Error("Failed to serialize claim event",
			slog.String("event_type", event.EventType),
			slog.String("claim_reference_id", event.ClaimReferenceID),
			slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.bus.Publish(ctx, messaging.SubjectClaimEvents, data); err != nil {
		metrics.EventPublishErrors.Inc()
		p.logger.Error("Failed to publish claim event",
			slog.String("event_type", event.EventType),
			slog.String("claim_reference_id", event.ClaimReferenceID),
			slog.String("error", err.Error()))
		return
	}

	// Also publish on the per-claim subject for targeted consumers.
	if err := p.bus.Publish(ctx, messaging.ClaimEventSubject(event.ClaimReferenceID), data); err != nil {
		metrics.EventPublishErrors.Inc()
		p.logger.Warn("Failed to publish claim event to per-claim subject",
			slog.String("claim_reference_id", event.ClaimReferenceID),
			slog.String("error", err.Error()))
		return
	}

	metrics.EventsPublished.WithLabelValues(event.EventType).Inc()
	p.logger.Debug("Published claim event",
		slog.String("event_type", event.EventType),
		slog.String("claim_reference_id", event.ClaimReferenceID))
}

func (p *BusPublisher) enqueue(event models.ClaimEvent) {
	select {
	case p.queue <- event:
	default:
		metrics.EventsDropped.Inc()
		p.logger.Warn("Event buffer full, dropping claim event",
			slog.String("event_type", event.EventType),
			slog.String("claim_reference_id", event.ClaimReferenceID))
	}
}

func (p *BusPublisher) PublishClaimReceived(claimReferenceID, sourceSystem string) {
	p.enqueue(models.NewClaimReceived(claimReferenceID, sourceSystem))
}

func (p *BusPublisher) PublishStatusChanged(claimReferenceID string, previous, current models.ClaimStatus, updatedBy, sourceSystem string) {
	p.enqueue(models.NewStatusChanged(claimReferenceID, previous, current, updatedBy, sourceSystem))
}

func (p *BusPublisher) PublishWorkflowAdvanced(claimReferenceID string, previous, current models.WorkflowStage, updatedBy, sourceSystem string) {
	p.enqueue(models.NewWorkflowAdvanced(claimReferenceID, previous, current, updatedBy, sourceSystem))
}

// Close stops the drain worker after flushing queued events.
func (p *BusPublisher) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
	})
	p.wg.Wait()
}

// NopPublisher discards all events. Used when eventing is disabled and
// in tests.
type NopPublisher struct{}

func (NopPublisher) PublishClaimReceived(string, string) {}
func (NopPublisher) PublishStatusChanged(string, models.ClaimStatus, models.ClaimStatus, string, string) {
}
func (NopPublisher) PublishWorkflowAdvanced(string, models.WorkflowStage, models.WorkflowStage, string, string) {
}
func (NopPublisher) Close() {}
