// Package workflow implements the claim processing state machine:
// claim intake, status and stage updates, the guarded advance
// transition, error escalation and the audit note trail.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/NASWA-OpenUI/Playground/internal/events"
	"github.com/NASWA-OpenUI/Playground/internal/metrics"
	"github.com/NASWA-OpenUI/Playground/internal/models"
	"github.com/NASWA-OpenUI/Playground/internal/repository"
)

var (
	// ErrIllegalTransition is returned by AdvanceClaimWorkflow when the
	// claim's current status/stage pair has no defined next step.
	ErrIllegalTransition = errors.New("cannot advance workflow from current status")

	// ErrValidation wraps request validation failures.
	ErrValidation = errors.New("invalid request")
)

// Claims must escalate to ERROR once this many failures accumulate.
const errorEscalationThreshold = 3

// Engine coordinates claim mutations against the store and emits
// events after successful persistence.
type Engine struct {
	store  repository.ClaimStore
	events events.Publisher
	logger *slog.Logger
}

// NewEngine creates a workflow engine. publisher may be a NopPublisher
// when eventing is disabled.
func NewEngine(store repository.ClaimStore, publisher events.Publisher) *Engine {
	return &Engine{
		store:  store,
		events: publisher,
		logger: slog.Default().With(slog.String("component", "workflow")),
	}
}

// CreateClaim registers a new claim. Status and stage default to
// RECEIVED/INITIAL when the caller leaves them empty. Returns
// repository.ErrClaimExists when the reference id is already taken.
func (e *Engine) CreateClaim(ctx context.Context, claim *models.Claim) (*models.Claim, error) {
	if claim.ClaimReferenceID == "" {
		return nil, fmt.Errorf("%w: claimReferenceId is required", ErrValidation)
	}
	if claim.SourceSystem == "" {
		return nil, fmt.Errorf("%w: sourceSystem is required", ErrValidation)
	}

	e.logger.Info("Creating new claim",
		slog.String("claim_reference_id", claim.ClaimReferenceID),
		slog.String("source_system", claim.SourceSystem))

	claimUUID, _ := uuid.NewV7()
	claim.ID = claimUUID.String()

	if claim.StatusCode == "" {
		claim.UpdateStatus(models.StatusReceived, "Received", "system")
	}
	if claim.WorkflowStage == "" {
		claim.UpdateWorkflowStage(models.StageInitial, "system")
	}
	if claim.ReceivedTimestamp.IsZero() {
		claim.ReceivedTimestamp = time.Now().UTC()
	}

	claim.AddProcessingNote("Claim received from " + claim.SourceSystem)

	if err := e.store.Create(ctx, claim); err != nil {
		return nil, err
	}

	metrics.ClaimsCreated.Inc()
	e.events.PublishClaimReceived(claim.ClaimReferenceID, claim.SourceSystem)

	e.logger.Info("Successfully created claim",
		slog.String("claim_id", claim.ID),
		slog.String("claim_reference_id", claim.ClaimReferenceID))

	return claim, nil
}

// UpdateClaimStatus sets the claim's status unconditionally. Status
// updates come from downstream services and are not validated against
// the advance transition table.
func (e *Engine) UpdateClaimStatus(ctx context.Context, ref string, status models.ClaimStatus, displayName, updatedBy, notes string) (*models.Claim, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %s", ErrValidation, status)
	}

	e.logger.Info("Updating claim status",
		slog.String("claim_reference_id", ref),
		slog.String("status", string(status)))

	var previous models.ClaimStatus
	updated, err := e.store.Mutate(ctx, ref, func(c *models.Claim) error {
		previous = c.StatusCode
		c.UpdateStatus(status, displayName, updatedBy)
		if notes != "" {
			c.AddProcessingNote(fmt.Sprintf("Status changed from %s to %s: %s", previous, status, notes))
		} else {
			c.AddProcessingNote(fmt.Sprintf("Status changed from %s to %s", previous, status))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.StatusTransitions.WithLabelValues(string(status)).Inc()
	e.events.PublishStatusChanged(ref, previous, status, updatedBy, updated.SourceSystem)

	return updated, nil
}

// UpdateWorkflowStage sets the claim's workflow stage unconditionally.
func (e *Engine) UpdateWorkflowStage(ctx context.Context, ref string, stage models.WorkflowStage, updatedBy, notes string) (*models.Claim, error) {
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: unknown workflow stage %s", ErrValidation, stage)
	}

	e.logger.Info("Updating claim workflow stage",
		slog.String("claim_reference_id", ref),
		slog.String("workflow_stage", string(stage)))

	var previous models.WorkflowStage
	updated, err := e.store.Mutate(ctx, ref, func(c *models.Claim) error {
		previous = c.WorkflowStage
		c.UpdateWorkflowStage(stage, updatedBy)
		if notes != "" {
			c.AddProcessingNote(fmt.Sprintf("Workflow stage changed from %s to %s: %s", previous, stage, notes))
		} else {
			c.AddProcessingNote(fmt.Sprintf("Workflow stage changed from %s to %s", previous, stage))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.events.PublishWorkflowAdvanced(ref, previous, stage, updatedBy, updated.SourceSystem)

	return updated, nil
}

// AdvanceClaimWorkflow moves a claim one step along the defined
// progression. Only three status/stage pairs can advance; any other
// combination returns ErrIllegalTransition with no mutation.
func (e *Engine) AdvanceClaimWorkflow(ctx context.Context, ref, updatedBy string) (*models.Claim, error) {
	e.logger.Info("Advancing workflow", slog.String("claim_reference_id", ref))

	var (
		prevStatus models.ClaimStatus
		prevStage  models.WorkflowStage
	)
	updated, err := e.store.Mutate(ctx, ref, func(c *models.Claim) error {
		prevStatus = c.StatusCode
		prevStage = c.WorkflowStage

		switch {
		case c.StatusCode == models.StatusReceived && c.WorkflowStage == models.StageInitial:
			c.UpdateStatus(models.StatusAwaitingEmployer, "Awaiting Employer Information", updatedBy)
			c.UpdateWorkflowStage(models.StageEmployerVerification, updatedBy)
			c.AddProcessingNote("Workflow advanced: Ready for employer verification")

		case c.StatusCode == models.StatusAwaitingEmployer && c.WorkflowStage == models.StageEmployerVerification:
			c.UpdateStatus(models.StatusAwaitingTaxCalc, "Awaiting Tax Calculation", updatedBy)
			c.UpdateWorkflowStage(models.StageTaxCalculation, updatedBy)
			c.AddProcessingNote("Workflow advanced: Ready for tax calculation")

		case c.StatusCode == models.StatusAwaitingTaxCalc && c.WorkflowStage == models.StageTaxCalculation:
			c.UpdateWorkflowStage(models.StageFinalReview, updatedBy)
			c.AddProcessingNote("Workflow advanced: Ready for final review")

		default:
			return fmt.Errorf("%w: %s/%s", ErrIllegalTransition, c.StatusCode, c.WorkflowStage)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrIllegalTransition) {
			e.logger.Warn("Cannot advance workflow",
				slog.String("claim_reference_id", ref),
				slog.String("status", string(prevStatus)),
				slog.String("workflow_stage", string(prevStage)))
		}
		return nil, err
	}

	metrics.WorkflowAdvances.Inc()
	if updated.StatusCode != prevStatus {
		metrics.StatusTransitions.WithLabelValues(string(updated.StatusCode)).Inc()
		e.events.PublishStatusChanged(ref, prevStatus, updated.StatusCode, updatedBy, updated.SourceSystem)
	}
	e.events.PublishWorkflowAdvanced(ref, prevStage, updated.WorkflowStage, updatedBy, updated.SourceSystem)

	e.logger.Info("Successfully advanced workflow",
		slog.String("claim_reference_id", ref),
		slog.String("from", string(prevStatus)+"/"+string(prevStage)),
		slog.String("to", string(updated.StatusCode)+"/"+string(updated.WorkflowStage)))

	return updated, nil
}

// RecordClaimError increments the claim's error counter. Once the
// count reaches the escalation threshold the claim is moved to ERROR
// status, unless it is already there.
func (e *Engine) RecordClaimError(ctx context.Context, ref, errorMessage, updatedBy string) (*models.Claim, error) {
	e.logger.Error("Recording error for claim",
		slog.String("claim_reference_id", ref),
		slog.String("error", errorMessage))

	var (
		prevStatus models.ClaimStatus
		escalated  bool
	)
	updated, err := e.store.Mutate(ctx, ref, func(c *models.Claim) error {
		prevStatus = c.StatusCode
		escalated = false

		c.RecordError(errorMessage)
		c.UpdatedBy = updatedBy
		c.AddProcessingNote("Error recorded: " + errorMessage)

		if c.ErrorCount >= errorEscalationThreshold && c.StatusCode != models.StatusError {
			c.UpdateStatus(models.StatusError, "Error - Requires Manual Review", updatedBy)
			c.AddProcessingNote("Claim marked as error due to multiple processing failures")
			escalated = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ClaimErrorsRecorded.Inc()
	if escalated {
		metrics.StatusTransitions.WithLabelValues(string(models.StatusError)).Inc()
		e.events.PublishStatusChanged(ref, prevStatus, models.StatusError, updatedBy, updated.SourceSystem)
	}

	e.logger.Error("Error recorded for claim",
		slog.String("claim_reference_id", ref),
		slog.Int("error_count", updated.ErrorCount))

	return updated, nil
}

// AddProcessingNote appends a free-form note to the claim's audit
// trail.
func (e *Engine) AddProcessingNote(ctx context.Context, ref, note, updatedBy string) (*models.Claim, error) {
	if note == "" {
		return nil, fmt.Errorf("%w: note is required", ErrValidation)
	}

	return e.store.Mutate(ctx, ref, func(c *models.Claim) error {
		c.AddProcessingNote(note)
		c.UpdatedBy = updatedBy
		return nil
	})
}

// GetClaimByReferenceID retrieves a single claim.
func (e *Engine) GetClaimByReferenceID(ctx context.Context, ref string) (*models.Claim, error) {
	return e.store.GetByReferenceID(ctx, ref)
}

// GetAllClaims retrieves every claim ordered by received time.
func (e *Engine) GetAllClaims(ctx context.Context) ([]*models.Claim, error) {
	return e.store.List(ctx)
}

// GetClaimsByStatus retrieves claims in the given status.
func (e *Engine) GetClaimsByStatus(ctx context.Context, status models.ClaimStatus) ([]*models.Claim, error) {
	return e.store.ListByStatus(ctx, status)
}

// GetClaimsByStatuses retrieves claims in any of the given statuses.
func (e *Engine) GetClaimsByStatuses(ctx context.Context, statuses []models.ClaimStatus) ([]*models.Claim, error) {
	return e.store.ListByStatuses(ctx, statuses)
}

// GetClaimsByWorkflowStage retrieves claims in the given stage.
func (e *Engine) GetClaimsByWorkflowStage(ctx context.Context, stage models.WorkflowStage) ([]*models.Claim, error) {
	return e.store.ListByStage(ctx, stage)
}

// GetClaimsByEmployer retrieves claims naming the given employer.
func (e *Engine) GetClaimsByEmployer(ctx context.Context, employerID string) ([]*models.Claim, error) {
	return e.store.ListByEmployer(ctx, employerID)
}

// GetClaimsBySourceSystem retrieves claims submitted by a source
// system.
func (e *Engine) GetClaimsBySourceSystem(ctx context.Context, sourceSystem string) ([]*models.Claim, error) {
	return e.store.ListBySourceSystem(ctx, sourceSystem)
}

// GetClaimsWithErrors retrieves claims with a nonzero error count.
func (e *Engine) GetClaimsWithErrors(ctx context.Context) ([]*models.Claim, error) {
	return e.store.ListWithErrors(ctx)
}

// GetClaimsReceivedBetween retrieves claims received inside the window.
func (e *Engine) GetClaimsReceivedBetween(ctx context.Context, from, to time.Time) ([]*models.Claim, error) {
	return e.store.ListReceivedBetween(ctx, from, to)
}

// GetClaimsReadyForEmployerVerification retrieves claims awaiting
// employer data.
func (e *Engine) GetClaimsReadyForEmployerVerification(ctx context.Context) ([]*models.Claim, error) {
	return e.claimsInStatusAndStage(ctx, models.StatusAwaitingEmployer, models.StageEmployerVerification)
}

// GetClaimsReadyForTaxCalculation retrieves claims awaiting tax
// calculation.
func (e *Engine) GetClaimsReadyForTaxCalculation(ctx context.Context) ([]*models.Claim, error) {
	return e.claimsInStatusAndStage(ctx, models.StatusAwaitingTaxCalc, models.StageTaxCalculation)
}

// GetClaimsReadyForFinalReview retrieves claims in final review.
func (e *Engine) GetClaimsReadyForFinalReview(ctx context.Context) ([]*models.Claim, error) {
	claims, err := e.store.ListByStage(ctx, models.StageFinalReview)
	if err != nil {
		return nil, err
	}
	ready := make([]*models.Claim, 0, len(claims))
	for _, c := range claims {
		if !c.StatusCode.Terminal() && c.StatusCode != models.StatusError {
			ready = append(ready, c)
		}
	}
	return ready, nil
}

func (e *Engine) claimsInStatusAndStage(ctx context.Context, status models.ClaimStatus, stage models.WorkflowStage) ([]*models.Claim, error) {
	claims, err := e.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	matched := make([]*models.Claim, 0, len(claims))
	for _, c := range claims {
		if c.WorkflowStage == stage {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

// GetClaimsForProcessing retrieves recently updated claims in the
// given statuses, capped at limit.
func (e *Engine) GetClaimsForProcessing(ctx context.Context, statuses []models.ClaimStatus, since time.Time, limit int) ([]*models.Claim, error) {
	return e.store.ListForProcessing(ctx, statuses, since, limit)
}

// GetStaleClaims retrieves non-terminal claims not updated within the
// threshold.
func (e *Engine) GetStaleClaims(ctx context.Context, hoursThreshold int) ([]*models.Claim, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(hoursThreshold) * time.Hour)
	return e.store.ListStale(ctx, cutoff)
}

// Statistics summarizes claim volume by status and by source system.
type Statistics struct {
	ByStatus       map[models.ClaimStatus]int `json:"byStatus"`
	BySourceSystem map[string]int             `json:"bySourceSystem"`
	Total          int                        `json:"total"`
}

// GetStatistics computes claim counts grouped by status and source
// system.
func (e *Engine) GetStatistics(ctx context.Context) (*Statistics, error) {
	byStatus, err := e.store.CountsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	bySource, err := e.store.CountsBySourceSystem(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}

	return &Statistics{
		ByStatus:       byStatus,
		BySourceSystem: bySource,
		Total:          total,
	}, nil
}
