package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NASWA-OpenUI/Playground/internal/models"
	"github.com/NASWA-OpenUI/Playground/internal/repository"
)

type recordedEvent struct {
	kind      string
	ref       string
	prev      string
	current   string
	updatedBy string
}

// recordingPublisher captures emitted events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishClaimReceived(ref, source string) {
	p.record(recordedEvent{kind: "received", ref: ref})
}

func (p *recordingPublisher) PublishStatusChanged(ref string, prev, current models.ClaimStatus, updatedBy, source string) {
	p.record(recordedEvent{kind: "status", ref: ref, prev: string(prev), current: string(current), updatedBy: updatedBy})
}

func (p *recordingPublisher) PublishWorkflowAdvanced(ref string, prev, current models.WorkflowStage, updatedBy, source string) {
	p.record(recordedEvent{kind: "workflow", ref: ref, prev: string(prev), current: string(current), updatedBy: updatedBy})
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) record(ev recordedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) byKind(kind string) []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []recordedEvent
	for _, ev := range p.events {
		if ev.kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func newTestEngine() (*Engine, *repository.InMemoryClaimStore, *recordingPublisher) {
	store := repository.NewInMemoryClaimStore()
	pub := &recordingPublisher{}
	return NewEngine(store, pub), store, pub
}

func newClaim(ref string) *models.Claim {
	return &models.Claim{
		ClaimReferenceID: ref,
		SourceSystem:     "claimant-portal",
	}
}

func TestCreateClaimDefaults(t *testing.T) {
	engine, _, pub := newTestEngine()
	ctx := context.Background()

	created, err := engine.CreateClaim(ctx, newClaim("CLM-100"))
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.StatusReceived, created.StatusCode)
	assert.Equal(t, "Received", created.StatusDisplayName)
	assert.Equal(t, models.StageInitial, created.WorkflowStage)
	assert.False(t, created.ReceivedTimestamp.IsZero())
	assert.Contains(t, created.ProcessingNotes, "Claim received from claimant-portal")

	received := pub.byKind("received")
	require.Len(t, received, 1)
	assert.Equal(t, "CLM-100", received[0].ref)
}

func TestCreateClaimKeepsCallerStatus(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()

	claim := newClaim("CLM-101")
	claim.StatusCode = models.StatusAwaitingEmployer
	claim.WorkflowStage = models.StageEmployerVerification

	created, err := engine.CreateClaim(ctx, claim)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingEmployer, created.StatusCode)
	assert.Equal(t, models.StageEmployerVerification, created.WorkflowStage)
}

func TestCreateClaimValidation(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()

	tests := []struct {
		name  string
		claim *models.Claim
	}{
		{"missing reference id", &models.Claim{SourceSystem: "claimant-portal"}},
		{"missing source system", &models.Claim{ClaimReferenceID: "CLM-102"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.CreateClaim(ctx, tt.claim)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateClaimDuplicate(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.CreateClaim(ctx, newClaim("CLM-103"))
	require.NoError(t, err)

	_, err = engine.CreateClaim(ctx, newClaim("CLM-103"))
	assert.ErrorIs(t, err, repository.ErrClaimExists)
}

func TestUpdateClaimStatus(t *testing.T) {
	engine, _, pub := newTestEngine()
	ctx := context.Background()

	_, err := engine.CreateClaim(ctx, newClaim("CLM-110"))
	require.NoError(t, err)

	updated, err := engine.UpdateClaimStatus(ctx, "CLM-110", models.StatusApproved, "Approved", "adjudicator", "benefit year established")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.StatusCode)
	assert.Equal(t, "adjudicator", updated.UpdatedBy)
	assert.Contains(t, updated.ProcessingNotes, "Status changed from RECEIVED to APPROVED: benefit year established")

	statusEvents := pub.byKind("status")
	require.Len(t, statusEvents, 1)
	assert.Equal(t, "RECEIVED", statusEvents[0].prev)
	assert.Equal(t, "APPROVED", statusEvents[0].current)
}

func TestUpdateClaimStatusUnknownStatus(t *testing.T) {
	engine, _, _ := newTestEngine()

	_, err := engine.UpdateClaimStatus(context.Background(), "CLM-111", models.ClaimStatus("BOGUS"), "", "api", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateWorkflowStagePublishesEvent(t *testing.T) {
	engine, _, pub := newTestEngine()
	ctx := context.Background()

	_, err := engine.CreateClaim(ctx, newClaim("CLM-112"))
	require.NoError(t, err)

	updated, err := engine.UpdateWorkflowStage(ctx, "CLM-112", models.StageEmployerVerification, "employer-svc", "")
	require.NoError(t, err)
	assert.Equal(t, models.StageEmployerVerification, updated.WorkflowStage)
	assert.Contains(t, updated.ProcessingNotes, "Workflow stage changed from INITIAL to EMPLOYER_VERIFICATION")

	workflowEvents := pub.byKind("workflow")
	require.Len(t, workflowEvents, 1)
	assert.Equal(t, "INITIAL", workflowEvents[0].prev)
	assert.Equal(t, "EMPLOYER_VERIFICATION", workflowEvents[0].current)
}

func TestAdvanceClaimWorkflowFullProgression(t *testing.T) {
	engine, _, pub := newTestEngine()
	ctx := context.Background()

	_, err := engine.CreateClaim(ctx, newClaim("CLM-120"))
	require.NoError(t, err)

	steps := []struct {
		status models.ClaimStatus
		stage  models.WorkflowStage
		note   string
	}{
		{models.StatusAwaitingEmployer, models.StageEmployerVerification, "Workflow advanced: Ready for employer verification"},
		{models.StatusAwaitingTaxCalc, models.StageTaxCalculation, "Workflow advanced: Ready for tax calculation"},
		{models.StatusAwaitingTaxCalc, models.StageFinalReview, "Workflow advanced: Ready for final review"},
	}

	for _, step := range steps {
		updated, err := engine.AdvanceClaimWorkflow(ctx, "CLM-120", "processor")
		require.NoError(t, err)
		assert.Equal(t, step.status, updated.StatusCode)
		assert.Equal(t, step.stage, updated.WorkflowStage)
		assert.Contains(t, updated.ProcessingNotes, step.note)
	}

	// Final review has no next step.
	_, err = engine.AdvanceClaimWorkflow(ctx, "CLM-120", "processor")
	assert.ErrorIs(t, err, ErrIllegalTransition)

	// Two status changes (the third advance is stage-only), three stage
	// advances.
	assert.Len(t, pub.byKind("status"), 2)
	assert.Len(t, pub.byKind("workflow"), 3)
}

func TestAdvanceClaimWorkflowIllegalTransitionLeavesClaimUntouched(t *testing.T) {
	engine, store, _ := newTestEngine()
	ctx := context.Background()

	claim := newClaim("CLM-121")
	claim.StatusCode = models.StatusDenied
	claim.WorkflowStage = models.StageCompleted
	_, err := engine.CreateClaim(ctx, claim)
	require.NoError(t, err)

	_, err = engine.AdvanceClaimWorkflow(ctx, "CLM-121", "processor")
	require.ErrorIs(t, err, ErrIllegalTransition)
	assert.Contains(t, err.Error(), "DENIED/COMPLETED")

	got, err := store.GetByReferenceID(ctx, "CLM-121")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDenied, got.StatusCode)
	assert.Equal(t, models.StageCompleted, got.WorkflowStage)
	assert.NotContains(t, got.ProcessingNotes, "Workflow advanced")
}

func TestRecordClaimErrorEscalation(t *testing.T) {
	engine, _, pub := newTestEngine()
	ctx := context.Background()

	_, err := engine.CreateClaim(ctx, newClaim("CLM-130"))
	require.NoError(t, err)

	for i := 1; i <= 2; i++ {
		updated, err := engine.RecordClaimError(ctx, "CLM-130", fmt.Sprintf("employer lookup timeout %d", i), "employer-svc")
		require.NoError(t, err)
		assert.Equal(t, i, updated.ErrorCount)
		assert.Equal(t, models.StatusReceived, updated.StatusCode)
	}
	assert.Empty(t, pub.byKind("status"))

	// Third error escalates to ERROR.
	updated, err := engine.RecordClaimError(ctx, "CLM-130", "employer lookup timeout 3", "employer-svc")
	require.NoError(t, err)
	assert.Equal(t, 3, updated.ErrorCount)
	assert.Equal(t, models.StatusError, updated.StatusCode)
	assert.Equal(t, "Error - Requires Manual Review", updated.StatusDisplayName)
	assert.Contains(t, updated.ProcessingNotes, "Claim marked as error due to multiple processing failures")

	statusEvents := pub.byKind("status")
	require.Len(t, statusEvents, 1)
	assert.Equal(t, "ERROR", statusEvents[0].current)

	// Further errors do not escalate again.
	updated, err = engine.RecordClaimError(ctx, "CLM-130", "employer lookup timeout 4", "employer-svc")
	require.NoError(t, err)
	assert.Equal(t, 4, updated.ErrorCount)
	assert.Len(t, pub.byKind("status"), 1)
	assert.Equal(t, 1, strings.Count(updated.ProcessingNotes, "Claim marked as error due to multiple processing failures"))
}

func TestAddProcessingNote(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.CreateClaim(ctx, newClaim("CLM-140"))
	require.NoError(t, err)

	updated, err := engine.AddProcessingNote(ctx, "CLM-140", "Claimant called to confirm address", "call-center")
	require.NoError(t, err)
	assert.Contains(t, updated.ProcessingNotes, "Claimant called to confirm address")
	assert.Equal(t, "call-center", updated.UpdatedBy)

	_, err = engine.AddProcessingNote(ctx, "CLM-140", "", "call-center")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReadyQueries(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()

	refs := []string{"CLM-150", "CLM-151", "CLM-152"}
	for _, ref := range refs {
		_, err := engine.CreateClaim(ctx, newClaim(ref))
		require.NoError(t, err)
	}

	// CLM-150 stays at intake, CLM-151 reaches employer verification,
	// CLM-152 reaches final review.
	_, err := engine.AdvanceClaimWorkflow(ctx, "CLM-151", "processor")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := engine.AdvanceClaimWorkflow(ctx, "CLM-152", "processor")
		require.NoError(t, err)
	}

	employer, err := engine.GetClaimsReadyForEmployerVerification(ctx)
	require.NoError(t, err)
	require.Len(t, employer, 1)
	assert.Equal(t, "CLM-151", employer[0].ClaimReferenceID)

	tax, err := engine.GetClaimsReadyForTaxCalculation(ctx)
	require.NoError(t, err)
	assert.Empty(t, tax)

	final, err := engine.GetClaimsReadyForFinalReview(ctx)
	require.NoError(t, err)
	require.Len(t, final, 1)
	assert.Equal(t, "CLM-152", final[0].ClaimReferenceID)
}

func TestGetClaimsReadyForFinalReviewSkipsErrored(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()

	claim := newClaim("CLM-153")
	claim.StatusCode = models.StatusError
	claim.WorkflowStage = models.StageFinalReview
	_, err := engine.CreateClaim(ctx, claim)
	require.NoError(t, err)

	final, err := engine.GetClaimsReadyForFinalReview(ctx)
	require.NoError(t, err)
	assert.Empty(t, final)
}

func TestGetStatistics(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := engine.CreateClaim(ctx, newClaim(fmt.Sprintf("CLM-16%d", i)))
		require.NoError(t, err)
	}
	_, err := engine.AdvanceClaimWorkflow(ctx, "CLM-160", "processor")
	require.NoError(t, err)

	stats, err := engine.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[models.StatusReceived])
	assert.Equal(t, 1, stats.ByStatus[models.StatusAwaitingEmployer])
	assert.Equal(t, 3, stats.BySourceSystem["claimant-portal"])
}

func TestGetStaleClaims(t *testing.T) {
	engine, store, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.CreateClaim(ctx, newClaim("CLM-170"))
	require.NoError(t, err)
	_, err = store.Mutate(ctx, "CLM-170", func(c *models.Claim) error {
		c.LastUpdated = time.Now().UTC().Add(-72 * time.Hour)
		return nil
	})
	require.NoError(t, err)

	_, err = engine.CreateClaim(ctx, newClaim("CLM-171"))
	require.NoError(t, err)

	stale, err := engine.GetStaleClaims(ctx, 48)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "CLM-170", stale[0].ClaimReferenceID)
}
