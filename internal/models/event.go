package models

import "time"

// ClaimEvent types published on the claim events subject.
const (
	EventClaimReceived        = "CLAIM_RECEIVED"
	EventClaimStatusChanged   = "CLAIM_STATUS_CHANGED"
	EventClaimWorkflowAdvance = "CLAIM_WORKFLOW_ADVANCED"
)

// ClaimEvent is a value record describing a workflow transition. It is
// produced by the workflow engine and serialized onto the notification
// channel; it is never persisted.
type ClaimEvent struct {
	EventType             string    `json:"eventType"`
	ClaimReferenceID      string    `json:"claimReferenceId"`
	PreviousStatus        string    `json:"previousStatus,omitempty"`
	NewStatus             string    `json:"newStatus,omitempty"`
	PreviousWorkflowStage string    `json:"previousWorkflowStage,omitempty"`
	NewWorkflowStage      string    `json:"newWorkflowStage,omitempty"`
	UpdatedBy             string    `json:"updatedBy,omitempty"`
	SourceSystem          string    `json:"sourceSystem,omitempty"`
	Timestamp             time.Time `json:"timestamp"`
	Notes                 string    `json:"notes,omitempty"`
}

// NewClaimReceived builds a CLAIM_RECEIVED event.
func NewClaimReceived(claimReferenceID, sourceSystem string) ClaimEvent {
	return ClaimEvent{
		EventType:        EventClaimReceived,
		ClaimReferenceID: claimReferenceID,
		SourceSystem:     sourceSystem,
		Timestamp:        time.Now().UTC(),
	}
}

// NewStatusChanged builds a CLAIM_STATUS_CHANGED event.
func NewStatusChanged(claimReferenceID string, previous, current ClaimStatus, updatedBy, sourceSystem string) ClaimEvent {
	return ClaimEvent{
		EventType:        EventClaimStatusChanged,
		ClaimReferenceID: claimReferenceID,
		PreviousStatus:   string(previous),
		NewStatus:        string(current),
		UpdatedBy:        updatedBy,
		SourceSystem:     sourceSystem,
		Timestamp:        time.Now().UTC(),
	}
}

// NewWorkflowAdvanced builds a CLAIM_WORKFLOW_ADVANCED event.
func NewWorkflowAdvanced(claimReferenceID string, previous, current WorkflowStage, updatedBy, sourceSystem string) ClaimEvent {
	return ClaimEvent{
		EventType:             EventClaimWorkflowAdvance,
		ClaimReferenceID:      claimReferenceID,
		PreviousWorkflowStage: string(previous),
		NewWorkflowStage:      string(current),
		UpdatedBy:             updatedBy,
		SourceSystem:          sourceSystem,
		Timestamp:             time.Now().UTC(),
	}
}
