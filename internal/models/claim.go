package models

import (
	"time"
)

// ClaimStatus is the processing outcome/state of a claim. Downstream
// services may set any status directly; only AdvanceWorkflow validates
// transitions.
type ClaimStatus string

const (
	StatusReceived         ClaimStatus = "RECEIVED"
	StatusAwaitingEmployer ClaimStatus = "AWAITING_EMPLOYER"
	StatusAwaitingTaxCalc  ClaimStatus = "AWAITING_TAX_CALC"
	StatusAwaitingPayment  ClaimStatus = "AWAITING_PAYMENT"
	StatusApproved         ClaimStatus = "APPROVED"
	StatusDenied           ClaimStatus = "DENIED"
	StatusError            ClaimStatus = "ERROR"
)

// Valid reports whether s is a known claim status.
func (s ClaimStatus) Valid() bool {
	switch s {
	case StatusReceived, StatusAwaitingEmployer, StatusAwaitingTaxCalc,
		StatusAwaitingPayment, StatusApproved, StatusDenied, StatusError:
		return true
	}
	return false
}

// Terminal reports whether the claim has reached a final decision.
func (s ClaimStatus) Terminal() bool {
	return s == StatusApproved || s == StatusDenied
}

// WorkflowStage is one of the five ordered phases a claim progresses
// through. Distinct from, but updated alongside, status.
type WorkflowStage string

const (
	StageInitial              WorkflowStage = "INITIAL"
	StageEmployerVerification WorkflowStage = "EMPLOYER_VERIFICATION"
	StageTaxCalculation       WorkflowStage = "TAX_CALCULATION"
	StageFinalReview          WorkflowStage = "FINAL_REVIEW"
	StageCompleted            WorkflowStage = "COMPLETED"
)

// Valid reports whether s is a known workflow stage.
func (s WorkflowStage) Valid() bool {
	switch s {
	case StageInitial, StageEmployerVerification, StageTaxCalculation,
		StageFinalReview, StageCompleted:
		return true
	}
	return false
}

// Claim is an unemployment claim as tracked by the gateway. The
// claimant/employment/wage/tax fields are an opaque payload from the
// workflow engine's perspective: they are persisted and returned but
// never mutated by workflow logic.
type Claim struct {
	ID               string `json:"id"`
	ClaimReferenceID string `json:"claimReferenceId"`
	SourceSystem     string `json:"sourceSystem"`

	// Claimant information (standardized intake format)
	ClaimantID   string     `json:"claimantId,omitempty"`
	FirstName    string     `json:"firstName,omitempty"`
	LastName     string     `json:"lastName,omitempty"`
	SSN          string     `json:"ssn,omitempty"`
	BirthDate    *time.Time `json:"birthDate,omitempty"`
	EmailAddress string     `json:"emailAddress,omitempty"`
	PhoneNumber  string     `json:"phoneNumber,omitempty"`

	// Address
	StreetAddress string `json:"streetAddress,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	PostalCode    string `json:"postalCode,omitempty"`

	// Employment
	EmployerName          string     `json:"employerName,omitempty"`
	EmployerID            string     `json:"employerId,omitempty"`
	EmploymentStartDate   *time.Time `json:"employmentStartDate,omitempty"`
	EmploymentEndDate     *time.Time `json:"employmentEndDate,omitempty"`
	SeparationReasonCode  string     `json:"separationReasonCode,omitempty"`
	SeparationExplanation string     `json:"separationExplanation,omitempty"`

	// Wage and benefit amounts
	BasePeriodQ4         float64 `json:"basePeriodQ4,omitempty"`
	TotalAnnualEarnings  float64 `json:"totalAnnualEarnings,omitempty"`
	WeeklyBenefitAmount  float64 `json:"weeklyBenefitAmount,omitempty"`
	MaximumBenefitAmount float64 `json:"maximumBenefitAmount,omitempty"`

	// Tax amounts (reported back by the tax service)
	StateTaxAmount     float64    `json:"stateTaxAmount,omitempty"`
	FederalTaxAmount   float64    `json:"federalTaxAmount,omitempty"`
	TotalTaxAmount     float64    `json:"totalTaxAmount,omitempty"`
	TaxCalculationDate *time.Time `json:"taxCalculationDate,omitempty"`

	// Status and workflow
	StatusCode        ClaimStatus   `json:"statusCode"`
	StatusDisplayName string        `json:"statusDisplayName,omitempty"`
	WorkflowStage     WorkflowStage `json:"workflowStage"`

	// System bookkeeping
	ReceivedTimestamp   time.Time  `json:"receivedTimestamp"`
	SubmissionTimestamp *time.Time `json:"submissionTimestamp,omitempty"`
	LastUpdated         time.Time  `json:"lastUpdated"`
	CreatedBy           string     `json:"createdBy,omitempty"`
	UpdatedBy           string     `json:"updatedBy,omitempty"`

	// Processing metadata
	ProcessingNotes  string `json:"processingNotes,omitempty"`
	ErrorCount       int    `json:"errorCount"`
	LastErrorMessage string `json:"lastErrorMessage,omitempty"`
}

// UpdateStatus sets the status, its display name and the actor, and
// refreshes LastUpdated.
func (c *Claim) UpdateStatus(status ClaimStatus, displayName, updatedBy string) {
	c.StatusCode = status
	c.StatusDisplayName = displayName
	c.UpdatedBy = updatedBy
	c.LastUpdated = time.Now().UTC()
}

// UpdateWorkflowStage sets the workflow stage and the actor, and
// refreshes LastUpdated.
func (c *Claim) UpdateWorkflowStage(stage WorkflowStage, updatedBy string) {
	c.WorkflowStage = stage
	c.UpdatedBy = updatedBy
	c.LastUpdated = time.Now().UTC()
}

// AddProcessingNote appends a note to the audit trail. The first note
// is stored bare; subsequent entries are newline-delimited and
// prefixed with a timestamp.
func (c *Claim) AddProcessingNote(note string) {
	if c.ProcessingNotes == "" {
		c.ProcessingNotes = note
	} else {
		c.ProcessingNotes += "\n" + time.Now().UTC().Format(time.RFC3339) + ": " + note
	}
	c.LastUpdated = time.Now().UTC()
}

// RecordError increments the error counter and stores the message.
func (c *Claim) RecordError(message string) {
	c.ErrorCount++
	c.LastErrorMessage = message
	c.LastUpdated = time.Now().UTC()
}

// IsInStatus reports whether the claim is in any of the given statuses.
func (c *Claim) IsInStatus(statuses ...ClaimStatus) bool {
	for _, s := range statuses {
		if c.StatusCode == s {
			return true
		}
	}
	return false
}
