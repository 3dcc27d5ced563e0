package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/NASWA-OpenUI/Playground/internal/httputil"
	"github.com/NASWA-OpenUI/Playground/internal/models"
)

// UpdateStatusRequest is the body of PUT /api/claims/{ref}/status.
type UpdateStatusRequest struct {
	StatusCode        string `json:"statusCode"`
	StatusDisplayName string `json:"statusDisplayName"`
	UpdatedBy         string `json:"updatedBy"`
	Notes             string `json:"notes"`
}

// UpdateWorkflowRequest is the body of PUT /api/claims/{ref}/workflow.
type UpdateWorkflowRequest struct {
	WorkflowStage string `json:"workflowStage"`
	UpdatedBy     string `json:"updatedBy"`
	Notes         string `json:"notes"`
}

// AdvanceRequest is the optional body of POST /api/claims/{ref}/advance.
type AdvanceRequest struct {
	UpdatedBy string `json:"updatedBy"`
}

// RecordErrorRequest is the body of POST /api/claims/{ref}/error.
type RecordErrorRequest struct {
	ErrorMessage string `json:"errorMessage"`
	UpdatedBy    string `json:"updatedBy"`
}

// AddNoteRequest is the body of POST /api/claims/{ref}/note.
type AddNoteRequest struct {
	Note      string `json:"note"`
	UpdatedBy string `json:"updatedBy"`
}

// ProcessingRequest is the body of POST /api/claims/processing.
type ProcessingRequest struct {
	StatusCodes []string `json:"statusCodes"`
	HoursBack   int      `json:"hoursBack"`
	Limit       int      `json:"limit"`
}

// CreateClaim handles POST /api/claims
func (h *Handler) CreateClaim(w http.ResponseWriter, r *http.Request) {
	var claim models.Claim
	if err := json.NewDecoder(r.Body).Decode(&claim); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.engine.CreateClaim(r.Context(), &claim)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, created)
}

// ListClaims handles GET /api/claims with optional status, stage,
// employer and source filters.
func (h *Handler) ListClaims(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	switch {
	case q.Get("status") != "":
		claims, err := h.engine.GetClaimsByStatus(ctx, models.ClaimStatus(q.Get("status")))
		h.writeClaimList(w, r, claims, err)
	case q.Get("stage") != "":
		claims, err := h.engine.GetClaimsByWorkflowStage(ctx, models.WorkflowStage(q.Get("stage")))
		h.writeClaimList(w, r, claims, err)
	case q.Get("employer") != "":
		claims, err := h.engine.GetClaimsByEmployer(ctx, q.Get("employer"))
		h.writeClaimList(w, r, claims, err)
	case q.Get("source") != "":
		claims, err := h.engine.GetClaimsBySourceSystem(ctx, q.Get("source"))
		h.writeClaimList(w, r, claims, err)
	default:
		claims, err := h.engine.GetAllClaims(ctx)
		h.writeClaimList(w, r, claims, err)
	}
}

func (h *Handler) writeClaimList(w http.ResponseWriter, r *http.Request, claims []*models.Claim, err error) {
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"claims": claims,
		"count":  len(claims),
	})
}

// GetClaim handles GET /api/claims/{ref}
func (h *Handler) GetClaim(w http.ResponseWriter, r *http.Request, ref string) {
	claim, err := h.engine.GetClaimByReferenceID(r.Context(), ref)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim)
}

// GetClaimNotes handles GET /api/claims/{ref}/notes
func (h *Handler) GetClaimNotes(w http.ResponseWriter, r *http.Request, ref string) {
	claim, err := h.engine.GetClaimByReferenceID(r.Context(), ref)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	notes := []string{}
	if claim.ProcessingNotes != "" {
		notes = strings.Split(claim.ProcessingNotes, "\n")
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"claimReferenceId": claim.ClaimReferenceID,
		"notes":            notes,
	})
}

// UpdateClaimStatus handles PUT /api/claims/{ref}/status
func (h *Handler) UpdateClaimStatus(w http.ResponseWriter, r *http.Request, ref string) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.StatusCode == "" {
		httputil.WriteError(w, http.StatusBadRequest, "statusCode is required")
		return
	}
	if req.UpdatedBy == "" {
		req.UpdatedBy = "api"
	}

	claim, err := h.engine.UpdateClaimStatus(r.Context(), ref,
		models.ClaimStatus(req.StatusCode), req.StatusDisplayName, req.UpdatedBy, req.Notes)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, claim)
}

// UpdateWorkflowStage handles PUT /api/claims/{ref}/workflow
func (h *Handler) UpdateWorkflowStage(w http.ResponseWriter, r *http.Request, ref string) {
	var req UpdateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.WorkflowStage == "" {
		httputil.WriteError(w, http.StatusBadRequest, "workflowStage is required")
		return
	}
	if req.UpdatedBy == "" {
		req.UpdatedBy = "api"
	}

	claim, err := h.engine.UpdateWorkflowStage(r.Context(), ref,
		models.WorkflowStage(req.WorkflowStage), req.UpdatedBy, req.Notes)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, claim)
}

// AdvanceClaimWorkflow handles POST /api/claims/{ref}/advance
func (h *Handler) AdvanceClaimWorkflow(w http.ResponseWriter, r *http.Request, ref string) {
	// Body is optional
	var req AdvanceRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.UpdatedBy == "" {
		req.UpdatedBy = "api"
	}

	claim, err := h.engine.AdvanceClaimWorkflow(r.Context(), ref, req.UpdatedBy)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, claim)
}

// RecordClaimError handles POST /api/claims/{ref}/error
func (h *Handler) RecordClaimError(w http.ResponseWriter, r *http.Request, ref string) {
	var req RecordErrorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ErrorMessage == "" {
		httputil.WriteError(w, http.StatusBadRequest, "errorMessage is required")
		return
	}
	if req.UpdatedBy == "" {
		req.UpdatedBy = "api"
	}

	claim, err := h.engine.RecordClaimError(r.Context(), ref, req.ErrorMessage, req.UpdatedBy)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, claim)
}

// AddProcessingNote handles POST /api/claims/{ref}/note
func (h *Handler) AddProcessingNote(w http.ResponseWriter, r *http.Request, ref string) {
	var req AddNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Note == "" {
		httputil.WriteError(w, http.StatusBadRequest, "note is required")
		return
	}
	if req.UpdatedBy == "" {
		req.UpdatedBy = "api"
	}

	claim, err := h.engine.AddProcessingNote(r.Context(), ref, req.Note, req.UpdatedBy)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, claim)
}

// GetClaimsByStatus handles GET /api/claims/status/{statusCode}
func (h *Handler) GetClaimsByStatus(w http.ResponseWriter, r *http.Request, status string) {
	claims, err := h.engine.GetClaimsByStatus(r.Context(), models.ClaimStatus(status))
	h.writeClaimList(w, r, claims, err)
}

// GetClaimsByWorkflowStage handles GET /api/claims/workflow/{stage}
func (h *Handler) GetClaimsByWorkflowStage(w http.ResponseWriter, r *http.Request, stage string) {
	claims, err := h.engine.GetClaimsByWorkflowStage(r.Context(), models.WorkflowStage(stage))
	h.writeClaimList(w, r, claims, err)
}

// GetClaimsByEmployer handles GET /api/claims/employer/{employerId}
func (h *Handler) GetClaimsByEmployer(w http.ResponseWriter, r *http.Request, employerID string) {
	claims, err := h.engine.GetClaimsByEmployer(r.Context(), employerID)
	h.writeClaimList(w, r, claims, err)
}

// GetClaimsReadyForEmployerVerification handles
// GET /api/claims/ready/employer-verification
func (h *Handler) GetClaimsReadyForEmployerVerification(w http.ResponseWriter, r *http.Request) {
	claims, err := h.engine.GetClaimsReadyForEmployerVerification(r.Context())
	h.writeClaimList(w, r, claims, err)
}

// GetClaimsReadyForTaxCalculation handles
// GET /api/claims/ready/tax-calculation
func (h *Handler) GetClaimsReadyForTaxCalculation(w http.ResponseWriter, r *http.Request) {
	claims, err := h.engine.GetClaimsReadyForTaxCalculation(r.Context())
	h.writeClaimList(w, r, claims, err)
}

// GetClaimsReadyForFinalReview handles GET /api/claims/ready/final-review
func (h *Handler) GetClaimsReadyForFinalReview(w http.ResponseWriter, r *http.Request) {
	claims, err := h.engine.GetClaimsReadyForFinalReview(r.Context())
	h.writeClaimList(w, r, claims, err)
}

// GetClaimsWithErrors handles GET /api/claims/errors
func (h *Handler) GetClaimsWithErrors(w http.ResponseWriter, r *http.Request) {
	claims, err := h.engine.GetClaimsWithErrors(r.Context())
	h.writeClaimList(w, r, claims, err)
}

// GetClaimStatistics handles GET /api/claims/stats
func (h *Handler) GetClaimStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.GetStatistics(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"statusCounts": stats.ByStatus,
		"sourceCounts": stats.BySourceSystem,
		"total":        stats.Total,
		"timestamp":    time.Now().UTC(),
	})
}

// GetClaimsForProcessing handles POST /api/claims/processing
func (h *Handler) GetClaimsForProcessing(w http.ResponseWriter, r *http.Request) {
	var req ProcessingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.StatusCodes) == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "statusCodes is required")
		return
	}
	if req.HoursBack <= 0 {
		req.HoursBack = 24
	}

	statuses := make([]models.ClaimStatus, len(req.StatusCodes))
	for i, s := range req.StatusCodes {
		statuses[i] = models.ClaimStatus(s)
	}
	since := time.Now().UTC().Add(-time.Duration(req.HoursBack) * time.Hour)

	claims, err := h.engine.GetClaimsForProcessing(r.Context(), statuses, since, req.Limit)
	h.writeClaimList(w, r, claims, err)
}

// GetStaleClaims handles GET /api/claims/stale?hoursThreshold=N
func (h *Handler) GetStaleClaims(w http.ResponseWriter, r *http.Request) {
	hours := httputil.ParseIntParam(r.URL.Query().Get("hoursThreshold"), 48)
	claims, err := h.engine.GetStaleClaims(r.Context(), hours)
	h.writeClaimList(w, r, claims, err)
}
