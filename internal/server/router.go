// Package server wires the gateway's HTTP routes.
package server

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NASWA-OpenUI/Playground/internal/handlers"
	"github.com/NASWA-OpenUI/Playground/internal/middleware"
)

// NewRouter constructs the gateway's route table wrapped in the
// request ID middleware.
func NewRouter(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()

	// Health and metrics
	mux.HandleFunc("/healthz", h.HealthCheck)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/health/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.GetHealthStatus(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/health/sweeper", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.GetSweeperStats(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Claims API routes
	mux.HandleFunc("/api/claims", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.CreateClaim(w, r)
		case http.MethodGet:
			h.ListClaims(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/claims/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/claims/")

		// Fixed sub-resources before claim reference lookups
		switch {
		case rest == "stats" && r.Method == http.MethodGet:
			h.GetClaimStatistics(w, r)
			return
		case rest == "stale" && r.Method == http.MethodGet:
			h.GetStaleClaims(w, r)
			return
		case rest == "errors" && r.Method == http.MethodGet:
			h.GetClaimsWithErrors(w, r)
			return
		case rest == "processing" && r.Method == http.MethodPost:
			h.GetClaimsForProcessing(w, r)
			return
		case rest == "ready/employer-verification" && r.Method == http.MethodGet:
			h.GetClaimsReadyForEmployerVerification(w, r)
			return
		case rest == "ready/tax-calculation" && r.Method == http.MethodGet:
			h.GetClaimsReadyForTaxCalculation(w, r)
			return
		case rest == "ready/final-review" && r.Method == http.MethodGet:
			h.GetClaimsReadyForFinalReview(w, r)
			return
		}

		if status, ok := strings.CutPrefix(rest, "status/"); ok && r.Method == http.MethodGet {
			h.GetClaimsByStatus(w, r, status)
			return
		}
		if stage, ok := strings.CutPrefix(rest, "workflow/"); ok && r.Method == http.MethodGet {
			h.GetClaimsByWorkflowStage(w, r, stage)
			return
		}
		if employer, ok := strings.CutPrefix(rest, "employer/"); ok && r.Method == http.MethodGet {
			h.GetClaimsByEmployer(w, r, employer)
			return
		}

		// Per-claim operations: /api/claims/{ref}[/action]
		ref, action, _ := strings.Cut(rest, "/")
		if ref == "" {
			http.Error(w, "Claim reference ID required", http.StatusBadRequest)
			return
		}

		switch {
		case action == "" && r.Method == http.MethodGet:
			h.GetClaim(w, r, ref)
		case action == "notes" && r.Method == http.MethodGet:
			h.GetClaimNotes(w, r, ref)
		case action == "status" && r.Method == http.MethodPut:
			h.UpdateClaimStatus(w, r, ref)
		case action == "workflow" && r.Method == http.MethodPut:
			h.UpdateWorkflowStage(w, r, ref)
		case action == "advance" && r.Method == http.MethodPost:
			h.AdvanceClaimWorkflow(w, r, ref)
		case action == "error" && r.Method == http.MethodPost:
			h.RecordClaimError(w, r, ref)
		case action == "note" && r.Method == http.MethodPost:
			h.AddProcessingNote(w, r, ref)
		default:
			http.Error(w, "Not found", http.StatusNotFound)
		}
	})

	// Service registry routes
	mux.HandleFunc("/api/services", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.ListServices(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/services/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/services/")

		switch {
		case rest == "register" && r.Method == http.MethodPost:
			h.RegisterService(w, r)
			return
		case rest == "heartbeat" && r.Method == http.MethodPost:
			h.Heartbeat(w, r, "")
			return
		}

		id, action, _ := strings.Cut(rest, "/")
		if id == "" {
			http.Error(w, "Service ID required", http.StatusBadRequest)
			return
		}

		switch {
		case action == "" && r.Method == http.MethodGet:
			h.GetService(w, r, id)
		case action == "" && r.Method == http.MethodDelete:
			h.UnregisterService(w, r, id)
		case action == "heartbeat" && r.Method == http.MethodPost:
			h.Heartbeat(w, r, id)
		default:
			http.Error(w, "Not found", http.StatusNotFound)
		}
	})

	return middleware.RequestID(mux)
}
