// Package handlers implements the gateway's HTTP API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/NASWA-OpenUI/Playground/internal/health"
	"github.com/NASWA-OpenUI/Playground/internal/httputil"
	"github.com/NASWA-OpenUI/Playground/internal/logging"
	"github.com/NASWA-OpenUI/Playground/internal/registry"
	"github.com/NASWA-OpenUI/Playground/internal/repository"
	"github.com/NASWA-OpenUI/Playground/internal/scheduler"
	"github.com/NASWA-OpenUI/Playground/internal/workflow"
)

// Handler bundles the gateway services behind the HTTP API.
type Handler struct {
	engine   *workflow.Engine
	registry *registry.Registry
	monitor  *health.Monitor
	sweeper  *scheduler.Sweeper
	logger   *logging.Logger
}

// NewHandler creates a handler over the gateway services. sweeper may
// be nil when the liveness sweep is not running (tests).
func NewHandler(engine *workflow.Engine, reg *registry.Registry, monitor *health.Monitor, sweeper *scheduler.Sweeper) *Handler {
	return &Handler{
		engine:   engine,
		registry: reg,
		monitor:  monitor,
		sweeper:  sweeper,
		logger:   logging.Default(),
	}
}

// HealthCheck handles GET /healthz
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// writeServiceError maps service errors onto HTTP status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrClaimNotFound):
		httputil.WriteError(w, http.StatusNotFound, "Claim not found")
	case errors.Is(err, repository.ErrServiceNotFound):
		httputil.WriteError(w, http.StatusNotFound, "Service not found")
	case errors.Is(err, repository.ErrClaimExists):
		httputil.WriteError(w, http.StatusConflict, "Claim already exists")
	case errors.Is(err, workflow.ErrIllegalTransition):
		httputil.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, workflow.ErrValidation):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "Request failed",
			"path", r.URL.Path, "error", err.Error())
		httputil.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
