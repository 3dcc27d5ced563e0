package handlers

import (
	"net/http"

	"github.com/NASWA-OpenUI/Playground/internal/httputil"
)

// GetHealthStatus handles GET /api/health/status. It serves the
// snapshot cached by the liveness sweeper, falling back to a fresh
// build before the first sweep completes.
func (h *Handler) GetHealthStatus(w http.ResponseWriter, r *http.Request) {
	if snapshot := h.monitor.CachedStatus(); snapshot != nil {
		httputil.WriteJSON(w, http.StatusOK, snapshot)
		return
	}

	snapshot, err := h.monitor.GetCurrentStatus(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snapshot)
}

// GetSweeperStats handles GET /api/health/sweeper
func (h *Handler) GetSweeperStats(w http.ResponseWriter, r *http.Request) {
	if h.sweeper == nil {
		httputil.WriteError(w, http.StatusNotFound, "Sweeper not running")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.sweeper.Stats())
}
