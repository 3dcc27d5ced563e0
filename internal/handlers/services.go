package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/NASWA-OpenUI/Playground/internal/httputil"
)

// RegisterServiceRequest is the body of POST /api/services/register.
type RegisterServiceRequest struct {
	ServiceID      string `json:"serviceId"`
	Name           string `json:"name"`
	Technology     string `json:"technology"`
	Protocol       string `json:"protocol"`
	Endpoint       string `json:"endpoint"`
	HealthEndpoint string `json:"healthEndpoint"`
}

// HeartbeatRequest is the body of POST /api/services/heartbeat.
type HeartbeatRequest struct {
	ServiceID string `json:"serviceId"`
	Status    string `json:"status"`
}

// RegisterService handles POST /api/services/register
func (h *Handler) RegisterService(w http.ResponseWriter, r *http.Request) {
	var req RegisterServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ServiceID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "serviceId is required")
		return
	}
	if req.Name == "" {
		httputil.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	reg, err := h.registry.RegisterService(r.Context(),
		req.ServiceID, req.Name, req.Technology, req.Protocol, req.Endpoint, req.HealthEndpoint)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reg)
}

// Heartbeat handles POST /api/services/heartbeat and
// POST /api/services/{id}/heartbeat. serviceID from the path wins over
// the body.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request, serviceID string) {
	// Body is optional on the path variant
	var req HeartbeatRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if serviceID == "" {
		serviceID = req.ServiceID
	}
	if serviceID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "serviceId is required")
		return
	}

	reg, err := h.registry.UpdateHeartbeat(r.Context(), serviceID, req.Status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reg)
}

// ListServices handles GET /api/services with an optional status
// filter.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	var err error
	if status := r.URL.Query().Get("status"); status != "" {
		services, e := h.registry.ListServicesByStatus(r.Context(), status)
		if e == nil {
			httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
				"services": services,
				"count":    len(services),
			})
			return
		}
		err = e
	} else {
		services, e := h.registry.ListServices(r.Context())
		if e == nil {
			httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
				"services": services,
				"count":    len(services),
			})
			return
		}
		err = e
	}
	h.writeServiceError(w, r, err)
}

// GetService handles GET /api/services/{id}
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request, serviceID string) {
	reg, err := h.registry.GetService(r.Context(), serviceID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

// UnregisterService handles DELETE /api/services/{id}
func (h *Handler) UnregisterService(w http.ResponseWriter, r *http.Request, serviceID string) {
	if err := h.registry.Unregister(r.Context(), serviceID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"serviceId": serviceID,
		"status":    "unregistered",
	})
}
