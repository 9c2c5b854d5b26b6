package handlers

import (
	"net/http"

	"github.com/orgplan/orgplan/internal/adapters/http/dto"
	"github.com/orgplan/orgplan/internal/ports"
)

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	registry ports.HealthRegistry
}

func NewHealthHandler(registry ports.HealthRegistry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// Liveness handles GET /health/live. The process is alive if it can answer.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": dto.HealthOK})
}

// Readiness handles GET /health/ready: 200 when the store and the event
// publisher pass their checks, 503 with the failing checks otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	resp, ready := dto.ToHealthResponse(h.registry.CheckAll(r.Context()))
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
