package api

import "net/http"

// Deploy handles POST /api/v1/deploy.
func (h *Handler) Deploy(w http.ResponseWriter, r *http.Request) {
	result := h.orch.Deploy(r.Context())
	if !result.Success {
		Conflict(w, result.Note)
		return
	}
	Success(w, result)
}

// Redeploy handles POST /api/v1/deploy/redeploy.
func (h *Handler) Redeploy(w http.ResponseWriter, r *http.Request) {
	result := h.orch.Redeploy(r.Context())
	if !result.Success {
		Conflict(w, result.Note)
		return
	}
	Success(w, result)
}
