package api

import (
	"encoding/json"
	"net/http"
)

// CreateProject handles POST /api/v1/projects.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	project, err := h.orch.CreateProject(r.Context(), req.Name, req.Requirements)
	if HandleOrchestratorError(w, h.logger, err) {
		return
	}
	Created(w, project)
}

// ListProjects handles GET /api/v1/projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	Success(w, h.orch.ListProjects())
}

// ActiveProject handles GET /api/v1/projects/active.
func (h *Handler) ActiveProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.orch.ActiveProject()
	if HandleOrchestratorError(w, h.logger, err) {
		return
	}
	Success(w, project)
}

// SwitchProject handles POST /api/v1/projects/active.
func (h *Handler) SwitchProject(w http.ResponseWriter, r *http.Request) {
	var req SwitchProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	if err := h.orch.SwitchProject(r.Context(), req.Name); HandleOrchestratorError(w, h.logger, err) {
		return
	}
	Success(w, map[string]string{"active": req.Name})
}
