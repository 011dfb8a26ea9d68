package api

import (
	"net/http"
	"time"
)

const defaultTestRunTimeout = 10 * time.Minute

// AssignIssues handles POST /api/v1/issues/assign.
func (h *Handler) AssignIssues(w http.ResponseWriter, r *http.Request) {
	enqueued, err := h.orch.AssignIssues(r.Context())
	if HandleOrchestratorError(w, h.logger, err) {
		return
	}
	Success(w, AssignIssuesResponse{Enqueued: enqueued})
}

// RunPipeline handles POST /api/v1/pipeline/run.
func (h *Handler) RunPipeline(w http.ResponseWriter, r *http.Request) {
	enqueued, err := h.orch.RunPipeline(r.Context())
	if HandleOrchestratorError(w, h.logger, err) {
		return
	}
	Success(w, AssignIssuesResponse{Enqueued: enqueued})
}

// RunTests handles POST /api/v1/pipeline/test.
func (h *Handler) RunTests(w http.ResponseWriter, r *http.Request) {
	passed, output, err := h.orch.RunTests(r.Context(), defaultTestRunTimeout)
	if HandleOrchestratorError(w, h.logger, err) {
		return
	}
	Success(w, TestRunResponse{Passed: passed, Output: output})
}
