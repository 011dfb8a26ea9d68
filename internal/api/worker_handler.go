package api

import "net/http"

// StartWorkers handles POST /api/v1/workers/start.
func (h *Handler) StartWorkers(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.StartWorkers(r.Context()); HandleOrchestratorError(w, h.logger, err) {
		return
	}
	Success(w, map[string]string{"status": "started"})
}

// StopWorkers handles POST /api/v1/workers/stop.
func (h *Handler) StopWorkers(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.StopWorkers(); HandleOrchestratorError(w, h.logger, err) {
		return
	}
	Success(w, map[string]string{"status": "stopped"})
}

// WorkerStatus handles GET /api/v1/workers.
func (h *Handler) WorkerStatus(w http.ResponseWriter, r *http.Request) {
	snapshot := h.orch.WorkerStatus()
	if snapshot == nil {
		Success(w, map[string]any{})
		return
	}
	Success(w, snapshot)
}
