package api

import "net/http"

// StartMonitor handles POST /api/v1/monitor/start.
func (h *Handler) StartMonitor(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.StartActiveMonitor(r.Context()); HandleOrchestratorError(w, h.logger, err) {
		return
	}
	Success(w, map[string]string{"status": "started"})
}

// StopMonitor handles POST /api/v1/monitor/stop.
func (h *Handler) StopMonitor(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.StopActiveMonitor(); HandleOrchestratorError(w, h.logger, err) {
		return
	}
	Success(w, map[string]string{"status": "stopped"})
}

// MonitorStatus handles GET /api/v1/monitor.
func (h *Handler) MonitorStatus(w http.ResponseWriter, r *http.Request) {
	running, err := h.orch.MonitorStatus()
	if HandleOrchestratorError(w, h.logger, err) {
		return
	}
	Success(w, MonitorStatusResponse{Running: running})
}
