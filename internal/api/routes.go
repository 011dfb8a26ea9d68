package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes регистрирует все маршруты control surface (§6), плюс
// стандартные /healthz и /metrics.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("GET /api/v1/projects", chain(http.HandlerFunc(h.ListProjects)))
	mux.Handle("POST /api/v1/projects", chain(http.HandlerFunc(h.CreateProject)))
	mux.Handle("GET /api/v1/projects/active", chain(http.HandlerFunc(h.ActiveProject)))
	mux.Handle("POST /api/v1/projects/active", chain(http.HandlerFunc(h.SwitchProject)))

	mux.Handle("POST /api/v1/issues/assign", chain(http.HandlerFunc(h.AssignIssues)))
	mux.Handle("POST /api/v1/pipeline/run", chain(http.HandlerFunc(h.RunPipeline)))
	mux.Handle("POST /api/v1/pipeline/test", chain(http.HandlerFunc(h.RunTests)))

	mux.Handle("GET /api/v1/workers", chain(http.HandlerFunc(h.WorkerStatus)))
	mux.Handle("POST /api/v1/workers/start", chain(http.HandlerFunc(h.StartWorkers)))
	mux.Handle("POST /api/v1/workers/stop", chain(http.HandlerFunc(h.StopWorkers)))

	mux.Handle("GET /api/v1/monitor", chain(http.HandlerFunc(h.MonitorStatus)))
	mux.Handle("POST /api/v1/monitor/start", chain(http.HandlerFunc(h.StartMonitor)))
	mux.Handle("POST /api/v1/monitor/stop", chain(http.HandlerFunc(h.StopMonitor)))

	mux.Handle("POST /api/v1/deploy", chain(http.HandlerFunc(h.Deploy)))
	mux.Handle("POST /api/v1/deploy/redeploy", chain(http.HandlerFunc(h.Redeploy)))
}
