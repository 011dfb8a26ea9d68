package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shaiso/devpipeline/internal/deploy"
	"github.com/shaiso/devpipeline/internal/domain"
	"github.com/shaiso/devpipeline/internal/orchestrator"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOrchestrator struct {
	projects       []domain.Project
	active         domain.Project
	activeErr      error
	createErr      error
	switchErr      error
	assignCount    int
	assignErr      error
	startWorkerErr error
	stopWorkerErr  error
	workerSnapshot map[domain.AgentKind]domain.WorkerSnapshot
	startMonErr    error
	stopMonErr     error
	monRunning     bool
	monErr         error
	deployResult   deploy.Result
}

func (f *fakeOrchestrator) CreateProject(ctx context.Context, name, requirements string) (domain.Project, error) {
	if f.createErr != nil {
		return domain.Project{}, f.createErr
	}
	return domain.Project{Name: name, Requirements: requirements}, nil
}

func (f *fakeOrchestrator) ListProjects() []domain.Project { return f.projects }

func (f *fakeOrchestrator) SwitchProject(ctx context.Context, name string) error {
	return f.switchErr
}

func (f *fakeOrchestrator) ActiveProject() (domain.Project, error) {
	return f.active, f.activeErr
}

func (f *fakeOrchestrator) AssignIssues(ctx context.Context) (int, error) {
	return f.assignCount, f.assignErr
}

func (f *fakeOrchestrator) RunPipeline(ctx context.Context) (int, error) {
	return f.assignCount, f.assignErr
}

func (f *fakeOrchestrator) RunTests(ctx context.Context, timeout time.Duration) (bool, string, error) {
	return true, "ok", nil
}

func (f *fakeOrchestrator) StartWorkers(ctx context.Context) error { return f.startWorkerErr }
func (f *fakeOrchestrator) StopWorkers() error                    { return f.stopWorkerErr }
func (f *fakeOrchestrator) WorkerStatus() map[domain.AgentKind]domain.WorkerSnapshot {
	return f.workerSnapshot
}

func (f *fakeOrchestrator) StartActiveMonitor(ctx context.Context) error { return f.startMonErr }
func (f *fakeOrchestrator) StopActiveMonitor() error                    { return f.stopMonErr }
func (f *fakeOrchestrator) MonitorStatus() (bool, error)                { return f.monRunning, f.monErr }

func (f *fakeOrchestrator) Deploy(ctx context.Context) deploy.Result   { return f.deployResult }
func (f *fakeOrchestrator) Redeploy(ctx context.Context) deploy.Result { return f.deployResult }

func TestHandler_CreateProject(t *testing.T) {
	h := NewHandler(Config{Orchestrator: &fakeOrchestrator{}, Logger: discardLogger()})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	body, _ := json.Marshal(CreateProjectRequest{Name: "demo", Requirements: "a todo app"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_CreateProject_MissingName(t *testing.T) {
	h := NewHandler(Config{Orchestrator: &fakeOrchestrator{}, Logger: discardLogger()})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	body, _ := json.Marshal(CreateProjectRequest{Requirements: "no name"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_StartWorkers_NoActiveProjectSurfacesError(t *testing.T) {
	fake := &fakeOrchestrator{startWorkerErr: orchestrator.ErrNoActiveProject}
	h := NewHandler(Config{Orchestrator: fake, Logger: discardLogger()})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workers/start", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestHandler_StopWorkers_NotRunningIsConflict(t *testing.T) {
	fake := &fakeOrchestrator{stopWorkerErr: orchestrator.ErrWorkersNotRunning}
	h := NewHandler(Config{Orchestrator: fake, Logger: discardLogger()})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workers/stop", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestHandler_Deploy_FailureSurfacesAsConflict(t *testing.T) {
	fake := &fakeOrchestrator{deployResult: deploy.Result{Success: false, Note: "image build failed"}}
	h := NewHandler(Config{Orchestrator: fake, Logger: discardLogger()})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/deploy", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestHandler_Healthz(t *testing.T) {
	h := NewHandler(Config{Orchestrator: &fakeOrchestrator{}, Logger: discardLogger()})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
