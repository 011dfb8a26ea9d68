package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/devpipeline/internal/deploy"
	"github.com/shaiso/devpipeline/internal/domain"
)

// orchestrator — тот срез *orchestrator.Orchestrator, который нужен
// HTTP-слою. Узкий интерфейс, чтобы тестировать обработчики без
// настоящего реестра/пула воркеров/монитора.
type orchestrator interface {
	CreateProject(ctx context.Context, name, requirements string) (domain.Project, error)
	ListProjects() []domain.Project
	SwitchProject(ctx context.Context, name string) error
	ActiveProject() (domain.Project, error)

	AssignIssues(ctx context.Context) (int, error)
	RunPipeline(ctx context.Context) (int, error)
	RunTests(ctx context.Context, timeout time.Duration) (passed bool, output string, err error)

	StartWorkers(ctx context.Context) error
	StopWorkers() error
	WorkerStatus() map[domain.AgentKind]domain.WorkerSnapshot

	StartActiveMonitor(ctx context.Context) error
	StopActiveMonitor() error
	MonitorStatus() (bool, error)

	Deploy(ctx context.Context) deploy.Result
	Redeploy(ctx context.Context) deploy.Result
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	orch   orchestrator
	logger *slog.Logger
}

// Config настраивает Handler.
type Config struct {
	Orchestrator orchestrator
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{orch: cfg.Orchestrator, logger: logger}
}
