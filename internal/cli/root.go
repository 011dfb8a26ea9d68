package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/devpipeline/internal/deploy"
	"github.com/shaiso/devpipeline/internal/domain"
)

// Orchestrator — тот срез *orchestrator.Orchestrator, который нужен
// командам CLI. Узкий интерфейс ради тестируемости без настоящего
// реестра/пула воркеров/монитора, и ради того, чтобы cmd/pipeline-cli
// мог сослаться на тип снаружи пакета.
type Orchestrator interface {
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

// OrchestratorFn lazily resolves the orchestrator instance each command
// uses, matching the teacher's clientFn-per-command wiring.
type OrchestratorFn func() Orchestrator

// OutputFn lazily resolves the Output each command writes through.
type OutputFn func() *Output

// NewRootCmd assembles the full "project / pipeline / worker / monitor
// / deploy" command tree behind a single cobra root, matching the
// teacher's per-group-command assembly in cmd/automata-cli/main.go.
func NewRootCmd(version string, orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	root := &cobra.Command{
		Use:           "pipeline",
		Short:         "Autonomous development pipeline control surface",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		NewProjectCmd(orchFn, outFn),
		NewPipelineCmd(orchFn, outFn),
		NewWorkerCmd(orchFn, outFn),
		NewMonitorCmd(orchFn, outFn),
		NewDeployCmd(orchFn, outFn),
	)

	return root
}
