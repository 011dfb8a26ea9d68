package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/devpipeline/internal/deploy"
	"github.com/shaiso/devpipeline/internal/domain"
)

type fakeOrchestrator struct {
	projects     []domain.Project
	active       domain.Project
	activeErr    error
	assignCount  int
	assignErr    error
	testPassed   bool
	testOutput   string
	testErr      error
	startErr     error
	stopErr      error
	snapshot     map[domain.AgentKind]domain.WorkerSnapshot
	startMonErr  error
	stopMonErr   error
	monRunning   bool
	monErr       error
	deployResult deploy.Result
}

func (f *fakeOrchestrator) CreateProject(ctx context.Context, name, requirements string) (domain.Project, error) {
	return domain.Project{Name: name, Requirements: requirements}, nil
}
func (f *fakeOrchestrator) ListProjects() []domain.Project { return f.projects }
func (f *fakeOrchestrator) SwitchProject(ctx context.Context, name string) error { return nil }
func (f *fakeOrchestrator) ActiveProject() (domain.Project, error)              { return f.active, f.activeErr }
func (f *fakeOrchestrator) AssignIssues(ctx context.Context) (int, error)       { return f.assignCount, f.assignErr }
func (f *fakeOrchestrator) RunPipeline(ctx context.Context) (int, error)        { return f.assignCount, f.assignErr }
func (f *fakeOrchestrator) RunTests(ctx context.Context, timeout time.Duration) (bool, string, error) {
	return f.testPassed, f.testOutput, f.testErr
}
func (f *fakeOrchestrator) StartWorkers(ctx context.Context) error { return f.startErr }
func (f *fakeOrchestrator) StopWorkers() error                    { return f.stopErr }
func (f *fakeOrchestrator) WorkerStatus() map[domain.AgentKind]domain.WorkerSnapshot {
	return f.snapshot
}
func (f *fakeOrchestrator) StartActiveMonitor(ctx context.Context) error { return f.startMonErr }
func (f *fakeOrchestrator) StopActiveMonitor() error                    { return f.stopMonErr }
func (f *fakeOrchestrator) MonitorStatus() (bool, error)                { return f.monRunning, f.monErr }
func (f *fakeOrchestrator) Deploy(ctx context.Context) deploy.Result    { return f.deployResult }
func (f *fakeOrchestrator) Redeploy(ctx context.Context) deploy.Result  { return f.deployResult }

func runCmd(t *testing.T, fake *fakeOrchestrator, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	out := &Output{jsonMode: true, w: &buf, errW: &buf}

	root := NewRootCmd("test", func() Orchestrator { return fake }, func() *Output { return out })
	root.SetArgs(args)
	root.SetOut(&buf)
	root.SetErr(&buf)

	err := root.Execute()
	return buf.String(), err
}

func TestCLI_ProjectList(t *testing.T) {
	fake := &fakeOrchestrator{projects: []domain.Project{{Name: "demo"}}}
	out, err := runCmd(t, fake, "project", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "demo") {
		t.Errorf("expected output to mention project name, got: %s", out)
	}
}

func TestCLI_WorkerStartPropagatesError(t *testing.T) {
	fake := &fakeOrchestrator{startErr: errNoActiveProjectForTest}
	_, err := runCmd(t, fake, "worker", "start")
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestCLI_DeployFailureReturnsError(t *testing.T) {
	fake := &fakeOrchestrator{deployResult: deploy.Result{Success: false, Note: "image build failed"}}
	_, err := runCmd(t, fake, "deploy")
	if err == nil {
		t.Fatal("expected error on failed deploy")
	}
}

func TestCLI_MonitorStatus(t *testing.T) {
	fake := &fakeOrchestrator{monRunning: true}
	out, err := runCmd(t, fake, "monitor", "status")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "true") {
		t.Errorf("expected output to report running=true, got: %s", out)
	}
}

var errNoActiveProjectForTest = &testError{"no active project"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
