package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shaiso/devpipeline/internal/agent"
	"github.com/shaiso/devpipeline/internal/assignment"
	"github.com/shaiso/devpipeline/internal/broker"
	"github.com/shaiso/devpipeline/internal/deploy"
	"github.com/shaiso/devpipeline/internal/domain"
	"github.com/shaiso/devpipeline/internal/genexec"
	"github.com/shaiso/devpipeline/internal/gitpush"
	"github.com/shaiso/devpipeline/internal/issueclassifier"
	"github.com/shaiso/devpipeline/internal/monitor"
	"github.com/shaiso/devpipeline/internal/registry"
	"github.com/shaiso/devpipeline/internal/upstream"
	"github.com/shaiso/devpipeline/internal/workerpool"
)

const defaultDevBranch = "main"

// UpstreamConfig supplies the per-repository credentials used to build
// an *upstream.Client for a project's "owner/repo" handle.
type UpstreamConfig struct {
	BaseURL string
	Token   string
}

// Config configures an Orchestrator.
type Config struct {
	Registry   *registry.Registry
	Broker     *broker.Client
	Store      *assignment.Store
	Classifier *issueclassifier.Classifier
	Gen        *genexec.Executor
	Git        *gitpush.Collaborator

	Upstream UpstreamConfig

	ContainerDomain string
	TunnelName      string
	DevBranch       string

	Logger *slog.Logger
}

// Orchestrator is the single entry point behind every control-surface
// command (§6): project lifecycle, pipeline execution, worker and
// monitor lifecycle, and deployment.
type Orchestrator struct {
	registry   *registry.Registry
	broker     *broker.Client
	store      *assignment.Store
	classifier *issueclassifier.Classifier
	gen        *genexec.Executor
	git        *gitpush.Collaborator

	upstreamCfg     UpstreamConfig
	containerDomain string
	tunnelName      string
	devBranch       string

	logger *slog.Logger

	mu       sync.Mutex
	pool     *workerpool.Pool
	monitors map[string]*monitor.Monitor
}

// New returns an Orchestrator. The caller must still call
// Registry.Restore before using project lifecycle commands.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	devBranch := cfg.DevBranch
	if devBranch == "" {
		devBranch = defaultDevBranch
	}
	return &Orchestrator{
		registry:        cfg.Registry,
		broker:          cfg.Broker,
		store:           cfg.Store,
		classifier:      cfg.Classifier,
		gen:             cfg.Gen,
		git:             cfg.Git,
		upstreamCfg:     cfg.Upstream,
		containerDomain: cfg.ContainerDomain,
		tunnelName:      cfg.TunnelName,
		devBranch:       devBranch,
		logger:          logger,
		monitors:        make(map[string]*monitor.Monitor),
	}
}

// SetRegistry wires the project registry into the orchestrator after
// construction, breaking the cycle between Orchestrator (which
// implements registry.MonitorController) and Registry (which needs a
// MonitorController at construction time).
func (o *Orchestrator) SetRegistry(reg *registry.Registry) {
	o.registry = reg
}

func (o *Orchestrator) upstreamClientFor(project domain.Project) (*upstream.Client, error) {
	owner, repo, ok := strings.Cut(project.Repository, "/")
	if !ok {
		return nil, fmt.Errorf("repository %q is not in owner/repo form", project.Repository)
	}
	return upstream.New(upstream.Config{
		BaseURL: o.upstreamCfg.BaseURL,
		Token:   o.upstreamCfg.Token,
		Owner:   owner,
		Repo:    repo,
	}), nil
}

// CreateProject creates a new project and registers it, without
// activating it.
func (o *Orchestrator) CreateProject(ctx context.Context, name, requirements string) (domain.Project, error) {
	return o.registry.Create(ctx, name, requirements)
}

// ListProjects returns every known project.
func (o *Orchestrator) ListProjects() []domain.Project {
	return o.registry.List()
}

// SwitchProject makes name the active project, stopping the outgoing
// project's monitor and starting the incoming one's if it has a
// repository (§4.9). It does not touch the worker pool: workers are
// started explicitly via StartWorkers against whatever is active.
func (o *Orchestrator) SwitchProject(ctx context.Context, name string) error {
	return o.registry.Switch(ctx, name)
}

func (o *Orchestrator) activeProject() (domain.Project, error) {
	project, ok := o.registry.Active()
	if !ok {
		return domain.Project{}, ErrNoActiveProject
	}
	return project, nil
}

// ActiveProject returns the currently active project, or
// ErrNoActiveProject if the registry has none.
func (o *Orchestrator) ActiveProject() (domain.Project, error) {
	return o.activeProject()
}

// AssignIssues fetches open issues for the active project's
// repository, classifies each, and enqueues a task for the classified
// agent kind. Returns the number of tasks enqueued.
func (o *Orchestrator) AssignIssues(ctx context.Context) (int, error) {
	project, err := o.activeProject()
	if err != nil {
		return 0, err
	}
	if !project.HasRepository() {
		return 0, ErrNoRepository
	}

	client, err := o.upstreamClientFor(project)
	if err != nil {
		return 0, err
	}

	issues, err := client.ListIssues(ctx, "open", nil)
	if err != nil {
		return 0, fmt.Errorf("list issues: %w", err)
	}

	enqueued := 0
	for _, issue := range issues {
		classification := o.classifier.Classify(issueclassifier.Issue{
			Number: issue.Number,
			Title:  issue.Title,
			Body:   issue.Body,
			Labels: issue.LabelNames(),
		})

		task := domain.Task{
			Kind:          taskKindFor(issue.LabelNames()),
			Repository:    project.Repository,
			Issue:         issue.Number,
			AssignedAgent: classification.Agent,
			EnqueuedAt:    time.Now(),
		}
		if err := o.store.Enqueue(ctx, task, assignment.Priority(issue.Number)); err != nil {
			o.logger.Error("failed to enqueue task", "issue", issue.Number, "error", err)
			continue
		}
		enqueued++
	}

	return enqueued, nil
}

// taskKindFor maps an issue's labels to a task kind, defaulting to
// feature implementation when no label is a better match.
func taskKindFor(labels []string) domain.TaskKind {
	for _, l := range labels {
		switch strings.ToLower(l) {
		case "bug", "bugfix":
			return domain.TaskFixBug
		case "test", "tests", "testing":
			return domain.TaskWriteTests
		case "refactor", "refactoring", "tech-debt":
			return domain.TaskRefactor
		}
	}
	return domain.TaskImplementFeature
}

// StartWorkers builds one agent per kind for the active project and
// starts the worker pool. The drain hook triggers a deploy.
func (o *Orchestrator) StartWorkers(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pool != nil && o.pool.Running() {
		return ErrWorkersRunning
	}

	project, err := o.activeProject()
	if err != nil {
		return err
	}
	if !project.HasRepository() {
		return ErrNoRepository
	}

	client, err := o.upstreamClientFor(project)
	if err != nil {
		return err
	}
	annotator := upstream.NewAnnotator(client)

	deps := agent.Deps{
		Upstream:      client,
		Git:           o.git,
		Gen:           o.gen,
		Broker:        o.broker,
		Runner:        agent.NewShellTestRunner(),
		Logger:        o.logger,
		WorkspaceRoot: project.WorkspaceDir,
		DevBranch:     o.devBranch,
	}

	agents := make(map[domain.AgentKind]agent.Agent, len(domain.AllAgentKinds))
	for _, kind := range domain.AllAgentKinds {
		ag, err := agent.New(kind, deps)
		if err != nil {
			return fmt.Errorf("build agent %s: %w", kind, err)
		}
		agents[kind] = ag
	}

	pool := workerpool.New(workerpool.Config{
		Kinds:     domain.AllAgentKinds,
		Agents:    agents,
		Store:     o.store,
		Annotator: annotator,
		Diagnoser: workerpool.NewDiagnoser(o.gen),
		Logger:    o.logger,
		DrainHook: func(ctx context.Context) {
			result := o.Deploy(ctx)
			o.logger.Info("drain-triggered deploy finished", "success", result.Success, "url", result.URL, "note", result.Note)
		},
	})

	if err := pool.Start(ctx); err != nil {
		return fmt.Errorf("start worker pool: %w", err)
	}
	o.pool = pool
	return nil
}

// StopWorkers stops the running worker pool.
func (o *Orchestrator) StopWorkers() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pool == nil || !o.pool.Running() {
		return ErrWorkersNotRunning
	}
	o.pool.Stop()
	return nil
}

// WorkerStatus returns a snapshot of every worker's state, or nil if
// the pool was never started.
func (o *Orchestrator) WorkerStatus() map[domain.AgentKind]domain.WorkerSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pool == nil {
		return nil
	}
	return o.pool.Snapshot()
}

// StartMonitor implements registry.MonitorController, also reachable
// directly for an explicit "start monitor" command.
func (o *Orchestrator) StartMonitor(ctx context.Context, project domain.Project) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if m, ok := o.monitors[project.Name]; ok && m.Running() {
		return ErrMonitorRunning
	}

	client, err := o.upstreamClientFor(project)
	if err != nil {
		return err
	}

	var workers monitor.WorkerSnapshots
	if o.pool != nil {
		workers = o.pool
	}

	m := monitor.New(monitor.Config{
		Project:  project,
		Branch:   o.devBranch,
		CI:       client,
		Gen:      o.gen,
		Git:      o.git,
		Workers:  workers,
		Notifier: notifierFunc(o.notify),
		Logger:   o.logger,
	})
	if err := m.Start(ctx); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}
	o.monitors[project.Name] = m
	return nil
}

// StopMonitor implements registry.MonitorController.
func (o *Orchestrator) StopMonitor(project domain.Project) {
	o.mu.Lock()
	m, ok := o.monitors[project.Name]
	o.mu.Unlock()
	if !ok {
		return
	}
	m.Stop()
}

// StartActiveMonitor starts the monitor for whichever project is
// currently active — the control-surface "start monitor" command,
// which names no project explicitly.
func (o *Orchestrator) StartActiveMonitor(ctx context.Context) error {
	project, err := o.activeProject()
	if err != nil {
		return err
	}
	return o.StartMonitor(ctx, project)
}

// StopActiveMonitor stops the monitor for whichever project is
// currently active.
func (o *Orchestrator) StopActiveMonitor() error {
	project, err := o.activeProject()
	if err != nil {
		return err
	}
	o.StopMonitor(project)
	return nil
}

// MonitorStatus reports whether the active project's monitor is
// running.
func (o *Orchestrator) MonitorStatus() (running bool, err error) {
	project, err := o.activeProject()
	if err != nil {
		return false, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	m, ok := o.monitors[project.Name]
	if !ok {
		return false, nil
	}
	return m.Running(), nil
}

func (o *Orchestrator) notify(ctx context.Context, kind, message string) error {
	o.logger.Info("pipeline notification", "kind", kind, "message", message)
	if o.broker == nil {
		return nil
	}
	return o.broker.Publish(ctx, "pipeline:notifications", fmt.Sprintf("%s: %s", kind, message))
}

type notifierFunc func(ctx context.Context, kind, message string) error

func (f notifierFunc) Notify(ctx context.Context, kind, message string) error {
	return f(ctx, kind, message)
}

// RunPipeline is the "run full pipeline" command: assign issues, then
// start workers against the active project.
func (o *Orchestrator) RunPipeline(ctx context.Context) (int, error) {
	enqueued, err := o.AssignIssues(ctx)
	if err != nil {
		return 0, err
	}
	if err := o.StartWorkers(ctx); err != nil {
		return enqueued, err
	}
	return enqueued, nil
}

// RunTests runs the active project's test suite once, outside the
// worker pool's validation envelope — the "run tests" control-surface
// command.
func (o *Orchestrator) RunTests(ctx context.Context, timeout time.Duration) (passed bool, output string, err error) {
	project, err := o.activeProject()
	if err != nil {
		return false, "", err
	}
	runner := agent.NewShellTestRunner()
	command, detected := runner.Detect(project.WorkspaceDir)
	if !detected {
		return false, "", fmt.Errorf("no recognized test framework in %s", project.WorkspaceDir)
	}
	return runner.Run(ctx, project.WorkspaceDir, command, timeout)
}

// Deploy runs the Deployment Finisher against the active project.
func (o *Orchestrator) Deploy(ctx context.Context) deploy.Result {
	project, err := o.activeProject()
	if err != nil {
		return deploy.Result{Success: false, Note: err.Error()}
	}
	return o.deployProject(ctx, project)
}

// Redeploy is an alias for Deploy: the finisher's steps are each
// idempotent or best-effort, so re-running the full pipeline is safe.
func (o *Orchestrator) Redeploy(ctx context.Context) deploy.Result {
	return o.Deploy(ctx)
}

func (o *Orchestrator) deployProject(ctx context.Context, project domain.Project) deploy.Result {
	finisher := deploy.New(deploy.Config{
		ProjectName:         project.Name,
		ProjectDir:          project.WorkspaceDir,
		Domain:              o.containerDomain,
		TunnelName:          o.tunnelName,
		ContainerName:       project.Name,
		ImageTag:            project.Name + ":latest",
		PortAllocationsPath: portAllocationsPath(),
		IngressConfigPath:   ingressConfigPath(),
		Logger:              o.logger,
	})
	return finisher.Deploy(ctx)
}

func portAllocationsPath() string {
	return homeDir() + "/.ai-dev-pipeline/port_allocations.json"
}

func ingressConfigPath() string {
	return homeDir() + "/.cloudflared/config.yml"
}

func homeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
