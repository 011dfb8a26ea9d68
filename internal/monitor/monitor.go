package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/devpipeline/internal/domain"
	"github.com/shaiso/devpipeline/internal/genexec"
	"github.com/shaiso/devpipeline/internal/upstream"
)

const (
	defaultPollInterval   = 30 * time.Second
	defaultStallThreshold = 10 * time.Minute
	defaultMaxFixAttempts = 3
	logTruncateBytes      = 5 * 1024
	handleFailureTimeout  = 5 * time.Minute
)

// ciClient — тот срез *upstream.Client, который нужен монитору.
type ciClient interface {
	ListWorkflowRuns(ctx context.Context, headSHA string) ([]upstream.WorkflowRun, error)
	GetWorkflowRunLogs(ctx context.Context, runID int64, maxBytes int) (string, error)
}

type generator interface {
	Generate(ctx context.Context, prompt, dir string, allowedTools []string, timeout time.Duration) (*genexec.InvocationResult, error)
}

type pusher interface {
	CommitAndPush(ctx context.Context, dir, branch, message string) error
}

// WorkerSnapshots — тот срез *workerpool.Pool, который нужен проверке
// зависших воркеров.
type WorkerSnapshots interface {
	Snapshot() map[domain.AgentKind]domain.WorkerSnapshot
	ForceIdle(kind domain.AgentKind)
}

// Notifier выводит событие монитора в пользовательский канал уведомлений.
type Notifier interface {
	Notify(ctx context.Context, kind, message string) error
}

// Config настраивает Monitor для одного проекта.
type Config struct {
	Project        domain.Project
	Branch         string
	CI             ciClient
	Gen            generator
	Git            pusher
	Workers        WorkerSnapshots
	Notifier       Notifier
	PollInterval   time.Duration
	StallThreshold time.Duration
	MaxFixAttempts int
	Logger         *slog.Logger
}

// Monitor — цикл наблюдения за CI и автофикса одного проекта, плюс
// проверка зависших воркеров в том же цикле.
type Monitor struct {
	project        domain.Project
	branch         string
	ci             ciClient
	gen            generator
	git            pusher
	workers        WorkerSnapshots
	notifier       Notifier
	pollInterval   time.Duration
	stallThreshold time.Duration
	maxFixAttempts int
	logger         *slog.Logger

	mu    sync.Mutex
	state *domain.MonitorState

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	runMu   sync.RWMutex
}

// New возвращает Monitor для одного проекта, ещё не запущенный.
func New(cfg Config) *Monitor {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	stallThreshold := cfg.StallThreshold
	if stallThreshold <= 0 {
		stallThreshold = defaultStallThreshold
	}
	maxFixAttempts := cfg.MaxFixAttempts
	if maxFixAttempts <= 0 {
		maxFixAttempts = defaultMaxFixAttempts
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		project:        cfg.Project,
		branch:         cfg.Branch,
		ci:             cfg.CI,
		gen:            cfg.Gen,
		git:            cfg.Git,
		workers:        cfg.Workers,
		notifier:       cfg.Notifier,
		pollInterval:   pollInterval,
		stallThreshold: stallThreshold,
		maxFixAttempts: maxFixAttempts,
		logger:         logger,
		state:          domain.NewMonitorState(),
	}
}

// Start запускает фоновый цикл. Ошибки одной итерации никогда не
// останавливают монитор — только текущий проход.
func (m *Monitor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.runMu.Lock()
	m.running = true
	m.runMu.Unlock()
	m.state.Running = true

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.loop(ctx)
	}()

	m.logger.Info("monitor started", "project", m.project.Name)
	return nil
}

// Stop кооперативен: сбрасывает флаг running, отменяет фоновый контекст
// и дожидается выхода цикла.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	m.running = false
	m.runMu.Unlock()

	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.state.Running = false
	m.logger.Info("monitor stopped", "project", m.project.Name)
}

// Running reports whether the monitor's background loop is active.
func (m *Monitor) Running() bool {
	return m.isRunning()
}

func (m *Monitor) isRunning() bool {
	m.runMu.RLock()
	defer m.runMu.RUnlock()
	return m.running
}

func (m *Monitor) loop(ctx context.Context) {
	for m.isRunning() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		m.pollRuns(ctx)
		m.checkStalls(ctx)

		select {
		case <-time.After(m.pollInterval):
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) pollRuns(ctx context.Context) {
	runs, err := m.ci.ListWorkflowRuns(ctx, "")
	if err != nil {
		m.logger.Error("list workflow runs failed", "project", m.project.Name, "error", err)
		return
	}
	for _, run := range runs {
		m.processRun(ctx, run)
	}
}

func (m *Monitor) processRun(ctx context.Context, run upstream.WorkflowRun) {
	if run.Status != "completed" {
		return
	}

	m.mu.Lock()
	handled := m.state.HandledRuns[run.ID]
	attempts := m.state.FixAttempts[run.ID]
	m.mu.Unlock()
	if handled {
		return
	}

	if run.Conclusion == "success" {
		m.markHandled(run.ID)
		if attempts > 0 {
			m.notify(ctx, "green", fmt.Sprintf("run %d is green after %d fix attempt(s)", run.ID, attempts))
		}
		return
	}

	if attempts < m.maxFixAttempts {
		m.handleFailure(ctx, run, attempts+1)
		m.mu.Lock()
		m.state.FixAttempts[run.ID] = attempts + 1
		m.mu.Unlock()
		return
	}

	m.markHandled(run.ID)
	m.notify(ctx, "needs_attention", fmt.Sprintf("run %d still failing after %d fix attempts, needs human attention", run.ID, attempts))
}

func (m *Monitor) markHandled(runID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.HandledRuns[runID] = true
}

func (m *Monitor) handleFailure(ctx context.Context, run upstream.WorkflowRun, attempt int) {
	logs, err := m.ci.GetWorkflowRunLogs(ctx, run.ID, logTruncateBytes)
	if err != nil {
		m.logger.Error("fetch run logs failed", "run_id", run.ID, "error", err)
		return
	}

	prompt := fmt.Sprintf(
		"CI run %d failed (attempt %d). Logs (truncated):\n\n%s\n\nApply the minimal fix needed to make the build/tests pass.",
		run.ID, attempt, logs,
	)
	workDir := m.project.WorkspaceDir
	if _, err := m.gen.Generate(ctx, prompt, workDir, []string{"Read", "Edit", "Write", "Bash"}, handleFailureTimeout); err != nil {
		m.logger.Error("auto-fix generation failed", "run_id", run.ID, "error", err)
		return
	}

	commitMsg := fmt.Sprintf("ci: auto-fix for run %d (attempt %d)", run.ID, attempt)
	if err := m.git.CommitAndPush(ctx, workDir, m.branch, commitMsg); err != nil {
		m.notify(ctx, "push_failed", fmt.Sprintf("auto-fix for run %d (attempt %d) could not be pushed: %v", run.ID, attempt, err))
	}
}

// checkStalls принудительно сбрасывает в idle любого воркера, замеченного
// в состоянии working дольше порога. Это кооперативный сброс: запущенный
// подпроцесс воркера не завершается, меняется только его учётное состояние.
func (m *Monitor) checkStalls(ctx context.Context) {
	if m.workers == nil {
		return
	}
	now := time.Now()
	for kind, snap := range m.workers.Snapshot() {
		elapsed, stalled := snap.StalledSince(now)
		if !stalled || elapsed <= m.stallThreshold {
			continue
		}
		m.notify(ctx, "stalled", fmt.Sprintf("worker %s stalled for %s, resetting to idle", kind, elapsed.Round(time.Second)))
		m.workers.ForceIdle(kind)
	}
}

func (m *Monitor) notify(ctx context.Context, kind, message string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, kind, message); err != nil {
		m.logger.Warn("notify failed", "kind", kind, "error", err)
	}
}
