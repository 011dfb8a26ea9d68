package workerpool

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/devpipeline/internal/agent"
	"github.com/shaiso/devpipeline/internal/assignment"
	"github.com/shaiso/devpipeline/internal/domain"
)

const defaultPollInterval = 10 * time.Second

// store is the slice of *assignment.Store the pool calls through.
type store interface {
	ClaimNext(ctx context.Context, kind domain.AgentKind) (domain.Task, bool, error)
	Complete(ctx context.Context, repository string, issue int, summary string) error
	Fail(ctx context.Context, repository string, issue int, errText string) error
	Enqueue(ctx context.Context, task domain.Task, priority float64) error
	QueueDepth(ctx context.Context, kind domain.AgentKind) (int64, error)
}

// annotator adds upstream-visible status to an issue after a task
// finishes, independent of the broker pub/sub annotation an agent may
// also emit.
type annotator interface {
	AnnotateCompletion(ctx context.Context, task domain.Task, result *domain.Result) error
	AnnotateFailure(ctx context.Context, task domain.Task, diagnosis string) error
}

// Config configures a Pool.
type Config struct {
	Kinds        []domain.AgentKind
	Agents       map[domain.AgentKind]agent.Agent
	Store        store
	Annotator    annotator
	Diagnoser    Diagnoser
	PollInterval time.Duration
	DrainHook    func(ctx context.Context)
	Logger       *slog.Logger
}

// Pool launches and supervises one worker goroutine per agent kind
// (spec §4.7).
type Pool struct {
	kinds        []domain.AgentKind
	agents       map[domain.AgentKind]agent.Agent
	store        store
	annotator    annotator
	diagnoser    Diagnoser
	pollInterval time.Duration
	drainHook    func(ctx context.Context)
	logger       *slog.Logger

	mu        sync.RWMutex
	snapshots map[domain.AgentKind]*domain.WorkerSnapshot
	drained   bool

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	runMu   sync.RWMutex
}

// New returns a Pool ready to Start.
func New(cfg Config) *Pool {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	snapshots := make(map[domain.AgentKind]*domain.WorkerSnapshot, len(cfg.Kinds))
	for _, k := range cfg.Kinds {
		snapshots[k] = &domain.WorkerSnapshot{Kind: k, State: domain.WorkerIdle}
	}

	return &Pool{
		kinds:        cfg.Kinds,
		agents:       cfg.Agents,
		store:        cfg.Store,
		annotator:    cfg.Annotator,
		diagnoser:    cfg.Diagnoser,
		pollInterval: pollInterval,
		drainHook:    cfg.DrainHook,
		logger:       logger,
		snapshots:    snapshots,
	}
}

// Start launches one goroutine per configured agent kind.
func (p *Pool) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.runMu.Lock()
	p.running = true
	p.runMu.Unlock()

	for _, kind := range p.kinds {
		kind := kind
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.runLoop(ctx, kind)
		}()
	}

	p.logger.Info("worker pool started", "kinds", p.kinds)
	return nil
}

// Stop flips the running flag so each loop exits on its next iteration
// boundary, then waits for every goroutine to return.
func (p *Pool) Stop() {
	p.runMu.Lock()
	p.running = false
	p.runMu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// Running reports whether the pool's worker goroutines are active.
func (p *Pool) Running() bool {
	return p.isRunning()
}

func (p *Pool) isRunning() bool {
	p.runMu.RLock()
	defer p.runMu.RUnlock()
	return p.running
}

// Snapshot returns a point-in-time copy of every worker's state.
func (p *Pool) Snapshot() map[domain.AgentKind]domain.WorkerSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[domain.AgentKind]domain.WorkerSnapshot, len(p.snapshots))
	for k, v := range p.snapshots {
		out[k] = *v
	}
	return out
}

// ForceIdle resets a worker's bookkeeping state back to idle without
// touching any in-flight subprocess. Used by the pipeline monitor's
// stall check (internal/monitor) — a cooperative reset, not a cancel.
func (p *Pool) ForceIdle(kind domain.AgentKind) {
	p.setState(kind, domain.WorkerIdle, nil)
}

func (p *Pool) setState(kind domain.AgentKind, state domain.WorkerState, startedAt *time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := p.snapshots[kind]
	snap.State = state
	snap.TaskStartedAt = startedAt
}

func (p *Pool) runLoop(ctx context.Context, kind domain.AgentKind) {
	for p.isRunning() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		p.setState(kind, domain.WorkerPolling, nil)

		task, ok, err := p.store.ClaimNext(ctx, kind)
		if err != nil {
			p.logger.Error("claim_next failed", "kind", kind, "error", err)
			p.sleep(ctx)
			continue
		}
		if !ok {
			p.setState(kind, domain.WorkerIdle, nil)
			p.sleep(ctx)
			continue
		}

		start := time.Now()
		p.setState(kind, domain.WorkerWorking, &start)
		p.execute(ctx, kind, task)
		p.setState(kind, domain.WorkerIdle, nil)

		p.checkDrain(ctx)
	}

	p.setState(kind, domain.WorkerStopped, nil)
}

func (p *Pool) execute(ctx context.Context, kind domain.AgentKind, task domain.Task) {
	logger := p.logger.With("kind", kind, "repository", task.Repository, "issue", task.Issue)

	ag, ok := p.agents[kind]
	if !ok {
		logger.Error("no agent registered for kind")
		return
	}

	result, err := ag.Execute(ctx, task)
	if err != nil {
		p.handleFailure(ctx, kind, task, err, logger)
		return
	}

	if cerr := p.store.Complete(ctx, task.Repository, task.Issue, result.Summary); cerr != nil {
		logger.Error("failed to persist completion", "error", cerr)
	}
	if p.annotator != nil {
		if aerr := p.annotator.AnnotateCompletion(ctx, task, result); aerr != nil {
			logger.Warn("annotate completion failed", "error", aerr)
		}
	}

	if isProducingKind(kind) && result.PullRequestID != 0 {
		qaTask := domain.Task{
			Kind:          domain.TaskReviewPR,
			Repository:    task.Repository,
			Issue:         task.Issue,
			PullRequest:   result.PullRequestID,
			AssignedAgent: domain.AgentQA,
			EnqueuedAt:    time.Now(),
		}
		if qerr := p.store.Enqueue(ctx, qaTask, assignment.Priority(task.Issue)); qerr != nil {
			logger.Error("failed to chain QA review task", "error", qerr)
		}
	}
}

func (p *Pool) handleFailure(ctx context.Context, kind domain.AgentKind, task domain.Task, execErr error, logger *slog.Logger) {
	if ferr := p.store.Fail(ctx, task.Repository, task.Issue, execErr.Error()); ferr != nil {
		logger.Error("failed to persist failure", "error", ferr)
	}

	diagnosis := execErr.Error()
	if p.diagnoser != nil {
		if d, derr := p.diagnoser.Diagnose(ctx, task, execErr); derr == nil {
			diagnosis = d
		}
	}

	if p.annotator != nil {
		if aerr := p.annotator.AnnotateFailure(ctx, task, diagnosis); aerr != nil {
			logger.Warn("annotate failure failed", "error", aerr)
		}
	}
}

func (p *Pool) sleep(ctx context.Context) {
	select {
	case <-time.After(p.pollInterval):
	case <-ctx.Done():
	}
}

// checkDrain runs after every task completion. Drain = every queue has
// depth zero AND every worker state is idle/polling/stopped. The drain
// hook fires exactly once per "not drained" → "drained" transition.
func (p *Pool) checkDrain(ctx context.Context) {
	drained := p.isDrained(ctx)

	p.mu.Lock()
	already := p.drained
	p.drained = drained
	p.mu.Unlock()

	if drained && !already && p.drainHook != nil {
		p.drainHook(ctx)
	}
}

func (p *Pool) isDrained(ctx context.Context) bool {
	for _, kind := range p.kinds {
		depth, err := p.store.QueueDepth(ctx, kind)
		if err != nil {
			p.logger.Error("queue_depth failed during drain check", "kind", kind, "error", err)
			return false
		}
		if depth != 0 {
			return false
		}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, snap := range p.snapshots {
		if !snap.State.Drained() {
			return false
		}
	}
	return true
}

func isProducingKind(kind domain.AgentKind) bool {
	return domain.ProducingKinds[kind]
}
