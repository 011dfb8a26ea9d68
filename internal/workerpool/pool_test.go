package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shaiso/devpipeline/internal/agent"
	"github.com/shaiso/devpipeline/internal/domain"
)

type fakeStore struct {
	mu       sync.Mutex
	queues   map[domain.AgentKind][]domain.Task
	enqueued []domain.Task
	failed   []string
	completed []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{queues: make(map[domain.AgentKind][]domain.Task)}
}

func (f *fakeStore) ClaimNext(ctx context.Context, kind domain.AgentKind) (domain.Task, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.queues[kind]
	if len(q) == 0 {
		return domain.Task{}, false, nil
	}
	task := q[0]
	f.queues[kind] = q[1:]
	return task, true, nil
}

func (f *fakeStore) Complete(ctx context.Context, repository string, issue int, summary string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, summary)
	return nil
}

func (f *fakeStore) Fail(ctx context.Context, repository string, issue int, errText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, errText)
	return nil
}

func (f *fakeStore) Enqueue(ctx context.Context, task domain.Task, priority float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queues[task.AssignedAgent] = append(f.queues[task.AssignedAgent], task)
	f.enqueued = append(f.enqueued, task)
	return nil
}

func (f *fakeStore) QueueDepth(ctx context.Context, kind domain.AgentKind) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.queues[kind])), nil
}

type fakeAgent struct {
	result *domain.Result
	err    error
	calls  int32
}

func (f *fakeAgent) Capabilities() []string { return nil }
func (f *fakeAgent) Execute(ctx context.Context, task domain.Task) (*domain.Result, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeAnnotator struct {
	mu         sync.Mutex
	completed  int
	failed     int
	diagnosis  string
}

func (f *fakeAnnotator) AnnotateCompletion(ctx context.Context, task domain.Task, result *domain.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed++
	return nil
}

func (f *fakeAnnotator) AnnotateFailure(ctx context.Context, task domain.Task, diagnosis string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed++
	f.diagnosis = diagnosis
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestPool_ClaimsExecutesAndCompletes(t *testing.T) {
	store := newFakeStore()
	store.queues[domain.AgentBackend] = []domain.Task{{Repository: "acme/widgets", Issue: 1, AssignedAgent: domain.AgentBackend}}

	ag := &fakeAgent{result: &domain.Result{Summary: "done"}}
	annotator := &fakeAnnotator{}

	pool := New(Config{
		Kinds:        []domain.AgentKind{domain.AgentBackend},
		Agents:       map[domain.AgentKind]agent.Agent{domain.AgentBackend: ag},
		Store:        store,
		Annotator:    annotator,
		PollInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	waitFor(t, func() bool { return len(store.completed) == 1 })
	if annotator.completed != 1 {
		t.Errorf("expected 1 completion annotation, got %d", annotator.completed)
	}
}

func TestPool_ChainsQAOnProducingCompletionWithPR(t *testing.T) {
	store := newFakeStore()
	store.queues[domain.AgentBackend] = []domain.Task{{Repository: "acme/widgets", Issue: 5, AssignedAgent: domain.AgentBackend}}

	ag := &fakeAgent{result: &domain.Result{Summary: "done", PullRequestID: 42}}

	pool := New(Config{
		Kinds:        []domain.AgentKind{domain.AgentBackend},
		Agents:       map[domain.AgentKind]agent.Agent{domain.AgentBackend: ag},
		Store:        store,
		PollInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	waitFor(t, func() bool { return len(store.enqueued) == 1 })
	qaTask := store.enqueued[0]
	if qaTask.Kind != domain.TaskReviewPR || qaTask.PullRequest != 42 || qaTask.Issue != 5 {
		t.Errorf("unexpected chained QA task: %+v", qaTask)
	}
}

func TestPool_FailurePathAnnotatesWithDiagnosis(t *testing.T) {
	store := newFakeStore()
	store.queues[domain.AgentBackend] = []domain.Task{{Repository: "acme/widgets", Issue: 9, AssignedAgent: domain.AgentBackend}}

	ag := &fakeAgent{err: errors.New("boom")}
	annotator := &fakeAnnotator{}

	pool := New(Config{
		Kinds:        []domain.AgentKind{domain.AgentBackend},
		Agents:       map[domain.AgentKind]agent.Agent{domain.AgentBackend: ag},
		Store:        store,
		Annotator:    annotator,
		PollInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	waitFor(t, func() bool { return len(store.failed) == 1 })
	waitFor(t, func() bool { return annotator.failed == 1 })
}
