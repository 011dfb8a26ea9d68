package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shaiso/devpipeline/internal/broker"
	"github.com/shaiso/devpipeline/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := broker.New(broker.Config{Addr: mr.Addr()}, nil)
	t.Cleanup(func() { _ = client.Close() })

	return New(client, nil)
}

// TestStore_ClaimOrdering is seed scenario S1 from spec §8: enqueue
// backend tasks for issues {7, 3, 12} with priorities {7.0, 3.0, 12.0}.
func TestStore_ClaimOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, issue := range []int{7, 3, 12} {
		task := domain.Task{
			Kind: domain.TaskFixBug, Repository: "acme/widgets",
			Issue: issue, AssignedAgent: domain.AgentBackend, EnqueuedAt: time.Now(),
		}
		if err := store.Enqueue(ctx, task, Priority(issue)); err != nil {
			t.Fatalf("enqueue issue %d: %v", issue, err)
		}
	}

	wantOrder := []int{3, 7, 12}
	for _, want := range wantOrder {
		task, ok, err := store.ClaimNext(ctx, domain.AgentBackend)
		if err != nil {
			t.Fatalf("claim: %v", err)
		}
		if !ok {
			t.Fatalf("expected a task, got none")
		}
		if task.Issue != want {
			t.Errorf("expected issue %d, got %d", want, task.Issue)
		}
	}

	_, ok, err := store.ClaimNext(ctx, domain.AgentBackend)
	if err != nil {
		t.Fatalf("claim on empty queue: %v", err)
	}
	if ok {
		t.Error("expected no task on 4th claim, queue should be empty")
	}
}

func TestStore_ClaimOnceExactlyOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	task := domain.Task{Kind: domain.TaskFixBug, Repository: "acme/widgets", Issue: 1, AssignedAgent: domain.AgentBackend, EnqueuedAt: time.Now()}
	if err := store.Enqueue(ctx, task, Priority(1)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	seen := 0
	for i := 0; i < 3; i++ {
		_, ok, err := store.ClaimNext(ctx, domain.AgentBackend)
		if err != nil {
			t.Fatalf("claim: %v", err)
		}
		if ok {
			seen++
		}
	}
	if seen != 1 {
		t.Errorf("expected task claimed exactly once, got %d claims", seen)
	}
}

func TestStore_CompleteAndFailAreTerminal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Complete(ctx, "acme/widgets", 5, "done"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	record, ok, err := store.AssignmentStatus(ctx, "acme/widgets", 5)
	if err != nil || !ok {
		t.Fatalf("assignment status: ok=%v err=%v", ok, err)
	}
	if record.Status != domain.TrackingCompleted {
		t.Errorf("expected completed, got %s", record.Status)
	}

	if err := store.Fail(ctx, "acme/widgets", 5, "should not move out of terminal"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	record, _, _ = store.AssignmentStatus(ctx, "acme/widgets", 5)
	if record.Status != domain.TrackingCompleted {
		t.Errorf("expected completed record to stay completed after fail(), got %s", record.Status)
	}
}

func TestStore_QueueDepthAndPeek(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, issue := range []int{1, 2, 3} {
		task := domain.Task{Kind: domain.TaskFixBug, Repository: "acme/widgets", Issue: issue, AssignedAgent: domain.AgentFrontend, EnqueuedAt: time.Now()}
		if err := store.Enqueue(ctx, task, Priority(issue)); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	depth, err := store.QueueDepth(ctx, domain.AgentFrontend)
	if err != nil {
		t.Fatalf("queue depth: %v", err)
	}
	if depth != 3 {
		t.Errorf("expected depth 3, got %d", depth)
	}

	peeked, err := store.Peek(ctx, domain.AgentFrontend, 2)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if len(peeked) != 2 {
		t.Fatalf("expected 2 peeked tasks, got %d", len(peeked))
	}

	depthAfter, _ := store.QueueDepth(ctx, domain.AgentFrontend)
	if depthAfter != 3 {
		t.Errorf("peek must be non-destructive, depth changed to %d", depthAfter)
	}
}

// TestStore_QAHandoff is seed scenario S2 from spec §8.
func TestStore_QAHandoff(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	qaTask := domain.Task{
		Kind: domain.TaskReviewPR, Repository: "acme", Issue: 5, PullRequest: 42,
		AssignedAgent: domain.AgentQA, EnqueuedAt: time.Now(),
	}
	if err := store.Enqueue(ctx, qaTask, Priority(5)); err != nil {
		t.Fatalf("enqueue qa task: %v", err)
	}

	depth, err := store.QueueDepth(ctx, domain.AgentQA)
	if err != nil || depth != 1 {
		t.Fatalf("expected qa depth 1, got %d (err=%v)", depth, err)
	}

	claimed, ok, err := store.ClaimNext(ctx, domain.AgentQA)
	if err != nil || !ok {
		t.Fatalf("claim qa: ok=%v err=%v", ok, err)
	}
	if claimed.Kind != domain.TaskReviewPR || claimed.PullRequest != 42 || claimed.Issue != 5 {
		t.Errorf("unexpected claimed task: %+v", claimed)
	}
}
