package assignment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shaiso/devpipeline/internal/broker"
	"github.com/shaiso/devpipeline/internal/domain"
)

// trackingTTL is the lifetime of a tracking record from its last write;
// expiration is the terminal event (spec §3 Tracking Record).
const trackingTTL = 7 * 24 * time.Hour

// fallbackPriority is used when a task carries no usable issue number to
// derive a priority from.
const fallbackPriority = 1 << 30

// Store owns the per-agent-kind priority queues and tracking records.
// Every method returns immediately; no call blocks on anything but the
// broker round trip.
type Store struct {
	broker *broker.Client
	logger *slog.Logger
}

// New returns a Store over the given broker client.
func New(b *broker.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{broker: b, logger: logger}
}

func queueKey(kind domain.AgentKind) string {
	return fmt.Sprintf("queue:agent:%s", kind)
}

func trackingKey(repository string, issue int) string {
	return fmt.Sprintf("tracking:%s:%d", repository, issue)
}

// Priority derives the sort-set score for a task from its issue number
// (older issues dispatch first), falling back to a large constant when
// the issue number is not usable as a priority signal.
func Priority(issue int) float64 {
	if issue <= 0 {
		return fallbackPriority
	}
	return float64(issue)
}

// Enqueue inserts task into its assigned agent's sorted set and writes a
// pending tracking record with a fresh TTL.
func (s *Store) Enqueue(ctx context.Context, task domain.Task, priority float64) error {
	encoded, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	if err := s.broker.ZAdd(ctx, queueKey(task.AssignedAgent), priority, string(encoded)); err != nil {
		return err
	}

	record := domain.TrackingRecord{
		Repository:    task.Repository,
		Issue:         task.Issue,
		AssignedAgent: task.AssignedAgent,
		Status:        domain.TrackingPending,
		EnqueuedAt:    task.EnqueuedAt,
	}
	if err := s.writeTracking(ctx, record); err != nil {
		// The queue entry already landed: at-least-once delivery is
		// preserved even if the tracking write failed (spec §4.3).
		s.logger.Warn("tracking write failed after successful enqueue",
			"repository", task.Repository, "issue", task.Issue, "error", err)
		return err
	}

	return nil
}

// ClaimNext atomically pops the lowest-priority task for kind and marks
// its tracking record in_progress. ok is false when the queue was empty.
func (s *Store) ClaimNext(ctx context.Context, kind domain.AgentKind) (task domain.Task, ok bool, err error) {
	raw, found, err := s.broker.ZPopMin(ctx, queueKey(kind))
	if err != nil {
		return domain.Task{}, false, err
	}
	if !found {
		return domain.Task{}, false, nil
	}

	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return domain.Task{}, false, fmt.Errorf("unmarshal claimed task: %w", err)
	}

	record, err := s.readTrackingOrNew(ctx, task)
	if err != nil {
		s.logger.Warn("failed to load tracking record on claim", "error", err)
	}
	record.MarkInProgress(kind)
	if err := s.writeTracking(ctx, record); err != nil {
		s.logger.Warn("failed to persist in_progress tracking state", "error", err)
	}

	return task, true, nil
}

// Complete writes a completed tracking record with a truncated summary.
// A record that is already completed or failed is left unchanged.
func (s *Store) Complete(ctx context.Context, repository string, issue int, summary string) error {
	record, err := s.readTrackingOrNewKey(ctx, repository, issue)
	if err != nil {
		return err
	}
	if record.Status.IsTerminal() {
		return nil
	}
	record.MarkCompleted(summary)
	return s.writeTracking(ctx, record)
}

// Fail writes a failed tracking record with a truncated error.
// A record that is already completed or failed is left unchanged.
func (s *Store) Fail(ctx context.Context, repository string, issue int, errText string) error {
	record, err := s.readTrackingOrNewKey(ctx, repository, issue)
	if err != nil {
		return err
	}
	if record.Status.IsTerminal() {
		return nil
	}
	record.MarkFailed(errText)
	return s.writeTracking(ctx, record)
}

// Peek performs a non-destructive read of up to count lowest-priority
// tasks for kind.
func (s *Store) Peek(ctx context.Context, kind domain.AgentKind, count int) ([]domain.Task, error) {
	raws, err := s.broker.ZRange(ctx, queueKey(kind), int64(count))
	if err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(raws))
	for _, raw := range raws {
		var t domain.Task
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			s.logger.Warn("skipping malformed queue entry", "error", err)
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// QueueDepth returns the cardinality of kind's sorted set.
func (s *Store) QueueDepth(ctx context.Context, kind domain.AgentKind) (int64, error) {
	return s.broker.ZCard(ctx, queueKey(kind))
}

// AssignmentStatus returns the full tracking record for (repository,
// issue), or ok=false if no record exists (not yet written, or expired).
func (s *Store) AssignmentStatus(ctx context.Context, repository string, issue int) (record domain.TrackingRecord, ok bool, err error) {
	fields, err := s.broker.HGetAll(ctx, trackingKey(repository, issue))
	if err != nil {
		return domain.TrackingRecord{}, false, err
	}
	if fields == nil {
		return domain.TrackingRecord{}, false, nil
	}
	return decodeTracking(fields), true, nil
}

func (s *Store) readTrackingOrNew(ctx context.Context, task domain.Task) (domain.TrackingRecord, error) {
	return s.readTrackingOrNewKey(ctx, task.Repository, task.Issue)
}

func (s *Store) readTrackingOrNewKey(ctx context.Context, repository string, issue int) (domain.TrackingRecord, error) {
	fields, err := s.broker.HGetAll(ctx, trackingKey(repository, issue))
	if err != nil {
		return domain.TrackingRecord{}, err
	}
	if fields == nil {
		return domain.TrackingRecord{Repository: repository, Issue: issue}, nil
	}
	return decodeTracking(fields), nil
}

func (s *Store) writeTracking(ctx context.Context, record domain.TrackingRecord) error {
	fields := map[string]string{
		"repository":     record.Repository,
		"issue":          strconv.Itoa(record.Issue),
		"assigned_agent": string(record.AssignedAgent),
		"status":         string(record.Status),
		"enqueued_at":    record.EnqueuedAt.Format(time.RFC3339),
		"result_summary": record.ResultSummary,
		"error_text":     record.ErrorText,
	}
	if record.ClaimedAt != nil {
		fields["claimed_at"] = record.ClaimedAt.Format(time.RFC3339)
	}
	if record.CompletedAt != nil {
		fields["completed_at"] = record.CompletedAt.Format(time.RFC3339)
	}
	return s.broker.HSetTTL(ctx, trackingKey(record.Repository, record.Issue), fields, trackingTTL)
}

func decodeTracking(fields map[string]string) domain.TrackingRecord {
	issue, _ := strconv.Atoi(fields["issue"])
	record := domain.TrackingRecord{
		Repository:    fields["repository"],
		Issue:         issue,
		AssignedAgent: domain.AgentKind(fields["assigned_agent"]),
		Status:        domain.TrackingStatus(fields["status"]),
		ResultSummary: fields["result_summary"],
		ErrorText:     fields["error_text"],
	}
	if t, err := time.Parse(time.RFC3339, fields["enqueued_at"]); err == nil {
		record.EnqueuedAt = t
	}
	if v, ok := fields["claimed_at"]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			record.ClaimedAt = &t
		}
	}
	if v, ok := fields["completed_at"]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			record.CompletedAt = &t
		}
	}
	return record
}
