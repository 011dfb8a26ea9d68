package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/devpipeline/internal/domain"
	"github.com/shaiso/devpipeline/internal/genexec"
	"github.com/shaiso/devpipeline/internal/upstream"
)

// Agent is the narrow contract every agent kind satisfies.
type Agent interface {
	Capabilities() []string
	Execute(ctx context.Context, task domain.Task) (*domain.Result, error)
}

// upstreamClient is the slice of *upstream.Client every agent kind
// actually calls; kept as an interface so tests can substitute a fake
// without spinning up an HTTP server for every case.
type upstreamClient interface {
	GetIssue(ctx context.Context, number int) (*upstream.Issue, error)
	UpdateIssue(ctx context.Context, number int, patch map[string]any) (*upstream.Issue, error)
	CloseIssue(ctx context.Context, number int) error
	CreateBranch(ctx context.Context, base, name string) error
	CreatePullRequest(ctx context.Context, title, body, head, base string) (*upstream.PullRequest, error)
	GetPullRequest(ctx context.Context, number int) (*upstream.PullRequest, error)
	MergePullRequest(ctx context.Context, number int, method string) error
	ListChangedFiles(ctx context.Context, number int) ([]upstream.ChangedFile, error)
	CreateReview(ctx context.Context, number int, review upstream.Review) error
}

// gitCollaborator is the slice of *gitpush.Collaborator the publish
// step needs.
type gitCollaborator interface {
	CommitAndPush(ctx context.Context, dir, branch, message string) error
}

// generator is the slice of *genexec.Executor every agent kind needs.
type generator interface {
	Generate(ctx context.Context, prompt, dir string, allowedTools []string, timeout time.Duration) (*genexec.InvocationResult, error)
}

// publisher is the slice of *broker.Client needed for annotation events.
type publisher interface {
	Publish(ctx context.Context, channel, message string) error
}

// Deps bundles the collaborators every agent routes through. Each
// worker goroutine shares one Deps value; nothing here holds
// per-invocation mutable state.
type Deps struct {
	Upstream upstreamClient
	Git      gitCollaborator
	Gen      generator
	Broker   publisher
	Runner   TestRunner
	Logger   *slog.Logger

	WorkspaceRoot string
	DevBranch     string
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// annotate publishes a status event on the broker's pub/sub channel for
// the project dashboard/automation callers to observe. Publish errors
// are logged, not propagated: annotation is best-effort telemetry, not
// part of task completion semantics.
func (d Deps) annotate(ctx context.Context, channel string, event map[string]any) {
	payload, err := json.Marshal(event)
	if err != nil {
		d.logger().Warn("annotate: marshal event failed", "error", err)
		return
	}
	if d.Broker == nil {
		return
	}
	if err := d.Broker.Publish(ctx, channel, string(payload)); err != nil {
		d.logger().Warn("annotate: publish failed", "channel", channel, "error", err)
	}
}

// Constructor builds an Agent bound to one set of collaborators.
type Constructor func(Deps) Agent

// registry is the compile-time agent-kind→constructor map (spec §9:
// replaces a runtime-extensible factory-by-string with a fixed map
// populated once at package init).
var registry = map[domain.AgentKind]Constructor{
	domain.AgentBackend:        func(d Deps) Agent { return newProducingAgent(domain.AgentBackend, d) },
	domain.AgentFrontend:       func(d Deps) Agent { return newProducingAgent(domain.AgentFrontend, d) },
	domain.AgentDatabase:       func(d Deps) Agent { return newProducingAgent(domain.AgentDatabase, d) },
	domain.AgentQA:             func(d Deps) Agent { return newQAAgent(d) },
	domain.AgentDevOps:         func(d Deps) Agent { return newPassthroughAgent(domain.AgentDevOps, d) },
	domain.AgentProductManager: func(d Deps) Agent { return newPassthroughAgent(domain.AgentProductManager, d) },
	domain.AgentProjectManager: func(d Deps) Agent { return newPassthroughAgent(domain.AgentProjectManager, d) },
}

// New instantiates the agent registered for kind.
func New(kind domain.AgentKind, deps Deps) (Agent, error) {
	ctor, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("agent: no constructor registered for kind %q", kind)
	}
	return ctor(deps), nil
}
