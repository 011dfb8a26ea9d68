package agent

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/shaiso/devpipeline/internal/domain"
)

// passthroughAgent implements the simpler resolve→generate→annotate
// envelope for DevOps, Product-Manager, and Project-Manager: no
// branch/PR lifecycle, since DevOps tasks assist the deployment
// finisher with generated manifests and the manager kinds produce
// planning artifacts for a human operator (spec §4.6).
type passthroughAgent struct {
	kind domain.AgentKind
	deps Deps
}

func newPassthroughAgent(kind domain.AgentKind, deps Deps) *passthroughAgent {
	return &passthroughAgent{kind: kind, deps: deps}
}

func (a *passthroughAgent) Capabilities() []string {
	return []string{"resolve_issue", "generate_artifact"}
}

func (a *passthroughAgent) Execute(ctx context.Context, task domain.Task) (*domain.Result, error) {
	issue, err := a.deps.Upstream.GetIssue(ctx, task.Issue)
	if err != nil {
		return nil, fmt.Errorf("resolve issue: %w", err)
	}

	workDir := filepath.Join(a.deps.WorkspaceRoot, task.Repository)
	if task.WorkingCopyPath != "" {
		workDir = task.WorkingCopyPath
	}

	prompt := fmt.Sprintf("Issue #%d: %s\n\n%s\n\nProduce the requested artifact as %s.", issue.Number, issue.Title, issue.Body, a.kind)
	result, err := a.deps.Gen.Generate(ctx, prompt, workDir, []string{"Read", "Write"}, generateTimeout)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	a.deps.annotate(ctx, "pipeline.task.completed", map[string]any{
		"agent_kind": a.kind, "repo": task.Repository, "issue": task.Issue,
	})

	return &domain.Result{Summary: fmt.Sprintf("%s produced artifact for issue #%d", a.kind, issue.Number), Diagnosis: firstLine(result.Stdout)}, nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
