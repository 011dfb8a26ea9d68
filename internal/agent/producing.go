package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/devpipeline/internal/domain"
)

const (
	generateTimeout = 5 * time.Minute
	testTimeout     = 120 * time.Second
	recoveryExcerpt = 3 * 1024
)

// producingAgent implements the resolve→branch→workspace→generate→
// validate→publish→open-review→annotate envelope shared by backend,
// frontend, and database (spec §4.6).
type producingAgent struct {
	kind domain.AgentKind
	deps Deps
}

func newProducingAgent(kind domain.AgentKind, deps Deps) *producingAgent {
	return &producingAgent{kind: kind, deps: deps}
}

func (a *producingAgent) Capabilities() []string {
	return []string{
		"resolve_issue", "create_branch", "generate_code", "run_tests", "open_pull_request",
	}
}

func (a *producingAgent) Execute(ctx context.Context, task domain.Task) (*domain.Result, error) {
	// attemptID correlates every log line and annotation this one
	// execution produces, since the same (repo, issue) pair can be
	// re-delivered and re-attempted across separate worker claims.
	attemptID := uuid.NewString()
	logger := a.deps.logger().With("agent_kind", a.kind, "repo", task.Repository, "issue", task.Issue, "attempt_id", attemptID)

	issue, err := a.deps.Upstream.GetIssue(ctx, task.Issue)
	if err != nil {
		return nil, fmt.Errorf("resolve issue: %w", err)
	}

	branch := branchName(a.kind, task.Kind, task.Issue)
	if err := a.deps.Upstream.CreateBranch(ctx, a.deps.DevBranch, branch); err != nil {
		logger.Warn("create branch failed, attempting to continue (branch may already exist)", "error", err)
	}

	workDir := filepath.Join(a.deps.WorkspaceRoot, task.Repository)
	if task.WorkingCopyPath != "" {
		workDir = task.WorkingCopyPath
	}

	prompt := fmt.Sprintf(
		"Issue #%d: %s\n\n%s\n\nImplement this on branch %s. Constrain changes to files relevant to the issue.",
		issue.Number, issue.Title, issue.Body, branch,
	)
	if _, err := a.deps.Gen.Generate(ctx, prompt, workDir, []string{"Read", "Edit", "Write", "Bash"}, generateTimeout); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	if err := a.validate(ctx, workDir, prompt); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	commitMsg := fmt.Sprintf("%s: address issue #%d", a.kind, issue.Number)
	if err := a.deps.Git.CommitAndPush(ctx, workDir, branch, commitMsg); err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}

	prTitle := fmt.Sprintf("%s: %s", a.kind, issue.Title)
	prBody := fmt.Sprintf("Closes #%d\n\nGenerated by the %s agent.", issue.Number, a.kind)
	pr, err := a.deps.Upstream.CreatePullRequest(ctx, prTitle, prBody, branch, a.deps.DevBranch)
	if err != nil {
		return nil, fmt.Errorf("open review: %w", err)
	}

	a.deps.annotate(ctx, "pipeline.task.completed", map[string]any{
		"agent_kind": a.kind, "repo": task.Repository, "issue": task.Issue, "pull_request": pr.Number, "attempt_id": attemptID,
	})

	return &domain.Result{
		Summary:       fmt.Sprintf("opened PR #%d for issue #%d", pr.Number, issue.Number),
		PullRequestID: pr.Number,
	}, nil
}

// validate detects a test framework and runs it once; on failure it
// makes exactly one recovery attempt (a bounded generation call with
// the first 3KB of failing output), then re-runs. A second failure is
// fatal. Absence of any detected framework is a skip, not a failure.
func (a *producingAgent) validate(ctx context.Context, workDir, originalPrompt string) error {
	runner := a.deps.Runner
	if runner == nil {
		runner = NewShellTestRunner()
	}

	command, detected := runner.Detect(workDir)
	if !detected {
		a.deps.logger().Warn("no test framework detected, skipping validation", "dir", workDir)
		return nil
	}

	passed, output, err := runner.Run(ctx, workDir, command, testTimeout)
	if err != nil {
		return fmt.Errorf("run tests: %w", err)
	}
	if passed {
		return nil
	}

	excerpt := output
	if len(excerpt) > recoveryExcerpt {
		excerpt = excerpt[:recoveryExcerpt]
	}
	recoveryPrompt := fmt.Sprintf(
		"The tests failed with the following output:\n\n%s\n\nFix the issue. Original task:\n\n%s",
		excerpt, originalPrompt,
	)
	if _, err := a.deps.Gen.Generate(ctx, recoveryPrompt, workDir, []string{"Read", "Edit", "Write", "Bash"}, generateTimeout); err != nil {
		return fmt.Errorf("recovery generation: %w", err)
	}

	passed, _, err = runner.Run(ctx, workDir, command, testTimeout)
	if err != nil {
		return fmt.Errorf("re-run tests: %w", err)
	}
	if !passed {
		return fmt.Errorf("tests still failing after one recovery attempt")
	}
	return nil
}

func branchName(kind domain.AgentKind, taskKind domain.TaskKind, issue int) string {
	verb := "fix"
	switch taskKind {
	case domain.TaskImplementFeature:
		verb = "feature"
	case domain.TaskFixBug:
		verb = "fix"
	case domain.TaskWriteTests:
		verb = "tests"
	case domain.TaskRefactor:
		verb = "refactor"
	}
	return fmt.Sprintf("%s/issue-%d", verb, issue)
}
