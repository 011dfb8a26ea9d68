package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shaiso/devpipeline/internal/domain"
	"github.com/shaiso/devpipeline/internal/upstream"
)

// qaAgent implements the review-oriented contract: fetch the pull
// request, fetch changed files, run tests and a light quality check,
// then emit an approving or change-request review (spec §4.6).
type qaAgent struct {
	deps Deps
}

func newQAAgent(deps Deps) *qaAgent {
	return &qaAgent{deps: deps}
}

func (a *qaAgent) Capabilities() []string {
	return []string{"fetch_pull_request", "run_tests", "quality_check", "submit_review"}
}

func (a *qaAgent) Execute(ctx context.Context, task domain.Task) (*domain.Result, error) {
	logger := a.deps.logger().With("agent_kind", domain.AgentQA, "repo", task.Repository, "pull_request", task.PullRequest)

	pr, err := a.deps.Upstream.GetPullRequest(ctx, task.PullRequest)
	if err != nil {
		return nil, fmt.Errorf("fetch pull request: %w", err)
	}

	files, err := a.deps.Upstream.ListChangedFiles(ctx, task.PullRequest)
	if err != nil {
		return nil, fmt.Errorf("fetch changed files: %w", err)
	}

	workDir := filepath.Join(a.deps.WorkspaceRoot, task.Repository)
	if task.WorkingCopyPath != "" {
		workDir = task.WorkingCopyPath
	}

	runner := a.deps.Runner
	if runner == nil {
		runner = NewShellTestRunner()
	}

	testsPassed := true
	var testOutput string
	if command, detected := runner.Detect(workDir); detected {
		testsPassed, testOutput, err = runner.Run(ctx, workDir, command, testTimeout)
		if err != nil {
			return nil, fmt.Errorf("run tests: %w", err)
		}
	} else {
		logger.Warn("no test framework detected for review, skipping test gate", "dir", workDir)
	}

	qualityOK, qualityNote := qualityCheck(files)

	approve := testsPassed && qualityOK

	if approve {
		if err := a.deps.Upstream.CreateReview(ctx, task.PullRequest, upstream.Review{Event: "APPROVE", Body: "All checks passed."}); err != nil {
			return nil, fmt.Errorf("submit approval: %w", err)
		}
		if err := a.deps.Upstream.MergePullRequest(ctx, task.PullRequest, "squash"); err != nil {
			logger.Warn("merge failed after approval", "error", err)
		} else if err := a.deps.Upstream.CloseIssue(ctx, task.Issue); err != nil {
			logger.Warn("close issue failed after merge", "error", err)
		}
		a.deps.annotate(ctx, "pipeline.task.completed", map[string]any{
			"agent_kind": domain.AgentQA, "repo": task.Repository, "pull_request": pr.Number, "approved": true,
		})
		return &domain.Result{Summary: fmt.Sprintf("approved and merged PR #%d", pr.Number)}, nil
	}

	reason := qualityNote
	if !testsPassed {
		excerpt := testOutput
		if len(excerpt) > recoveryExcerpt {
			excerpt = excerpt[:recoveryExcerpt]
		}
		reason = "tests failed:\n" + excerpt
	}
	if err := a.deps.Upstream.CreateReview(ctx, task.PullRequest, upstream.Review{Event: "REQUEST_CHANGES", Body: reason}); err != nil {
		return nil, fmt.Errorf("submit change request: %w", err)
	}
	if _, err := a.deps.Upstream.UpdateIssue(ctx, task.Issue, map[string]any{"labels": []string{"needs-revision"}}); err != nil {
		logger.Warn("label needs-revision failed", "error", err)
	}

	return nil, fmt.Errorf("review rejected: %s", reason)
}

// qualityCheck is a light, pattern-based scan over the changed file
// list; it is not a substitute for the real test gate, only a coarse
// second signal (spec §4.6: "light code-quality check").
func qualityCheck(files []upstream.ChangedFile) (bool, string) {
	for _, f := range files {
		if strings.Contains(f.Patch, "TODO") || strings.Contains(f.Patch, "FIXME") {
			return false, fmt.Sprintf("unresolved TODO/FIXME marker introduced in %s", f.Filename)
		}
		if f.Deletions > 0 && f.Additions == 0 && strings.HasSuffix(f.Filename, "_test.go") {
			return false, fmt.Sprintf("test file %s had only deletions", f.Filename)
		}
	}
	return true, ""
}
