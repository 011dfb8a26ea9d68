package upstream

import (
	"context"
	"fmt"

	"github.com/shaiso/devpipeline/internal/domain"
)

// Annotator posts worker-pool task outcomes back onto the originating
// issue: a completion comment, or a failure comment plus a
// "needs-attention" label with the machine-written diagnosis (spec
// §4.7, §7: "upstream issue is labeled needs-attention with a
// machine-written diagnosis").
type Annotator struct {
	client *Client
}

// NewAnnotator returns an Annotator posting through client.
func NewAnnotator(client *Client) *Annotator {
	return &Annotator{client: client}
}

func (a *Annotator) AnnotateCompletion(ctx context.Context, task domain.Task, result *domain.Result) error {
	body := fmt.Sprintf("**%s** completed: %s", task.AssignedAgent, result.Summary)
	return a.client.CreateIssueComment(ctx, task.Issue, body)
}

func (a *Annotator) AnnotateFailure(ctx context.Context, task domain.Task, diagnosis string) error {
	body := fmt.Sprintf("**%s** failed.\n\nDiagnosis: %s", task.AssignedAgent, diagnosis)
	if err := a.client.CreateIssueComment(ctx, task.Issue, body); err != nil {
		return err
	}
	_, err := a.client.UpdateIssue(ctx, task.Issue, map[string]any{"labels": []string{"needs-attention"}})
	return err
}
