package workerpool

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/devpipeline/internal/domain"
	"github.com/shaiso/devpipeline/internal/genexec"
)

const diagnosisTimeout = 30 * time.Second

// Diagnoser produces a short, bounded explanation of a task failure for
// the upstream-visible annotation (spec §4.7: "diagnosis = generation_cli.ask_diagnosis(...)").
type Diagnoser interface {
	Diagnose(ctx context.Context, task domain.Task, failure error) (string, error)
}

type genDiagnoser struct {
	executor *genexec.Executor
}

// NewDiagnoser returns a Diagnoser backed by the generation-CLI
// executor's raw Invoke (not the self-healing Generate): this call is
// read-only explanation, not a repair attempt, so it must not recurse
// into its own healing envelope.
func NewDiagnoser(executor *genexec.Executor) Diagnoser {
	return genDiagnoser{executor: executor}
}

func (d genDiagnoser) Diagnose(ctx context.Context, task domain.Task, failure error) (string, error) {
	prompt := fmt.Sprintf(
		"Task for issue #%d in %s failed with:\n\n%s\n\nIn one or two sentences, explain the likely cause.",
		task.Issue, task.Repository, failure.Error(),
	)
	result, err := d.executor.Invoke(ctx, prompt, "", nil, diagnosisTimeout)
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}
