package deploy

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// commandRunner executes one subprocess call and returns its combined
// output. Production code uses processRunner; tests inject a fake.
type commandRunner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (output string, err error)
}

type processRunner struct{}

func (processRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	output := out.String()

	if ctx.Err() == context.DeadlineExceeded {
		return output, fmt.Errorf("%s %v: %w", name, args, context.DeadlineExceeded)
	}
	if err != nil {
		return output, fmt.Errorf("%s %v: %w: %s", name, args, err, output)
	}
	return output, nil
}
