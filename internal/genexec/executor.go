package genexec

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/devpipeline/internal/domain"
	"github.com/shaiso/devpipeline/internal/errclass"
)

// reentrancyMarkerEnv is scrubbed from every subprocess's environment: a
// nested generation-CLI invocation (the diagnose-and-fix call running
// inside an agent's own generation call's working copy) would otherwise
// see this marker and refuse to start.
const reentrancyMarkerEnv = "CLAUDECODE"

// diagnoseTimeout bounds the shorter diagnose-and-fix sub-invocation.
const diagnoseTimeout = 60 * time.Second

// InvocationResult is the raw outcome of one subprocess call.
type InvocationResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes one generation-CLI subprocess call. Production code
// uses processRunner (below); tests inject a fake.
type Runner interface {
	Run(ctx context.Context, bin string, args []string, dir string, env []string, timeout time.Duration) (*InvocationResult, error)
}

// Executor is the single place where flaky generation is absorbed;
// every agent routes through Generate. One Executor instance is shared
// across every worker goroutine.
type Executor struct {
	runner Runner
	bin    string
	logger *slog.Logger
}

// New returns an Executor invoking bin via the OS process runner.
func New(bin string, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{runner: processRunner{}, bin: bin, logger: logger}
}

// NewWithRunner returns an Executor using a caller-supplied Runner,
// for tests.
func NewWithRunner(runner Runner, bin string, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{runner: runner, bin: bin, logger: logger}
}

// Invoke runs one raw subprocess call: -p <prompt> [--allowedTools <tool>...].
// A non-zero exit code is ErrGenerationFailed; exceeding timeout is
// ErrGenerationTimeout.
func (e *Executor) Invoke(ctx context.Context, prompt, dir string, allowedTools []string, timeout time.Duration) (*InvocationResult, error) {
	args := []string{"-p", prompt}
	if len(allowedTools) > 0 {
		args = append(args, "--allowedTools")
		args = append(args, allowedTools...)
	}

	env := scrubEnv(reentrancyMarkerEnv)

	result, err := e.runner.Run(ctx, e.bin, args, dir, env, timeout)
	if err != nil {
		return result, err
	}
	if result.ExitCode != 0 {
		return result, fmt.Errorf("%w: exit %d: %s", ErrGenerationFailed, result.ExitCode, firstNonEmpty(result.Stderr, result.Stdout))
	}
	return result, nil
}

// Generate is the self-healing envelope: up to three total tries with
// 2s/4s delays; between tries it attempts a diagnose-and-fix
// sub-invocation (issued through Invoke, so it never heals itself)
// unless the classified error is auth_error/permission. Healing
// success or failure is logged but never
// propagated — only the outer retries determine the final outcome.
func (e *Executor) Generate(ctx context.Context, prompt, dir string, allowedTools []string, timeout time.Duration) (*InvocationResult, error) {
	delays := []time.Duration{2 * time.Second, 4 * time.Second}
	const maxTries = 3

	var lastResult *InvocationResult
	var lastErr error

	for attempt := 0; attempt < maxTries; attempt++ {
		lastResult, lastErr = e.Invoke(ctx, prompt, dir, allowedTools, timeout)
		if lastErr == nil {
			return lastResult, nil
		}

		if attempt == maxTries-1 {
			break
		}

		e.tryHeal(ctx, dir, lastErr)

		select {
		case <-time.After(delays[attempt]):
		case <-ctx.Done():
			return lastResult, ctx.Err()
		}
	}

	return lastResult, lastErr
}

// tryHeal runs the bounded diagnose-and-fix sub-invocation when the
// classified error is neither auth_error nor permission. It never
// returns an error to the caller: success or failure is logged only.
func (e *Executor) tryHeal(ctx context.Context, dir string, failure error) {
	kind := errclass.ClassifyErr(failure)
	if kind == domain.ErrorAuth || kind == domain.ErrorPermission {
		e.logger.Debug("skipping self-heal for unrecoverable error kind", "kind", kind)
		return
	}

	prompt := fmt.Sprintf(
		"The previous command failed with a %s error:\n\n%s\n\nApply the minimal fix needed (install a missing package, create a missing file, etc). Do not make unrelated changes.",
		kind, failure.Error(),
	)

	result, err := e.Invoke(ctx, prompt, dir, []string{"Read", "Edit", "Write", "Bash"}, diagnoseTimeout)
	if err != nil {
		e.logger.Warn("self-heal attempt failed", "error", err)
		return
	}
	e.logger.Info("self-heal attempt completed", "duration", result.Duration)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
