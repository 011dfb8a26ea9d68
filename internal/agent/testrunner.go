package agent

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// TestRunner abstracts "detect a test framework, run it" so a future
// framework-specific adapter can replace the generic shell-based one
// without touching the producing-agent envelope (spec §9 open question
// on the QA pass/fail heuristic).
type TestRunner interface {
	// Detect reports the test command to run for dir, and whether any
	// known framework was found at all.
	Detect(dir string) (command []string, detected bool)
	// Run executes command in dir with the given timeout. passed is true
	// only when the command exits zero; output is combined stdout+stderr,
	// used both for display and for the recovery-prompt context.
	Run(ctx context.Context, dir string, command []string, timeout time.Duration) (passed bool, output string, err error)
}

// shellTestRunner detects a handful of well-known project layouts and
// shells out to their conventional test command.
type shellTestRunner struct{}

// NewShellTestRunner returns the default TestRunner.
func NewShellTestRunner() TestRunner {
	return shellTestRunner{}
}

func (shellTestRunner) Detect(dir string) ([]string, bool) {
	exists := func(rel string) bool {
		_, err := os.Stat(filepath.Join(dir, rel))
		return err == nil
	}

	switch {
	case exists("go.mod"):
		return []string{"go", "test", "./..."}, true
	case exists("package.json"):
		return []string{"npm", "test", "--silent"}, true
	case exists("pytest.ini") || exists("setup.cfg") || exists("pyproject.toml") || exists("requirements.txt"):
		return []string{"pytest"}, true
	case exists("Gemfile"):
		return []string{"bundle", "exec", "rspec"}, true
	default:
		return nil, false
	}
}

func (shellTestRunner) Run(ctx context.Context, dir string, command []string, timeout time.Duration) (bool, string, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, command[0], command[1:]...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	output := out.String()

	if runCtx.Err() != nil {
		return false, output, runCtx.Err()
	}
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return false, output, nil
		}
		return false, output, err
	}
	return !containsFailureMarker(output), output, nil
}

// containsFailureMarker catches the case where a test runner exits zero
// but still printed a textual failure summary (e.g. a wrapper script
// swallowing the real exit code).
func containsFailureMarker(output string) bool {
	lower := strings.ToLower(output)
	markers := []string{"failures:", "failed:", "error:", "assertionerror"}
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
