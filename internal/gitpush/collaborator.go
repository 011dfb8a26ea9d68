package gitpush

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// excludedPaths is never synced from a working copy back into the
// tracked clone: VCS metadata and the various per-language dependency
// caches an agent's generation run may have populated locally.
var excludedPaths = []string{
	".git",
	"node_modules",
	"__pycache__",
	".venv",
	"venv",
	".pytest_cache",
	"dist",
	"build",
	".DS_Store",
	"*.pyc",
}

const defaultCommandTimeout = 2 * time.Minute

// Collaborator shells out to git and rsync to move a generated working
// copy into a pushable repository clone.
type Collaborator struct {
	gitBin   string
	rsyncBin string
	logger   *slog.Logger
	timeout  time.Duration
}

// New returns a Collaborator using the given git/rsync binaries (empty
// strings default to "git"/"rsync" resolved from PATH).
func New(gitBin, rsyncBin string, logger *slog.Logger) *Collaborator {
	if gitBin == "" {
		gitBin = "git"
	}
	if rsyncBin == "" {
		rsyncBin = "rsync"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collaborator{gitBin: gitBin, rsyncBin: rsyncBin, logger: logger, timeout: defaultCommandTimeout}
}

func (c *Collaborator) run(ctx context.Context, dir, bin string, args ...string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("%w: %s %s: %v: %s", ErrCommandFailed, bin, strings.Join(args, " "), err, out.String())
	}
	return out.String(), nil
}

// Clone performs a shallow, single-branch clone of url's ref into destDir.
func (c *Collaborator) Clone(ctx context.Context, url, ref, destDir string) error {
	_, err := c.run(ctx, "", c.gitBin, "clone", "--depth", "1", "--branch", ref, url, destDir)
	if err != nil {
		return fmt.Errorf("clone %s@%s: %w", url, ref, err)
	}
	return nil
}

// SyncWorkspace mirrors srcDir's contents into destDir, deleting files
// in destDir that no longer exist in srcDir, excluding VCS metadata and
// dependency caches.
func (c *Collaborator) SyncWorkspace(ctx context.Context, srcDir, destDir string) error {
	args := []string{"-a", "--delete"}
	for _, p := range excludedPaths {
		args = append(args, "--exclude", p)
	}
	args = append(args, ensureTrailingSlash(srcDir), destDir)

	if _, err := c.run(ctx, "", c.rsyncBin, args...); err != nil {
		return fmt.Errorf("sync workspace %s -> %s: %w", srcDir, destDir, err)
	}
	return nil
}

// IsDirty reports whether dir has any uncommitted changes.
func (c *Collaborator) IsDirty(ctx context.Context, dir string) (bool, error) {
	out, err := c.run(ctx, dir, c.gitBin, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("status: %w", err)
	}
	return strings.TrimSpace(out) != "", nil
}

// CommitAndPush stages all changes, commits with message, and pushes
// branch to origin. If the working copy has nothing to commit, it
// returns success without attempting a push.
func (c *Collaborator) CommitAndPush(ctx context.Context, dir, branch, message string) error {
	dirty, err := c.IsDirty(ctx, dir)
	if err != nil {
		return err
	}
	if !dirty {
		c.logger.Info("nothing to commit", "dir", dir, "branch", branch)
		return nil
	}

	if _, err := c.run(ctx, dir, c.gitBin, "add", "-A"); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	if _, err := c.run(ctx, dir, c.gitBin, "commit", "-m", message); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if _, err := c.run(ctx, dir, c.gitBin, "push", "origin", branch); err != nil {
		return fmt.Errorf("push: %w", err)
	}

	c.logger.Info("pushed commit", "dir", dir, "branch", branch)
	return nil
}

// InitWorkspace initializes a fresh git repository in dir and points its
// origin remote at url, for the canonical self-healing workspace
// variant where a project's workspace is provisioned explicitly rather
// than assumed to already be a clone.
func (c *Collaborator) InitWorkspace(ctx context.Context, dir, url string) error {
	if _, err := c.run(ctx, dir, c.gitBin, "init"); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if _, err := c.run(ctx, dir, c.gitBin, "remote", "add", "origin", url); err != nil {
		return fmt.Errorf("remote add: %w", err)
	}
	return nil
}

func ensureTrailingSlash(path string) string {
	if strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}
