package gitpush

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func requireRsync(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("rsync"); err != nil {
		t.Skip("rsync binary not available")
	}
}

func initRepo(t *testing.T, dir string) {
	t.Helper()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
	}
	run("init")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test")
}

func TestCollaborator_IsDirty(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	initRepo(t, dir)

	c := New("", "", nil)

	dirty, err := c.IsDirty(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dirty {
		t.Fatal("expected clean repo with no files to be not dirty")
	}

	if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	dirty, err = c.IsDirty(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dirty {
		t.Fatal("expected dirty repo after adding untracked file")
	}
}

func TestCollaborator_CommitAndPush_NothingToCommit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	initRepo(t, dir)

	c := New("", "", nil)
	if err := c.CommitAndPush(context.Background(), dir, "main", "no-op commit"); err != nil {
		t.Fatalf("expected success with nothing to commit, got %v", err)
	}
}

func TestCollaborator_SyncWorkspace_ExcludesGitAndCaches(t *testing.T) {
	requireRsync(t)

	src := t.TempDir()
	dest := t.TempDir()

	mustWrite := func(base, rel string) {
		p := filepath.Join(base, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite(src, "main.go")
	mustWrite(src, "node_modules/pkg/index.js")
	mustWrite(src, ".git/HEAD")

	c := New("", "", nil)
	if err := c.SyncWorkspace(context.Background(), src, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dest, "main.go")); err != nil {
		t.Errorf("expected main.go to be synced: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "node_modules")); err == nil {
		t.Error("expected node_modules to be excluded")
	}
	if _, err := os.Stat(filepath.Join(dest, ".git")); err == nil {
		t.Error("expected .git to be excluded")
	}
}
