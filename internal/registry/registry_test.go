package registry

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/devpipeline/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeMonitors struct {
	mu      sync.Mutex
	started []string
	stopped []string
}

func (f *fakeMonitors) StartMonitor(ctx context.Context, project domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, project.Name)
	return nil
}

func (f *fakeMonitors) StopMonitor(project domain.Project) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, project.Name)
}

func TestRegistry_CreateAndGet(t *testing.T) {
	root := t.TempDir()
	r := New(Config{WorkspaceRoot: root, Logger: discardLogger()})

	p, err := r.Create(context.Background(), "demo-20260731", "a todo app")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.WorkspaceDir != filepath.Join(root, "demo-20260731") {
		t.Errorf("unexpected workspace dir: %s", p.WorkspaceDir)
	}

	got, ok := r.Get("demo-20260731")
	if !ok {
		t.Fatal("expected project to be found")
	}
	if got.Requirements != "a todo app" {
		t.Errorf("unexpected requirements: %s", got.Requirements)
	}
}

func TestRegistry_Restore_PicksMostRecentlyUpdatedAsActive(t *testing.T) {
	root := t.TempDir()
	mon := &fakeMonitors{}
	r := New(Config{WorkspaceRoot: root, Monitors: mon, Logger: discardLogger()})

	ctx := context.Background()
	old, err := r.Create(ctx, "old-proj", "first")
	if err != nil {
		t.Fatal(err)
	}
	old.Repository = "acme/old-proj"
	old.UpdatedAt = time.Now().Add(-1 * time.Hour)
	if err := persist(&old); err != nil {
		t.Fatal(err)
	}

	newer, err := r.Create(ctx, "newer-proj", "second")
	if err != nil {
		t.Fatal(err)
	}
	newer.Repository = "acme/newer-proj"
	newer.UpdatedAt = time.Now()
	if err := persist(&newer); err != nil {
		t.Fatal(err)
	}

	r2 := New(Config{WorkspaceRoot: root, Monitors: mon, Logger: discardLogger()})
	if err := r2.Restore(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	active, ok := r2.Active()
	if !ok {
		t.Fatal("expected an active project after restore")
	}
	if active.Name != "newer-proj" {
		t.Errorf("expected newer-proj active, got %s", active.Name)
	}

	mon.mu.Lock()
	defer mon.mu.Unlock()
	if len(mon.started) != 1 || mon.started[0] != "newer-proj" {
		t.Errorf("expected monitor started for newer-proj, got %v", mon.started)
	}
}

func TestRegistry_Switch_StopsOutgoingStartsIncoming(t *testing.T) {
	root := t.TempDir()
	mon := &fakeMonitors{}
	r := New(Config{WorkspaceRoot: root, Monitors: mon, Logger: discardLogger()})

	ctx := context.Background()
	a, _ := r.Create(ctx, "project-a", "a")
	a.Repository = "acme/a"
	persist(&a)
	r.projects["project-a"] = &a

	b, _ := r.Create(ctx, "project-b", "b")
	b.Repository = "acme/b"
	persist(&b)
	r.projects["project-b"] = &b

	r.mu.Lock()
	r.active = "project-a"
	r.mu.Unlock()

	if err := r.Switch(ctx, "project-b"); err != nil {
		t.Fatalf("switch failed: %v", err)
	}

	active, _ := r.Active()
	if active.Name != "project-b" {
		t.Errorf("expected project-b active, got %s", active.Name)
	}

	mon.mu.Lock()
	defer mon.mu.Unlock()
	if len(mon.stopped) != 1 || mon.stopped[0] != "project-a" {
		t.Errorf("expected project-a monitor stopped, got %v", mon.stopped)
	}
	if len(mon.started) != 1 || mon.started[0] != "project-b" {
		t.Errorf("expected project-b monitor started, got %v", mon.started)
	}
}

func TestRegistry_Update_PersistsAndTouches(t *testing.T) {
	root := t.TempDir()
	r := New(Config{WorkspaceRoot: root, Logger: discardLogger()})

	ctx := context.Background()
	_, err := r.Create(ctx, "demo", "reqs")
	if err != nil {
		t.Fatal(err)
	}

	updated, err := r.Update(ctx, "demo", domain.ProjectPipelineRunning, func(p *domain.Project) {
		p.Repository = "acme/demo"
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Status != domain.ProjectPipelineRunning {
		t.Errorf("expected status updated, got %s", updated.Status)
	}
	if updated.Repository != "acme/demo" {
		t.Errorf("expected repository set, got %s", updated.Repository)
	}

	reloaded, err := readProjectMetadata(updated.MetadataPath())
	if err != nil {
		t.Fatalf("failed to reload persisted metadata: %v", err)
	}
	if reloaded.Status != domain.ProjectPipelineRunning {
		t.Errorf("persisted status mismatch: %s", reloaded.Status)
	}
}
