package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shaiso/devpipeline/internal/domain"
)

// MonitorController — та часть оркестратора, которая умеет запускать и
// останавливать Pipeline Monitor для конкретного проекта. Реестр не
// знает о внутренностях internal/monitor — только о том, что монитор
// можно запустить и остановить.
type MonitorController interface {
	StartMonitor(ctx context.Context, project domain.Project) error
	StopMonitor(project domain.Project)
}

// Config настраивает Registry.
type Config struct {
	WorkspaceRoot string
	Monitors      MonitorController
	Logger        *slog.Logger
}

// Registry — карта проектов в памяти плюс указатель активного проекта
// (§4.9). Мутация линеаризуема по соглашению: единственный писатель на
// границе оркестратора; читатели из других горутин терпимы к
// устаревшим, но не к разорванным записям.
type Registry struct {
	workspaceRoot string
	monitors      MonitorController
	logger        *slog.Logger

	mu       sync.RWMutex
	projects map[string]*domain.Project
	active   string
}

// New returns an empty Registry. Call Restore to populate it from disk.
func New(cfg Config) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		workspaceRoot: cfg.WorkspaceRoot,
		monitors:      cfg.Monitors,
		logger:        logger,
		projects:      make(map[string]*domain.Project),
	}
}

// Restore scans the workspace root for per-project metadata files,
// loads every project found, and selects the most recently updated one
// as active.
func (r *Registry) Restore(ctx context.Context) error {
	entries, err := os.ReadDir(r.workspaceRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read workspace root: %w", err)
	}

	var mu sync.Mutex
	loaded := make(map[string]*domain.Project)

	// Metadata files are independent on-disk reads, one per project
	// directory; gathering them concurrently keeps Restore fast on a
	// workspace root with many projects without affecting which one
	// ends up "most recently updated" (that comparison happens after
	// every read has landed, not in read order).
	eg, _ := errgroup.WithContext(ctx)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		entry := entry
		eg.Go(func() error {
			metaPath := filepath.Join(r.workspaceRoot, entry.Name(), ".project_metadata.json")
			project, err := readProjectMetadata(metaPath)
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				r.logger.Error("failed to load project metadata", "path", metaPath, "error", err)
				return nil
			}
			mu.Lock()
			loaded[project.Name] = project
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	var newest *domain.Project
	for _, project := range loaded {
		if newest == nil || project.UpdatedAt.After(newest.UpdatedAt) {
			newest = project
		}
	}

	r.mu.Lock()
	r.projects = loaded
	if newest != nil {
		r.active = newest.Name
	}
	r.mu.Unlock()

	if newest != nil && newest.HasRepository() && r.monitors != nil {
		if err := r.monitors.StartMonitor(ctx, *newest); err != nil {
			r.logger.Error("failed to start monitor for restored active project", "project", newest.Name, "error", err)
		}
	}

	r.logger.Info("registry restored", "projects", len(loaded), "active", r.active)
	return nil
}

func readProjectMetadata(path string) (*domain.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var project domain.Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &project, nil
}

// Create registers a brand-new project, persists its metadata, and
// returns the stored record. It does not change the active project.
func (r *Registry) Create(ctx context.Context, name, requirements string) (domain.Project, error) {
	now := time.Now()
	project := domain.Project{
		Name:         name,
		WorkspaceDir: filepath.Join(r.workspaceRoot, name),
		Requirements: requirements,
		Status:       domain.ProjectReadyForDevelopment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := os.MkdirAll(project.WorkspaceDir, 0o755); err != nil {
		return domain.Project{}, fmt.Errorf("create workspace dir: %w", err)
	}
	if err := persist(&project); err != nil {
		return domain.Project{}, err
	}

	r.mu.Lock()
	r.projects[name] = &project
	r.mu.Unlock()

	return project, nil
}

// Get returns a copy of a project record by name.
func (r *Registry) Get(name string) (domain.Project, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[name]
	if !ok {
		return domain.Project{}, false
	}
	return *p, true
}

// List returns a copy of every project record, unordered.
func (r *Registry) List() []domain.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Project, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, *p)
	}
	return out
}

// Active returns the currently active project, if any.
func (r *Registry) Active() (domain.Project, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == "" {
		return domain.Project{}, false
	}
	p, ok := r.projects[r.active]
	if !ok {
		return domain.Project{}, false
	}
	return *p, true
}

// Update applies mutate to the named project, touches it, persists the
// result, and returns the updated copy.
func (r *Registry) Update(ctx context.Context, name string, status domain.ProjectStatus, mutate func(*domain.Project)) (domain.Project, error) {
	r.mu.Lock()
	p, ok := r.projects[name]
	if !ok {
		r.mu.Unlock()
		return domain.Project{}, fmt.Errorf("project %q not found", name)
	}
	if mutate != nil {
		mutate(p)
	}
	p.Touch(status)
	snapshot := *p
	r.mu.Unlock()

	if err := persist(&snapshot); err != nil {
		return domain.Project{}, err
	}
	return snapshot, nil
}

// Switch makes name the active project: stops the outgoing project's
// monitor (if any), moves the pointer, then starts a monitor for the
// incoming project if it has an upstream repository handle (§4.9).
func (r *Registry) Switch(ctx context.Context, name string) error {
	r.mu.Lock()
	incoming, ok := r.projects[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("project %q not found", name)
	}
	outgoingName := r.active
	var outgoing *domain.Project
	if outgoingName != "" && outgoingName != name {
		outgoing = r.projects[outgoingName]
	}
	r.active = name
	incomingCopy := *incoming
	r.mu.Unlock()

	if outgoing != nil && outgoing.HasRepository() && r.monitors != nil {
		r.monitors.StopMonitor(*outgoing)
	}

	if incomingCopy.HasRepository() && r.monitors != nil {
		if err := r.monitors.StartMonitor(ctx, incomingCopy); err != nil {
			return fmt.Errorf("start monitor for %q: %w", name, err)
		}
	}

	return nil
}

// persist writes a project's metadata file atomically: write-to-temp
// in the same directory, fsync, then rename (§6 Persisted State
// Layout).
func persist(project *domain.Project) error {
	data, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project metadata: %w", err)
	}

	path := project.MetadataPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".project_metadata-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}

	success = true
	return nil
}
