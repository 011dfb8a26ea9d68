package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// dailyFile is an io.Writer that appends to "<dir>/<name>-YYYY-MM-DD.jsonl",
// opening a new file whenever the calendar day rolls over. It mirrors the
// per-logger FileHandler the Python original opens at construction time,
// generalized to roll daily since slog handlers are long-lived for the
// life of the process rather than re-created per run.
type dailyFile struct {
	mu      sync.Mutex
	dir     string
	name    string
	day     string
	current *os.File
}

// newDailyFile returns a writer rooted at dir for the named logger.
// The directory is created (including parents) on first write.
func newDailyFile(dir, name string) *dailyFile {
	return &dailyFile{dir: dir, name: name}
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	day := time.Now().Format("2006-01-02")
	if d.current == nil || day != d.day {
		if err := os.MkdirAll(d.dir, 0o755); err != nil {
			return 0, fmt.Errorf("create log dir: %w", err)
		}
		path := filepath.Join(d.dir, fmt.Sprintf("%s-%s.jsonl", d.name, day))
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, fmt.Errorf("open log file: %w", err)
		}
		if d.current != nil {
			_ = d.current.Close()
		}
		d.current = f
		d.day = day
	}

	return d.current.Write(p)
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return nil
	}
	return d.current.Close()
}
