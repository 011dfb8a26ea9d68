package domain

import "time"

// WorkerSnapshot — наблюдаемое состояние воркера одного вида агента,
// используется Pipeline Monitor для обнаружения зависших воркеров и
// Worker Pool для drain-detection.
type WorkerSnapshot struct {
	Kind AgentKind `json:"kind"`

	State WorkerState `json:"state"`

	// TaskStartedAt — момент начала текущей задачи; присутствует только
	// когда State == WorkerWorking.
	TaskStartedAt *time.Time `json:"task_started_at,omitempty"`
}

// StalledSince возвращает продолжительность пребывания в working и true,
// если воркер действительно находится в working с известным началом.
func (s WorkerSnapshot) StalledSince(now time.Time) (time.Duration, bool) {
	if s.State != WorkerWorking || s.TaskStartedAt == nil {
		return 0, false
	}
	return now.Sub(*s.TaskStartedAt), true
}

// MonitorState — наблюдаемое состояние Pipeline Monitor одного проекта.
type MonitorState struct {
	Running bool `json:"running"`

	// HandledRuns — идентификаторы CI-прогонов, окончательно обработанных
	// (успех, либо неудача на максимальном числе попыток).
	HandledRuns map[int64]bool `json:"handled_runs,omitempty"`

	// FixAttempts — число попыток авто-фикса на идентификатор прогона.
	FixAttempts map[int64]int `json:"fix_attempts,omitempty"`
}

// NewMonitorState возвращает пустое состояние монитора.
func NewMonitorState() *MonitorState {
	return &MonitorState{
		HandledRuns: make(map[int64]bool),
		FixAttempts: make(map[int64]int),
	}
}
