package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrNoActiveProject — команда требует активный проект, но реестр пуст.
	ErrNoActiveProject = errors.New("no active project")

	// ErrNoRepository — у активного проекта ещё нет апстрим-репозитория.
	ErrNoRepository = errors.New("project has no upstream repository")

	// ErrWorkersRunning — воркеры уже запущены.
	ErrWorkersRunning = errors.New("workers already running")

	// ErrWorkersNotRunning — воркеры не запущены.
	ErrWorkersNotRunning = errors.New("workers not running")

	// ErrMonitorRunning — монитор для проекта уже запущен.
	ErrMonitorRunning = errors.New("monitor already running for this project")
)
