package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LogLevel определяет уровень логирования из переменной окружения.
// Возможные значения: DEBUG, INFO, WARN, ERROR
// По умолчанию: INFO
func LogLevel() slog.Level {
	level := os.Getenv("LOG_LEVEL")
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger инициализирует глобальный логгер.
//
// Формат вывода определяется переменной LOG_FORMAT:
//   - "json" (по умолчанию) — JSON формат для production
//   - "text" — человекочитаемый формат для разработки
func SetupLogger() *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     LogLevel(),
		AddSource: LogLevel() == slog.LevelDebug,
	}

	format := os.Getenv("LOG_FORMAT")
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// Ключи контекста для передачи данных в логгер.
type ctxKey string

const (
	// CtxLogger — ключ для логгера в контексте.
	CtxLogger ctxKey = "logger"
)

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, CtxLogger, logger)
}

// FromContext извлекает логгер из контекста.
// Если логгер не найден, возвращает глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(CtxLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithRunID возвращает логгер с добавленным run_id.
func WithRunID(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With("run_id", runID)
}

// WithTaskID возвращает логгер с добавленным task_id.
func WithTaskID(logger *slog.Logger, taskID string) *slog.Logger {
	return logger.With("task_id", taskID)
}

// WithProject возвращает логгер с добавленным project.
func WithProject(logger *slog.Logger, project string) *slog.Logger {
	return logger.With("project", project)
}

// WithAgentKind возвращает логгер с добавленным agent_kind.
func WithAgentKind(logger *slog.Logger, kind string) *slog.Logger {
	return logger.With("agent_kind", kind)
}

// WithTask возвращает логгер с добавленными repository/issue.
func WithTask(logger *slog.Logger, repository string, issue int) *slog.Logger {
	return logger.With("repository", repository, "issue", issue)
}

// NewNamed создаёт именованный логгер, дополнительно пишущий по одному
// JSON-lines файлу в день в каталог logDir (см. dailyfile.go). Если
// logDir пусто, логгер пишет только в stdout — собственным
// JSON-обработчиком, независимо от LOG_FORMAT и от SetupLogger.
//
// Соответствует паттерну StructuredLogger(name, log_file, ...) оригинала:
// там каждый логгер получает собственный FileHandler, здесь — собственный
// дневной ротатор поверх общего JSON slog.Handler.
func NewNamed(name string, logDir string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     LogLevel(),
		AddSource: LogLevel() == slog.LevelDebug,
	}

	var writer io.Writer = os.Stdout
	if logDir != "" {
		writer = io.MultiWriter(os.Stdout, newDailyFile(logDir, name))
	}

	handler := slog.NewJSONHandler(writer, opts)
	return slog.New(handler).With("logger", name)
}
