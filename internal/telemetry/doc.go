// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog, с опциональным
//     дневным ротатором, пишущим по одному JSON-lines файлу в день
//     на именованный логгер (§6 Persisted State Layout)
//   - dailyfile.go — сам дневной ротатор (io.Writer)
//
// Все сервисы используют единый формат логирования. Метрик пакет не
// определяет: /metrics в cmd/ и internal/api отдаёт стандартный
// promhttp.Handler.
package telemetry
