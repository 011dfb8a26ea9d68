// Package cli содержит команды инструмента командной строки (§6:
// "implemented as cobra subcommands calling directly into the
// orchestrator's Go API — no intermediate HTTP hop is required").
//
// Структура:
//   - output.go  — форматирование вывода (таблица/JSON)
//   - project.go — create/list/switch project
//   - pipeline.go — run pipeline/assign issues/run tests
//   - worker.go  — start/stop/status workers
//   - monitor.go — start/stop/status monitor
//   - deploy.go  — deploy/redeploy
package cli
