// Package api содержит HTTP control surface оркестратора.
//
// Структура:
//   - handler.go    — Handler с DI (оркестратор, logger)
//   - routes.go     — регистрация маршрутов
//   - middleware.go — middleware (logging, recovery)
//   - response.go   — унифицированные JSON-ответы и обработка ошибок
//   - dto.go         — request/response DTO
//   - project_handler.go — /api/v1/projects
//   - pipeline_handler.go — /api/v1/pipeline, /api/v1/issues
//   - worker_handler.go   — /api/v1/workers
//   - monitor_handler.go  — /api/v1/monitor
//   - deploy_handler.go   — /api/v1/deploy
//
// API — тонкий слой над internal/orchestrator: ни один обработчик не
// обращается к реестру, пулу воркеров или монитору напрямую.
package api
