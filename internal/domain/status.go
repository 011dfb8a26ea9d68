package domain

// AgentKind — одна из фиксированных ролей агента.
//
// Набор ролей фиксирован на этапе компиляции: никакой рантайм-регистрации
// новых видов агентов не предусмотрено (см. agent.New).
type AgentKind string

const (
	AgentProductManager AgentKind = "product_manager"
	AgentProjectManager AgentKind = "project_manager"
	AgentBackend        AgentKind = "backend"
	AgentFrontend       AgentKind = "frontend"
	AgentDatabase       AgentKind = "database"
	AgentDevOps         AgentKind = "devops"
	AgentQA             AgentKind = "qa"
)

// AllAgentKinds — порядок обхода, используемый классификатором issue
// для разрешения ничьих по очкам (см. issueclassifier.Classify).
var AllAgentKinds = []AgentKind{
	AgentBackend,
	AgentFrontend,
	AgentDatabase,
	AgentDevOps,
	AgentQA,
	AgentProjectManager,
	AgentProductManager,
}

// ProducingKinds — агенты, чей execute-конверт идёт по полному циклу
// branch → workspace → generate → validate → publish → review → annotate.
var ProducingKinds = map[AgentKind]bool{
	AgentBackend:  true,
	AgentFrontend: true,
	AgentDatabase: true,
}

// TaskKind — вид задачи, адресованной конкретному агенту.
type TaskKind string

const (
	TaskImplementFeature TaskKind = "implement_feature"
	TaskFixBug           TaskKind = "fix_bug"
	TaskWriteTests       TaskKind = "write_tests"
	TaskRefactor         TaskKind = "refactor"
	TaskReviewPR         TaskKind = "review_pr"
)

// TrackingStatus — статус записи слежения за парой (repository, issue).
type TrackingStatus string

const (
	TrackingPending    TrackingStatus = "pending"
	TrackingInProgress TrackingStatus = "in_progress"
	TrackingCompleted  TrackingStatus = "completed"
	TrackingFailed     TrackingStatus = "failed"
)

// IsTerminal возвращает true для completed/failed. Store.Complete и
// Store.Fail терминальную запись не перезаписывают; её заменяет только
// новая постановка задачи по той же паре (Enqueue) или истечение TTL.
func (s TrackingStatus) IsTerminal() bool {
	return s == TrackingCompleted || s == TrackingFailed
}

// WorkerState — текущее состояние воркера одного вида агента.
type WorkerState string

const (
	WorkerIdle    WorkerState = "idle"
	WorkerPolling WorkerState = "polling"
	WorkerWorking WorkerState = "working"
	WorkerError   WorkerState = "error"
	WorkerStopped WorkerState = "stopped"
)

// Drained возвращает true, если состояние совместимо с "очередь пуста":
// idle, polling и stopped не держат задачу; working — держит.
func (s WorkerState) Drained() bool {
	switch s {
	case WorkerIdle, WorkerPolling, WorkerStopped:
		return true
	default:
		return false
	}
}

// ProjectStatus — статус жизненного цикла проекта.
type ProjectStatus string

const (
	ProjectReadyForDevelopment ProjectStatus = "ready_for_development"
	ProjectPipelineRunning     ProjectStatus = "pipeline_running"
	ProjectPipelineComplete    ProjectStatus = "pipeline_complete"
	ProjectDeployed            ProjectStatus = "deployed"
)

// ErrorKind — классификация ошибки, возвращаемая errclass.Classify.
//
// Это набор значений, не набор типов: один и тот же ErrorKind может
// происходить из множества разных error-ов, сформированных разными
// коллабораторами (generation CLI, broker, upstream provider).
type ErrorKind string

const (
	ErrorRateLimit    ErrorKind = "rate_limit"
	ErrorImport       ErrorKind = "import_error"
	ErrorAuth         ErrorKind = "auth_error"
	ErrorFileNotFound ErrorKind = "file_not_found"
	ErrorPermission   ErrorKind = "permission"
	ErrorGeneric      ErrorKind = "generic"
)
