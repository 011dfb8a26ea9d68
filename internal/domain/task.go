package domain

import "time"

// Task — единица работы, адресованная конкретному виду агента.
//
// Task неизменяема после постановки в очередь (§3): серединный путь к
// доработке — завершить её и поставить новую. Сериализованная форма —
// это канонический идентификатор внутри очереди с приоритетом: два
// Task с одинаковым TaskKind/Repository/Issue, но разным EnqueuedAt,
// различны.
type Task struct {
	// Kind — вид задачи (implement_feature, fix_bug, write_tests, refactor, review_pr).
	Kind TaskKind `json:"task_kind"`

	// Repository — владелец/имя целевого репозитория.
	Repository string `json:"repository"`

	// Issue — номер целевого issue у апстрим-провайдера.
	Issue int `json:"issue"`

	// PullRequest — номер PR; заполнено только для задач review_pr.
	PullRequest int `json:"pull_request,omitempty"`

	// WorkingCopyPath — путь к локальной рабочей копии репозитория.
	WorkingCopyPath string `json:"working_copy_path,omitempty"`

	// AssignedAgent — вид агента, которому адресована задача.
	AssignedAgent AgentKind `json:"assigned_agent"`

	// EnqueuedAt — момент постановки в очередь.
	EnqueuedAt time.Time `json:"enqueued_at"`

	// Title/Body — заголовок и тело issue, снятые при постановке в очередь,
	// чтобы агенту не нужно было повторно резолвить их с нуля.
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

// TrackingKey возвращает ключ записи слежения (repository, issue).
func (t *Task) TrackingKey() (string, int) {
	return t.Repository, t.Issue
}

// Result — результат выполнения задачи агентом (agent.Agent.Execute).
type Result struct {
	// Summary — краткое описание сделанного, усекается при записи в
	// запись слежения.
	Summary string

	// PullRequestID — номер открытого PR, если задача его создала.
	// Непустое значение из задачи producing-агента запускает постановку
	// задачи review_pr в очередь QA (§4.7).
	PullRequestID int

	// Diagnosis — машинно-сгенерированный текст диагностики, приложенный
	// к аннотации на апстрим-провайдере при неудаче.
	Diagnosis string
}

// TrackingRecord — авторитетное состояние пары (repository, issue)
// в Assignment Store. Мутируется только через enqueue/claim_next/
// complete/fail.
type TrackingRecord struct {
	Repository    string         `json:"repository"`
	Issue         int            `json:"issue"`
	AssignedAgent AgentKind      `json:"assigned_agent"`
	Status        TrackingStatus `json:"status"`

	EnqueuedAt  time.Time  `json:"enqueued_at"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ResultSummary/ErrorText — усечены до 500 байт при записи,
	// вслед за поведением оригинального assignment-менеджера.
	ResultSummary string `json:"result_summary,omitempty"`
	ErrorText     string `json:"error_text,omitempty"`
}

const trackingTruncateLen = 500

func truncate(s string) string {
	if len(s) <= trackingTruncateLen {
		return s
	}
	return s[:trackingTruncateLen]
}

// MarkInProgress переводит запись в in_progress, проставляя время захвата.
func (r *TrackingRecord) MarkInProgress(agent AgentKind) {
	now := time.Now()
	r.AssignedAgent = agent
	r.Status = TrackingInProgress
	r.ClaimedAt = &now
}

// MarkCompleted переводит запись в терминальное состояние completed.
func (r *TrackingRecord) MarkCompleted(summary string) {
	now := time.Now()
	r.Status = TrackingCompleted
	r.CompletedAt = &now
	r.ResultSummary = truncate(summary)
}

// MarkFailed переводит запись в терминальное состояние failed.
func (r *TrackingRecord) MarkFailed(errText string) {
	now := time.Now()
	r.Status = TrackingFailed
	r.CompletedAt = &now
	r.ErrorText = truncate(errText)
}
