package domain

import "time"

// Project — пользовательский проект, управляемый реестром (registry.Registry).
//
// Идентифицируется стабильным именем (обычно с меткой времени создания,
// например "shopfront-20260712-143000"). Только реестр вправе изменять
// поля Project — остальные компоненты читают снимок через Registry.Get.
type Project struct {
	// Name — стабильный идентификатор проекта, не меняется после создания.
	Name string `json:"name"`

	// WorkspaceDir — путь к рабочему каталогу проекта на диске.
	WorkspaceDir string `json:"workspace_dir"`

	// Requirements — исходное текстовое описание продукта от пользователя.
	Requirements string `json:"requirements"`

	// Repository — владелец/имя репозитория апстрим-провайдера,
	// пустая строка пока репозиторий не создан.
	Repository string `json:"repository,omitempty"`

	// Status — текущая стадия жизненного цикла.
	Status ProjectStatus `json:"status"`

	// PublishedURL — публичный адрес после успешного деплоя.
	PublishedURL string `json:"published_url,omitempty"`

	// CreatedAt — момент создания, не меняется.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — момент последней мутации, используется при восстановлении
	// реестра для выбора "самого свежего" проекта как активного.
	UpdatedAt time.Time `json:"updated_at"`
}

// HasRepository возвращает true, если у проекта есть апстрим-репозиторий —
// условие, необходимое для запуска Pipeline Monitor по этому проекту.
func (p *Project) HasRepository() bool {
	return p.Repository != ""
}

// MetadataPath — путь к атомарно записываемому файлу метаданных проекта,
// см. §6 Persisted State Layout.
func (p *Project) MetadataPath() string {
	return p.WorkspaceDir + "/.project_metadata.json"
}

// Touch обновляет UpdatedAt и, опционально, статус.
func (p *Project) Touch(status ProjectStatus) {
	if status != "" {
		p.Status = status
	}
	p.UpdatedAt = time.Now()
}
