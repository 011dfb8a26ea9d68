package domain

// PortAllocation — постоянное отображение имени проекта на выделенный
// порт хоста (§3, §4.10 step 2). Хранится целиком как JSON-объект
// project name → port в файле распределения портов, который читает и
// пишет internal/deploy (allocations.go).
type PortAllocation map[string]int

// IngressRule — одна запись в списке ingress туннельного демона:
// отображение имени хоста на URL локального сервиса.
type IngressRule struct {
	Hostname string `yaml:"hostname,omitempty"`
	Service  string `yaml:"service"`
}

// IsCatchAll возвращает true для завершающего правила без hostname.
func (r IngressRule) IsCatchAll() bool {
	return r.Hostname == ""
}

// DeployResult — результат работы Deployment Finisher (§4.10).
type DeployResult struct {
	Success  bool   `json:"success"`
	URL      string `json:"url,omitempty"`
	HostPort int    `json:"host_port,omitempty"`

	// Note — заполняется при best-effort отказе шагов 4–6 (DNS/ingress/reload);
	// Success остаётся true, если шаги 1–3 прошли.
	Note string `json:"note,omitempty"`
}
