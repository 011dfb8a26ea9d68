package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	buildTimeout  = 300 * time.Second
	runTimeout    = 60 * time.Second
	dnsTimeout    = 30 * time.Second
	reloadTimeout = 15 * time.Second
)

// Result is the outcome of one deployment run (§4.10: "returned result
// is (success, url, host_port, note)").
type Result struct {
	Success  bool   `json:"success"`
	URL      string `json:"url,omitempty"`
	HostPort int    `json:"host_port,omitempty"`
	Note     string `json:"note,omitempty"`
}

// Config configures a Finisher for one project.
type Config struct {
	ProjectName   string
	ProjectDir    string
	Domain        string
	TunnelName    string
	ContainerName string
	ImageTag      string
	InternalPort  int

	PortAllocationsPath string
	IngressConfigPath   string

	DockerBin      string
	CloudflaredBin string
	ServiceManager string // e.g. "systemctl"
	ServiceName    string // e.g. "cloudflared"

	StartPort int

	runner commandRunner // overridden by tests
	Logger *slog.Logger
}

// Finisher drives the sequential image-build → port-allocate →
// run-container → route-DNS → update-ingress → reload pipeline
// (§4.10). Steps 1-3 are fatal on failure; steps 4-6 are best-effort.
type Finisher struct {
	cfg    Config
	runner commandRunner
	logger *slog.Logger
}

// New returns a Finisher for one project.
func New(cfg Config) *Finisher {
	if cfg.DockerBin == "" {
		cfg.DockerBin = "docker"
	}
	if cfg.CloudflaredBin == "" {
		cfg.CloudflaredBin = "cloudflared"
	}
	if cfg.ServiceManager == "" {
		cfg.ServiceManager = "systemctl"
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "cloudflared"
	}
	if cfg.StartPort <= 0 {
		cfg.StartPort = defaultStartPort
	}
	if cfg.InternalPort <= 0 {
		cfg.InternalPort = 8080
	}
	runner := cfg.runner
	if runner == nil {
		runner = processRunner{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Finisher{cfg: cfg, runner: runner, logger: logger}
}

// Deploy runs the full pipeline.
func (f *Finisher) Deploy(ctx context.Context) Result {
	if _, err := f.runner.Run(ctx, buildTimeout, f.cfg.DockerBin, "build", "-t", f.cfg.ImageTag, f.cfg.ProjectDir); err != nil {
		return Result{Success: false, Note: fmt.Sprintf("image build failed: %v", err)}
	}

	allocations, err := loadAllocations(f.cfg.PortAllocationsPath)
	if err != nil {
		return Result{Success: false, Note: fmt.Sprintf("load port allocations failed: %v", err)}
	}
	port := nextFreePort(allocations, f.cfg.StartPort)

	if _, err := f.runContainer(ctx, port); err != nil {
		return Result{Success: false, Note: fmt.Sprintf("run container failed: %v", err)}
	}

	var noteParts []string

	hostname := fmt.Sprintf("%s.%s", f.cfg.ProjectName, f.cfg.Domain)
	if err := f.routeDNS(ctx, hostname); err != nil {
		f.logger.Warn("dns route failed", "project", f.cfg.ProjectName, "error", err)
		noteParts = append(noteParts, fmt.Sprintf("dns route failed: %v", err))
	}

	allocations[f.cfg.ProjectName] = port
	if err := upsertIngressRoute(f.cfg.IngressConfigPath, hostname, port); err != nil {
		f.logger.Warn("ingress config update failed", "project", f.cfg.ProjectName, "error", err)
		noteParts = append(noteParts, fmt.Sprintf("ingress update failed: %v", err))
	}
	if err := persistAllocations(f.cfg.PortAllocationsPath, allocations); err != nil {
		f.logger.Warn("persist port allocation failed", "project", f.cfg.ProjectName, "error", err)
		noteParts = append(noteParts, fmt.Sprintf("persist port allocation failed: %v", err))
	}

	if _, err := f.runner.Run(ctx, reloadTimeout, f.cfg.ServiceManager, "reload", f.cfg.ServiceName); err != nil {
		f.logger.Warn("tunnel reload failed", "project", f.cfg.ProjectName, "error", err)
		noteParts = append(noteParts, fmt.Sprintf("reload failed: %v", err))
	}

	return Result{
		Success:  true,
		URL:      "https://" + hostname,
		HostPort: port,
		Note:     strings.Join(noteParts, "; "),
	}
}

func (f *Finisher) runContainer(ctx context.Context, port int) (string, error) {
	// Best-effort removal of a prior container of the same name.
	_, _ = f.runner.Run(ctx, runTimeout, f.cfg.DockerBin, "rm", "-f", f.cfg.ContainerName)

	return f.runner.Run(ctx, runTimeout,
		f.cfg.DockerBin, "run", "-d",
		"--name", f.cfg.ContainerName,
		"--restart", "unless-stopped",
		"-p", fmt.Sprintf("%d:%d", port, f.cfg.InternalPort),
		f.cfg.ImageTag,
	)
}

func (f *Finisher) routeDNS(ctx context.Context, hostname string) error {
	output, err := f.runner.Run(ctx, dnsTimeout, f.cfg.CloudflaredBin, "tunnel", "route", "dns", f.cfg.TunnelName, hostname)
	if err != nil && !isAlreadyExists(output) {
		return err
	}
	return nil
}
