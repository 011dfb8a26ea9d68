// Package config assembles process configuration from environment
// variables, once, at startup — no ambient os.Getenv calls inside
// business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every environment-sourced setting used across the
// worker pool, pipeline monitor, project registry, and deployment
// finisher.
type Config struct {
	// RedisAddr is the broker address ("host:port").
	RedisAddr string
	// RedisPassword authenticates against the broker, empty if unused.
	RedisPassword string
	// RedisDB selects the logical database index.
	RedisDB int

	// WorkspaceDir is the root directory containing one subdirectory
	// per project.
	WorkspaceDir string

	// GenCLIBin is the path or name of the generation-CLI executable.
	GenCLIBin string
	// GenCLITimeout bounds a single generation invocation.
	GenCLITimeout time.Duration

	// WorkerPollInterval is read from WORKER_POLL_INTERVAL (§4.7). No
	// entry point passes it to the Worker Pool, which polls at its own
	// 10s default.
	WorkerPollInterval time.Duration
	// MonitorPollInterval is read from MONITOR_POLL_INTERVAL (§4.8). No
	// entry point passes it to the Pipeline Monitor, which polls at its
	// own 30s default.
	MonitorPollInterval time.Duration
	// StallThreshold is read from WORKER_STALL_THRESHOLD (§4.8). No entry
	// point passes it to the monitor, which treats a worker as stalled
	// after its own 10m default.
	StallThreshold time.Duration
	// MaxFixAttempts is read from MAX_FIX_ATTEMPTS (§3). No entry point
	// passes it to the monitor, which uses its own default of 3.
	MaxFixAttempts int

	// DeployDomain is the base domain new deployments are published under.
	DeployDomain string
	// TunnelName/TunnelID configure the tunnel daemon collaborator.
	TunnelName string
	TunnelID   string
	// PortRangeStart is read from PORT_RANGE_START (§4.10 step 2). No
	// entry point passes it to the Deployment Finisher, which allocates
	// from its own start port 20000.
	PortRangeStart int

	// GitHubToken/GitHubUsername authenticate the upstream-provider
	// adapter and repository-push collaborator.
	GitHubToken    string
	GitHubUsername string

	// LogLevel/LogFormat/LogDir are read here but not passed on:
	// telemetry.SetupLogger reads LOG_LEVEL and LOG_FORMAT from the
	// environment itself, and no entry point calls telemetry.NewNamed.
	LogLevel  string
	LogFormat string
	LogDir    string

	// HTTPAddr is the control-surface/metrics HTTP listen address.
	HTTPAddr string
}

// Load reads Config from the environment, applying the same documented
// defaults used throughout this codebase's cmd/ entry points.
func Load() (*Config, error) {
	home, _ := os.UserHomeDir()

	cfg := &Config{
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		WorkspaceDir: getEnv("WORKSPACE_DIR", home+"/.ai-dev-pipeline/workspace"),

		GenCLIBin:     getEnv("GENCLI_BIN", "claude"),
		GenCLITimeout: getEnvDuration("GENCLI_TIMEOUT", 5*time.Minute),

		WorkerPollInterval:  getEnvDuration("WORKER_POLL_INTERVAL", 10*time.Second),
		MonitorPollInterval: getEnvDuration("MONITOR_POLL_INTERVAL", 30*time.Second),
		StallThreshold:      getEnvDuration("WORKER_STALL_THRESHOLD", 10*time.Minute),
		MaxFixAttempts:      getEnvInt("MAX_FIX_ATTEMPTS", 3),

		DeployDomain:   getEnv("DEPLOY_DOMAIN", "devbot.site"),
		TunnelName:     getEnv("CLOUDFLARE_TUNNEL_NAME", "devbot-pipeline"),
		TunnelID:       getEnv("CLOUDFLARE_TUNNEL_ID", ""),
		PortRangeStart: getEnvInt("PORT_RANGE_START", 8100),

		GitHubToken:    getEnv("GITHUB_TOKEN", ""),
		GitHubUsername: getEnv("GITHUB_USERNAME", ""),

		LogLevel:  getEnv("LOG_LEVEL", "INFO"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogDir:    getEnv("LOG_DIR", home+"/.ai-dev-pipeline/logs"),

		HTTPAddr: getEnv("HTTP_ADDR", ":8089"),
	}

	if cfg.WorkerPollInterval <= 0 {
		return nil, fmt.Errorf("WORKER_POLL_INTERVAL must be positive")
	}
	if cfg.MaxFixAttempts <= 0 {
		return nil, fmt.Errorf("MAX_FIX_ATTEMPTS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
