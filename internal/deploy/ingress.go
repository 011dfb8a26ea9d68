package deploy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const catchAllService = "http_status:404"

// ingressRule is one entry of the tunnel daemon's ingress list.
type ingressRule struct {
	Hostname string `yaml:"hostname,omitempty"`
	Service  string `yaml:"service"`
}

func (r ingressRule) isCatchAll() bool {
	return r.Hostname == ""
}

// tunnelConfig mirrors cloudflared's config.yml shape closely enough to
// round-trip the fields this system needs to mutate; unknown top-level
// keys are preserved via the Extra bucket.
type tunnelConfig struct {
	Tunnel          string                 `yaml:"tunnel"`
	CredentialsFile string                 `yaml:"credentials-file"`
	Ingress         []ingressRule          `yaml:"ingress"`
	Extra           map[string]interface{} `yaml:",inline"`
}

// upsertIngressRoute reads the ingress config at path (treating a
// missing file as an empty config), replaces or inserts the
// (hostname, localhost:port) rule before the catch-all entry (appending
// one if absent), and writes the file back atomically. Idempotent: a
// repeated call with the same (hostname, port) produces a byte-equal
// file (invariant 7).
func upsertIngressRoute(path, hostname string, port int) error {
	cfg, err := readTunnelConfig(path)
	if err != nil {
		return err
	}

	service := fmt.Sprintf("http://localhost:%d", port)

	replaced := false
	for i, rule := range cfg.Ingress {
		if rule.isCatchAll() {
			continue
		}
		if rule.Hostname == hostname {
			cfg.Ingress[i].Service = service
			replaced = true
			break
		}
	}

	if !replaced {
		catchAllIdx := -1
		for i, rule := range cfg.Ingress {
			if rule.isCatchAll() {
				catchAllIdx = i
				break
			}
		}
		newRule := ingressRule{Hostname: hostname, Service: service}
		if catchAllIdx == -1 {
			cfg.Ingress = append(cfg.Ingress, newRule)
		} else {
			cfg.Ingress = append(cfg.Ingress[:catchAllIdx], append([]ingressRule{newRule}, cfg.Ingress[catchAllIdx:]...)...)
		}
	}

	if !hasCatchAll(cfg.Ingress) {
		cfg.Ingress = append(cfg.Ingress, ingressRule{Service: catchAllService})
	}

	return writeTunnelConfig(path, cfg)
}

func hasCatchAll(rules []ingressRule) bool {
	for _, r := range rules {
		if r.isCatchAll() {
			return true
		}
	}
	return false
}

func readTunnelConfig(path string) (*tunnelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &tunnelConfig{}, nil
		}
		return nil, fmt.Errorf("read ingress config: %w", err)
	}
	var cfg tunnelConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode ingress config: %w", err)
	}
	return &cfg, nil
}

func writeTunnelConfig(path string, cfg *tunnelConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode ingress config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ingress config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}

	success = true
	return nil
}

// isAlreadyExists reports whether a DNS route command's output
// indicates the route already exists, treated as success per §4.10.
func isAlreadyExists(output string) bool {
	return strings.Contains(strings.ToLower(output), "already exists")
}
