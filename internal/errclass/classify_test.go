package errclass

import (
	"testing"

	"github.com/shaiso/devpipeline/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    domain.ErrorKind
	}{
		{"rate limit phrase", "Error: rate limit exceeded, try again later", domain.ErrorRateLimit},
		{"429 code", "request failed with status 429", domain.ErrorRateLimit},
		{"auth 401", "Error 401 authentication failed", domain.ErrorAuth},
		{"bad credentials", "Bad credentials", domain.ErrorAuth},
		{"permission 403", "403 Forbidden", domain.ErrorPermission},
		{"permission denied text", "permission denied writing to /etc", domain.ErrorPermission},
		{"import error python", "ModuleNotFoundError: No module named 'requests'", domain.ErrorImport},
		{"missing package", "cannot find module providing package foo", domain.ErrorImport},
		{"file not found", "open config.yml: no such file or directory", domain.ErrorFileNotFound},
		{"generic 404 without file hint", "404 not found", domain.ErrorFileNotFound},
		{"unrecognized", "segmentation fault", domain.ErrorGeneric},
		{"empty string", "", domain.ErrorGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.message)
			if got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	got := Classify("RATE LIMIT EXCEEDED")
	if got != domain.ErrorRateLimit {
		t.Errorf("expected case-insensitive match, got %q", got)
	}
}

func TestClassify_OrderSensitiveAuthBeforePermission(t *testing.T) {
	// Both an auth marker and a permission marker appear; auth must win.
	got := Classify("401 unauthorized: you do not have permission denied to this resource")
	if got != domain.ErrorAuth {
		t.Errorf("expected auth_error to take priority over permission, got %q", got)
	}
}

func TestClassify_OrderSensitiveRateLimitBeforeGeneric(t *testing.T) {
	got := Classify("500 internal server error: rate limit exceeded upstream")
	if got != domain.ErrorRateLimit {
		t.Errorf("expected rate_limit to take priority, got %q", got)
	}
}

func TestClassifyErr_Nil(t *testing.T) {
	if got := ClassifyErr(nil); got != domain.ErrorGeneric {
		t.Errorf("ClassifyErr(nil) = %q, want generic", got)
	}
}
