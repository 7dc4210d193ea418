package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Broker.Host != "localhost" {
		t.Errorf("expected localhost, got %s", cfg.Broker.Host)
	}
	if cfg.Broker.InQueueAgent != "ai_tasks_queue" {
		t.Errorf("unexpected agent in-queue default: %s", cfg.Broker.InQueueAgent)
	}
	if cfg.Broker.OutQueueAgent != "ai_results_queue" {
		t.Errorf("unexpected agent out-queue default: %s", cfg.Broker.OutQueueAgent)
	}
	if cfg.Broker.InQueueSandbox != "code_execution_queue" {
		t.Errorf("unexpected sandbox in-queue default: %s", cfg.Broker.InQueueSandbox)
	}
	if cfg.Broker.OutQueueSandbox != "code_results_queue" {
		t.Errorf("unexpected sandbox out-queue default: %s", cfg.Broker.OutQueueSandbox)
	}
	if cfg.Sandbox.TimeoutSeconds != 30 {
		t.Errorf("expected 30, got %d", cfg.Sandbox.TimeoutSeconds)
	}
	if cfg.Audit.Backend != "sqlite" {
		t.Errorf("expected sqlite, got %s", cfg.Audit.Backend)
	}
}

func TestLoadFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.toml")
	os.WriteFile(path, []byte(`
[broker]
host = "rabbit.internal"

[sandbox]
timeout_seconds = 60
`), 0644)

	cfg := Load(path)
	if cfg.Broker.Host != "rabbit.internal" {
		t.Errorf("expected rabbit.internal, got %s", cfg.Broker.Host)
	}
	if cfg.Sandbox.TimeoutSeconds != 60 {
		t.Errorf("expected 60, got %d", cfg.Sandbox.TimeoutSeconds)
	}
	// Defaults preserved for untouched fields.
	if cfg.Broker.User != "guest" {
		t.Errorf("default should be preserved, got %s", cfg.Broker.User)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("RABBITMQ_HOST", "env-host")
	t.Setenv("LLM_API_KEY", "env-key")
	t.Setenv("SANDBOX_TIMEOUT_SECONDS", "120")

	cfg := Load("/nonexistent/path.toml")
	if cfg.Broker.Host != "env-host" {
		t.Errorf("expected env-host, got %s", cfg.Broker.Host)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Errorf("expected env-key, got %s", cfg.LLM.APIKey)
	}
	if cfg.Sandbox.TimeoutSeconds != 120 {
		t.Errorf("expected 120, got %d", cfg.Sandbox.TimeoutSeconds)
	}
}

func TestObserverEnabledEnv(t *testing.T) {
	t.Setenv("OBSERVER_ENABLED", "1")
	cfg := Load("/nonexistent/path.toml")
	if !cfg.Observer.Enabled {
		t.Error("expected Observer.Enabled = true")
	}
}
