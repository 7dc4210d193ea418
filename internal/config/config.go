// Package config loads pipeline configuration from a TOML file with env
// var overrides, following the layered defaults -> file -> env pattern.
package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// URL builds the amqp connection string from its host/port/credentials.
func (c BrokerConfig) URL() string {
	return "amqp://" + c.User + ":" + c.Pass + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/"
}

type Config struct {
	Broker    BrokerConfig    `toml:"broker"`
	Sandbox   SandboxConfig   `toml:"sandbox"`
	Audit     AuditConfig     `toml:"audit"`
	LLM       LLMConfig       `toml:"llm"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Observer  ObserverConfig  `toml:"observer"`
}

// BrokerConfig holds RabbitMQ connection and queue-name settings.
type BrokerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Pass            string `toml:"pass"`
	InQueueAgent    string `toml:"in_queue_agent"`
	OutQueueAgent   string `toml:"out_queue_agent"`
	InQueueSandbox  string `toml:"in_queue_sandbox"`
	OutQueueSandbox string `toml:"out_queue_sandbox"`
}

// SandboxConfig holds the container sandbox's resource and timeout limits.
type SandboxConfig struct {
	Image          string `toml:"image"`
	MemoryLimitMB  int64  `toml:"memory_limit_mb"`
	PidsLimit      int64  `toml:"pids_limit"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// AuditConfig selects the Job Audit Store backend.
type AuditConfig struct {
	Backend      string `toml:"backend"` // "sqlite" | "postgres"
	SQLitePath   string `toml:"sqlite_path"`
	PostgresDSN  string `toml:"postgres_dsn"`
}

// LLMConfig configures the single Provider instance shared by all three
// agent roles, matching the original's one model reused across roles.
type LLMConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

// EmbeddingConfig configures the Modeler's optional retrieval path.
type EmbeddingConfig struct {
	APIKey     string `toml:"api_key"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
}

// RetrievalConfig tunes the Modeler's deterministic activation rule for its
// in-memory retrieval path.
type RetrievalConfig struct {
	ChunkThresholdChars int `toml:"chunk_threshold_chars"`
}

type ObserverConfig struct {
	Enabled bool                       `toml:"enabled"`
	Pricing map[string]ObserverPricing `toml:"pricing"`
}

type ObserverPricing struct {
	Input  float64 `toml:"input"`
	Output float64 `toml:"output"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Broker: BrokerConfig{
			Host:            "localhost",
			Port:            5672,
			User:            "guest",
			Pass:            "guest",
			InQueueAgent:    "ai_tasks_queue",
			OutQueueAgent:   "ai_results_queue",
			InQueueSandbox:  "code_execution_queue",
			OutQueueSandbox: "code_results_queue",
		},
		Sandbox: SandboxConfig{
			Image:          "python:3.11-slim",
			MemoryLimitMB:  512,
			PidsLimit:      64,
			TimeoutSeconds: 30,
		},
		Audit: AuditConfig{
			Backend:    "sqlite",
			SQLitePath: "audit.db",
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Embedding: EmbeddingConfig{
			Model:      "gemini-embedding-001",
			Dimensions: 768,
		},
		Retrieval: RetrievalConfig{
			ChunkThresholdChars: 4000,
		},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "orpipe.toml"
	}
	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	if v := os.Getenv("RABBITMQ_HOST"); v != "" {
		cfg.Broker.Host = v
	}
	if v := os.Getenv("RABBITMQ_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Broker.Port = n
		}
	}
	if v := os.Getenv("RABBITMQ_USER"); v != "" {
		cfg.Broker.User = v
	}
	if v := os.Getenv("RABBITMQ_PASS"); v != "" {
		cfg.Broker.Pass = v
	}
	if v := os.Getenv("RABBITMQ_IN_QUEUE_AGENT"); v != "" {
		cfg.Broker.InQueueAgent = v
	}
	if v := os.Getenv("RABBITMQ_OUT_QUEUE_AGENT"); v != "" {
		cfg.Broker.OutQueueAgent = v
	}
	if v := os.Getenv("RABBITMQ_IN_QUEUE_SANDBOX"); v != "" {
		cfg.Broker.InQueueSandbox = v
	}
	if v := os.Getenv("RABBITMQ_OUT_QUEUE_SANDBOX"); v != "" {
		cfg.Broker.OutQueueSandbox = v
	}

	if v := os.Getenv("SANDBOX_IMAGE"); v != "" {
		cfg.Sandbox.Image = v
	}
	if v := os.Getenv("SANDBOX_MEMORY_LIMIT_MB"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Sandbox.MemoryLimitMB = n
		}
	}
	if v := os.Getenv("SANDBOX_PIDS_LIMIT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Sandbox.PidsLimit = n
		}
	}
	if v := os.Getenv("SANDBOX_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sandbox.TimeoutSeconds = n
		}
	}

	if v := os.Getenv("AUDIT_BACKEND"); v != "" {
		cfg.Audit.Backend = v
	}
	if v := os.Getenv("AUDIT_SQLITE_PATH"); v != "" {
		cfg.Audit.SQLitePath = v
	}
	if v := os.Getenv("AUDIT_POSTGRES_DSN"); v != "" {
		cfg.Audit.PostgresDSN = v
	}

	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}

	if v := os.Getenv("EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("EMBEDDING_DIMENSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Embedding.Dimensions = n
		}
	}

	if v := os.Getenv("RETRIEVAL_CHUNK_THRESHOLD_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retrieval.ChunkThresholdChars = n
		}
	}

	if v := os.Getenv("OBSERVER_ENABLED"); v == "true" || v == "1" {
		cfg.Observer.Enabled = true
	}

	return cfg
}
