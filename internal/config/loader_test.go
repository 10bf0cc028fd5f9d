package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/BharatDhande/Vaani/internal/config"
)

func TestLoadFromReader_Minimal(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: openai
    model: gpt-4o-mini
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("default listen_addr = %q, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("default log_level = %q, want info", cfg.Server.LogLevel)
	}
	if cfg.Memory.Backend != config.BackendInmem {
		t.Errorf("default memory.backend = %q, want inmem", cfg.Memory.Backend)
	}
}

func TestLoadFromReader_FullConfig(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":9090"
  log_level: debug
  api_key: secret
providers:
  llm:
    name: ollama
    base_url: "http://localhost:11434"
    model: "llama3.1:8b"
  fallbacks:
    - name: openai
      api_key: sk-test
      model: gpt-4o-mini
router:
  rule_threshold: 0.9
  apology: "Sorry, try again."
memory:
  backend: redis
  max_turns: 20
  ttl: 2h
  redis_url: "redis://localhost:6379/0"
llm:
  timeout: 8s
  max_tokens: 256
  temperature: 0.3
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Memory.TTL.Std() != 2*time.Hour {
		t.Errorf("memory.ttl = %v, want 2h", cfg.Memory.TTL.Std())
	}
	if cfg.LLM.Timeout.Std() != 8*time.Second {
		t.Errorf("llm.timeout = %v, want 8s", cfg.LLM.Timeout.Std())
	}
	if cfg.Router.RuleThreshold != 0.9 {
		t.Errorf("router.rule_threshold = %v, want 0.9", cfg.Router.RuleThreshold)
	}
	if len(cfg.Providers.Fallbacks) != 1 || cfg.Providers.Fallbacks[0].Name != "openai" {
		t.Errorf("fallbacks = %+v, want one openai entry", cfg.Providers.Fallbacks)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: openai
sever:
  listen_addr: ":8080"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestLoadFromReader_InvalidDuration(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: openai
llm:
  timeout: soon
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "duration") {
		t.Errorf("error should mention duration, got: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: verbose
providers:
  llm:
    name: openai
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_MissingProviderName(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8080"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing provider name, got nil")
	}
	if !strings.Contains(err.Error(), "providers.llm.name") {
		t.Errorf("error should mention providers.llm.name, got: %v", err)
	}
}

func TestValidate_RedisBackendRequiresURL(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: openai
memory:
  backend: redis
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for redis backend without redis_url, got nil")
	}
	if !strings.Contains(err.Error(), "redis_url") {
		t.Errorf("error should mention redis_url, got: %v", err)
	}
}

func TestValidate_PostgresBackendRequiresDSN(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: openai
memory:
  backend: postgres
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for postgres backend without postgres_dsn, got nil")
	}
	if !strings.Contains(err.Error(), "postgres_dsn") {
		t.Errorf("error should mention postgres_dsn, got: %v", err)
	}
}

func TestValidate_ThresholdOutOfRange(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: openai
router:
  rule_threshold: 1.5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for out-of-range threshold, got nil")
	}
	if !strings.Contains(err.Error(), "rule_threshold") {
		t.Errorf("error should mention rule_threshold, got: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
memory:
  backend: disk
llm:
  temperature: 3.0
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	for _, want := range []string{"log_level", "backend", "temperature", "providers.llm.name"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestValidate_TLSRequiresCertAndKey(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: openai
server:
  tls:
    cert_file: /etc/vaani/tls.crt
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for tls without key_file, got nil")
	}
	if !strings.Contains(err.Error(), "key_file") {
		t.Errorf("error should mention key_file, got: %v", err)
	}
}
