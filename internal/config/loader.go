package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// knownProviderNames lists provider names the bundled backends recognise.
// An unknown name is not fatal — a misconfigured one fails at startup when
// the provider is constructed.
var knownProviderNames = []string{
	"openai", "anthropic", "ollama", "gemini", "deepseek",
	"mistral", "groq", "llamacpp", "llamafile",
}

// Load reads and validates the configuration at the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes and validates configuration YAML from r.
// Unknown fields are rejected so typos surface at startup rather than as
// silently ignored settings.
func LoadFromReader(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Memory.Backend == "" {
		cfg.Memory.Backend = BackendInmem
	}
}

// Validate checks the configuration for errors. All problems found are
// collected and returned joined, so a broken config reports everything wrong
// at once instead of one error per restart.
func (c *Config) Validate() error {
	var errs []error

	if !c.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level: unknown level %q", c.Server.LogLevel))
	}
	if c.Server.TLS != nil {
		if c.Server.TLS.CertFile == "" {
			errs = append(errs, errors.New("server.tls.cert_file: required when tls is set"))
		}
		if c.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls.key_file: required when tls is set"))
		}
	}

	if c.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm.name: required"))
	} else {
		validateProviderName("providers.llm", c.Providers.LLM.Name)
	}
	for i, fb := range c.Providers.Fallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.fallbacks[%d].name: required", i))
			continue
		}
		validateProviderName(fmt.Sprintf("providers.fallbacks[%d]", i), fb.Name)
	}

	if c.Router.RuleThreshold < 0 || c.Router.RuleThreshold > 1 {
		errs = append(errs, fmt.Errorf("router.rule_threshold: %v outside [0.0, 1.0]", c.Router.RuleThreshold))
	}

	if !c.Memory.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("memory.backend: unknown backend %q", c.Memory.Backend))
	}
	if c.Memory.Backend == BackendRedis && c.Memory.RedisURL == "" {
		errs = append(errs, errors.New("memory.redis_url: required for the redis backend"))
	}
	if c.Memory.Backend == BackendPostgres && c.Memory.PostgresDSN == "" {
		errs = append(errs, errors.New("memory.postgres_dsn: required for the postgres backend"))
	}
	if c.Memory.MaxTurns < 0 {
		errs = append(errs, fmt.Errorf("memory.max_turns: %d is negative", c.Memory.MaxTurns))
	}
	if c.Memory.TTL < 0 {
		errs = append(errs, errors.New("memory.ttl: negative"))
	}

	if c.LLM.Timeout < 0 {
		errs = append(errs, errors.New("llm.timeout: negative"))
	}
	if c.LLM.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("llm.max_tokens: %d is negative", c.LLM.MaxTokens))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature: %v outside [0.0, 2.0]", c.LLM.Temperature))
	}

	return errors.Join(errs...)
}

// validateProviderName warns when a provider name is not one of the bundled
// backends. The name may still resolve through an OpenAI-compatible base_url,
// so this never fails validation.
func validateProviderName(field, name string) {
	for _, known := range knownProviderNames {
		if name == known {
			return
		}
	}
	slog.Warn("unrecognized provider name, assuming OpenAI-compatible endpoint",
		"field", field, "name", name)
}
