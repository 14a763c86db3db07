package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/mender/internal/runtime"
	"github.com/aretw0/mender/pkg/delegate"
	"github.com/aretw0/mender/pkg/domain"
	"github.com/aretw0/mender/pkg/tools"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MENDER_"

// Delegate providers.
const (
	ProviderScript = "script"
	ProviderOpenAI = "openai"
)

// Config is the full runtime configuration of the mender binary.
type Config struct {
	Orchestrator Orchestrator         `yaml:"orchestrator" koanf:"orchestrator"`
	Delegate     Delegate             `yaml:"delegate" koanf:"delegate"`
	Redis        Redis                `yaml:"redis" koanf:"redis"`
	Archive      Archive              `yaml:"archive" koanf:"archive"`
	HTTP         HTTP                 `yaml:"http" koanf:"http"`
	Log          Log                  `yaml:"log" koanf:"log"`
	Scenario     tools.InlineScenario `yaml:"scenario" koanf:"scenario"`
}

type Orchestrator struct {
	MaxRetries    int           `yaml:"max_retries" koanf:"max_retries"`
	MaxSteps      int           `yaml:"max_steps" koanf:"max_steps"`
	HistoryWindow int           `yaml:"history_window" koanf:"history_window"`
	StepTimeout   time.Duration `yaml:"step_timeout" koanf:"step_timeout"`
	// ErrorPolicy is "propagate" or "count_as_planning_failure".
	ErrorPolicy string `yaml:"error_policy" koanf:"error_policy"`
}

// Delegate selects the planner. Provider is "script" (default) or "openai";
// the openai provider reads its key from OPENAI_API_KEY.
type Delegate struct {
	Provider        string  `yaml:"provider" koanf:"provider"`
	Model           string  `yaml:"model" koanf:"model"`
	BaseURL         string  `yaml:"base_url" koanf:"base_url"`
	Temperature     float64 `yaml:"temperature" koanf:"temperature"`
	MaxContextChars int     `yaml:"max_context_chars" koanf:"max_context_chars"`
	// Script holds canned decisions, answered in order.
	Script []string `yaml:"script" koanf:"script"`
}

// Redis is optional; an empty Addr selects the in-memory archive.
type Redis struct {
	Addr     string        `yaml:"addr" koanf:"addr"`
	Password string        `yaml:"password" koanf:"password"`
	DB       int           `yaml:"db" koanf:"db"`
	Prefix   string        `yaml:"prefix" koanf:"prefix"`
	TTL      time.Duration `yaml:"ttl" koanf:"ttl"`
}

// Archive protects finished reports before they are stored.
// Keys are base64-encoded 32-byte AES keys.
type Archive struct {
	EncryptionKey string   `yaml:"encryption_key" koanf:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys" koanf:"fallback_keys"`
	// Redact lists regular expressions over history data keys.
	Redact []string `yaml:"redact" koanf:"redact"`
}

type HTTP struct {
	Addr string `yaml:"addr" koanf:"addr"`
}

type Log struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}

// Defaults returns the configuration used when nothing else is given.
func Defaults() Config {
	return Config{
		Orchestrator: Orchestrator{
			MaxRetries:    runtime.DefaultMaxRetries,
			MaxSteps:      runtime.DefaultMaxSteps,
			HistoryWindow: runtime.DefaultHistoryWindow,
			ErrorPolicy:   domain.PolicyPropagate.String(),
		},
		Delegate: Delegate{
			Provider:        ProviderScript,
			MaxContextChars: delegate.DefaultMaxContextChars,
		},
		Redis: Redis{
			Prefix: "mender:",
		},
		HTTP: HTTP{Addr: ":8080"},
		Log:  Log{Level: "info", Format: "text"},
		// Scenario is left empty; callers fall back to tools.DefaultScenario.
	}
}

// envAliases maps short MENDER_* names onto config keys. Any other
// MENDER_SECTION_FIELD variable maps to section.field.
var envAliases = map[string]string{
	"max_retries":       "orchestrator.max_retries",
	"max_steps":         "orchestrator.max_steps",
	"history_window":    "orchestrator.history_window",
	"step_timeout":      "orchestrator.step_timeout",
	"error_policy":      "orchestrator.error_policy",
	"provider":          "delegate.provider",
	"model":             "delegate.model",
	"base_url":          "delegate.base_url",
	"temperature":       "delegate.temperature",
	"max_context_chars": "delegate.max_context_chars",
	"archive_key":       "archive.encryption_key",
}

// envKey turns MENDER_REDIS_ADDR into redis.addr.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	if alias, ok := envAliases[key]; ok {
		return alias
	}
	section, field, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + field
}

// Load layers Defaults, the YAML file at path and MENDER_* environment
// variables, in that order, then validates. An empty path skips the file.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	defaults, err := yaml.Marshal(Defaults())
	if err != nil {
		return Config{}, fmt.Errorf("failed to encode defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(defaults), kyaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), kyaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects limits the orchestrator cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Orchestrator.MaxRetries <= 0 {
		errs = append(errs, fmt.Errorf("orchestrator.max_retries must be positive, got %d", c.Orchestrator.MaxRetries))
	}
	if c.Orchestrator.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("orchestrator.max_steps must be positive, got %d", c.Orchestrator.MaxSteps))
	}
	if c.Orchestrator.HistoryWindow <= 0 {
		errs = append(errs, fmt.Errorf("orchestrator.history_window must be positive, got %d", c.Orchestrator.HistoryWindow))
	}
	if c.Orchestrator.StepTimeout < 0 {
		errs = append(errs, fmt.Errorf("orchestrator.step_timeout must not be negative"))
	}
	if c.Delegate.MaxContextChars <= 0 {
		errs = append(errs, fmt.Errorf("delegate.max_context_chars must be positive, got %d", c.Delegate.MaxContextChars))
	}
	switch c.Delegate.Provider {
	case "", ProviderScript, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("delegate.provider: unknown provider %q", c.Delegate.Provider))
	}
	if _, err := c.Policy(); err != nil {
		errs = append(errs, err)
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, fmt.Errorf("redis.ttl must not be negative"))
	}
	return errors.Join(errs...)
}

// Policy resolves Orchestrator.ErrorPolicy.
func (c Config) Policy() (domain.CollaboratorErrorPolicy, error) {
	p, err := domain.ParseCollaboratorErrorPolicy(c.Orchestrator.ErrorPolicy)
	if err != nil {
		return p, fmt.Errorf("orchestrator.error_policy: %w", err)
	}
	return p, nil
}

// ScenarioOrDefault returns Scenario, or tools.DefaultScenario when it is empty.
func (c Config) ScenarioOrDefault() tools.InlineScenario {
	s := c.Scenario
	if len(s.Waves) == 0 && len(s.Critical) == 0 && len(s.Reject) == 0 && len(s.Crews) == 0 {
		return tools.DefaultScenario()
	}
	return s
}
