package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/mender"
	redisStore "github.com/aretw0/mender/internal/adapters/redis"
	"github.com/aretw0/mender/internal/config"
	"github.com/aretw0/mender/internal/logging"
	"github.com/aretw0/mender/pkg/adapters/memory"
	redisLock "github.com/aretw0/mender/pkg/adapters/redis"
	"github.com/aretw0/mender/pkg/delegate"
	"github.com/aretw0/mender/pkg/domain"
	"github.com/aretw0/mender/pkg/persistence/middleware"
	"github.com/aretw0/mender/pkg/ports"
	"github.com/aretw0/mender/pkg/tools"
	goredis "github.com/redis/go-redis/v9"
	"github.com/tmc/langchaingo/llms/openai"
)

// DelegateSource hands out the planner of a new run.
type DelegateSource func() ports.DecisionDelegate

// NewLogger builds the process logger from the log section.
func NewLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(level, logging.Format(cfg.Log.Format)), nil
}

// NewDelegateSource resolves the configured planner.
// Scripts are stateful, so each run gets its own; a model client is shared.
func NewDelegateSource(cfg config.Config, logger *slog.Logger) (DelegateSource, error) {
	switch cfg.Delegate.Provider {
	case "", config.ProviderScript:
		script := cfg.Delegate.Script
		if len(script) == 0 {
			var err error
			if script, err = DefaultScript(cfg.ScenarioOrDefault()); err != nil {
				return nil, err
			}
		}
		return func() ports.DecisionDelegate { return delegate.NewTextScript(script) }, nil

	case config.ProviderOpenAI:
		opts := []openai.Option{}
		if cfg.Delegate.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Delegate.Model))
		}
		if cfg.Delegate.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.Delegate.BaseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		llm := delegate.NewLLM(model,
			delegate.WithMaxContextChars(cfg.Delegate.MaxContextChars),
			delegate.WithTemperature(cfg.Delegate.Temperature),
			delegate.WithLogger(logger),
		)
		return func() ports.DecisionDelegate { return llm }, nil

	default:
		return nil, fmt.Errorf("unknown delegate provider %q", cfg.Delegate.Provider)
	}
}

// DefaultScript answers planning with one assignment pairing the first wave
// of failures with the scenario crews, in order.
func DefaultScript(s tools.InlineScenario) ([]string, error) {
	var nodes []string
	if len(s.Waves) > 0 {
		nodes = s.Waves[0]
	}
	n := min(len(nodes), len(s.Crews))
	decision := domain.Decision{
		Thoughts: "assign the available crews to the detected failures",
		Action:   domain.ActionAssignRepairCrew,
		Arguments: map[string]any{
			"node_ids": nodes[:n],
			"crew_ids": s.Crews[:n],
		},
	}
	raw, err := json.Marshal(decision)
	if err != nil {
		return nil, err
	}
	return []string{string(raw)}, nil
}

// NewEngine assembles one run from configuration.
func NewEngine(cfg config.Config, runID string, d ports.DecisionDelegate, logger *slog.Logger, hooks domain.LifecycleHooks) (*mender.Engine, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	opts := []mender.Option{
		mender.WithScenario(cfg.ScenarioOrDefault()),
		mender.WithDelegate(d),
		mender.WithRunID(runID),
		mender.WithLogger(logger),
		mender.WithLifecycleHooks(hooks),
		mender.WithMaxRetries(cfg.Orchestrator.MaxRetries),
		mender.WithMaxSteps(cfg.Orchestrator.MaxSteps),
		mender.WithHistoryWindow(cfg.Orchestrator.HistoryWindow),
		mender.WithCollaboratorErrorPolicy(policy),
	}
	if cfg.Orchestrator.StepTimeout > 0 {
		opts = append(opts, mender.WithStepTimeout(cfg.Orchestrator.StepTimeout))
	}
	return mender.New(opts...)
}

// Orchestrators adapts NewEngine to the session and HTTP factories.
// cfg must have passed Validate.
func Orchestrators(cfg config.Config, source DelegateSource, logger *slog.Logger) func(runID string, hooks domain.LifecycleHooks) ports.Orchestrator {
	return func(runID string, hooks domain.LifecycleHooks) ports.Orchestrator {
		engine, err := NewEngine(cfg, runID, source(), logger, hooks)
		if err != nil {
			// A validated config and a non-nil delegate cannot fail here.
			panic(err)
		}
		return engine
	}
}

// Backend is the archive and lock pair selected by the redis section.
type Backend struct {
	Reports ports.ReportStore
	Locker  ports.DistributedLocker
	closer  io.Closer
}

// NewBackend uses Redis when an address is configured and memory otherwise.
// The in-memory backend has no distributed locker. Archive redaction and
// encryption wrap whichever store is selected.
func NewBackend(cfg config.Config) (*Backend, error) {
	mws, err := archiveMiddleware(cfg.Archive)
	if err != nil {
		return nil, err
	}
	if cfg.Redis.Addr == "" {
		return &Backend{Reports: middleware.Chain(memory.NewStore(), mws...)}, nil
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store := redisStore.NewFromClient(client,
		redisStore.WithPrefix(cfg.Redis.Prefix+"report:"),
		redisStore.WithTTL(cfg.Redis.TTL),
	)
	return &Backend{
		Reports: middleware.Chain(store, mws...),
		Locker:  redisLock.NewLocker(client, cfg.Redis.Prefix),
		closer:  client,
	}, nil
}

func archiveMiddleware(cfg config.Archive) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		redact, err := middleware.NewRedactionMiddleware(cfg.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, redact)
	}
	if cfg.EncryptionKey == "" {
		return mws, nil
	}
	active, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("archive.encryption_key: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.FallbackKeys {
		key, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, fmt.Errorf("archive.fallback_keys[%d]: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	encrypt, err := middleware.NewEncryptionMiddleware(enc)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	return append(mws, encrypt), nil
}

func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}
