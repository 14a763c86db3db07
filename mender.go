package mender

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/mender/internal/presentation/graph"
	"github.com/aretw0/mender/internal/runtime"
	"github.com/aretw0/mender/pkg/domain"
	"github.com/aretw0/mender/pkg/ports"
	"github.com/aretw0/mender/pkg/registry"
	"github.com/aretw0/mender/pkg/tools"
)

//go:embed VERSION
var rawVersion string

// Version is the release of this module.
var Version = strings.TrimSpace(rawVersion)

// ErrNoDelegate is returned by New when no decision delegate was configured.
var ErrNoDelegate = errors.New("mender: a decision delegate is required")

// Engine is the high-level entry point for the mender library.
// It wires the domain tools, the registry and the orchestrator together and
// exposes a simplified API for consumers.
type Engine struct {
	orch     *runtime.Orchestrator
	registry *registry.Registry
}

type settings struct {
	systemRepo  ports.SystemRepository
	agentRepo   ports.AgentRepository
	delegate    ports.DecisionDelegate
	agentOpts   []tools.AgentOption
	runtimeOpts []runtime.Option
}

// Option defines a functional option for configuring the Engine.
type Option func(*settings)

// WithScenario backs both repositories with the deterministic inline inventory.
func WithScenario(s tools.InlineScenario) Option {
	return func(st *settings) {
		st.systemRepo = tools.NewInlineSystemRepo(s)
		st.agentRepo = tools.NewInlineAgentRepo(s)
	}
}

// WithRepositories injects the network inventory and the crew dispatch backend.
func WithRepositories(system ports.SystemRepository, agent ports.AgentRepository) Option {
	return func(st *settings) {
		st.systemRepo = system
		st.agentRepo = agent
	}
}

// WithDelegate sets who decides the next action during repair planning.
func WithDelegate(d ports.DecisionDelegate) Option {
	return func(st *settings) {
		st.delegate = d
	}
}

// WithAgentOptions tunes the informational tools (clock, holidays).
func WithAgentOptions(opts ...tools.AgentOption) Option {
	return func(st *settings) {
		st.agentOpts = append(st.agentOpts, opts...)
	}
}

// WithLogger sets the structured logger of the run.
func WithLogger(logger *slog.Logger) Option {
	return withRuntime(runtime.WithLogger(logger))
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return withRuntime(runtime.WithLifecycleHooks(hooks))
}

// WithMaxRetries bounds consecutive planning failures.
func WithMaxRetries(n int) Option {
	return withRuntime(runtime.WithMaxRetries(n))
}

// WithMaxSteps bounds the total steps of the run across Run and Step calls.
func WithMaxSteps(n int) Option {
	return withRuntime(runtime.WithMaxSteps(n))
}

// WithStepTimeout sets a deadline on every collaborator call.
func WithStepTimeout(d time.Duration) Option {
	return withRuntime(runtime.WithStepTimeout(d))
}

// WithRunID tags history, logs and hook events with id.
func WithRunID(id string) Option {
	return withRuntime(runtime.WithRunID(id))
}

// WithHistoryWindow sets how many recent plan entries the delegate sees.
func WithHistoryWindow(n int) Option {
	return withRuntime(runtime.WithHistoryWindow(n))
}

// WithCollaboratorErrorPolicy chooses what a failing delegate or tool call
// does during repair planning. The default is domain.PolicyPropagate.
func WithCollaboratorErrorPolicy(p domain.CollaboratorErrorPolicy) Option {
	return withRuntime(runtime.WithCollaboratorErrorPolicy(p))
}

// WithInstructions replaces the base role text handed to the delegate.
func WithInstructions(text string) Option {
	return withRuntime(runtime.WithInstructions(text))
}

func withRuntime(opts ...runtime.Option) Option {
	return func(st *settings) {
		st.runtimeOpts = append(st.runtimeOpts, opts...)
	}
}

// New builds an engine. Without repositories it runs tools.DefaultScenario.
func New(opts ...Option) (*Engine, error) {
	st := &settings{}
	WithScenario(tools.DefaultScenario())(st)
	for _, opt := range opts {
		opt(st)
	}
	if st.delegate == nil {
		return nil, ErrNoDelegate
	}

	reg := registry.NewRegistry()
	system := tools.NewSystem(st.systemRepo)
	system.Register(reg)
	tools.NewAgent(st.agentRepo, st.agentOpts...).Register(reg)

	runtimeOpts := append([]runtime.Option{runtime.WithRegistry(reg)}, st.runtimeOpts...)
	return &Engine{
		orch:     runtime.NewOrchestrator(system, st.delegate, runtimeOpts...),
		registry: reg,
	}, nil
}

// Step advances the run by exactly one transition.
func (e *Engine) Step(ctx context.Context) error {
	return e.orch.Step(ctx)
}

// Run steps until FINAL or until the step budget is spent.
func (e *Engine) Run(ctx context.Context) (domain.Summary, error) {
	return e.orch.Run(ctx)
}

func (e *Engine) State() domain.State {
	return e.orch.State()
}

func (e *Engine) Summary() domain.Summary {
	return e.orch.Summary()
}

// History returns the exported transition log.
func (e *Engine) History() []domain.HistoryEntry {
	return domain.ExportHistory(e.orch.History())
}

func (e *Engine) Report() *domain.RunReport {
	return e.orch.Report()
}

// Tools lists every tool the planner may call.
func (e *Engine) Tools() []domain.Tool {
	return e.registry.Tools()
}

// Mermaid renders the run so far as a flowchart, marking the current state.
func (e *Engine) Mermaid() string {
	return graph.GenerateFromRecords(e.orch.History(), &graph.Overlay{CurrentState: e.orch.State().String()})
}

var _ ports.Orchestrator = (*Engine)(nil)
