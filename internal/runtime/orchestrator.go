package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/mender/internal/prompt"
	"github.com/aretw0/mender/pkg/domain"
	"github.com/aretw0/mender/pkg/ports"
	"github.com/aretw0/mender/pkg/registry"
)

// Orchestrator drives one triage run through the state lifecycle.
//
// It is not safe for concurrent Step calls; callers that share an
// orchestrator across goroutines must serialize access (see pkg/session).
type Orchestrator struct {
	ops      ports.SystemOperations
	delegate ports.DecisionDelegate
	registry *registry.Registry

	maxRetries    int
	maxSteps      int
	historyWindow int
	instructions  string
	stepTimeout   time.Duration
	errorPolicy   domain.CollaboratorErrorPolicy
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	now           func() time.Time
	runID         string

	state      domain.State
	memory     domain.WorkingMemory
	retryCount int
	steps      int
	history    *Recorder
}

// NewOrchestrator creates an orchestrator in INIT.
func NewOrchestrator(ops ports.SystemOperations, delegate ports.DecisionDelegate, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		ops:           ops,
		delegate:      delegate,
		maxRetries:    DefaultMaxRetries,
		maxSteps:      DefaultMaxSteps,
		historyWindow: DefaultHistoryWindow,
		instructions:  prompt.ForState(domain.StateRepairPlanning),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:           time.Now,
		state:         domain.StateInit,
		memory:        domain.NewWorkingMemory(),
		history:       NewRecorder(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = registry.NewRegistry()
	}
	if o.runID != "" {
		o.logger = o.logger.With("run_id", o.runID)
	}
	return o
}

// Step advances exactly one step.
//
// Malformed or empty delegate output and unknown tool names are planning
// failures, never errors. Errors are returned only for collaborator
// failures, context cancellation, or stepping a finished run.
func (o *Orchestrator) Step(ctx context.Context) error {
	if o.state.Terminal() {
		return domain.ErrTerminated
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	fn, ok := dispatch[o.state]
	if !ok {
		return fmt.Errorf("no handler for state %s", o.state)
	}
	if err := fn(o, ctx); err != nil {
		o.logger.Error("step failed", "state", o.state.String(), "err", err)
		return err
	}
	o.steps++
	return nil
}

// Run steps until FINAL or until the run has taken MaxSteps steps in total.
// Steps taken by earlier Run or Step calls count against the same budget.
func (o *Orchestrator) Run(ctx context.Context) (domain.Summary, error) {
	for !o.state.Terminal() {
		if o.steps >= o.maxSteps {
			o.logger.Warn("step budget exhausted", "max_steps", o.maxSteps, "state", o.state.String())
			return o.Summary(), fmt.Errorf("%w after %d steps in %s", domain.ErrStepBudgetExhausted, o.maxSteps, o.state)
		}
		if err := o.Step(ctx); err != nil {
			return o.Summary(), err
		}
	}
	return o.Summary(), nil
}

// State returns the current state.
func (o *Orchestrator) State() domain.State {
	return o.state
}

// RetryCount returns the number of consecutive planning failures.
func (o *Orchestrator) RetryCount() int {
	return o.retryCount
}

// RunID returns the label given with WithRunID.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// Memory returns a deep copy of the working memory.
func (o *Orchestrator) Memory() domain.WorkingMemory {
	return o.memory.Clone()
}

// History returns a copy of the transition trace.
func (o *Orchestrator) History() []domain.TransitionRecord {
	return o.history.Records()
}

// Summary returns a read-only snapshot of the run.
func (o *Orchestrator) Summary() domain.Summary {
	failures := append([]string{}, o.memory.Failures...)
	return domain.Summary{
		RunID:           o.runID,
		State:           o.state.String(),
		Transitions:     o.history.Len(),
		Failures:        failures,
		ExecutionResult: o.memory.ExecutionResult.Clone(),
		RetryCount:      o.retryCount,
		Steps:           o.steps,
	}
}

// Report bundles the summary with the exported history.
func (o *Orchestrator) Report() *domain.RunReport {
	return &domain.RunReport{
		Summary: o.Summary(),
		History: domain.ExportHistory(o.history.Records()),
	}
}

func (o *Orchestrator) stepInit(ctx context.Context) error {
	o.memory = domain.NewWorkingMemory()
	o.retryCount = 0
	return o.transition(ctx, domain.StateFailureDetection, domain.TagInitialize, nil)
}

func (o *Orchestrator) stepFailureDetection(ctx context.Context) error {
	failures, err := o.detect(ctx)
	if err != nil {
		return err
	}
	if len(failures) == 0 {
		return o.transition(ctx, domain.StateFinal, domain.TagNoFailuresDetected, nil)
	}
	o.memory.Failures = failures
	return o.transition(ctx, domain.StateImpactAnalysis, domain.TagFailuresDetected, map[string]any{
		domain.KeyFailures: append([]string{}, failures...),
	})
}

func (o *Orchestrator) stepImpactAnalysis(ctx context.Context) error {
	report := make(map[string]domain.Impact, len(o.memory.Failures))
	for _, node := range o.memory.Failures {
		callCtx, cancel := o.callContext(ctx)
		impact, err := o.ops.EstimateImpact(callCtx, node)
		cancel()
		if err != nil {
			return &domain.CollaboratorError{Op: "estimate_impact", Err: err}
		}
		report[node] = impact
	}
	o.memory.ImpactReport = report

	snapshot := make(map[string]domain.Impact, len(report))
	for k, v := range report {
		snapshot[k] = v
	}
	return o.transition(ctx, domain.StateRepairPlanning, domain.TagImpactAnalyzed, map[string]any{
		domain.KeyImpactReport: snapshot,
	})
}

func (o *Orchestrator) stepExecution(ctx context.Context) error {
	pending := o.memory.PendingAction
	if pending == nil {
		return fmt.Errorf("%w: execution without a pending decision", domain.ErrIllegalTransition)
	}
	// Narrowing applies to the failures as they stood at dispatch.
	targets := append([]string{}, o.memory.Failures...)

	nodes, crews, err := domain.DecodeAssignment(pending.Arguments)
	if err != nil {
		return &domain.CollaboratorError{Op: domain.ActionAssignRepairCrew, Err: err}
	}

	callCtx, cancel := o.callContext(ctx)
	result, err := o.ops.AssignRepairCrew(callCtx, nodes, crews)
	cancel()
	if err != nil {
		return &domain.CollaboratorError{Op: domain.ActionAssignRepairCrew, Err: err}
	}

	o.memory.ExecutionResult = result.Clone()
	o.memory.PendingAction = nil
	details := result.Clone().Details

	failed := result.FailedNodes(targets)
	o.logger.Debug("assignment dispatched", "targets", targets, "failed", failed)
	if len(failed) == 0 {
		return o.transition(ctx, domain.StateRescheduling, domain.TagAssignmentsSucceeded, map[string]any{
			domain.KeyDetails: details,
		})
	}

	o.memory.Failures = append([]string{}, failed...)
	narrowed := make(map[string]domain.Impact, len(failed))
	for _, node := range failed {
		if impact, ok := o.memory.ImpactReport[node]; ok {
			narrowed[node] = impact
		}
	}
	o.memory.ImpactReport = narrowed
	o.memory.PlanHistory = append(o.memory.PlanHistory, domain.PlanEntry{
		Role:    domain.RoleExecutionResult,
		Tool:    domain.ActionAssignRepairCrew,
		Result:  result.Clone().Details,
		Message: "Assignment failed for: " + strings.Join(failed, ", "),
	})
	return o.transition(ctx, domain.StateRepairPlanning, domain.TagAssignmentsFailed, map[string]any{
		domain.KeyFailedNodes: append([]string{}, failed...),
		domain.KeyDetails:     details,
	})
}

func (o *Orchestrator) stepRescheduling(ctx context.Context) error {
	current, err := o.detect(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(o.memory.Failures))
	for _, id := range o.memory.Failures {
		known[id] = true
	}
	fresh := make([]string, 0)
	for _, id := range current {
		if !known[id] {
			known[id] = true
			fresh = append(fresh, id)
		}
	}
	if len(fresh) > 0 {
		return o.transition(ctx, domain.StateFailureDetection, domain.TagCascadingFailures, map[string]any{
			domain.KeyNewFailures: fresh,
		})
	}
	return o.transition(ctx, domain.StateFinal, domain.TagRepairsCompleted, nil)
}

func (o *Orchestrator) detect(ctx context.Context) ([]string, error) {
	callCtx, cancel := o.callContext(ctx)
	defer cancel()
	failures, err := o.ops.DetectFailureNodes(callCtx)
	if err != nil {
		return nil, &domain.CollaboratorError{Op: "detect_failure_nodes", Err: err}
	}
	return append([]string{}, failures...), nil
}

// callContext derives the context for one collaborator call.
func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.stepTimeout > 0 {
		return context.WithTimeout(ctx, o.stepTimeout)
	}
	return context.WithCancel(ctx)
}

func (o *Orchestrator) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: o.now(), Type: t, RunID: o.runID}
}
