package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/mender/pkg/domain"
	"github.com/aretw0/mender/pkg/registry"
)

// planOutcome is the result of one planning attempt.
type planOutcome int

const (
	planFailed planOutcome = iota
	planTerminal
	planToolCall
)

func (o *Orchestrator) stepRepairPlanning(ctx context.Context) error {
	decision, outcome, err := o.plan(ctx)
	if err != nil {
		return err
	}

	switch outcome {
	case planTerminal:
		o.retryCount = 0
		o.memory.PendingAction = decision.Clone()
		return o.transition(ctx, domain.StateExecution, domain.TagDecisionAssignCrew, map[string]any{
			domain.KeyDecision: *decision.Clone(),
		})
	case planToolCall:
		o.retryCount = 0
		return o.transition(ctx, domain.StateRepairPlanning, domain.TagDecisionUseTool, map[string]any{
			domain.KeyTool:      decision.Action,
			domain.KeyArguments: decision.Clone().Arguments,
		})
	}

	o.retryCount++
	if o.retryCount >= o.maxRetries {
		o.logger.Warn("planning retries exhausted", "retry_count", o.retryCount)
		return o.transition(ctx, domain.StateFinal, domain.TagMaxRetriesReached, map[string]any{
			domain.KeyRetryCount: o.retryCount,
		})
	}
	return nil
}

// plan runs the planning sub-protocol once. A nil error with planFailed
// means the attempt was recorded in the plan history and counts as a retry.
func (o *Orchestrator) plan(ctx context.Context) (*domain.Decision, planOutcome, error) {
	req := domain.DecisionRequest{
		Instructions: o.instructions,
		Context: domain.PlanningContext{
			Failures:            append([]string{}, o.memory.Failures...),
			ImpactReport:        o.memory.Clone().ImpactReport,
			ConversationHistory: o.memory.RecentHistory(o.historyWindow),
		},
		ToolDescriptions: o.registry.Describe(),
	}

	callCtx, cancel := o.callContext(ctx)
	raw, err := o.delegate.Decide(callCtx, req)
	cancel()
	if err != nil && !errors.Is(err, domain.ErrEmptyDecision) {
		return nil, planFailed, o.collaboratorFailure(ctx, "decide", err)
	}

	var decision *domain.Decision
	if err == nil {
		decision, err = domain.ParseDecision(raw)
	}
	switch {
	case errors.Is(err, domain.ErrEmptyDecision):
		o.planningFailure(ctx, domain.MsgEmptyResponse)
		return nil, planFailed, nil
	case err != nil:
		o.planningFailure(ctx, domain.MsgInvalidJSON)
		return nil, planFailed, nil
	}

	o.logger.Debug("decision", "action", decision.Action, "thoughts", decision.Thoughts)

	if decision.Action == domain.ActionAssignRepairCrew {
		if _, _, err := domain.DecodeAssignment(decision.Arguments); err != nil {
			o.planningFailure(ctx, fmt.Sprintf("Invalid arguments for %s: %v", domain.ActionAssignRepairCrew, err))
			return nil, planFailed, nil
		}
		return decision, planTerminal, nil
	}

	fn, ok := o.registry.Lookup(decision.Action)
	if !ok {
		o.planningFailure(ctx, domain.MsgUnknownTool+decision.Action)
		return nil, planFailed, nil
	}

	result, err := o.invokeTool(ctx, decision, fn)
	if err != nil {
		return nil, planFailed, o.collaboratorFailure(ctx, decision.Action, err)
	}
	o.memory.PlanHistory = append(o.memory.PlanHistory, domain.PlanEntry{
		Role:   domain.RoleToolOutput,
		Tool:   decision.Action,
		Result: result,
	})
	return decision, planToolCall, nil
}

func (o *Orchestrator) invokeTool(ctx context.Context, d *domain.Decision, fn registry.ToolFunction) (any, error) {
	if o.hooks.OnToolCall != nil {
		o.hooks.OnToolCall(ctx, &domain.ToolEvent{
			EventBase: o.event(domain.EventToolCall),
			ToolName:  d.Action,
			Input:     d.Arguments,
		})
	}

	start := o.now()
	callCtx, cancel := o.callContext(ctx)
	result, err := fn(callCtx, d.Clone().Arguments)
	cancel()

	o.logger.Debug("tool returned", "tool", d.Action, "err", err)
	if o.hooks.OnToolReturn != nil {
		evt := &domain.ToolEvent{
			EventBase: o.event(domain.EventToolReturn),
			ToolName:  d.Action,
			Output:    result,
			IsError:   err != nil,
			Duration:  o.now().Sub(start),
		}
		if err != nil {
			evt.Output = err.Error()
		}
		o.hooks.OnToolReturn(ctx, evt)
	}
	return result, err
}

// planningFailure appends an error entry to the plan history.
func (o *Orchestrator) planningFailure(ctx context.Context, message string) {
	o.memory.PlanHistory = append(o.memory.PlanHistory, domain.PlanEntry{
		Role:    domain.RoleError,
		Message: message,
	})
	o.logger.Warn("planning failed", "reason", message, "retry_count", o.retryCount+1)
	if o.hooks.OnPlanningFailure != nil {
		o.hooks.OnPlanningFailure(ctx, &domain.PlanningFailureEvent{
			EventBase:  o.event(domain.EventPlanningFailure),
			Reason:     message,
			RetryCount: o.retryCount + 1,
		})
	}
}

// collaboratorFailure applies the error policy to a delegate or tool error.
// It returns nil when the failure was absorbed into the retry budget.
func (o *Orchestrator) collaboratorFailure(ctx context.Context, op string, err error) error {
	if o.errorPolicy == domain.PolicyCountAsPlanningFailure && ctx.Err() == nil {
		o.planningFailure(ctx, fmt.Sprintf("%s failed: %v", op, err))
		return nil
	}
	return &domain.CollaboratorError{Op: op, Err: err}
}
