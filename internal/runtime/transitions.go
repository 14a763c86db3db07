package runtime

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/mender/pkg/domain"
)

// stepFunc advances the orchestrator from one specific state.
type stepFunc func(o *Orchestrator, ctx context.Context) error

// dispatch maps every non-terminal state to its handler.
var dispatch = map[domain.State]stepFunc{
	domain.StateInit:             (*Orchestrator).stepInit,
	domain.StateFailureDetection: (*Orchestrator).stepFailureDetection,
	domain.StateImpactAnalysis:   (*Orchestrator).stepImpactAnalysis,
	domain.StateRepairPlanning:   (*Orchestrator).stepRepairPlanning,
	domain.StateExecution:        (*Orchestrator).stepExecution,
	domain.StateRescheduling:     (*Orchestrator).stepRescheduling,
}

// allowedTransitions is the legality table. FINAL has no exits.
var allowedTransitions = map[domain.State][]domain.State{
	domain.StateInit:             {domain.StateFailureDetection},
	domain.StateFailureDetection: {domain.StateFinal, domain.StateImpactAnalysis},
	domain.StateImpactAnalysis:   {domain.StateRepairPlanning},
	domain.StateRepairPlanning:   {domain.StateRepairPlanning, domain.StateExecution, domain.StateFinal},
	domain.StateExecution:        {domain.StateRescheduling, domain.StateRepairPlanning},
	domain.StateRescheduling:     {domain.StateFailureDetection, domain.StateFinal},
}

// CanTransition reports whether the table allows moving from one state to another.
func CanTransition(from, to domain.State) bool {
	return slices.Contains(allowedTransitions[from], to)
}

// transition records a move and makes it current. Every state change,
// self-loops included, goes through here.
func (o *Orchestrator) transition(ctx context.Context, to domain.State, tag string, data map[string]any) error {
	from := o.state
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s (%s)", domain.ErrIllegalTransition, from, to, tag)
	}
	if data == nil {
		data = map[string]any{}
	}
	rec := domain.TransitionRecord{
		From:   from,
		To:     to,
		Action: tag,
		Data:   data,
		At:     o.now(),
	}
	o.history.Append(rec)
	o.state = to

	o.logger.Info("transition", "from", from.String(), "to", to.String(), "action", tag)
	if o.hooks.OnTransition != nil {
		o.hooks.OnTransition(ctx, &domain.TransitionEvent{
			EventBase: o.event(domain.EventTransition),
			Record:    rec,
		})
	}
	return nil
}
