// Package runtime implements the triage orchestrator: a closed state
// machine that detects failed nodes, estimates their impact, plans repairs
// through a decision delegate and dispatches crews.
//
// Every move is looked up in a single dispatch table and checked against
// the legality table before it is recorded, so the trace in History is the
// complete account of a run.
package runtime
