/*
Package domain contains the core types of the mender triage orchestrator.

It defines the lifecycle states, the working memory a run accumulates, the
decisions produced by the planning delegate and the transition records that
make up a run's trace. The package is kept free of I/O so every other layer
(runtime, adapters, presentation) can share it.

# Key Entities

  - State: closed set of lifecycle phases, FINAL being the only sink.
  - WorkingMemory: failures, impact report, plan history, pending action and last execution result.
  - Decision: the delegate's chosen action and arguments, parsed from JSON text or maps.
  - TransitionRecord: one append-only trace entry (from, to, action tag, data).
  - Summary / RunReport: read-only projections for diagnostics and archiving.
*/
package domain
