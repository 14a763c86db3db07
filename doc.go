/*
Package mender is a deterministic triage orchestrator for infrastructure failures.

A run walks a fixed lifecycle: failures are detected, their impact is
estimated, a planning delegate (a language model or a scripted double)
chooses repair crews, the assignment is executed and the network is scanned
again for cascading failures. Every transition is recorded so a finished run
can be inspected, archived and drawn as a Mermaid flowchart.

	INIT -> FAILURE_DETECTION -> IMPACT_ANALYSIS -> REPAIR_PLANNING
	REPAIR_PLANNING -> EXECUTION -> RESCHEDULING -> FINAL

Planning may loop on itself while the delegate calls informational tools
(weather, calendar, crew capacity). Repeated planning failures end the run
once the retry limit is reached.

# Usage

	engine, err := mender.New(
		mender.WithScenario(tools.DefaultScenario()),
		mender.WithDelegate(delegate.NewTextScript([]string{decision})),
	)
	if err != nil {
		log.Fatal(err)
	}
	summary, err := engine.Run(context.Background())

Hosts that manage many runs use pkg/session, which serializes steps per run
and archives finished reports; pkg/adapters/http exposes the same over HTTP.
*/
package mender
