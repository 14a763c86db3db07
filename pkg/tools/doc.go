// Package tools implements the domain operations of the triage loop.
//
// System operations (failure scan, impact estimate, crew assignment) are
// driven by the orchestrator directly. Agent tools are informational and
// are only ever invoked when the planner asks for them by name.
//
// Both sets declare their signatures statically and are installed into a
// registry.Registry with Register.
package tools
