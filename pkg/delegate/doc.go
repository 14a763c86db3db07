/*
Package delegate provides implementations of ports.DecisionDelegate.

  - Script replays a fixed list of responses (the last one repeats), for tests and demos.
  - LLM renders the planning prompt and asks a langchaingo model for the next action.
*/
package delegate
