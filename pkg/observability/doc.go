/*
Package observability turns orchestrator lifecycle events into metrics and
structured logs.

Metrics exposes Prometheus counters and histograms through a private
registry; LoggingHooks mirrors the same events to a slog.Logger. Combine
fans several hook sets out so both can be attached to one orchestrator.
*/
package observability
