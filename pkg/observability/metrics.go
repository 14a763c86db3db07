package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/mender/pkg/domain"
)

const namespace = "mender"

// Metrics records orchestrator activity as Prometheus series.
type Metrics struct {
	registry         *prometheus.Registry
	transitions      *prometheus.CounterVec
	finished         *prometheus.CounterVec
	toolCalls        *prometheus.CounterVec
	toolDuration     *prometheus.HistogramVec
	planningFailures prometheus.Counter
}

// NewMetrics creates the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Recorded state transitions.",
		}, []string{"from", "to", "action"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_finished_total",
			Help:      "Runs that reached FINAL, by final action.",
		}, []string{"action"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Planner tool invocations.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Duration of planner tool invocations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		planningFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "planning_failures_total",
			Help:      "Planning attempts that produced no usable decision.",
		}),
	}
	m.registry.MustRegister(m.transitions, m.finished, m.toolCalls, m.toolDuration, m.planningFailures)
	return m
}

// Registry exposes the underlying registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			r := e.Record
			m.transitions.WithLabelValues(r.From.String(), r.To.String(), r.Action).Inc()
			if r.To.Terminal() {
				m.finished.WithLabelValues(r.Action).Inc()
			}
		},
		OnToolReturn: func(_ context.Context, e *domain.ToolEvent) {
			outcome := "ok"
			if e.IsError {
				outcome = "error"
			}
			m.toolCalls.WithLabelValues(e.ToolName, outcome).Inc()
			m.toolDuration.WithLabelValues(e.ToolName).Observe(e.Duration.Seconds())
		},
		OnPlanningFailure: func(context.Context, *domain.PlanningFailureEvent) {
			m.planningFailures.Inc()
		},
	}
}
