package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by harness hooks.
type Metrics struct {
	Plans        *prometheus.CounterVec
	PlanDuration *prometheus.HistogramVec
	Steps        *prometheus.CounterVec
	StepDuration *prometheus.HistogramVec
	Assertions   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg (if not nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Plans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_plans_total",
				Help: "Total number of settled plans",
			},
			[]string{"target", "status"},
		),
		PlanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "espalier_plan_duration_seconds",
				Help: "Duration of plan executions",
			},
			[]string{"target"},
		),
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_steps_total",
				Help: "Total number of executed steps",
			},
			[]string{"event", "failed"},
		),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "espalier_step_duration_seconds",
				Help: "Duration of event executions",
			},
			[]string{"event"},
		),
		Assertions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_assertions_total",
				Help: "Total number of state assertions",
			},
			[]string{"state", "failed"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Plans, m.PlanDuration, m.Steps, m.StepDuration, m.Assertions)
	}
	return m
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			m.Steps.WithLabelValues(e.Event.Type, strconv.FormatBool(e.Err != nil)).Inc()
			m.StepDuration.WithLabelValues(e.Event.Type).Observe(e.Duration.Seconds())
		},
		OnAssertion: func(_ context.Context, e *domain.AssertionEvent) {
			m.Assertions.WithLabelValues(e.State, strconv.FormatBool(e.Err != nil)).Inc()
		},
		OnPlanFinish: func(_ context.Context, e *domain.PlanEvent) {
			m.Plans.WithLabelValues(e.Target, string(e.Status)).Inc()
			m.PlanDuration.WithLabelValues(e.Target).Observe(e.Duration.Seconds())
		},
	}
}
