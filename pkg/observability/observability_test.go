package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStep(ctx, &domain.StepEvent{Event: domain.Event{Type: "SUBMIT"}, Duration: time.Millisecond})
	hooks.OnStep(ctx, &domain.StepEvent{Event: domain.Event{Type: "SUBMIT"}, Err: errors.New("x")})
	hooks.OnAssertion(ctx, &domain.AssertionEvent{State: "locked", Err: errors.New("y")})
	hooks.OnPlanFinish(ctx, &domain.PlanEvent{Target: "locked", Status: domain.StatusFailed, Duration: time.Second})
	hooks.OnPlanFinish(ctx, &domain.PlanEvent{Target: "success", Status: domain.StatusPassed})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Steps.WithLabelValues("SUBMIT", "false")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Steps.WithLabelValues("SUBMIT", "true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Assertions.WithLabelValues("locked", "true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Plans.WithLabelValues("locked", "failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Plans))

	// Registered collectors are exported.
	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := LoggingHooks(logger)
	ctx := context.Background()

	hooks.OnPlanStart(ctx, &domain.PlanEvent{PlanID: "locked#0", Target: "locked"})
	hooks.OnStep(ctx, &domain.StepEvent{PlanID: "locked#0", Index: 1, Event: domain.Event{Type: "SUBMIT"}})
	hooks.OnAssertion(ctx, &domain.AssertionEvent{PlanID: "locked#0", State: "locked", Err: errors.New("still enabled")})
	hooks.OnPlanFinish(ctx, &domain.PlanEvent{PlanID: "locked#0", Status: domain.StatusFailed})

	out := buf.String()
	assert.Contains(t, out, "msg=plan_start plan_id=locked#0")
	assert.Contains(t, out, "msg=step")
	assert.Contains(t, out, `msg=assertion_failed plan_id=locked#0 state=locked err="still enabled"`)
	assert.Contains(t, out, "status=failed")
}
