package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type credentials struct {
	User string `mapstructure:"user"`
	Pin  int    `mapstructure:"pin"`
}

func TestDecodePayload(t *testing.T) {
	c, err := domain.DecodePayload[credentials](credentials{User: "ann", Pin: 1})
	require.NoError(t, err)
	assert.Equal(t, credentials{User: "ann", Pin: 1}, c)

	c, err = domain.DecodePayload[credentials](map[string]any{"user": "bob", "pin": "42"})
	require.NoError(t, err)
	assert.Equal(t, credentials{User: "bob", Pin: 42}, c)

	_, err = domain.DecodePayload[credentials](nil)
	assert.Error(t, err)

	_, err = domain.DecodePayload[credentials]("text")
	assert.Error(t, err)
}

func TestMachine_WithCases(t *testing.T) {
	m := domain.Machine{
		ID: "m",
		Events: []domain.EventDef{
			{Type: "FILL", Cases: []domain.Case{{Label: "builtin", Payload: 1}}},
		},
	}

	out := m.WithCases(map[string][]domain.Case{
		"FILL":  {{Label: "extra", Payload: 2}},
		"ZOOM":  {{Payload: 3}},
		"ALPHA": {{Payload: 4}},
	})

	require.Len(t, out.Events, 3)
	assert.Len(t, out.Events[0].Cases, 2)
	assert.True(t, out.Events[0].Parameterized)
	assert.Equal(t, "ALPHA", out.Events[1].Type)
	assert.Equal(t, "ZOOM", out.Events[2].Type)

	// The original machine is unchanged.
	assert.Len(t, m.Events, 1)
	assert.Len(t, m.Events[0].Cases, 1)

	assert.Equal(t, m, m.WithCases(nil))
}

func TestMergeHooks(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnPlanStart: func(context.Context, *domain.PlanEvent) { calls = append(calls, "a.start") },
	}
	b := domain.LifecycleHooks{
		OnPlanStart:  func(context.Context, *domain.PlanEvent) { calls = append(calls, "b.start") },
		OnPlanFinish: func(context.Context, *domain.PlanEvent) { calls = append(calls, "b.finish") },
	}

	merged := domain.MergeHooks(a, domain.LifecycleHooks{}, b)
	merged.OnPlanStart(context.Background(), &domain.PlanEvent{})
	merged.OnPlanFinish(context.Background(), &domain.PlanEvent{})
	assert.Nil(t, merged.OnStep)
	assert.Equal(t, []string{"a.start", "b.start", "b.finish"}, calls)
}

func TestErrors(t *testing.T) {
	cause := errors.New("boom")

	var err error = &domain.StepError{Plan: "p#0", Step: 2, Event: "SUBMIT", Cause: cause}
	assert.ErrorIs(t, err, domain.ErrAdapterExecutionFailed)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `plan "p#0" step 2 (SUBMIT)`)

	err = &domain.AssertionError{Plan: "p#0", Step: 1, State: "valid", Cause: cause}
	assert.ErrorIs(t, err, domain.ErrAssertionFailed)
	assert.ErrorIs(t, err, cause)

	err = &domain.GuardError{State: "a", Event: "GO", Index: 1, Cause: cause}
	assert.ErrorIs(t, err, domain.ErrGuardEvaluationFailed)
	assert.Contains(t, err.Error(), "guard #1")

	err = &domain.SynthesisError{Event: "FILL", Paths: []string{"x", "y"}}
	assert.ErrorIs(t, err, domain.ErrNoCasesForParameterizedEvent)
	assert.Contains(t, err.Error(), "2 path(s)")

	err = &domain.DefinitionError{State: "a", Event: "GO", Target: "b", Err: domain.ErrUnknownTargetState}
	assert.ErrorIs(t, err, domain.ErrUnknownTargetState)
	assert.Equal(t, `unknown target state: state "a" on GO -> "b"`, err.Error())
}

func TestPathAndPlan(t *testing.T) {
	p := domain.Path{
		Initial: "pristine",
		Target:  "incorrect",
		Steps: []domain.Step{
			{Source: "pristine", Event: "FILL", Target: "valid"},
			{Source: "valid", Event: "SUBMIT", Target: "incorrect"},
		},
	}
	assert.Equal(t, `reaches state "incorrect"`, p.Description())
	assert.Equal(t, "via FILL → SUBMIT", p.Via())
	assert.Equal(t, []string{"pristine", "valid", "incorrect"}, p.States())
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, "via initial state", domain.Path{Initial: "a", Target: "a"}.Via())

	plan := domain.Plan{ID: "incorrect#0", Path: p, Steps: []domain.PlanStep{
		{Step: p.Steps[0], Event: domain.Event{Type: "FILL", Case: "wrong"}},
		{Step: p.Steps[1], Event: domain.Event{Type: "SUBMIT"}},
	}}
	assert.Equal(t, `reaches state "incorrect" via FILL(wrong) → SUBMIT`, plan.Description())
	assert.Equal(t, "RETRY[1]", domain.Event{Type: "RETRY", Payload: []int{1}}.String())
}

func TestOutcome_Fail(t *testing.T) {
	o := domain.Outcome{Status: domain.StatusRunning}
	assert.False(t, o.Status.IsTerminal())

	o.Fail(2, "valid", errors.New("nope"))
	assert.Equal(t, domain.StatusFailed, o.Status)
	assert.Equal(t, 2, o.FailedStep)
	assert.Equal(t, "valid", o.State)
	assert.Equal(t, "nope", o.Error)
	assert.True(t, o.Status.IsTerminal())
}

func TestStateDef(t *testing.T) {
	assert.Equal(t, "a.b", domain.JoinID("a", "b"))
	assert.Equal(t, "b", domain.JoinID("", "b"))
	assert.True(t, domain.StateDef{Kind: domain.KindFinal}.IsLeaf())
	assert.False(t, domain.StateDef{Kind: domain.KindCompound}.IsLeaf())
}
