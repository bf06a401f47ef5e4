package dto

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/dsl"
	"github.com/aretw0/espalier/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func model(t *testing.T) *espalier.Model {
	t.Helper()
	no := func(domain.Context, domain.Event) (bool, error) { return false, nil }

	b := dsl.New("m")
	b.State("a").Initial().
		On("GO", dsl.When("never", no, "b")).
		Assert(func(context.Context, domain.View) error { return nil })
	b.State("b").Final()
	b.State("orphan")

	m, err := espalier.New(b.MustBuild())
	require.NoError(t, err)
	return m
}

func TestNewGraphView(t *testing.T) {
	v := NewGraphView(model(t).Graph())
	assert.Equal(t, "m", v.Machine)
	assert.Equal(t, "a", v.Initial)
	require.Len(t, v.States, 3)
	assert.True(t, v.States[0].Asserted)
	assert.Equal(t, domain.KindFinal, v.States[1].Kind)
	assert.False(t, v.States[2].Reachable)
	assert.Equal(t, []TransitionView{{Source: "a", Event: "GO", Guard: "never", Target: "b"}}, v.Transitions)
	assert.NotEmpty(t, v.Warnings)
}

func TestNewPlansView(t *testing.T) {
	v := NewPlansView(model(t))
	assert.Len(t, v.Paths, 2)
	require.Len(t, v.Plans, 1)
	require.Len(t, v.Rejected, 1, "the guard never holds")
	assert.Equal(t, "b#0", v.Rejected[0].ID)
	assert.Equal(t, 1, v.Rejected[0].Step)
}

func TestNewRunView(t *testing.T) {
	rep := report.New("m", report.WithID("r"))
	rep.Add(domain.Outcome{PlanID: "a#0", Status: domain.StatusFailed, Error: "x"})
	rep.SetCoverage(report.Coverage{Reachable: []string{"a"}})

	v := NewRunView(rep, errors.New("no cases"))
	assert.Equal(t, "r", v.ReportID)
	assert.Equal(t, 1, v.Summary.Failed)
	assert.Len(t, v.Failures, 1)
	assert.Equal(t, float64(0), v.Coverage)
	assert.Equal(t, "no cases", v.Warning)
}
