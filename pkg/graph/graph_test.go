package graph_test

import (
	"errors"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/dsl"
	"github.com/aretw0/espalier/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wizard(t *testing.T) *graph.Graph {
	t.Helper()
	b := dsl.New("wizard")
	b.State("start").Initial().On("BEGIN", dsl.Go("form"))

	form := b.State("form").On("CANCEL", dsl.Go("start"))
	form.State("name").Initial().On("NEXT", dsl.Go("form.address"))
	form.State("address").
		On("NEXT", dsl.Go("done")).
		On("CANCEL", dsl.Go("form.name"))

	b.State("done").Final()
	b.State("orphan")

	g, err := graph.Build(b.MustBuild())
	require.NoError(t, err)
	return g
}

func TestBuild_Hierarchy(t *testing.T) {
	g := wizard(t)

	assert.Equal(t, "wizard", g.MachineID())
	assert.Equal(t, "start", g.Initial())
	assert.Equal(t, []string{"start", "form.name", "form.address", "done", "orphan"}, g.Leaves())
	assert.Equal(t, []string{"form.name", "form.address"}, g.Children("form"))
	assert.Equal(t, []string{"form", "form.address"}, g.Ancestry("form.address"))

	s, ok := g.State("form")
	require.True(t, ok)
	assert.Equal(t, domain.KindCompound, s.Kind)
	s, _ = g.State("done")
	assert.Equal(t, domain.KindFinal, s.Kind)
	s, _ = g.State("start")
	assert.Equal(t, domain.KindAtomic, s.Kind)
}

func TestBuild_CompoundTargetResolvesToInitialChild(t *testing.T) {
	g := wizard(t)
	cands := g.TransitionsFrom("start", "BEGIN")
	require.Len(t, cands, 1)
	assert.Equal(t, "form.name", cands[0].Target)
}

func TestTransitionsFrom_Inheritance(t *testing.T) {
	g := wizard(t)

	// Inherited from the compound parent.
	cands := g.TransitionsFrom("form.name", "CANCEL")
	require.Len(t, cands, 1)
	assert.Equal(t, "start", cands[0].Target)

	// The nearest declaration wins.
	cands = g.TransitionsFrom("form.address", "CANCEL")
	require.Len(t, cands, 1)
	assert.Equal(t, "form.name", cands[0].Target)

	assert.Equal(t, []string{"NEXT", "CANCEL"}, g.Events("form.name"))
	assert.Empty(t, g.TransitionsFrom("start", "NEXT"))
	assert.Empty(t, g.Events("done"))
	assert.Empty(t, g.TransitionsFrom("done", "NEXT"))

	declared := g.Declared("form")
	require.Len(t, declared, 1)
	assert.Equal(t, "CANCEL", declared[0].Event)
}

func TestBuild_Reachability(t *testing.T) {
	g := wizard(t)

	assert.True(t, g.IsReachable("form"))
	assert.True(t, g.IsReachable("done"))
	assert.False(t, g.IsReachable("orphan"))
	assert.Equal(t, []string{"orphan"}, g.Unreachable())
	assert.Equal(t, []string{"start", "form.name", "form.address", "done"}, g.ReachableLeaves())
	require.Len(t, g.Warnings(), 1)
	assert.Contains(t, g.Warnings()[0], "orphan")
}

func TestBuild_ImplicitEvents(t *testing.T) {
	b := dsl.New("m")
	b.State("a").Initial().On("GO", dsl.Go("b"))
	b.State("b")
	b.Event("DECLARED").Describe("never used")

	g, err := graph.Build(b.MustBuild())
	require.NoError(t, err)

	var tags []string
	for _, def := range g.EventDefs() {
		tags = append(tags, def.Type)
	}
	assert.Equal(t, []string{"DECLARED", "GO"}, tags)

	def, ok := g.Event("GO")
	require.True(t, ok)
	assert.False(t, def.Parameterized)
}

func TestBuild_ContextIsCopied(t *testing.T) {
	b := dsl.New("m").Context("limit", 3)
	b.State("a").Initial()
	g, err := graph.Build(b.MustBuild())
	require.NoError(t, err)

	ctx := g.Context()
	ctx["limit"] = 99
	assert.Equal(t, 3, g.Context()["limit"])
}

func TestBuild_DefinitionErrors(t *testing.T) {
	tests := []struct {
		name    string
		machine domain.Machine
		want    error
	}{
		{
			name: "unknown target",
			machine: domain.Machine{ID: "m",
				States:      []domain.StateDef{{ID: "a", Initial: true}},
				Transitions: []domain.TransitionDef{{Source: "a", Event: "GO", Candidates: []domain.Candidate{{Target: "nowhere"}}}},
			},
			want: domain.ErrUnknownTargetState,
		},
		{
			name: "final with transitions",
			machine: domain.Machine{ID: "m",
				States:      []domain.StateDef{{ID: "a", Initial: true}, {ID: "end", Kind: domain.KindFinal}},
				Transitions: []domain.TransitionDef{{Source: "end", Event: "GO", Candidates: []domain.Candidate{{Target: "a"}}}},
			},
			want: domain.ErrInvalidFinalState,
		},
		{
			name:    "no initial state",
			machine: domain.Machine{ID: "m", States: []domain.StateDef{{ID: "a"}, {ID: "b"}}},
			want:    domain.ErrInvalidInitialState,
		},
		{
			name:    "two initial states",
			machine: domain.Machine{ID: "m", States: []domain.StateDef{{ID: "a", Initial: true}, {ID: "b", Initial: true}}},
			want:    domain.ErrInvalidInitialState,
		},
		{
			name:    "duplicate state",
			machine: domain.Machine{ID: "m", States: []domain.StateDef{{ID: "a", Initial: true}, {ID: "a"}}},
			want:    domain.ErrDuplicateState,
		},
		{
			name:    "unknown parent",
			machine: domain.Machine{ID: "m", States: []domain.StateDef{{ID: "a", Initial: true}, {ID: "x.b", Parent: "x"}}},
			want:    domain.ErrUnknownParent,
		},
		{
			name: "compound target without initial child",
			machine: domain.Machine{ID: "m",
				States: []domain.StateDef{
					{ID: "a", Initial: true},
					{ID: "p"},
					{ID: "p.x", Parent: "p"},
				},
				Transitions: []domain.TransitionDef{{Source: "a", Event: "GO", Candidates: []domain.Candidate{{Target: "p"}}}},
			},
			want: domain.ErrInvalidCompoundState,
		},
		{
			name: "unknown source",
			machine: domain.Machine{ID: "m",
				States:      []domain.StateDef{{ID: "a", Initial: true}},
				Transitions: []domain.TransitionDef{{Source: "ghost", Event: "GO", Candidates: []domain.Candidate{{Target: "a"}}}},
			},
			want: domain.ErrUnknownSourceState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := graph.Build(tt.machine)
			assert.Nil(t, g)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var de *domain.DefinitionError
			assert.True(t, errors.As(err, &de))
		})
	}
}

func TestBuild_CollectsAllErrors(t *testing.T) {
	m := domain.Machine{ID: "broken",
		States: []domain.StateDef{{ID: "a", Initial: true}, {ID: "end", Kind: domain.KindFinal}},
		Transitions: []domain.TransitionDef{
			{Source: "a", Event: "GO", Candidates: []domain.Candidate{{Target: "nowhere"}}},
			{Source: "end", Event: "BACK", Candidates: []domain.Candidate{{Target: "a"}}},
		},
	}
	_, err := graph.Build(m)
	require.Error(t, err)

	errs := graph.DefinitionErrors(err)
	assert.Len(t, errs, 2)
	assert.ErrorIs(t, err, domain.ErrUnknownTargetState)
	assert.ErrorIs(t, err, domain.ErrInvalidFinalState)
	assert.Contains(t, err.Error(), "2 definition errors")
}
