// Package dto holds the wire representations shared by the HTTP and MCP adapters.
package dto

import (
	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/graph"
	"github.com/aretw0/espalier/pkg/report"
)

// ModelInfo describes a registered model.
type ModelInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// StateView is the wire form of a state.
type StateView struct {
	ID          string      `json:"id"`
	Parent      string      `json:"parent,omitempty"`
	Kind        domain.Kind `json:"kind"`
	Initial     bool        `json:"initial,omitempty"`
	Description string      `json:"description,omitempty"`
	Reachable   bool        `json:"reachable"`
	Asserted    bool        `json:"asserted"`
}

// TransitionView is the wire form of one guarded candidate.
type TransitionView struct {
	Source string `json:"source"`
	Event  string `json:"event"`
	Guard  string `json:"guard,omitempty"`
	Target string `json:"target"`
}

// GraphView is the wire form of a state graph.
type GraphView struct {
	Machine     string           `json:"machine"`
	Initial     string           `json:"initial"`
	States      []StateView      `json:"states"`
	Transitions []TransitionView `json:"transitions"`
	Warnings    []string         `json:"warnings,omitempty"`
}

// NewGraphView flattens g for serialization.
func NewGraphView(g *graph.Graph) GraphView {
	v := GraphView{
		Machine:  g.MachineID(),
		Initial:  g.Initial(),
		Warnings: g.Warnings(),
	}
	for _, s := range g.States() {
		v.States = append(v.States, StateView{
			ID:          s.ID,
			Parent:      s.Parent,
			Kind:        s.Kind,
			Initial:     s.Initial,
			Description: s.Description,
			Reachable:   g.IsReachable(s.ID),
			Asserted:    s.Assert != nil,
		})
		for _, t := range g.Declared(s.ID) {
			for _, c := range t.Candidates {
				v.Transitions = append(v.Transitions, TransitionView{
					Source: s.ID,
					Event:  t.Event,
					Guard:  c.GuardName,
					Target: c.Target,
				})
			}
		}
	}
	return v
}

// PlanView summarizes a plan.
type PlanView struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Target      string `json:"target"`
	Steps       int    `json:"steps"`
}

// RejectionView explains why a plan will not run.
type RejectionView struct {
	PlanView
	Step  int    `json:"step"`
	Error string `json:"error"`
}

// PlansView lists the paths and plans of a model.
type PlansView struct {
	Paths    []domain.Path   `json:"paths"`
	Plans    []PlanView      `json:"plans"`
	Rejected []RejectionView `json:"rejected"`
	Error    string          `json:"error,omitempty"`
}

// NewPlansView derives the plans of m for serialization.
func NewPlansView(m *espalier.Model) PlansView {
	feasible, rejected, err := m.Plans()
	v := PlansView{
		Paths:    m.Paths(),
		Plans:    []PlanView{},
		Rejected: []RejectionView{},
	}
	for _, p := range feasible {
		v.Plans = append(v.Plans, planView(p))
	}
	for _, r := range rejected {
		v.Rejected = append(v.Rejected, RejectionView{PlanView: planView(r.Plan), Step: r.Step, Error: r.Err.Error()})
	}
	if err != nil {
		v.Error = err.Error()
	}
	return v
}

func planView(p domain.Plan) PlanView {
	return PlanView{ID: p.ID, Description: p.Description(), Target: p.Path.Target, Steps: len(p.Steps)}
}

// PlanEventView is streamed to SSE subscribers when a plan settles.
type PlanEventView struct {
	PlanID   string        `json:"plan_id"`
	Target   string        `json:"target"`
	Status   domain.Status `json:"status"`
	Duration string        `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// RunView summarizes a finished run for tool clients.
type RunView struct {
	ReportID string           `json:"report_id" jsonschema_description:"ID of the stored report"`
	Machine  string           `json:"machine" jsonschema_description:"Machine the plans were derived from"`
	Summary  report.Summary   `json:"summary" jsonschema_description:"Outcome counts per status"`
	Coverage float64          `json:"coverage" jsonschema_description:"Percentage of reachable states visited by passing plans"`
	Failures []domain.Outcome `json:"failures" jsonschema_description:"Failed plans with the failing step and state"`
	Warning  string           `json:"warning,omitempty" jsonschema_description:"Synthesis problems, e.g. events without cases"`
}

// NewRunView summarizes rep. warning is the optional synthesis error of the run.
func NewRunView(rep *report.Report, warning error) RunView {
	v := RunView{
		ReportID: rep.ID,
		Machine:  rep.Machine,
		Summary:  rep.Summary(),
		Failures: rep.Failures(),
	}
	if v.Failures == nil {
		v.Failures = []domain.Outcome{}
	}
	if c, ok := rep.Coverage(); ok {
		v.Coverage = c.Percent()
	}
	if warning != nil {
		v.Warning = warning.Error()
	}
	return v
}
