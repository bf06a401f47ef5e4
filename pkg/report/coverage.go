package report

import (
	"slices"

	"github.com/aretw0/espalier/pkg/domain"
)

// Coverage relates the reachable leaf states to those exercised by passing plans.
type Coverage struct {
	Reachable   []string `json:"reachable"`
	Covered     []string `json:"covered"`
	Uncovered   []string `json:"uncovered,omitempty"`
	Unreachable []string `json:"unreachable,omitempty"`
}

// Percent returns the share of reachable states covered, 0-100.
func (c Coverage) Percent() float64 {
	if len(c.Reachable) == 0 {
		return 100
	}
	return float64(len(c.Covered)) * 100 / float64(len(c.Reachable))
}

// ComputeCoverage marks a state covered when a passing plan visits it.
func ComputeCoverage(reachable, unreachable []string, plans []domain.Plan, outcomes []domain.Outcome) Coverage {
	passed := make(map[string]bool)
	for _, o := range outcomes {
		if o.Status == domain.StatusPassed {
			passed[o.PlanID] = true
		}
	}

	visited := make(map[string]bool)
	for _, p := range plans {
		if !passed[p.ID] {
			continue
		}
		for _, s := range p.Path.States() {
			visited[s] = true
		}
	}

	c := Coverage{
		Reachable:   slices.Clone(reachable),
		Unreachable: slices.Clone(unreachable),
	}
	for _, id := range reachable {
		if visited[id] {
			c.Covered = append(c.Covered, id)
		} else {
			c.Uncovered = append(c.Uncovered, id)
		}
	}
	return c
}
