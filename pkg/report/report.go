// Package report aggregates plan outcomes into human-readable and CI-consumable summaries.
package report

import (
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/google/uuid"
)

// Report collects the outcomes of one run. Add is safe for concurrent use.
type Report struct {
	ID         string
	Machine    string
	StartedAt  time.Time
	FinishedAt time.Time

	mu       sync.Mutex
	outcomes []domain.Outcome
	coverage *Coverage
}

// Option configures a Report.
type Option func(*Report)

// WithID overrides the generated report ID.
func WithID(id string) Option {
	return func(r *Report) {
		r.ID = id
	}
}

// New creates an empty report for a machine, stamped with the current time.
func New(machine string, opts ...Option) *Report {
	r := &Report{
		ID:        uuid.NewString(),
		Machine:   machine,
		StartedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add records an outcome.
func (r *Report) Add(outcomes ...domain.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range outcomes {
		if o.Err != nil && o.Error == "" {
			o.Error = o.Err.Error()
		}
		r.outcomes = append(r.outcomes, o)
	}
}

// Finish stamps the end of the run.
func (r *Report) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FinishedAt = time.Now().UTC()
}

// Outcomes returns a copy of the recorded outcomes in insertion order.
func (r *Report) Outcomes() []domain.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.outcomes)
}

// Summary counts outcomes per status.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Summary returns the outcome counts.
func (r *Report) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Summary{Total: len(r.outcomes)}
	for _, o := range r.outcomes {
		switch o.Status {
		case domain.StatusPassed:
			s.Passed++
		case domain.StatusFailed:
			s.Failed++
		case domain.StatusSkipped:
			s.Skipped++
		}
	}
	return s
}

// Passed reports whether no plan failed.
func (r *Report) Passed() bool {
	return r.Summary().Failed == 0
}

// Failures returns the failed outcomes.
func (r *Report) Failures() []domain.Outcome {
	return slices.DeleteFunc(r.Outcomes(), func(o domain.Outcome) bool {
		return o.Status != domain.StatusFailed
	})
}

// Group collects the outcomes of one Path.
type Group struct {
	Path     string           `json:"path"`
	Target   string           `json:"target"`
	Outcomes []domain.Outcome `json:"outcomes"`
}

// Groups returns outcomes grouped by path description, in first-seen order.
func (r *Report) Groups() []Group {
	var groups []Group
	index := make(map[string]int)
	for _, o := range r.Outcomes() {
		i, ok := index[o.PathDescription]
		if !ok {
			i = len(groups)
			index[o.PathDescription] = i
			groups = append(groups, Group{Path: o.PathDescription, Target: o.Target})
		}
		groups[i].Outcomes = append(groups[i].Outcomes, o)
	}
	return groups
}

// SetCoverage attaches state coverage to the report.
func (r *Report) SetCoverage(c Coverage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coverage = &c
}

// Coverage returns the attached coverage, if any.
func (r *Report) Coverage() (Coverage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.coverage == nil {
		return Coverage{}, false
	}
	return *r.coverage, true
}

type wireReport struct {
	ID         string           `json:"id"`
	Machine    string           `json:"machine"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Summary    Summary          `json:"summary"`
	Coverage   *Coverage        `json:"coverage,omitempty"`
	Outcomes   []domain.Outcome `json:"outcomes"`
}

// MarshalJSON implements json.Marshaler.
func (r *Report) MarshalJSON() ([]byte, error) {
	w := wireReport{
		ID:         r.ID,
		Machine:    r.Machine,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Summary:    r.Summary(),
		Outcomes:   r.Outcomes(),
	}
	if c, ok := r.Coverage(); ok {
		w.Coverage = &c
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Report) UnmarshalJSON(data []byte) error {
	var w wireReport
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ID = w.ID
	r.Machine = w.Machine
	r.StartedAt = w.StartedAt
	r.FinishedAt = w.FinishedAt
	r.outcomes = w.Outcomes
	r.coverage = w.Coverage
	return nil
}
