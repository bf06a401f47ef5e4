package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/report"
)

// Mask replaces redacted text.
const Mask = "***"

// Masker replaces every match of a set of patterns with Mask.
// A nil Masker leaves text unchanged.
type Masker struct {
	patterns []*regexp.Regexp
}

// NewMasker compiles the patterns.
func NewMasker(patternStrings []string) (*Masker, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return &Masker{patterns: patterns}, nil
}

// Mask returns s with every match replaced.
func (m *Masker) Mask(s string) string {
	if m == nil {
		return s
	}
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}

// Middleware returns a store middleware masking reports with m.
func (m *Masker) Middleware() Middleware {
	return func(next ports.ReportStore) ports.ReportStore {
		return &redactMiddleware{next: next, masker: m}
	}
}

type redactMiddleware struct {
	next   ports.ReportStore
	masker *Masker
}

// NewRedactionMiddleware creates a middleware that masks every match of the patterns
// in outcome descriptions and errors before a report is stored. Payloads without a
// case label are rendered into plan descriptions, so secrets typed by a plan
// (passwords, tokens) would otherwise be persisted verbatim.
func NewRedactionMiddleware(patternStrings []string) (Middleware, error) {
	m, err := NewMasker(patternStrings)
	if err != nil {
		return nil, err
	}
	return m.Middleware(), nil
}

func (m *redactMiddleware) Save(ctx context.Context, r *report.Report) error {
	// Work on a copy so the caller's report keeps the original text.
	masked := report.New(r.Machine, report.WithID(r.ID))
	masked.StartedAt = r.StartedAt
	masked.FinishedAt = r.FinishedAt
	if c, ok := r.Coverage(); ok {
		masked.SetCoverage(c)
	}

	for _, o := range r.Outcomes() {
		if o.Err != nil && o.Error == "" {
			o.Error = o.Err.Error()
		}
		o.Err = nil
		o.Description = m.masker.Mask(o.Description)
		o.PathDescription = m.masker.Mask(o.PathDescription)
		o.Error = m.masker.Mask(o.Error)
		masked.Add(o)
	}

	return m.next.Save(ctx, masked)
}

func (m *redactMiddleware) Load(ctx context.Context, id string) (*report.Report, error) {
	return m.next.Load(ctx, id)
}

func (m *redactMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
