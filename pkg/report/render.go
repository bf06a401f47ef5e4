package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/muesli/termenv"
)

// Markdown renders the report as a Markdown document, one section per path.
func (r *Report) Markdown() string {
	var sb strings.Builder
	s := r.Summary()

	sb.WriteString(fmt.Sprintf("# %s\n\n", r.Machine))
	sb.WriteString(fmt.Sprintf("**%d plans**: %d passed, %d failed, %d skipped\n\n", s.Total, s.Passed, s.Failed, s.Skipped))

	if c, ok := r.Coverage(); ok {
		sb.WriteString(fmt.Sprintf("**Coverage:** %d/%d states (%.0f%%)\n\n", len(c.Covered), len(c.Reachable), c.Percent()))
		if len(c.Uncovered) > 0 {
			sb.WriteString(fmt.Sprintf("- Uncovered: %s\n", strings.Join(c.Uncovered, ", ")))
		}
		if len(c.Unreachable) > 0 {
			sb.WriteString(fmt.Sprintf("- Unreachable: %s\n", strings.Join(c.Unreachable, ", ")))
		}
		if len(c.Uncovered)+len(c.Unreachable) > 0 {
			sb.WriteString("\n")
		}
	}

	for _, g := range r.Groups() {
		sb.WriteString(fmt.Sprintf("## %s\n\n", g.Path))
		for _, o := range g.Outcomes {
			sb.WriteString(fmt.Sprintf("- %s `%s` %s\n", statusMark(o.Status), o.PlanID, o.Description))
			if o.Status != domain.StatusPassed && o.Error != "" {
				sb.WriteString(fmt.Sprintf("  - %s\n", o.Error))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func statusMark(s domain.Status) string {
	switch s {
	case domain.StatusPassed:
		return "✅"
	case domain.StatusFailed:
		return "❌"
	case domain.StatusSkipped:
		return "⏭️"
	}
	return "•"
}

// WriteText writes a compact, optionally coloured, plain-text report.
// Pass termenv.Ascii to disable colours.
func (r *Report) WriteText(w io.Writer, p termenv.Profile) error {
	style := func(text, color string) string {
		return termenv.String(text).Foreground(p.Color(color)).String()
	}
	labels := map[domain.Status]string{
		domain.StatusPassed:  style("PASS", "#22c55e"),
		domain.StatusFailed:  style("FAIL", "#ef4444"),
		domain.StatusSkipped: style("SKIP", "#a3a3a3"),
	}

	for _, g := range r.Groups() {
		if _, err := fmt.Fprintln(w, g.Path); err != nil {
			return err
		}
		for _, o := range g.Outcomes {
			label, ok := labels[o.Status]
			if !ok {
				label = string(o.Status)
			}
			if _, err := fmt.Fprintf(w, "  %s %s\n", label, o.Description); err != nil {
				return err
			}
			if o.Status == domain.StatusFailed && o.Error != "" {
				if _, err := fmt.Fprintf(w, "       %s\n", o.Error); err != nil {
					return err
				}
			}
		}
	}

	s := r.Summary()
	line := fmt.Sprintf("%d plans: %d passed, %d failed, %d skipped", s.Total, s.Passed, s.Failed, s.Skipped)
	if c, ok := r.Coverage(); ok {
		line += fmt.Sprintf(" | coverage %d/%d states", len(c.Covered), len(c.Reachable))
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
