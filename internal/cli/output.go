package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/config"
	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/aretw0/espalier/pkg/report"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ErrRunFailed is returned when at least one plan failed.
var ErrRunFailed = errors.New("run failed")

// RunResult is a finished run and its non-fatal synthesis warning.
type RunResult struct {
	Report  *report.Report
	Warning error
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// WriteReport renders rep in format. Terminals get colours and rendered Markdown.
func WriteReport(w io.Writer, rep *report.Report, format string, tty bool) error {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case config.FormatMarkdown:
		md := rep.Markdown()
		if tty {
			out, err := tui.NewRenderer()(md)
			if err == nil {
				md = out
			}
		}
		_, err := io.WriteString(w, md)
		return err
	default:
		profile := termenv.Ascii
		if tty {
			profile = termenv.EnvColorProfile()
		}
		return rep.WriteText(w, profile)
	}
}

// WritePlans lists the paths of m and the plans derived from them.
func WritePlans(w io.Writer, m *espalier.Model) error {
	feasible, rejected, synthErr := m.Plans()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "PATH\tSTEPS\tVIA\n")
	for _, p := range m.Paths() {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", p.Description(), p.Len(), strings.TrimPrefix(p.Via(), "via "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d plans (%d rejected by their cases)\n", len(feasible)+len(rejected), len(rejected))
	for _, p := range feasible {
		fmt.Fprintf(w, "  %-28s %s\n", p.ID, p.Description())
	}
	if synthErr != nil {
		fmt.Fprintf(w, "\nwarning: %v\n", synthErr)
	}
	return nil
}

// WriteModels lists the registered models.
func WriteModels(w io.Writer, models []registry.Model) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "NAME\tDESCRIPTION\n")
	for _, m := range models {
		fmt.Fprintf(tw, "%s\t%s\n", m.Name, m.Description)
	}
	return tw.Flush()
}
