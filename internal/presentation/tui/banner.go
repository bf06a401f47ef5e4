package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"                      _ _           ", "#86efac"},
	{"   ___  ___ _ __   __ _| (_) ___ _ __ ", "#4ade80"},
	{"  / _ \\/ __| '_ \\ / _` | | |/ _ \\ '__|", "#22c55e"},
	{" |  __/\\__ \\ |_) | (_| | | |  __/ |   ", "#16a34a"},
	{"  \\___||___/ .__/ \\__,_|_|_|\\___|_|   ", "#15803d"},
	{"           |_|                        ", "#166534"},
}

// PrintBanner writes the espalier banner with a green gradient.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, termenv.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
