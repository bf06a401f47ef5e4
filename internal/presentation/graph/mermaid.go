// Package graph renders state graphs as Mermaid diagrams.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	sgraph "github.com/aretw0/espalier/pkg/graph"
)

// Overlay contains run data to visualize on the graph.
type Overlay struct {
	// Covered states were visited by a passing plan.
	Covered []string
	// Failed states are where a plan failed.
	Failed []string
}

// GenerateMermaid produces a Mermaid stateDiagram-v2 for g.
// Compound states are drawn as composite states with their own initial marker,
// transitions are labelled "EVENT [guard]" in evaluation order.
func GenerateMermaid(g *sgraph.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")

	writeStates(&sb, g, "", 1)

	for _, s := range g.States() {
		for _, t := range g.Declared(s.ID) {
			for _, c := range t.Candidates {
				label := t.Event
				if c.GuardName != "" {
					label = fmt.Sprintf("%s [%s]", t.Event, c.GuardName)
				}
				sb.WriteString(fmt.Sprintf("    %s --> %s : %s\n",
					sanitizeMermaidID(s.ID), sanitizeMermaidID(c.Target), escapeLabel(label)))
			}
		}
		if s.Kind == domain.KindFinal {
			sb.WriteString(fmt.Sprintf("    %s --> [*]\n", sanitizeMermaidID(s.ID)))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef covered fill:#dcfce7,stroke:#15803d,stroke-width:2px,color:#000\n")
		sb.WriteString("    classDef failed fill:#fee2e2,stroke:#b91c1c,stroke-width:4px,color:#000\n")
		writeClass(&sb, overlay.Covered, "covered")
		writeClass(&sb, overlay.Failed, "failed")
	}

	return sb.String()
}

func writeStates(sb *strings.Builder, g *sgraph.Graph, parent string, depth int) {
	indent := strings.Repeat("    ", depth)

	for _, id := range g.Children(parent) {
		s, _ := g.State(id)
		if s.Initial {
			sb.WriteString(fmt.Sprintf("%s[*] --> %s\n", indent, sanitizeMermaidID(id)))
		}
	}

	for _, id := range g.Children(parent) {
		s, _ := g.State(id)
		safeID := sanitizeMermaidID(id)
		switch s.Kind {
		case domain.KindCompound:
			sb.WriteString(fmt.Sprintf("%sstate \"%s\" as %s {\n", indent, s.Key(), safeID))
			writeStates(sb, g, id, depth+1)
			sb.WriteString(indent + "}\n")
		default:
			sb.WriteString(fmt.Sprintf("%sstate \"%s\" as %s\n", indent, s.Key(), safeID))
		}
		if s.Description != "" {
			sb.WriteString(fmt.Sprintf("%s%s : %s\n", indent, safeID, escapeLabel(s.Description)))
		}
	}
}

func writeClass(sb *strings.Builder, ids []string, class string) {
	seen := make(map[string]bool)
	var safe []string
	for _, id := range ids {
		s := sanitizeMermaidID(id)
		if s != "" && !seen[s] {
			seen[s] = true
			safe = append(safe, s)
		}
	}
	if len(safe) > 0 {
		sb.WriteString(fmt.Sprintf("    class %s %s\n", strings.Join(safe, ","), class))
	}
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", " ")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
