package handlers

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/imamik/k3sforge/internal/errdefs"
	"github.com/imamik/k3sforge/internal/plan"
	"github.com/imamik/k3sforge/internal/provisioning"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorYellow = lipgloss.Color("#eab308")
	colorRed    = lipgloss.Color("#ef4444")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")
	colorWhite  = lipgloss.Color("#f9fafb")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	okStyle      = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	errStyle     = lipgloss.NewStyle().Foreground(colorRed)
)

// isTerminal is swapped in tests.
var isTerminal = func() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// style renders s with st only when stdout is a terminal.
func style(st lipgloss.Style, s string) string {
	if !isTerminal() {
		return s
	}
	return st.Render(s)
}

// renderSummary produces the plan overview printed by plan and apply.
func renderSummary(s plan.Summary, outDir string) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(style(titleStyle, "  k3sforge plan: "+s.Cluster))
	b.WriteString("\n")
	b.WriteString(style(dimStyle, "  "+strings.Repeat("═", 30)))
	b.WriteString("\n")

	b.WriteString("\n")
	b.WriteString(style(sectionStyle, fmt.Sprintf("  Nodes (%d)", len(s.Nodes))))
	b.WriteString("\n")
	for _, n := range s.Nodes {
		fmt.Fprintf(&b, "    %-24s %-8s %-15s %2d steps\n", n.Hostname, n.Role, n.PrivateIP, len(n.Steps))
	}

	b.WriteString("\n")
	b.WriteString(style(sectionStyle, fmt.Sprintf("  Claims (%d)", len(s.Claims))))
	b.WriteString("\n")
	for _, c := range s.Claims {
		state := style(dimStyle, "bound")
		switch {
		case c.Created:
			state = style(okStyle, "created")
		case c.Adopted:
			state = style(warnStyle, "kept existing")
		}
		fmt.Fprintf(&b, "    %-32s %-16s %s\n", c.Name, c.Kind, state)
	}

	b.WriteString("\n")
	b.WriteString(style(sectionStyle, "  Manifests"))
	b.WriteString("\n")
	if len(s.Manifests) == 0 {
		b.WriteString(style(dimStyle, "    none"))
		b.WriteString("\n")
	}
	for _, m := range s.Manifests {
		fmt.Fprintf(&b, "    %s\n", m)
	}

	fmt.Fprintf(&b, "\n  %d network rules\n", len(s.Rules))

	if len(s.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(style(sectionStyle, "  Warnings"))
		b.WriteString("\n")
		for _, w := range s.Warnings {
			b.WriteString(style(warnStyle, "    ! "+w))
			b.WriteString("\n")
		}
	}

	if outDir != "" {
		b.WriteString("\n")
		b.WriteString(style(dimStyle, "  Artifacts written to "+outDir))
		b.WriteString("\n")
	}
	return b.String()
}

// renderFindings prints validation findings, errors first.
func renderFindings(w io.Writer, findings []errdefs.ValidationError) {
	for _, f := range findings {
		if f.IsError() {
			fmt.Fprintln(w, style(errStyle, "  ✗ "+f.Error()))
		}
	}
	for _, f := range findings {
		if !f.IsError() {
			fmt.Fprintln(w, style(warnStyle, "  ! "+f.Error()))
		}
	}
}

// renderNodeResults prints the outcome of provisioning.
func renderNodeResults(results []provisioning.NodeResult) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(style(sectionStyle, "  Servers"))
	b.WriteString("\n")
	for _, r := range results {
		var state string
		switch {
		case r.Err != nil:
			state = style(errStyle, "failed: "+r.Err.Error())
		case r.Existed:
			state = style(dimStyle, "unchanged")
		case r.Ready:
			state = style(okStyle, "ready")
		default:
			state = style(warnStyle, "created, not ready yet")
		}
		fmt.Fprintf(&b, "    %-24s %-15s %s\n", r.Hostname, r.PublicIP, state)
	}
	return b.String()
}
