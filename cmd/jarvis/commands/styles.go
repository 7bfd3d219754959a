package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/flynn-ai/jarvis/internal/subagent"
	"github.com/flynn-ai/jarvis/pkg/protocol"
)

var (
	colorPrimary = lipgloss.Color("#4fc3f7")
	colorDim     = lipgloss.Color("#6e7681")
	colorError   = lipgloss.Color("#ff5f5f")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	labelStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)
)

// renderResponse prints a command answer with its intent and usage.
func renderResponse(w io.Writer, resp *protocol.CommandResponse) {
	header := titleStyle.Render("JARVIS")
	if resp.Intent != "" {
		header += dimStyle.Render(fmt.Sprintf("  %s · confidence %.2f · complexity %.2f", resp.Intent, resp.Confidence, resp.Complexity))
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, boxStyle.Render(resp.Response))

	if !resp.Success && resp.Error != "" {
		fmt.Fprintln(w, errorStyle.Render("error: ")+resp.Error)
	}
	if u := resp.Usage; u != nil {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("calls %d (fast %d, advanced %d) · cache hits %d · est. $%.4f",
			u.TotalCalls, u.FastCalls, u.AdvancedCalls, u.CacheHits, u.EstimatedCostUSD)))
	}
}

// renderRing prints one specialist. skill reports whether skill content
// was found for it.
func renderRing(w io.Writer, s subagent.Specialist, skill bool) {
	status := dimStyle.Render("simulated")
	if skill {
		status = titleStyle.Render("skill loaded")
	}
	fmt.Fprintf(w, "%s %s  %s\n", labelStyle.Render(s.Name), dimStyle.Render("("+s.ID+")"), status)
	fmt.Fprintf(w, "  %s\n", s.Role)
	if len(s.Capabilities) > 0 {
		fmt.Fprintf(w, "  %s %s\n", dimStyle.Render("capabilities:"), strings.Join(s.Capabilities, ", "))
	}
	if len(s.Triggers) > 0 {
		fmt.Fprintf(w, "  %s %s\n", dimStyle.Render("triggers:"), strings.Join(s.Triggers, ", "))
	}
}
