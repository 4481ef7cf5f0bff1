package handlers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmcp718/ll-win-client/internal/probe"
	"github.com/dmcp718/ll-win-client/internal/resource"
)

// Colors matching internal/ui/tui/styles.go palette.
var (
	statusColorGreen  = lipgloss.Color("#22c55e")
	statusColorRed    = lipgloss.Color("#ef4444")
	statusColorYellow = lipgloss.Color("#eab308")
	statusColorDim    = lipgloss.Color("#6b7280")
	statusColorWhite  = lipgloss.Color("#f9fafb")
)

var (
	statusTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(statusColorWhite)

	statusDimStyle = lipgloss.NewStyle().
			Foreground(statusColorDim)

	statusGreenStyle = lipgloss.NewStyle().
				Foreground(statusColorGreen)

	statusYellowStyle = lipgloss.NewStyle().
				Foreground(statusColorYellow)

	statusRedStyle = lipgloss.NewStyle().
			Foreground(statusColorRed)
)

// renderStatus produces a lipgloss-styled instance status table.
func renderStatus(filespace string, statuses []instanceStatus) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(statusTitleStyle.Render(fmt.Sprintf("  llwin status: %s", filespace)))
	b.WriteString("\n")
	b.WriteString(statusDimStyle.Render("  " + strings.Repeat("═", 60)))
	b.WriteString("\n\n")

	b.WriteString(statusDimStyle.Render(fmt.Sprintf("  %-18s %-22s %-16s %-12s %s",
		"NAME", "INSTANCE ID", "PUBLIC IP", "POWER", "AGENT")))
	b.WriteString("\n")

	for _, s := range statuses {
		ip := s.PublicIP
		if ip == "" {
			ip = "-"
		}
		agent := string(s.Agent)
		if agent == "" {
			agent = "-"
		}
		b.WriteString(fmt.Sprintf("  %-18s %-22s %-16s %-12s %s\n",
			s.Name, s.InstanceID, ip,
			renderPower(s.Power), renderAgent(s.Agent, agent)))
	}

	b.WriteString("\n")
	return b.String()
}

func renderPower(p resource.PowerState) string {
	// Pad before styling: ANSI escapes break %-12s alignment.
	padded := fmt.Sprintf("%-12s", string(p))
	switch p {
	case resource.PowerRunning:
		return statusGreenStyle.Render(padded)
	case resource.PowerStopped, resource.PowerDeallocated, resource.PowerTerminated:
		return statusRedStyle.Render(padded)
	case resource.PowerUnknown:
		return statusDimStyle.Render(padded)
	default:
		return statusYellowStyle.Render(padded)
	}
}

func renderAgent(a probe.AgentStatus, text string) string {
	switch a {
	case probe.AgentOnline:
		return statusGreenStyle.Render(text)
	case "":
		return statusDimStyle.Render(text)
	default:
		return statusYellowStyle.Render(text)
	}
}
