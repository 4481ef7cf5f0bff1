package tui

import (
	"fmt"
	"strings"
	"time"
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.Title))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s elapsed", time.Since(m.StartTime).Round(time.Second))))
	b.WriteString("\n\n")

	for _, row := range m.Rows {
		b.WriteString(renderRow(row, m.SpinnerFrame))
		b.WriteString("\n")
	}

	switch {
	case m.Err != nil:
		b.WriteString("\n" + failedStyle.Render(fmt.Sprintf("Error: %v", m.Err)) + "\n")
	case m.Done:
		b.WriteString("\n" + readyStyle.Render("All instances ready") + "\n")
	}

	b.WriteString(footerStyle.Render("q to quit"))
	b.WriteString("\n")
	return b.String()
}

func renderRow(row InstanceRow, frame int) string {
	var mark, stage string
	switch row.Stage {
	case StageReady:
		mark = readyStyle.Render(checkMark)
		stage = readyStyle.Render("ready")
	case StageFailed:
		mark = failedStyle.Render(crossMark)
		stage = failedStyle.Render("failed")
	case "":
		mark = dimStyle.Render(pending)
		stage = dimStyle.Render("pending")
	default:
		mark = activeStyle.Render(currentSpinner(frame))
		stage = warningStyle.Render(row.Stage)
	}

	line := fmt.Sprintf("%s %-20s %s", mark, row.Name, stage)
	if row.Err != nil {
		line += dimStyle.Render("  " + row.Err.Error())
	} else if row.Detail != "" {
		line += dimStyle.Render("  " + row.Detail)
	}
	return line
}
