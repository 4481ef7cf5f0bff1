package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// RunDeployTUI wraps a deployment with a Bubble Tea dashboard. deployFn
// runs the deployment, sending per-instance stage updates on the channel;
// closing the channel without an error marks the run complete.
func RunDeployTUI(deployFn func(ch chan<- InstanceStageMsg) error, title string, names []string) error {
	m := NewDeployModel(title, names)

	p := tea.NewProgram(m)

	go func() {
		ch := make(chan InstanceStageMsg, 16)
		done := make(chan error, 1)
		go func() {
			defer close(ch)
			done <- deployFn(ch)
		}()

		for msg := range ch {
			p.Send(msg)
		}

		if err := <-done; err != nil {
			p.Send(ErrMsg{Err: err})
			return
		}
		p.Send(DoneMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	fm := finalModel.(Model)
	if fm.Err != nil {
		return fm.Err
	}
	return nil
}
