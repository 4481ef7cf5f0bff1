// Package tui provides a Bubble Tea-based terminal UI for deployment
// progress.
package tui

// InstanceStageMsg reports progress of one instance through the deploy
// stages.
type InstanceStageMsg struct {
	Index  int
	Stage  string
	Detail string
	Done   bool
	Err    error
}

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries an error.
type ErrMsg struct{ Err error }

// DoneMsg signals that the operation is complete.
type DoneMsg struct{}
