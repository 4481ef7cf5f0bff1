package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Stage names reported through InstanceStageMsg.
const (
	StageProvisioning = "provisioning"
	StageWaitingReady = "waiting-ready"
	StageVerifying    = "verifying"
	StageReady        = "ready"
	StageFailed       = "failed"
)

// InstanceRow tracks one instance's progress for display.
type InstanceRow struct {
	Name   string
	Stage  string
	Detail string
	Err    error
}

// Model is the Bubble Tea model for the deploy dashboard.
type Model struct {
	Title string
	Rows  []InstanceRow

	StartTime    time.Time
	SpinnerFrame int

	Width  int
	Height int
	Err    error
	Done   bool
}

// NewDeployModel creates a model tracking the named instances.
func NewDeployModel(title string, names []string) Model {
	rows := make([]InstanceRow, len(names))
	for i, name := range names {
		rows[i] = InstanceRow{Name: name, Stage: StageProvisioning}
	}
	return Model{
		Title:     title,
		Rows:      rows,
		StartTime: time.Now(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case InstanceStageMsg:
		m.updateInstance(msg)

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) updateInstance(msg InstanceStageMsg) {
	if msg.Index < 0 || msg.Index >= len(m.Rows) {
		return
	}
	row := &m.Rows[msg.Index]
	row.Stage = msg.Stage
	row.Detail = msg.Detail
	if msg.Err != nil {
		row.Err = msg.Err
		row.Stage = StageFailed
	} else if msg.Done {
		row.Stage = StageReady
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}
