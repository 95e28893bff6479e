package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aristath/swarmsim/internal/events"
)

// maxLogLines bounds the scrollback kept in memory.
const maxLogLines = 500

// LogPaneModel is a scrolling log of task and agent transitions.
type LogPaneModel struct {
	lines    []string
	viewport viewport.Model
	width    int
	height   int
	focused  bool
}

// NewLogPaneModel creates a new log pane model.
func NewLogPaneModel() LogPaneModel {
	vp := viewport.New(0, 0)
	return LogPaneModel{
		viewport: vp,
	}
}

// Update handles messages for the log pane.
func (m LogPaneModel) Update(msg tea.Msg) (LogPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case tea.KeyMsg:
		if !m.focused {
			break
		}
		switch msg.String() {
		case KeyJ, KeyDown:
			m.viewport.ScrollDown(1)
		case KeyK, KeyUp:
			m.viewport.ScrollUp(1)
		default:
			m.viewport, cmd = m.viewport.Update(msg)
		}

	case events.Event:
		if line, ok := formatEvent(msg); ok {
			m.appendLine(line)
		}
	}

	return m, cmd
}

// appendLine adds a log line, trims scrollback, and keeps the viewport
// pinned to the bottom.
func (m *LogPaneModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

// formatEvent renders one journal event as a log line. Tick statistics
// are shown in the stats pane, not logged.
func formatEvent(ev events.Event) (string, bool) {
	switch e := ev.(type) {
	case events.TaskSpawnedEvent:
		return fmt.Sprintf("%5d  task %d spawned at (%.0f, %.0f), needs %d", e.AtTick, e.TaskID, e.X, e.Y, e.Required), true
	case events.TaskAssignedEvent:
		return fmt.Sprintf("%5d  agent %d joined task %d (%d/%d)", e.AtTick, e.AgentID, e.TaskID, e.Assigned, e.Required), true
	case events.TaskStartedEvent:
		return fmt.Sprintf("%5d  %s", e.AtTick, StyleStateWorking.Render(fmt.Sprintf("task %d started by agent %d, crew %v", e.TaskID, e.Driver, e.Assigned))), true
	case events.TaskCompletedEvent:
		return fmt.Sprintf("%5d  %s", e.AtTick, StyleCompleted.Render(fmt.Sprintf("task %d completed by agent %d", e.TaskID, e.Driver))), true
	case events.TaskRemovedEvent:
		return fmt.Sprintf("%5d  task %d removed", e.AtTick, e.TaskID), true
	case events.AgentStateEvent:
		return fmt.Sprintf("%5d  agent %d: %s -> %s", e.AtTick, e.AgentID, e.From, e.To), true
	}
	return "", false
}

// View renders the log pane.
func (m LogPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	title := StyleTitle.Render("Transitions")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(m.viewport.View())

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}

// resizeViewport resizes the viewport based on pane dimensions.
func (m *LogPaneModel) resizeViewport() {
	w := m.width - 4
	h := m.height - 4

	if w < 10 {
		w = 10
	}
	if h < 3 {
		h = 3
	}

	m.viewport.Width = w
	m.viewport.Height = h
}

// SetSize updates the pane dimensions.
func (m *LogPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
}

// SetFocused updates the focus state.
func (m *LogPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
