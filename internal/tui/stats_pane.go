package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/swarmsim/internal/events"
)

// StatsPaneModel displays the per-tick population counts.
type StatsPaneModel struct {
	tick           int
	searching      int
	waitingForHelp int
	helping        int
	working        int
	tasksIdle      int
	tasksActive    int
	tasksCompleted int
	width          int
	height         int
	focused        bool
}

// NewStatsPaneModel creates a new stats pane model.
func NewStatsPaneModel() StatsPaneModel {
	return StatsPaneModel{}
}

// Update handles messages for the stats pane.
func (m StatsPaneModel) Update(msg tea.Msg) (StatsPaneModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case events.TickStatsEvent:
		m.tick = msg.AtTick
		m.searching = msg.Searching
		m.waitingForHelp = msg.WaitingForHelp
		m.helping = msg.Helping
		m.working = msg.Working
		m.tasksIdle = msg.TasksIdle
		m.tasksActive = msg.TasksActive
		m.tasksCompleted = msg.TasksCompleted
	}

	return m, nil
}

// View renders the stats pane.
func (m StatsPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	title := StyleTitle.Render(fmt.Sprintf("Tick %d", m.tick))
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Searching:  %s\n", StyleStateSearching.Render(fmt.Sprintf("%d", m.searching))))
	b.WriteString(fmt.Sprintf("Waiting:    %s\n", StyleStateWaiting.Render(fmt.Sprintf("%d", m.waitingForHelp))))
	b.WriteString(fmt.Sprintf("Helping:    %s\n", StyleStateHelping.Render(fmt.Sprintf("%d", m.helping))))
	b.WriteString(fmt.Sprintf("Working:    %s\n", StyleStateWorking.Render(fmt.Sprintf("%d", m.working))))

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Tasks idle:   %d\n", m.tasksIdle))
	b.WriteString(fmt.Sprintf("Tasks active: %d\n", m.tasksActive))
	b.WriteString(fmt.Sprintf("Completed:    %s\n", StyleCompleted.Render(fmt.Sprintf("%d", m.tasksCompleted))))

	b.WriteString("\n")

	// Agent state bar
	total := m.searching + m.waitingForHelp + m.helping + m.working
	if total > 0 {
		barWidth := min(m.width-4, 40)
		searchWidth := (m.searching * barWidth) / total
		waitWidth := (m.waitingForHelp * barWidth) / total
		helpWidth := (m.helping * barWidth) / total
		workWidth := barWidth - searchWidth - waitWidth - helpWidth

		bar := StyleStateSearching.Render(strings.Repeat(".", max(0, searchWidth)))
		bar += StyleStateWaiting.Render(strings.Repeat("?", max(0, waitWidth)))
		bar += StyleStateHelping.Render(strings.Repeat("-", max(0, helpWidth)))
		bar += StyleStateWorking.Render(strings.Repeat("=", max(0, workWidth)))

		b.WriteString(fmt.Sprintf("[%s]  %d agents\n", bar, total))
	}

	content := b.String()

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

// SetSize updates the pane dimensions.
func (m *StatsPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused updates the focus state.
func (m *StatsPaneModel) SetFocused(focused bool) {
	m.focused = focused
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
