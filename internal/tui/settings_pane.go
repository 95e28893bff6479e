package tui

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/swarmsim/internal/config"
)

// SettingsPaneModel manages the settings form overlay.
type SettingsPaneModel struct {
	form        *huh.Form
	config      *config.Config
	globalPath  string
	projectPath string
	width       int
	height      int
	visible     bool
	saved       bool
	err         error

	// Form field bindings (strings for Huh)
	saveTarget string
	seed       string
	ticks      string
	agentCount string
	taskTarget string
	protocol   string
	driver     string
	join       string
}

// NewSettingsPaneModel creates a new settings pane.
func NewSettingsPaneModel(cfg *config.Config, globalPath, projectPath string) SettingsPaneModel {
	m := SettingsPaneModel{
		config:      cfg,
		globalPath:  globalPath,
		projectPath: projectPath,
		visible:     false,
		saved:       false,

		// Initialize form field values from config
		saveTarget: "global",
		seed:       strconv.FormatInt(cfg.Seed, 10),
		ticks:      strconv.Itoa(cfg.Ticks),
		agentCount: strconv.Itoa(cfg.Agents.Count),
		taskTarget: strconv.Itoa(cfg.Tasks.Target),
		protocol:   cfg.Agents.Protocol,
		driver:     cfg.Policies.Driver,
		join:       cfg.Policies.Join,
	}

	m.buildForm()
	return m
}

// buildForm constructs the Huh form with all settings fields.
func (m *SettingsPaneModel) buildForm() {
	validInt := func(s string) error {
		if _, err := strconv.Atoi(s); err != nil {
			return fmt.Errorf("must be an integer")
		}
		return nil
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("saveTarget").
				Title("Save To").
				Options(
					huh.NewOption("Global (~/.swarmsim/config.json)", "global"),
					huh.NewOption("Project (.swarmsim/config.json)", "project"),
				).
				Value(&m.saveTarget),
		).Title("Save Target"),

		huh.NewGroup(
			huh.NewInput().
				Key("seed").
				Title("Seed").
				Value(&m.seed).
				Validate(validInt),

			huh.NewInput().
				Key("ticks").
				Title("Ticks").
				Value(&m.ticks).
				Validate(validInt),

			huh.NewInput().
				Key("agentCount").
				Title("Agents").
				Value(&m.agentCount).
				Validate(validInt),

			huh.NewInput().
				Key("taskTarget").
				Title("Live Tasks").
				Value(&m.taskTarget).
				Validate(validInt),
		).Title("Run Parameters"),

		huh.NewGroup(
			huh.NewSelect[string]().
				Key("protocol").
				Title("Search Protocol").
				Options(
					huh.NewOption("Random walk", "random-walk"),
					huh.NewOption("Greedy nearest", "greedy-nearest"),
				).
				Value(&m.protocol),

			huh.NewSelect[string]().
				Key("driver").
				Title("Driver Credit").
				Options(
					huh.NewOption("Lowest id", "lowest-id"),
					huh.NewOption("Acting agent", "acting-agent"),
				).
				Value(&m.driver),

			huh.NewSelect[string]().
				Key("join").
				Title("Late Join").
				Options(
					huh.NewOption("Join if work remains", "join-if-work-remains"),
					huh.NewOption("Never join late", "never-join-late"),
				).
				Value(&m.join),
		).Title("Policies"),
	)
}

// Init initializes the settings pane.
func (m SettingsPaneModel) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the settings pane.
func (m SettingsPaneModel) Update(msg tea.Msg) (SettingsPaneModel, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			// Cancel without saving
			m.visible = false
			m.saved = false
			return m, nil
		}
	}

	// Delegate to form
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	// Check if form is completed
	if m.form.State == huh.StateCompleted {
		m.applyFormToConfig()

		targetPath := m.globalPath
		if m.saveTarget == "project" {
			targetPath = m.projectPath
		}

		if err := m.config.Validate(); err != nil {
			m.err = err
			m.saved = false
		} else if err := config.Save(m.config, targetPath); err != nil {
			m.err = err
			m.saved = false
		} else {
			m.saved = true
			m.err = nil
		}

		// Hide form after successful save
		if m.saved {
			m.visible = false
		}
	}

	return m, cmd
}

// applyFormToConfig copies form field values back to the config struct.
// Fields were validated as integers by the form.
func (m *SettingsPaneModel) applyFormToConfig() {
	if v, err := strconv.ParseInt(m.seed, 10, 64); err == nil {
		m.config.Seed = v
	}
	if v, err := strconv.Atoi(m.ticks); err == nil {
		m.config.Ticks = v
	}
	if v, err := strconv.Atoi(m.agentCount); err == nil {
		m.config.Agents.Count = v
	}
	if v, err := strconv.Atoi(m.taskTarget); err == nil {
		m.config.Tasks.Target = v
	}
	m.config.Agents.Protocol = m.protocol
	m.config.Policies.Driver = m.driver
	m.config.Policies.Join = m.join
}

// View renders the settings pane.
func (m SettingsPaneModel) View() string {
	if !m.visible {
		return ""
	}

	var content string

	if m.saved && m.form.State == huh.StateCompleted {
		content = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true).
			Render("✓ Settings saved successfully!")
	} else if m.err != nil {
		content = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true).
			Render(fmt.Sprintf("✗ Error saving: %v", m.err))
	} else {
		content = m.form.View()
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(m.width - 4).
		Height(m.height - 4)

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		Render("⚙ Settings")

	body := style.Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

// SetSize updates the dimensions of the settings pane.
func (m *SettingsPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	if m.form != nil {
		m.form.WithWidth(w - 8).WithHeight(h - 8)
	}
}

// SetVisible shows or hides the settings pane.
func (m *SettingsPaneModel) SetVisible(v bool) {
	m.visible = v
	m.saved = false
	m.err = nil

	// Reset form state when showing
	if v && m.form != nil {
		m.buildForm()
	}
}

// IsVisible returns whether the settings pane is currently visible.
func (m SettingsPaneModel) IsVisible() bool {
	return m.visible
}
