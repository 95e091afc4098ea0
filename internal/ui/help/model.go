// Package help renders the key and command reference.
package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mail-triage/internal/keys"
	"github.com/nhle/mail-triage/internal/theme"
	"github.com/nhle/mail-triage/internal/ui/command"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(k *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.ShowAll = true
	m := Model{keys: k, help: h}
	m.SetSize(width, height)
	return m
}

// Init returns nil.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update is a no-op; the app closes the overlay.
func (m Model) Update(tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the key groups, the palette commands and the urgency scale.
func (m Model) View() string {
	section := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginTop(1)

	content := lipgloss.JoinVertical(lipgloss.Left,
		section.UnsetMarginTop().Render("Keys"),
		m.help.View(m.keys),
		section.Render("Commands (:)"),
		command.Usage(),
		section.Render("Urgency"),
		urgencyLegend(),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

var urgencyLabels = [...]string{
	5: "breach, incident, legal risk",
	4: "deadline today, escalation",
	3: "needs your input",
	2: "FYI",
	1: "newsletters, notifications",
}

func urgencyLegend() string {
	var rows []string
	for u := 5; u >= 1; u-- {
		rows = append(rows,
			theme.UrgencyStyle(u).Render(string(rune('0'+u)))+"  "+
				theme.HelpStyle.Render(urgencyLabels[u]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
