// Package command is the ":" palette of the review screen.
package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mail-triage/internal/theme"
)

// Name identifies a palette command.
type Name string

const (
	Refresh Name = "refresh"
	NeedsMe Name = "needs me"
	All     Name = "all"
	Clear   Name = "clear"
	Done    Name = "done"
	Status  Name = "status"
	Quit    Name = "quit"
)

// Spec describes one palette command.
type Spec struct {
	Name    Name
	Aliases []string
	Arg     string // placeholder for an optional argument, if any
	Help    string
}

// Commands lists the palette commands in display order.
var Commands = []Spec{
	{Name: Refresh, Aliases: []string{"sync", "poll"}, Help: "reload the queue and poll the mailbox"},
	{Name: NeedsMe, Aliases: []string{"human", "mine"}, Help: "show only emails that need you"},
	{Name: All, Help: "show every pending email"},
	{Name: Clear, Aliases: []string{"clear filters"}, Help: "drop search and filters"},
	{Name: Done, Help: "mark the selected email DONE"},
	{Name: Status, Arg: "[STATUS]", Help: "set a status, or open the status form"},
	{Name: Quit, Aliases: []string{"q"}, Help: "leave the review screen"},
}

// CommandMsg is emitted when the user executes a command. Arg keeps the
// user's casing.
type CommandMsg struct {
	Name Name
	Arg  string
}

// ErrorMsg is emitted for input that names no command.
type ErrorMsg struct {
	Err error
}

// Parse resolves input to a command. Names and aliases match case
// insensitively; anything after a command that takes an argument is
// returned as Arg.
func Parse(input string) (CommandMsg, error) {
	input = strings.Join(strings.Fields(input), " ")
	lower := strings.ToLower(input)

	for _, spec := range Commands {
		for _, word := range append([]string{string(spec.Name)}, spec.Aliases...) {
			if lower == word {
				return CommandMsg{Name: spec.Name}, nil
			}
			if spec.Arg != "" && strings.HasPrefix(lower, word+" ") {
				return CommandMsg{Name: spec.Name, Arg: input[len(word)+1:]}, nil
			}
		}
	}
	return CommandMsg{}, fmt.Errorf("unknown command: %s", input)
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command, tab completes"
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(suggestions())
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

func suggestions() []string {
	var out []string
	for _, spec := range Commands {
		out = append(out, string(spec.Name))
		out = append(out, spec.Aliases...)
	}
	return out
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "enter" {
		raw := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if raw == "" {
			return m, nil
		}
		parsed, err := Parse(raw)
		if err != nil {
			return m, func() tea.Msg { return ErrorMsg{Err: err} }
		}
		return m, func() tea.Msg { return parsed }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the input above the commands matching what was typed.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	lines := []string{titleStyle.Render("Command Palette"), m.input.View(), ""}
	typed := strings.ToLower(strings.TrimSpace(m.input.Value()))
	for _, spec := range Commands {
		if typed != "" && !strings.HasPrefix(string(spec.Name), typed) {
			continue
		}
		lines = append(lines, formatSpec(spec))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// formatSpec renders one command as "name ARG  help".
func formatSpec(spec Spec) string {
	name := string(spec.Name)
	if spec.Arg != "" {
		name += " " + spec.Arg
	}
	return lipgloss.NewStyle().Foreground(theme.ColorBlue).Width(20).Render(name) +
		theme.HelpStyle.Render(spec.Help)
}

// Usage renders every command, one per line, for the help screen.
func Usage() string {
	lines := make([]string, len(Commands))
	for i, spec := range Commands {
		lines[i] = formatSpec(spec)
	}
	return strings.Join(lines, "\n")
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
