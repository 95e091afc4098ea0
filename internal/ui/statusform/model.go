// Package statusform is the huh form used to close out or re-file an
// email under review.
package statusform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mail-triage/internal/theme"
)

// Statuses offered by the form. Any other value can be typed in.
var Statuses = []string{"DONE", "IN_PROGRESS", "WAITING", "DELEGATED", "ARCHIVED"}

// SubmittedMsg is dispatched when the user confirms a status change.
type SubmittedMsg struct {
	EmailID int64
	Status  string
	Notes   *string
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	status string
	custom string
	notes  string
}

// Model is the Bubble Tea model for the status form.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	emailID int64
	subject string
	width   int
	height  int
}

// New creates a new status form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{status: Statuses[0]},
		width:  width,
		height: height,
	}
}

// Start initializes the form for the given email.
func (m *Model) Start(emailID int64, subject string) tea.Cmd {
	m.emailID = emailID
	m.subject = subject
	m.fb.status = Statuses[0]
	m.fb.custom = ""
	m.fb.notes = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Update status: "+m.subject) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	opts := make([]huh.Option[string], len(Statuses))
	for i, s := range Statuses {
		opts[i] = huh.NewOption(s, s)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Status").
				Options(opts...).
				Value(&m.fb.status),
			huh.NewInput().
				Title("Other status").
				Placeholder("Overrides the selection (optional)").
				Value(&m.fb.custom).
				Validate(validateStatus),
			huh.NewText().
				Title("Notes").
				Placeholder("Optional...").
				Value(&m.fb.notes),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	msg := SubmittedMsg{
		EmailID: m.emailID,
		Status:  ResolveStatus(m.fb.status, m.fb.custom),
	}
	if notes := strings.TrimSpace(m.fb.notes); notes != "" {
		msg.Notes = &notes
	}
	return func() tea.Msg { return msg }
}

// ResolveStatus returns the typed status, upper-cased with spaces turned
// into underscores, or the selected one when nothing was typed.
func ResolveStatus(selected, custom string) string {
	custom = strings.TrimSpace(custom)
	if custom == "" {
		return selected
	}
	return strings.ReplaceAll(strings.ToUpper(custom), " ", "_")
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func validateStatus(s string) error {
	if len(strings.TrimSpace(s)) > 32 {
		return fmt.Errorf("status must be at most 32 characters")
	}
	return nil
}
