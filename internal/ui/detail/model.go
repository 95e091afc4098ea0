package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mail-triage/internal/keys"
	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/theme"
)

// BackMsg signals the parent to navigate back to the queue.
type BackMsg struct{}

// Email bundles a record with its follow-ups and audit trail.
type Email struct {
	Record    model.EmailRecord
	FollowUps []model.FollowUp
	AuditLog  []model.AuditLogEntry
}

// DetailLoadedMsg carries the loaded email, or the error that prevented
// loading it.
type DetailLoadedMsg struct {
	Email *Email
	Err   error
}

// ActionMsg asks the parent to change the shown email's status. An empty
// Status opens the status form.
type ActionMsg struct {
	EmailID int64
	Subject string
	Status  string
}

// Model is the email detail view component.
type Model struct {
	email    *Email
	err      error
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		m.SetEmail(msg.Email, msg.Err)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.SetStatus):
			if m.email != nil {
				return m, m.action("")
			}

		case key.Matches(msg, m.keys.Done):
			if m.email != nil {
				return m, m.action("DONE")
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(status string) tea.Cmd {
	rec := m.email.Record
	return func() tea.Msg {
		return ActionMsg{EmailID: rec.ID, Subject: rec.Subject, Status: status}
	}
}

// View renders the detail view.
func (m Model) View() string {
	placeholder := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case m.loading:
		return placeholder.Render("Loading email...")
	case m.err != nil:
		return placeholder.Foreground(theme.ColorRed).Render(m.err.Error())
	case m.email == nil:
		return placeholder.Render("No email selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.email == nil {
		return ""
	}

	e := m.email.Record
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(e.Subject))

	// Badges line: urgency + category + status
	badges := []string{
		theme.UrgencyStyle(e.Urgency).Render(fmt.Sprintf("Urgency %d", e.Urgency)),
		theme.CategoryStyle(e.Category).Render(string(e.Category)),
		theme.StatusStyle(e.Status).Render(e.Status),
	}
	if e.RequiresHuman {
		badges = append(badges, theme.HumanBadgeStyle.Render("needs you"))
	}
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(badges, "  ")))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) {
		if value == "" {
			return
		}
		sections = append(sections, fmt.Sprintf(
			"%s %s",
			metaStyle.Render(fmt.Sprintf("%-11s", label+":")),
			valStyle.Render(value),
		))
	}

	row("From", e.Sender)
	row("Received", e.ReceivedAt)
	row("Thread", e.ThreadID)
	row("Action", string(e.SuggestedAction))
	row("Delegate", deref(e.DelegateTo))
	row("Follow up", deref(e.FollowUpDate))
	row("Entities", strings.Join(e.KeyEntities, ", "))
	if e.StatusUpdatedAt != nil {
		row("Updated", e.StatusUpdatedAt.Format("2006-01-02 15:04"))
	}
	row("Notes", deref(e.Notes))

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	emptyStyle := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Italic(true)

	section := func(title, body string) {
		sections = append(sections, "", separator, "", headerStyle.Render(title))
		if body == "" {
			body = emptyStyle.Render("None")
		}
		sections = append(sections, body)
	}

	section("Summary", e.Summary)
	section("Draft reply", deref(e.DraftReply))
	section("Preview", e.BodyPreview)

	if len(m.email.FollowUps) > 0 {
		var lines []string
		for _, f := range m.email.FollowUps {
			lines = append(lines, "• "+f.FollowUpDate)
		}
		section("Follow-ups", strings.Join(lines, "\n"))
	}

	if len(m.email.AuditLog) > 0 {
		timeStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		var lines []string
		for _, a := range m.email.AuditLog {
			change := a.NewStatus
			if a.OldStatus != nil {
				change = *a.OldStatus + " → " + a.NewStatus
			}
			lines = append(lines, fmt.Sprintf(
				"%s  %s  %s",
				timeStyle.Render(a.CreatedAt.Format("2006-01-02 15:04")),
				a.Action,
				change,
			))
		}
		section(fmt.Sprintf("History (%d)", len(m.email.AuditLog)), strings.Join(lines, "\n"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetEmail updates the email being displayed and re-renders the content.
func (m *Model) SetEmail(e *Email, err error) {
	m.email = e
	m.err = err
	m.loading = false
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// CurrentID returns the ID of the shown email, or 0.
func (m Model) CurrentID() int64 {
	if m.email == nil {
		return 0
	}
	return m.email.Record.ID
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
