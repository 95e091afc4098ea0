// Package queue renders the pending review queue.
package queue

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mail-triage/internal/keys"
	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/store"
	"github.com/nhle/mail-triage/internal/theme"
)

// EmailsLoadedMsg is sent when the pending queue has been loaded.
type EmailsLoadedMsg struct {
	Emails []model.EmailRecord
	Err    error
}

// SelectedEmailMsg is sent when the user opens an email.
type SelectedEmailMsg struct {
	EmailID int64
}

// StatusRequestMsg asks the parent to change the selected email's status.
// An empty Status opens the status form.
type StatusRequestMsg struct {
	EmailID int64
	Subject string
	Status  string
}

// Model is the pending queue view. Rows keep the store's order: most
// urgent first, then most recently received.
type Model struct {
	list        list.Model
	store       store.Store
	keys        *keys.KeyMap
	all         []model.EmailRecord
	humanOnly   bool
	query       string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new queue model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, EmailDelegate{}, width, height-2)
	l.Title = "Pending"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search sender or subject..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		store:       s,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the queue.
func (m Model) Init() tea.Cmd {
	return m.LoadEmails()
}

// Update handles messages for the queue view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EmailsLoadedMsg:
		if msg.Err != nil {
			return m, nil
		}
		m.all = msg.Emails
		return m, m.applyFilters()

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = strings.TrimSpace(m.searchInput.Value())
		return m, m.applyFilters()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		return m, m.applyFilters()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		e, ok := m.SelectedEmail()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedEmailMsg{EmailID: e.ID}
		}

	case key.Matches(msg, m.keys.SetStatus):
		e, ok := m.SelectedEmail()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return StatusRequestMsg{EmailID: e.ID, Subject: e.Subject}
		}

	case key.Matches(msg, m.keys.Done):
		e, ok := m.SelectedEmail()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return StatusRequestMsg{EmailID: e.ID, Subject: e.Subject, Status: "DONE"}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.FilterHuman):
		m.humanOnly = !m.humanOnly
		return m, m.applyFilters()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// applyFilters rebuilds the visible rows from the loaded queue.
func (m *Model) applyFilters() tea.Cmd {
	q := strings.ToLower(m.query)
	items := make([]list.Item, 0, len(m.all))
	for _, e := range m.all {
		if m.humanOnly && !e.RequiresHuman {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(e.Subject), q) &&
			!strings.Contains(strings.ToLower(e.Sender), q) {
			continue
		}
		items = append(items, EmailItem{Email: e})
	}
	return m.list.SetItems(items)
}

// SelectedEmail returns the highlighted email.
func (m Model) SelectedEmail() (model.EmailRecord, bool) {
	it, ok := m.list.SelectedItem().(EmailItem)
	if !ok {
		return model.EmailRecord{}, false
	}
	return it.Email, true
}

// Visible returns the rows currently shown, in display order.
func (m Model) Visible() []model.EmailRecord {
	items := m.list.Items()
	out := make([]model.EmailRecord, 0, len(items))
	for _, it := range items {
		if e, ok := it.(EmailItem); ok {
			out = append(out, e.Email)
		}
	}
	return out
}

// SetHumanOnly sets the "needs me" filter.
func (m *Model) SetHumanOnly(on bool) tea.Cmd {
	m.humanOnly = on
	return m.applyFilters()
}

// ClearFilters drops the search query and the "needs me" filter.
func (m *Model) ClearFilters() tea.Cmd {
	m.humanOnly = false
	m.query = ""
	m.searchInput.Reset()
	return m.applyFilters()
}

// FilterSummary describes active filters for the status bar.
func (m Model) FilterSummary() string {
	var parts []string
	if m.humanOnly {
		parts = append(parts, "needs me")
	}
	if m.query != "" {
		parts = append(parts, "search: "+m.query)
	}
	return strings.Join(parts, ", ")
}

// View renders the queue.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when nothing is pending.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.FilterSummary() != "" {
		return style.Render("No matching emails.\nPress : then type 'clear' to reset filters.")
	}

	return style.Render("Inbox zero.\n\nNothing is waiting for review.")
}

// LoadEmails returns a tea.Cmd that reads the pending queue.
func (m Model) LoadEmails() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		emails, err := s.ListPending(context.Background())
		return EmailsLoadedMsg{Emails: emails, Err: err}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
