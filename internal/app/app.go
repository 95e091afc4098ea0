// Package app hosts the root Bubble Tea model of the review screen.
package app

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/mail-triage/internal/keys"
	"github.com/nhle/mail-triage/internal/store"
	appsync "github.com/nhle/mail-triage/internal/sync"
	"github.com/nhle/mail-triage/internal/ui"
	"github.com/nhle/mail-triage/internal/ui/command"
	"github.com/nhle/mail-triage/internal/ui/detail"
	helpview "github.com/nhle/mail-triage/internal/ui/help"
	"github.com/nhle/mail-triage/internal/ui/queue"
	"github.com/nhle/mail-triage/internal/ui/statusform"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
	ViewStatusForm
)

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the persistence layer.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	store        store.Store
	logger       *zap.Logger
	keys         *keys.KeyMap
	queue        queue.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	statusForm   statusform.Model
	poller       *appsync.Poller
	ready        bool
	counts       map[string]int
	lastSync     *appsync.SyncResultMsg
	message      string
	errMessage   string
}

// New creates the root model. poller may be nil when no mailbox is
// configured; logger may be nil.
func New(s store.Store, poller *appsync.Poller, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewList,
		store:       s,
		logger:      logger,
		keys:        k,
		queue:       queue.New(s, k, 80, 24),
		detail:      detail.New(k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		statusForm:  statusform.New(80, 24),
		poller:      poller,
	}
}

// Init loads the queue and starts polling when a mailbox is configured.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.queue.Init(), m.loadCounts()}
	if m.poller != nil {
		cmds = append(cmds, m.poller.Start())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.queue.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.statusForm.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.SyncResultMsg:
		m.lastSync = &msg
		switch {
		case msg.AuthError != nil:
			m.errMessage = msg.AuthError.Message
		case msg.Error != nil:
			m.errMessage = "poll failed: " + msg.Error.Error()
		default:
			m.errMessage = ""
			if msg.Saved > 0 {
				m.message = fmt.Sprintf("%d new email(s) triaged", msg.Saved)
			}
		}
		return m, tea.Batch(
			m.queue.LoadEmails(),
			m.loadCounts(),
			m.poller.WaitForNextResult(),
		)

	case queue.EmailsLoadedMsg:
		if msg.Err != nil {
			m.errMessage = "loading queue: " + msg.Err.Error()
			m.logger.Error("loading pending queue", zap.Error(msg.Err))
		}
		var cmd tea.Cmd
		m.queue, cmd = m.queue.Update(msg)
		return m, cmd

	case countsLoadedMsg:
		m.counts = msg.counts
		return m, nil

	case queue.SelectedEmailMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetLoading(true)
		return m, m.loadDetail(msg.EmailID)

	case detail.DetailLoadedMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case queue.StatusRequestMsg:
		return m, m.requestStatus(msg.EmailID, msg.Subject, msg.Status)

	case detail.ActionMsg:
		return m, m.requestStatus(msg.EmailID, msg.Subject, msg.Status)

	case statusform.SubmittedMsg:
		m.currentView = m.previousView
		return m, m.updateStatus(msg.EmailID, msg.Status, msg.Notes)

	case statusform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case statusUpdatedMsg:
		if msg.err != nil {
			m.errMessage = fmt.Sprintf("updating email %d: %v", msg.emailID, msg.err)
			m.logger.Error("status update failed", zap.Int64("email_id", msg.emailID), zap.Error(msg.err))
			return m, nil
		}
		m.errMessage = ""
		m.message = fmt.Sprintf("email %d → %s", msg.emailID, msg.status)
		cmds := []tea.Cmd{m.queue.LoadEmails(), m.loadCounts()}
		if m.currentView == ViewDetail && m.detail.CurrentID() == msg.emailID {
			cmds = append(cmds, m.loadDetail(msg.emailID))
		}
		return m, tea.Batch(cmds...)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(msg)

	case command.ErrorMsg:
		m.currentView = m.previousView
		m.message = msg.Err.Error()
		return m, nil

	case tea.KeyMsg:
		// Global keys that work regardless of current view
		switch msg.String() {
		case "ctrl+c":
			m.stopPoller()
			return m, tea.Quit

		case "q":
			if m.currentView == ViewList {
				m.stopPoller()
				return m, tea.Quit
			}

		case "?":
			if m.currentView == ViewStatusForm {
				break
			}
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case ":":
			if m.currentView == ViewStatusForm {
				break
			}
			if m.currentView == ViewCommand {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return m, m.commandView.Focus()

		case "esc":
			if m.currentView == ViewHelp ||
				m.currentView == ViewCommand ||
				m.currentView == ViewStatusForm {
				m.currentView = m.previousView
				return m, nil
			}

		case "r":
			if m.currentView == ViewList {
				return m, m.refresh()
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.queue, cmd = m.queue.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewStatusForm:
		m.statusForm, cmd = m.statusForm.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(headerTitle(m.counts), m.syncStatus())
	content := m.renderContent()

	statusBar := m.layout.RenderStatusBar(m.keyHints())
	if m.errMessage != "" && m.currentView == ViewList {
		statusBar = m.layout.RenderErrorBar(m.errMessage)
	}

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.queue.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewStatusForm:
		return m.statusForm.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the mailbox poller state.
func (m Model) syncStatus() string {
	if m.poller == nil {
		return "no mailbox"
	}

	switch st := m.poller.Status(); st.State {
	case appsync.SyncRunning:
		return "polling..."
	case appsync.SyncError:
		return "⚠ mailbox unreachable"
	default:
		if st.LastSync.IsZero() {
			return "waiting"
		}
		return "synced " + st.LastSync.Format("15:04")
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close command | enter execute | esc back"
	case ViewDetail:
		return keys.Hints(m.keys.DetailHints())
	case ViewStatusForm:
		return "enter submit | esc cancel"
	default:
		hints := keys.Hints(m.keys.QueueHints())
		if summary := m.queue.FilterSummary(); summary != "" {
			hints = summary + " | :clear"
		}
		if m.message != "" {
			hints = m.message + " | " + hints
		}
		return hints
	}
}

// requestStatus applies status directly, or opens the form when it is empty.
func (m *Model) requestStatus(emailID int64, subject, status string) tea.Cmd {
	if status != "" {
		return m.updateStatus(emailID, status, nil)
	}
	m.previousView = m.currentView
	m.currentView = ViewStatusForm
	return m.statusForm.Start(emailID, subject)
}

// refresh reloads the queue and asks the poller for an immediate run.
func (m *Model) refresh() tea.Cmd {
	if m.poller != nil {
		m.poller.Refresh()
	}
	return tea.Batch(m.queue.LoadEmails(), m.loadCounts())
}

func (m *Model) stopPoller() {
	if m.poller != nil {
		m.poller.Stop()
	}
}

// executeCommand runs a parsed palette command.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	switch c.Name {
	case command.Refresh:
		return m.refresh()
	case command.Quit:
		m.stopPoller()
		return tea.Quit
	case command.NeedsMe:
		return m.queue.SetHumanOnly(true)
	case command.All:
		return m.queue.SetHumanOnly(false)
	case command.Clear:
		return m.queue.ClearFilters()
	case command.Done, command.Status:
		e, ok := m.queue.SelectedEmail()
		if m.currentView == ViewDetail {
			id := m.detail.CurrentID()
			ok = id != 0
			e.ID = id
		}
		if !ok {
			m.message = "no email selected"
			return nil
		}
		if c.Name == command.Done {
			return m.requestStatus(e.ID, e.Subject, "DONE")
		}
		return m.requestStatus(e.ID, e.Subject, strings.ToUpper(strings.TrimSpace(c.Arg)))
	}
	return nil
}
