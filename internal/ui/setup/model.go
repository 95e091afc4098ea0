// Package setup is the first-run screen that collects mailbox and model
// settings, tests the IMAP login and saves the result.
package setup

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/theme"
)

// Mode is the screen's current step.
type Mode int

const (
	ModeForm       Mode = iota // Editing settings
	ModeValidating             // Testing the IMAP login
	ModeResult                 // Showing the test or save result
)

// Secrets are the values that go to the keyring rather than the file.
type Secrets struct {
	IMAPPassword    string
	AnthropicAPIKey string
}

// Options wires the screen to the outside world.
type Options struct {
	// Validate logs in to the mailbox and returns a short description.
	Validate func(ctx context.Context, c model.IMAPConfig, password string) (string, error)

	// Save persists cfg and any non-empty secret.
	Save func(cfg *model.AppConfig, s Secrets) error

	// ValidateTimeout bounds one login test. Defaults to 20s.
	ValidateTimeout time.Duration
}

// DoneMsg is emitted when the user leaves the screen.
type DoneMsg struct {
	Saved bool
}

type validatedMsg struct {
	name string
	err  error
}

type savedMsg struct {
	err error
}

// fields holds the form bindings. It lives on the heap so the pointers
// huh keeps stay valid across Model copies.
type fields struct {
	host     string
	port     string
	username string
	password string
	tls      bool
	lookback string

	aiEnabled bool
	apiKey    string
}

// Model is the Bubble Tea model for the setup screen.
type Model struct {
	mode    Mode
	cfg     *model.AppConfig
	opts    Options
	f       *fields
	form    *huh.Form
	spinner spinner.Model

	checked string
	err     error
	saved   bool

	width, height int
}

// New creates the screen pre-filled from cfg.
func New(cfg *model.AppConfig, opts Options, width, height int) Model {
	if opts.ValidateTimeout <= 0 {
		opts.ValidateTimeout = 20 * time.Second
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		mode:    ModeForm,
		cfg:     cfg,
		opts:    opts,
		spinner: sp,
		width:   width,
		height:  height,
		f: &fields{
			host:      cfg.IMAP.Host,
			port:      cfg.IMAP.Port,
			username:  cfg.IMAP.Username,
			tls:       cfg.IMAP.TLS,
			lookback:  fmt.Sprint(cfg.IMAP.LookbackDays),
			aiEnabled: cfg.AI.Enabled,
		},
	}
	m.form = m.buildForm()
	return m
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the current step.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case validatedMsg:
		m.checked = msg.name
		if msg.err != nil {
			m.err = msg.err
			m.mode = ModeResult
			return m, nil
		}
		return m, m.save()

	case savedMsg:
		m.mode = ModeResult
		m.err = msg.err
		m.saved = msg.err == nil
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.done()
		}
		switch m.mode {
		case ModeValidating:
			if msg.String() == "esc" {
				m.mode = ModeForm
				m.form = m.buildForm()
				return m, m.form.Init()
			}
			return m, nil
		case ModeResult:
			return m.handleResultKeys(msg)
		}
	}

	if m.mode != ModeForm {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.submit()
	case huh.StateAborted:
		return m, m.done()
	}
	return m, cmd
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		if m.err != nil {
			return m.submit()
		}
	case "e":
		if m.err != nil {
			m.mode = ModeForm
			m.err = nil
			m.form = m.buildForm()
			return m, m.form.Init()
		}
	case "enter", "esc", "q":
		return m, m.done()
	}
	return m, nil
}

// submit applies the form to the config and tests the mailbox login.
// Without a mailbox host there is nothing to test.
func (m Model) submit() (tea.Model, tea.Cmd) {
	m.apply()
	m.err = nil

	if !m.cfg.IMAP.Configured() || m.opts.Validate == nil {
		return m, m.save()
	}

	m.mode = ModeValidating
	c, password, timeout := m.cfg.IMAP, m.f.password, m.opts.ValidateTimeout
	validate := m.opts.Validate
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			name, err := validate(ctx, c, password)
			return validatedMsg{name: name, err: err}
		},
	)
}

func (m Model) apply() {
	f := m.f
	m.cfg.IMAP.Host = strings.TrimSpace(f.host)
	m.cfg.IMAP.Port = strings.TrimSpace(f.port)
	m.cfg.IMAP.Username = strings.TrimSpace(f.username)
	m.cfg.IMAP.TLS = f.tls
	if n, err := parseDays(f.lookback); err == nil {
		m.cfg.IMAP.LookbackDays = n
	}
	m.cfg.AI.Enabled = f.aiEnabled
}

func (m Model) save() tea.Cmd {
	cfg := m.cfg
	secrets := Secrets{
		IMAPPassword:    strings.TrimSpace(m.f.password),
		AnthropicAPIKey: strings.TrimSpace(m.f.apiKey),
	}
	save := m.opts.Save
	return func() tea.Msg {
		if save == nil {
			return savedMsg{}
		}
		return savedMsg{err: save(cfg, secrets)}
	}
}

func (m Model) done() tea.Cmd {
	saved := m.saved
	return tea.Sequence(
		func() tea.Msg { return DoneMsg{Saved: saved} },
		tea.Quit,
	)
}

// Saved reports whether settings were written.
func (m Model) Saved() bool {
	return m.saved
}

func (m Model) buildForm() *huh.Form {
	f := m.f
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("IMAP Host").
				Description("Leave empty to skip mailbox polling").
				Placeholder("imap.example.com").
				Value(&f.host),
			huh.NewInput().
				Title("IMAP Port").
				Placeholder("993").
				Value(&f.port).
				Validate(validatePort),
			huh.NewInput().
				Title("Username").
				Placeholder("user@example.com").
				Value(&f.username),
			huh.NewInput().
				Title("Password").
				Description("Stored in the system keyring. Empty keeps the current one.").
				EchoMode(huh.EchoModePassword).
				Value(&f.password),
			huh.NewConfirm().
				Title("Use TLS").
				Affirmative("Yes").
				Negative("No").
				Value(&f.tls),
			huh.NewInput().
				Title("Look back (days)").
				Value(&f.lookback).
				Validate(func(s string) error {
					_, err := parseDays(s)
					return err
				}),
		).Title("Mailbox"),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Analyze with Claude").
				Description("Otherwise keyword rules decide category and urgency").
				Affirmative("Yes").
				Negative("No").
				Value(&f.aiEnabled),
			huh.NewInput().
				Title("Anthropic API key").
				Description("Stored in the system keyring. Empty keeps the current one.").
				EchoMode(huh.EchoModePassword).
				Value(&f.apiKey),
		).Title("Analysis"),
	).WithWidth(m.formWidth())
}

// View renders the current step.
func (m Model) View() string {
	style := lipgloss.NewStyle().Padding(1, 2)

	switch m.mode {
	case ModeValidating:
		return style.Render(fmt.Sprintf(
			"%s Testing login to %s...\n\nPress esc to go back.",
			m.spinner.View(), m.cfg.IMAP.Host,
		))
	case ModeResult:
		return style.Render(m.viewResult())
	}
	return style.Render(m.form.View())
}

func (m Model) viewResult() string {
	hint := lipgloss.NewStyle().Foreground(theme.ColorGray)

	if m.err != nil {
		errStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed)
		return errStyle.Render("Setup failed") + "\n\n" +
			m.err.Error() + "\n\n" +
			hint.Render("r retry | e edit | esc quit without saving")
	}

	okStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen)
	s := okStyle.Render("Settings saved") + "\n\n"
	if m.checked != "" {
		s += "Mailbox: " + m.checked + "\n\n"
	}
	return s + hint.Render("enter quit")
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func validatePort(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("port is required")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fmt.Errorf("port must be a number")
		}
	}
	return nil
}

func parseDays(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("enter a whole number of days")
	}
	return n, nil
}
