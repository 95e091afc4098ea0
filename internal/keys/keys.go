package keys

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the global keybindings for the review screen.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Reload the queue and trigger a mailbox poll
	Refresh key.Binding

	// Only show emails that need the user's own attention
	FilterHuman key.Binding

	// Actions
	SetStatus key.Binding
	Done      key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "commands"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		FilterHuman: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "needs me"),
		),
		SetStatus: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "status"),
		),
		Done: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "done"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.SetStatus, k.Done, k.Help, k.Quit}
}

// FullHelp returns all keybindings grouped for the expanded help view:
// moving around, working the queue, then the screen itself.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back},
		{k.SetStatus, k.Done, k.FilterHuman, k.Search, k.Refresh},
		{k.Command, k.Help, k.Quit},
	}
}

// QueueHints are the bindings shown in the status bar on the queue.
func (k *KeyMap) QueueHints() []key.Binding {
	return []key.Binding{
		k.Quit, k.Help, k.Select, k.SetStatus, k.Done,
		k.FilterHuman, k.Search, k.Refresh,
	}
}

// DetailHints are the bindings shown in the status bar on an email.
func (k *KeyMap) DetailHints() []key.Binding {
	return []key.Binding{k.Back, k.SetStatus, k.Done, k.Up, k.Down}
}

// Hints renders enabled bindings as "key desc | key desc".
func Hints(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " | ")
}
