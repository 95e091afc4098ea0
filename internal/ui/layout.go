// Package ui holds the frame shared by the review screen's views.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mail-triage/internal/theme"
)

// compactWidth is the terminal width below which bars drop their right
// side.
const compactWidth = 60

// Layout is the header / content / status bar frame.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for the terminal size.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth is the width views may use.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight is the height left between the one-line header and the
// one-line status bar.
func (l Layout) ContentHeight() int {
	if h := l.Height - 2; h > 0 {
		return h
	}
	return 0
}

// Compact reports whether the terminal is too narrow for both sides of
// a bar.
func (l Layout) Compact() bool {
	return l.Width < compactWidth
}

// RenderHeader shows the queue title on the left and the poll state on
// the right.
func (l Layout) RenderHeader(title, pollState string) string {
	return l.bar(theme.HeaderStyle, title, pollState)
}

// RenderStatusBar shows key hints.
func (l Layout) RenderStatusBar(hints string) string {
	return l.bar(theme.StatusBarStyle, hints, "")
}

// RenderErrorBar replaces the status bar while an error is shown.
func (l Layout) RenderErrorBar(message string) string {
	return l.bar(theme.ErrorBarStyle, message, "")
}

// bar renders left and right text on one full-width line in style.
func (l Layout) bar(style lipgloss.Style, left, right string) string {
	if l.Compact() {
		right = ""
	}
	l0 := style.Render(left)
	r0 := ""
	if right != "" {
		r0 = style.Render(right)
	}

	gap := l.Width - lipgloss.Width(l0) - lipgloss.Width(r0)
	if gap < 0 {
		gap = 0
	}
	fill := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, l0, fill, r0)
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}
