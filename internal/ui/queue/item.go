package queue

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/theme"
)

// EmailItem wraps a model.EmailRecord so it can be used in a bubbles/list.
type EmailItem struct {
	Email model.EmailRecord
}

// FilterValue returns the string used for searching.
func (i EmailItem) FilterValue() string {
	return i.Email.Sender + " " + i.Email.Subject
}

// Title returns the subject line.
func (i EmailItem) Title() string { return i.Email.Subject }

// Description returns a short summary line for the list.
func (i EmailItem) Description() string {
	parts := []string{
		string(i.Email.Category),
		string(i.Email.SuggestedAction),
		i.Email.Sender,
	}
	return strings.Join(parts, " | ")
}

// EmailDelegate implements list.ItemDelegate for rendering queue rows.
type EmailDelegate struct {
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d EmailDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d EmailDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d EmailDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single queue row:
// urgency, category badge, human marker, subject, sender, age.
func (d EmailDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(EmailItem)
	if !ok {
		return
	}
	e := it.Email
	isSelected := index == m.Index()

	urgency := theme.UrgencyStyle(e.Urgency).Render(fmt.Sprintf("U%d", e.Urgency))
	category := theme.CategoryStyle(e.Category).Render(categoryLabel(e.Category))

	human := " "
	if e.RequiresHuman {
		human = theme.HumanBadgeStyle.Render("●")
	}

	sender := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(e.Sender)

	now := time.Now
	if d.now != nil {
		now = d.now
	}
	age := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(receivedAt(e), now()))

	line := fmt.Sprintf(
		"%s %s %s %s  %s  %s",
		urgency, category, human, e.Subject, sender, age,
	)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// categoryLabel shortens a category for the fixed-width badge column.
func categoryLabel(c model.Category) string {
	switch c {
	case model.CategoryVendorSecurity:
		return "VENDOR"
	case model.CategoryTeamManagement:
		return "TEAM"
	case model.CategoryEscalation:
		return "ESCAL"
	case model.CategoryMeetingRequest:
		return "MEET"
	case model.CategoryFYIOnly:
		return "FYI"
	case model.CategoryNewsletter:
		return "NEWS"
	case model.CategoryProcurement:
		return "PROCURE"
	case model.CategoryFollowUpNeeded:
		return "FOLLOW"
	default:
		return string(c)
	}
}

// receivedAt parses the caller-supplied timestamp, falling back to the
// insertion time.
func receivedAt(e model.EmailRecord) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, e.ReceivedAt); err == nil {
			return t
		}
	}
	return e.CreatedAt
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}
