package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mail-triage/internal/ui/detail"
)

// statusUpdatedMsg is sent after a status change is persisted.
type statusUpdatedMsg struct {
	emailID int64
	status  string
	err     error
}

// countsLoadedMsg carries per-status totals for the header.
type countsLoadedMsg struct {
	counts map[string]int
}

// updateStatus persists a status change.
func (m *Model) updateStatus(emailID int64, status string, notes *string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		err := s.UpdateStatus(context.Background(), emailID, status, notes)
		return statusUpdatedMsg{emailID: emailID, status: status, err: err}
	}
}

// loadDetail loads an email with its follow-ups and audit trail.
func (m Model) loadDetail(emailID int64) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		rec, err := s.GetEmail(ctx, emailID)
		if err != nil {
			return detail.DetailLoadedMsg{Err: err}
		}
		followUps, err := s.GetFollowUps(ctx, emailID)
		if err != nil {
			return detail.DetailLoadedMsg{Err: err}
		}
		audit, err := s.GetAuditLog(ctx, emailID)
		if err != nil {
			return detail.DetailLoadedMsg{Err: err}
		}
		return detail.DetailLoadedMsg{Email: &detail.Email{
			Record:    *rec,
			FollowUps: followUps,
			AuditLog:  audit,
		}}
	}
}

// loadCounts returns a tea.Cmd that reads per-status totals.
func (m Model) loadCounts() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		counts, err := s.CountByStatus(context.Background())
		if err != nil {
			return countsLoadedMsg{}
		}
		return countsLoadedMsg{counts: counts}
	}
}
