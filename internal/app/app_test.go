package app

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/store"
	"github.com/nhle/mail-triage/internal/ui/detail"
	"github.com/nhle/mail-triage/internal/ui/queue"
	"github.com/nhle/mail-triage/tests/testutil"
)

func newModel(t *testing.T) (Model, store.Store, int64) {
	t.Helper()
	s := testutil.NewTestStore(t)

	rec := testutil.NewRecord("legal@acme.example", "Contract redlines")
	date := "2026-02-01"
	rec.FollowUpDate = &date
	id, err := s.SaveEmail(t.Context(), rec)
	require.NoError(t, err)

	m := New(s, nil, nil)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model), s, id
}

func TestModel_OpenDetail(t *testing.T) {
	m, _, id := newModel(t)

	updated, cmd := m.Update(queue.SelectedEmailMsg{EmailID: id})
	m = updated.(Model)
	assert.Equal(t, ViewDetail, m.currentView)
	require.NotNil(t, cmd)

	msg, ok := cmd().(detail.DetailLoadedMsg)
	require.True(t, ok)
	require.NoError(t, msg.Err)
	assert.Equal(t, "Contract redlines", msg.Email.Record.Subject)
	assert.Len(t, msg.Email.FollowUps, 1)
	assert.Len(t, msg.Email.AuditLog, 1)

	updated, _ = m.Update(msg)
	m = updated.(Model)
	assert.Equal(t, id, m.detail.CurrentID())
	assert.Contains(t, m.View(), "Contract redlines")
}

func TestModel_StatusRequestOpensForm(t *testing.T) {
	m, _, id := newModel(t)

	updated, _ := m.Update(queue.StatusRequestMsg{EmailID: id, Subject: "Contract redlines"})
	m = updated.(Model)
	assert.Equal(t, ViewStatusForm, m.currentView)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	assert.Equal(t, ViewList, m.currentView)
}

func TestModel_MarkDone(t *testing.T) {
	m, s, id := newModel(t)

	_, cmd := m.Update(queue.StatusRequestMsg{EmailID: id, Status: "DONE"})
	require.NotNil(t, cmd)
	msg, ok := cmd().(statusUpdatedMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)

	updated, _ := m.Update(msg)
	m = updated.(Model)
	assert.Contains(t, m.message, "DONE")

	got, err := s.GetEmail(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "DONE", got.Status)
}

func TestModel_StatusUpdateNotFound(t *testing.T) {
	m, _, _ := newModel(t)

	msg := m.updateStatus(999, "DONE", nil)().(statusUpdatedMsg)
	assert.ErrorIs(t, msg.err, store.ErrNotFound)

	updated, _ := m.Update(msg)
	assert.Contains(t, updated.(Model).errMessage, "999")
}

func TestHeaderTitle(t *testing.T) {
	assert.Equal(t, "Mail Triage", headerTitle(nil))
	assert.Equal(t, "Mail Triage [2 pending / 5]",
		headerTitle(map[string]int{model.StatusPending: 2, "DONE": 3}))
}
