package store_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/store"
	"github.com/nhle/mail-triage/tests/testutil"
)

func TestSaveEmail_InsertsRecordAndAudit(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := t.Context()

	rec := testutil.NewRecord("a@example.com", "Contract")
	rec.Category = model.CategoryLegal
	rec.KeyEntities = []string{"GDPR", "Nestlé"}
	rec.RequiresHuman = true

	id, err := s.SaveEmail(ctx, rec)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.GetEmail(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Sender)
	assert.Equal(t, model.CategoryLegal, got.Category)
	assert.Equal(t, []string{"GDPR", "Nestlé"}, got.KeyEntities)
	assert.True(t, got.RequiresHuman)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Nil(t, got.StatusUpdatedAt)

	audit, err := s.GetAuditLog(ctx, id)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, model.AuditActionCreated, audit[0].Action)
	assert.Nil(t, audit[0].OldStatus)
	assert.Equal(t, model.StatusPending, audit[0].NewStatus)
}

func TestSaveEmail_Duplicate(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := t.Context()

	first := testutil.NewRecord("a@example.com", "Same subject")
	second := testutil.NewRecord("a@example.com", "Same subject")
	second.Urgency = 5

	_, err := s.SaveEmail(ctx, first)
	require.NoError(t, err)

	_, err = s.SaveEmail(ctx, second)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	counts, err := s.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[model.StatusPending])

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.UrgencyDefault, pending[0].Urgency)
}

func TestSaveEmail_SameSubjectDifferentSender(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := t.Context()

	_, err := s.SaveEmail(ctx, testutil.NewRecord("a@example.com", "Hello"))
	require.NoError(t, err)
	_, err = s.SaveEmail(ctx, testutil.NewRecord("b@example.com", "Hello"))
	require.NoError(t, err)
}

func TestSaveEmail_FollowUps(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := t.Context()

	withDate := testutil.NewRecord("a@example.com", "With date")
	date := "2026-02-01"
	withDate.FollowUpDate = &date

	id1, err := s.SaveEmail(ctx, withDate)
	require.NoError(t, err)
	id2, err := s.SaveEmail(ctx, testutil.NewRecord("a@example.com", "Without date"))
	require.NoError(t, err)

	fu, err := s.GetFollowUps(ctx, id1)
	require.NoError(t, err)
	require.Len(t, fu, 1)
	assert.Equal(t, "2026-02-01", fu[0].FollowUpDate)
	assert.Equal(t, id1, fu[0].EmailID)

	fu, err = s.GetFollowUps(ctx, id2)
	require.NoError(t, err)
	assert.Empty(t, fu)
}

func TestUpdateStatus(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := t.Context()

	id, err := s.SaveEmail(ctx, testutil.NewRecord("a@example.com", "Review"))
	require.NoError(t, err)

	notes := "handled by phone"
	require.NoError(t, s.UpdateStatus(ctx, id, "DONE", &notes))

	got, err := s.GetEmail(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "DONE", got.Status)
	require.NotNil(t, got.Notes)
	assert.Equal(t, notes, *got.Notes)
	assert.NotNil(t, got.StatusUpdatedAt)

	audit, err := s.GetAuditLog(ctx, id)
	require.NoError(t, err)
	require.Len(t, audit, 2)
	assert.Equal(t, model.AuditActionStatusChange, audit[1].Action)
	require.NotNil(t, audit[1].OldStatus)
	assert.Equal(t, model.StatusPending, *audit[1].OldStatus)
	assert.Equal(t, "DONE", audit[1].NewStatus)

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := t.Context()

	err := s.UpdateStatus(ctx, 999, "DONE", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)

	audit, err := s.GetAuditLog(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, audit)
}

func TestGetEmail_NotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.GetEmail(t.Context(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListPending_Order(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := t.Context()

	older := testutil.NewRecord("a@example.com", "Older but urgent")
	older.Urgency = 5
	older.ReceivedAt = "2026-01-01T08:00:00Z"

	newer := testutil.NewRecord("a@example.com", "Newer but calm")
	newer.Urgency = 3
	newer.ReceivedAt = "2026-01-02T08:00:00Z"

	newest := testutil.NewRecord("b@example.com", "Newest and calm")
	newest.Urgency = 3
	newest.ReceivedAt = "2026-01-03T08:00:00Z"

	for _, r := range []model.EmailRecord{newer, older, newest} {
		_, err := s.SaveEmail(ctx, r)
		require.NoError(t, err)
	}

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "Older but urgent", pending[0].Subject)
	assert.Equal(t, "Newest and calm", pending[1].Subject)
	assert.Equal(t, "Newer but calm", pending[2].Subject)
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "triage.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.SaveEmail(t.Context(), testutil.NewRecord("a@example.com", "x"))
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)

	_, err = s.ListPending(t.Context())
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
}

func TestNewSQLiteStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triage.db")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	_, err = s.SaveEmail(t.Context(), testutil.NewRecord("a@example.com", "Persisted"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	pending, err := s.ListPending(t.Context())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Persisted", pending[0].Subject)
}

// newFileStore opens a file-backed store, which unlike ":memory:" uses a
// pool of connections.
func newFileStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "triage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// saveConcurrently saves every record from its own goroutine and returns
// one error slot per record.
func saveConcurrently(t *testing.T, s store.Store, recs []model.EmailRecord) []error {
	t.Helper()
	errs := make([]error, len(recs))
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i, rec := range recs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = s.SaveEmail(t.Context(), rec)
		}()
	}
	close(start)
	wg.Wait()
	return errs
}

func TestSaveEmail_ConcurrentIdenticalSubmissions(t *testing.T) {
	s := newFileStore(t)
	const n = 32

	recs := make([]model.EmailRecord, n)
	for i := range recs {
		recs[i] = testutil.NewRecord("soc@partner.example", "Data breach notification")
	}

	var saved, dups int
	for _, err := range saveConcurrently(t, s, recs) {
		switch {
		case err == nil:
			saved++
		case errors.Is(err, store.ErrDuplicate):
			dups++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, saved)
	assert.Equal(t, n-1, dups)

	counts, err := s.CountByStatus(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, counts[model.StatusPending])
}

func TestSaveEmail_ConcurrentDistinctSubmissions(t *testing.T) {
	s := newFileStore(t)
	const n = 32

	recs := make([]model.EmailRecord, n)
	for i := range recs {
		recs[i] = testutil.NewRecord("a@example.com", fmt.Sprintf("Subject %d", i))
	}

	for _, err := range saveConcurrently(t, s, recs) {
		assert.NoError(t, err)
	}

	pending, err := s.ListPending(t.Context())
	require.NoError(t, err)
	assert.Len(t, pending, n)

	audit, err := s.GetAuditLog(t.Context(), pending[0].ID)
	require.NoError(t, err)
	assert.Len(t, audit, 1)
}

func TestUpdateStatus_ConcurrentWithSaves(t *testing.T) {
	s := newFileStore(t)
	id, err := s.SaveEmail(t.Context(), testutil.NewRecord("a@example.com", "Review"))
	require.NoError(t, err)

	recs := make([]model.EmailRecord, 16)
	for i := range recs {
		recs[i] = testutil.NewRecord("b@example.com", fmt.Sprintf("Other %d", i))
	}

	var wg sync.WaitGroup
	statusErrs := make([]error, 8)
	for i := range statusErrs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statusErrs[i] = s.UpdateStatus(t.Context(), id, fmt.Sprintf("STEP_%d", i), nil)
		}()
	}
	saveErrs := saveConcurrently(t, s, recs)
	wg.Wait()

	for _, err := range append(statusErrs, saveErrs...) {
		assert.NoError(t, err)
	}

	audit, err := s.GetAuditLog(t.Context(), id)
	require.NoError(t, err)
	assert.Len(t, audit, 1+len(statusErrs))
}
