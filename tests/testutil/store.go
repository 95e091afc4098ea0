package testutil

import (
	"testing"

	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// NewRecord returns a minimal pending record for sender and subject.
func NewRecord(sender, subject string) model.EmailRecord {
	return model.EmailRecord{
		ThreadID:        "thread-" + subject,
		Sender:          sender,
		Subject:         subject,
		BodyPreview:     "body",
		ReceivedAt:      "2026-01-01T09:00:00Z",
		Category:        model.CategoryAdmin,
		Urgency:         model.UrgencyDefault,
		Summary:         "summary",
		SuggestedAction: model.ActionReplyNow,
		KeyEntities:     []string{},
		Status:          model.StatusPending,
	}
}
