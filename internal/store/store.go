package store

import (
	"context"
	"errors"

	"github.com/nhle/mail-triage/internal/model"
)

var (
	// ErrDuplicate is returned by SaveEmail when a record with the same
	// sender and subject already exists. Nothing is written.
	ErrDuplicate = errors.New("email already exists")

	// ErrNotFound is returned when a referenced email does not exist.
	ErrNotFound = errors.New("email not found")

	// ErrStoreUnavailable wraps failures to reach the database at all.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Store defines the persistence interface for triaged emails, their
// follow-ups and the audit trail.
type Store interface {
	// SaveEmail inserts a new record together with its follow-up and
	// CREATED audit entry, returning the generated ID.
	SaveEmail(ctx context.Context, rec model.EmailRecord) (int64, error)

	// UpdateStatus changes an email's status and appends a STATUS_CHANGE
	// audit entry.
	UpdateStatus(ctx context.Context, id int64, newStatus string, notes *string) error

	// ListPending returns pending emails, most urgent and most recent first.
	ListPending(ctx context.Context) ([]model.EmailRecord, error)

	GetEmail(ctx context.Context, id int64) (*model.EmailRecord, error)
	GetFollowUps(ctx context.Context, emailID int64) ([]model.FollowUp, error)
	GetAuditLog(ctx context.Context, emailID int64) ([]model.AuditLogEntry, error)

	// CountByStatus returns the number of emails per status.
	CountByStatus(ctx context.Context) (map[string]int, error)

	Close() error
}
