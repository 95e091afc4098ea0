package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nhle/mail-triage/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// connPragmas apply to every pooled connection, not only the first one.
var connPragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"journal_mode(WAL)",
}

// dsn builds the driver name for dbPath. File databases get connPragmas
// and BEGIN IMMEDIATE transactions so concurrent writers queue on the
// busy timeout instead of failing with SQLITE_BUSY.
func dsn(dbPath string) string {
	if dbPath == ":memory:" {
		return dbPath
	}
	q := url.Values{}
	for _, p := range connPragmas {
		q.Add("_pragma", p)
	}
	q.Set("_txlock", "immediate")
	return dbPath + "?" + q.Encode()
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("%w: opening sqlite db: %w", ErrStoreUnavailable, err)
	}

	// Every connection to ":memory:" is a separate database, so it gets
	// exactly one and its pragmas are set on it directly.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connecting to %s: %w", ErrStoreUnavailable, dbPath, err)
	}

	if dbPath == ":memory:" {
		if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// beginTx starts a transaction, reporting connection failures as
// ErrStoreUnavailable.
func (s *SQLiteStore) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: beginning transaction: %w", ErrStoreUnavailable, err)
	}
	return tx, nil
}

// SaveEmail inserts rec, its optional follow-up and a CREATED audit entry
// in one transaction. A second record with the same sender and subject is
// rejected by the unique index and reported as ErrDuplicate.
func (s *SQLiteStore) SaveEmail(ctx context.Context, rec model.EmailRecord) (int64, error) {
	entities := rec.KeyEntities
	if entities == nil {
		entities = []string{}
	}
	entitiesJSON, err := json.Marshal(entities)
	if err != nil {
		return 0, fmt.Errorf("marshaling key_entities: %w", err)
	}

	status := rec.Status
	if status == "" {
		status = model.StatusPending
	}
	now := s.now().UTC()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO emails (
			thread_id, sender, subject, body_preview, received_at,
			category, urgency, summary, suggested_action,
			delegate_to, draft_reply, follow_up_date,
			key_entities, requires_human, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ThreadID, rec.Sender, rec.Subject, rec.BodyPreview, rec.ReceivedAt,
		string(rec.Category), rec.Urgency, rec.Summary, string(rec.SuggestedAction),
		rec.DelegateTo, rec.DraftReply, rec.FollowUpDate,
		string(entitiesJSON), boolToInt(rec.RequiresHuman), status, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("inserting email: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted email id: %w", err)
	}

	if rec.FollowUpDate != nil {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO follow_ups (email_id, follow_up_date, created_at) VALUES (?, ?, ?)",
			id, *rec.FollowUpDate, now,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting follow-up for email %d: %w", id, err)
		}
	}

	if err := insertAudit(ctx, tx, id, model.AuditActionCreated, nil, status, now); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing email %d: %w", id, err)
	}
	return id, nil
}

// UpdateStatus sets a new status and notes on an email and records the
// transition. Unknown IDs yield ErrNotFound and leave no audit entry.
func (s *SQLiteStore) UpdateStatus(
	ctx context.Context,
	id int64,
	newStatus string,
	notes *string,
) error {
	now := s.now().UTC()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var oldStatus string
	err = tx.GetContext(ctx, &oldStatus, "SELECT status FROM emails WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("updating email %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("reading status of email %d: %w", id, err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE emails SET status = ?, status_updated_at = ?, notes = ? WHERE id = ?",
		newStatus, now, notes, id,
	)
	if err != nil {
		return fmt.Errorf("updating email %d: %w", id, err)
	}

	err = insertAudit(ctx, tx, id, model.AuditActionStatusChange, &oldStatus, newStatus, now)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ListPending returns all PENDING emails ordered by urgency, then by
// received time, most recent first.
func (s *SQLiteStore) ListPending(ctx context.Context) ([]model.EmailRecord, error) {
	var rows []emailRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM emails
		WHERE status = ?
		ORDER BY urgency DESC, received_at DESC, id DESC`,
		model.StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("querying pending emails: %w", classify(err))
	}

	records := make([]model.EmailRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.toModel()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// GetEmail retrieves a single email by ID.
func (s *SQLiteStore) GetEmail(ctx context.Context, id int64) (*model.EmailRecord, error) {
	var row emailRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM emails WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting email %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting email %d: %w", id, classify(err))
	}

	rec, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetFollowUps lists the follow-ups scheduled for an email.
func (s *SQLiteStore) GetFollowUps(ctx context.Context, emailID int64) ([]model.FollowUp, error) {
	followUps := []model.FollowUp{}
	err := s.db.SelectContext(ctx, &followUps, `
		SELECT id, email_id, follow_up_date, created_at
		FROM follow_ups WHERE email_id = ? ORDER BY id`,
		emailID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying follow-ups for email %d: %w", emailID, classify(err))
	}
	return followUps, nil
}

// GetAuditLog returns an email's audit trail, oldest first.
func (s *SQLiteStore) GetAuditLog(ctx context.Context, emailID int64) ([]model.AuditLogEntry, error) {
	entries := []model.AuditLogEntry{}
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, email_id, action, old_status, new_status, created_at
		FROM audit_log WHERE email_id = ? ORDER BY id`,
		emailID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying audit log for email %d: %w", emailID, classify(err))
	}
	return entries, nil
}

// CountByStatus returns the number of emails in each status.
func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"n"`
	}
	err := s.db.SelectContext(ctx, &rows,
		"SELECT status, COUNT(*) AS n FROM emails GROUP BY status",
	)
	if err != nil {
		return nil, fmt.Errorf("counting emails by status: %w", classify(err))
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// insertAudit appends an audit entry inside tx.
func insertAudit(
	ctx context.Context,
	tx *sqlx.Tx,
	emailID int64,
	action string,
	oldStatus *string,
	newStatus string,
	at time.Time,
) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_log (email_id, action, old_status, new_status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		emailID, action, oldStatus, newStatus, at,
	)
	if err != nil {
		return fmt.Errorf("writing %s audit entry for email %d: %w", action, emailID, err)
	}
	return nil
}

// emailRow mirrors the emails table.
type emailRow struct {
	ID              int64        `db:"id"`
	ThreadID        string       `db:"thread_id"`
	Sender          string       `db:"sender"`
	Subject         string       `db:"subject"`
	BodyPreview     string       `db:"body_preview"`
	ReceivedAt      string       `db:"received_at"`
	Category        string       `db:"category"`
	Urgency         int          `db:"urgency"`
	Summary         string       `db:"summary"`
	SuggestedAction string       `db:"suggested_action"`
	DelegateTo      *string      `db:"delegate_to"`
	DraftReply      *string      `db:"draft_reply"`
	FollowUpDate    *string      `db:"follow_up_date"`
	KeyEntities     string       `db:"key_entities"`
	RequiresHuman   int          `db:"requires_human"`
	Status          string       `db:"status"`
	StatusUpdatedAt sql.NullTime `db:"status_updated_at"`
	Notes           *string      `db:"notes"`
	CreatedAt       time.Time    `db:"created_at"`
}

func (r emailRow) toModel() (model.EmailRecord, error) {
	rec := model.EmailRecord{
		ID:              r.ID,
		ThreadID:        r.ThreadID,
		Sender:          r.Sender,
		Subject:         r.Subject,
		BodyPreview:     r.BodyPreview,
		ReceivedAt:      r.ReceivedAt,
		Category:        model.Category(r.Category),
		Urgency:         r.Urgency,
		Summary:         r.Summary,
		SuggestedAction: model.Action(r.SuggestedAction),
		DelegateTo:      r.DelegateTo,
		DraftReply:      r.DraftReply,
		FollowUpDate:    r.FollowUpDate,
		KeyEntities:     []string{},
		RequiresHuman:   r.RequiresHuman != 0,
		Status:          r.Status,
		Notes:           r.Notes,
		CreatedAt:       r.CreatedAt,
	}
	if r.StatusUpdatedAt.Valid {
		t := r.StatusUpdatedAt.Time
		rec.StatusUpdatedAt = &t
	}

	if r.KeyEntities != "" {
		if err := json.Unmarshal([]byte(r.KeyEntities), &rec.KeyEntities); err != nil {
			return model.EmailRecord{}, fmt.Errorf("unmarshaling key_entities of email %d: %w", r.ID, err)
		}
	}
	return rec, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return true
		}
		if code&0xff == sqlite3.SQLITE_CONSTRAINT {
			return strings.Contains(se.Error(), "UNIQUE")
		}
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// classify marks errors from a closed or broken connection as
// ErrStoreUnavailable.
func classify(err error) error {
	if errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, driver.ErrBadConn) ||
		strings.Contains(err.Error(), "database is closed") {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
