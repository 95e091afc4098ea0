package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS emails (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	thread_id         TEXT NOT NULL DEFAULT '',
	sender            TEXT NOT NULL,
	subject           TEXT NOT NULL,
	body_preview      TEXT NOT NULL DEFAULT '',
	received_at       TEXT NOT NULL DEFAULT '',
	category          TEXT NOT NULL,
	urgency           INTEGER NOT NULL CHECK(urgency BETWEEN 1 AND 5),
	summary           TEXT NOT NULL DEFAULT '',
	suggested_action  TEXT NOT NULL,
	delegate_to       TEXT,
	draft_reply       TEXT,
	follow_up_date    TEXT,
	key_entities      TEXT NOT NULL DEFAULT '[]',
	requires_human    INTEGER NOT NULL DEFAULT 0 CHECK(requires_human IN (0, 1)),
	status            TEXT NOT NULL DEFAULT 'PENDING',
	status_updated_at DATETIME,
	notes             TEXT,
	created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_emails_sender_subject
	ON emails(sender, subject);
CREATE INDEX IF NOT EXISTS idx_emails_status_urgency
	ON emails(status, urgency DESC, received_at DESC);

CREATE TABLE IF NOT EXISTS follow_ups (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	email_id       INTEGER NOT NULL REFERENCES emails(id),
	follow_up_date TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_follow_ups_email_id ON follow_ups(email_id);
CREATE INDEX IF NOT EXISTS idx_follow_ups_date ON follow_ups(follow_up_date);

CREATE TABLE IF NOT EXISTS audit_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	email_id   INTEGER NOT NULL REFERENCES emails(id),
	action     TEXT NOT NULL,
	old_status TEXT,
	new_status TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_audit_log_email_id ON audit_log(email_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
