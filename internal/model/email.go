package model

import "time"

// Category is the triage bucket an email is assigned to.
type Category string

const (
	CategoryVendorSecurity Category = "VENDOR_SECURITY"
	CategoryTeamManagement Category = "TEAM_MANAGEMENT"
	CategoryEscalation     Category = "ESCALATION"
	CategoryMeetingRequest Category = "MEETING_REQUEST"
	CategoryFYIOnly        Category = "FYI_ONLY"
	CategoryNewsletter     Category = "NEWSLETTER"
	CategoryAdmin          Category = "ADMIN"
	CategoryLegal          Category = "LEGAL"
	CategoryProcurement    Category = "PROCUREMENT"
	CategoryFollowUpNeeded Category = "FOLLOW_UP_NEEDED"
	CategorySpam           Category = "SPAM"
)

// Categories lists every known category.
var Categories = []Category{
	CategoryVendorSecurity,
	CategoryTeamManagement,
	CategoryEscalation,
	CategoryMeetingRequest,
	CategoryFYIOnly,
	CategoryNewsletter,
	CategoryAdmin,
	CategoryLegal,
	CategoryProcurement,
	CategoryFollowUpNeeded,
	CategorySpam,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Action is the next step suggested for an email.
type Action string

const (
	ActionReplyNow Action = "REPLY_NOW"
	ActionDelegate Action = "DELEGATE"
	ActionArchive  Action = "ARCHIVE"
	ActionSchedule Action = "SCHEDULE"
	ActionFollowUp Action = "FOLLOW_UP"
	ActionDelete   Action = "DELETE"
)

// Actions lists every known action.
var Actions = []Action{
	ActionReplyNow,
	ActionDelegate,
	ActionArchive,
	ActionSchedule,
	ActionFollowUp,
	ActionDelete,
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// Urgency bounds (5 = most urgent).
const (
	UrgencyMin     = 1
	UrgencyMax     = 5
	UrgencyDefault = 2
)

// StatusPending is the status every new record starts in. Later statuses
// are free-form strings supplied by the reviewer.
const StatusPending = "PENDING"

// Audit log actions.
const (
	AuditActionCreated      = "CREATED"
	AuditActionStatusChange = "STATUS_CHANGE"
)

// BodyPreviewLength is the number of characters of body text kept on a record.
const BodyPreviewLength = 500

// EmailRecord is the persisted triage result for one unique
// (Sender, Subject) pair.
type EmailRecord struct {
	// ID is assigned by the store on insert.
	ID int64 `json:"id"`

	// ThreadID is supplied by the ingestion adapter or generated from
	// the ingestion timestamp.
	ThreadID string `json:"thread_id"`

	Sender  string `json:"sender"`
	Subject string `json:"subject"`

	// BodyPreview holds the first BodyPreviewLength characters of the body.
	BodyPreview string `json:"body_preview"`

	// ReceivedAt is the caller-supplied ISO-8601 timestamp.
	ReceivedAt string `json:"received_at"`

	Category        Category `json:"category"`
	Urgency         int      `json:"urgency"`
	Summary         string   `json:"summary"`
	SuggestedAction Action   `json:"suggested_action"`

	DelegateTo   *string `json:"delegate_to,omitempty"`
	DraftReply   *string `json:"draft_reply,omitempty"`
	FollowUpDate *string `json:"follow_up_date,omitempty"`

	KeyEntities   []string `json:"key_entities"`
	RequiresHuman bool     `json:"requires_human"`

	Status          string     `json:"status"`
	StatusUpdatedAt *time.Time `json:"status_updated_at,omitempty"`
	Notes           *string    `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// FollowUp schedules a reminder for an email. It is written only when the
// email carried a follow-up date at insert time.
type FollowUp struct {
	ID           int64     `json:"id" db:"id"`
	EmailID      int64     `json:"email_id" db:"email_id"`
	FollowUpDate string    `json:"follow_up_date" db:"follow_up_date"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// AuditLogEntry is an append-only record of a lifecycle event.
type AuditLogEntry struct {
	ID        int64     `json:"id" db:"id"`
	EmailID   int64     `json:"email_id" db:"email_id"`
	Action    string    `json:"action" db:"action"`
	OldStatus *string   `json:"old_status,omitempty" db:"old_status"`
	NewStatus string    `json:"new_status" db:"new_status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
