package triage

import (
	"strings"
	"time"

	"github.com/nhle/mail-triage/internal/model"
)

// ThreadIDPrefix marks thread IDs generated for emails that arrived
// without one.
const ThreadIDPrefix = "PA-"

// followUpLayout is the only accepted follow-up date format.
const followUpLayout = "2006-01-02"

// Normalize builds a storable record from an email and its analysis. It
// is lenient: missing or out-of-range analysis fields get defaults so a
// partial analysis still yields a usable record.
func Normalize(
	email model.IncomingEmail,
	analysis *model.Analysis,
	now time.Time,
) model.EmailRecord {
	if analysis == nil {
		analysis = &model.Analysis{}
	}

	threadID := strings.TrimSpace(email.ThreadID)
	if threadID == "" {
		threadID = ThreadIDPrefix + now.Format("20060102150405")
	}

	category := model.Category(strings.ToUpper(strings.TrimSpace(string(analysis.Category))))
	if !category.Valid() {
		category = model.CategoryAdmin
	}

	action := model.Action(strings.ToUpper(strings.TrimSpace(string(analysis.SuggestedAction))))
	if !action.Valid() {
		action = model.ActionReplyNow
	}

	entities := analysis.KeyEntities
	if entities == nil {
		entities = []string{}
	}

	return model.EmailRecord{
		ThreadID:        threadID,
		Sender:          email.Sender,
		Subject:         email.Subject,
		BodyPreview:     truncateRunes(email.Body, model.BodyPreviewLength),
		ReceivedAt:      email.ReceivedAt,
		Category:        category,
		Urgency:         clampUrgency(int(analysis.Urgency)),
		Summary:         analysis.Summary,
		SuggestedAction: action,
		DelegateTo:      optional(analysis.DelegateTo),
		DraftReply:      optional(analysis.DraftReply),
		FollowUpDate:    followUpDate(analysis.FollowUpDate),
		KeyEntities:     entities,
		RequiresHuman:   analysis.RequiresHuman,
		Status:          model.StatusPending,
	}
}

// clampUrgency maps a missing urgency to the default and pins everything
// else into range.
func clampUrgency(u int) int {
	switch {
	case u == 0:
		return model.UrgencyDefault
	case u < model.UrgencyMin:
		return model.UrgencyMin
	case u > model.UrgencyMax:
		return model.UrgencyMax
	default:
		return u
	}
}

// optional treats empty, "null" and "none" strings as absent.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	switch strings.ToLower(v) {
	case "", "null", "none":
		return nil
	}
	return &v
}

// followUpDate keeps a follow-up date only when it is a real calendar day.
func followUpDate(s *string) *string {
	v := optional(s)
	if v == nil {
		return nil
	}
	if _, err := time.Parse(followUpLayout, *v); err != nil {
		return nil
	}
	return v
}
