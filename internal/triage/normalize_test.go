package triage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/mail-triage/internal/model"
)

func strPtr(s string) *string { return &s }

func TestNormalize_Defaults(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	email := model.IncomingEmail{
		Sender:     "a@b.com",
		Subject:    "Hi",
		Body:       strings.Repeat("é", 600),
		ReceivedAt: "2026-03-04T05:00:00Z",
	}

	rec := Normalize(email, &model.Analysis{}, now)

	assert.Equal(t, "PA-20260304050607", rec.ThreadID)
	assert.Equal(t, model.CategoryAdmin, rec.Category)
	assert.Equal(t, model.UrgencyDefault, rec.Urgency)
	assert.Equal(t, model.ActionReplyNow, rec.SuggestedAction)
	assert.Equal(t, model.StatusPending, rec.Status)
	assert.NotNil(t, rec.KeyEntities)
	assert.Len(t, []rune(rec.BodyPreview), model.BodyPreviewLength)
	assert.Nil(t, rec.FollowUpDate)
}

func TestNormalize_NilAnalysis(t *testing.T) {
	rec := Normalize(model.IncomingEmail{ThreadID: "t-1"}, nil, time.Now())

	assert.Equal(t, "t-1", rec.ThreadID)
	assert.Equal(t, model.CategoryAdmin, rec.Category)
}

func TestNormalize_KeepsValidFields(t *testing.T) {
	analysis := &model.Analysis{
		Category:        "legal",
		Urgency:         4,
		Summary:         "contract review",
		SuggestedAction: model.ActionDelegate,
		DelegateTo:      strPtr(" counsel@example.com "),
		DraftReply:      strPtr("null"),
		FollowUpDate:    strPtr("2026-04-01"),
		KeyEntities:     []string{"GDPR"},
		RequiresHuman:   true,
	}

	rec := Normalize(model.IncomingEmail{Sender: "a@b.com"}, analysis, time.Now())

	assert.Equal(t, model.CategoryLegal, rec.Category)
	assert.Equal(t, 4, rec.Urgency)
	assert.Equal(t, model.ActionDelegate, rec.SuggestedAction)
	assert.Equal(t, "counsel@example.com", *rec.DelegateTo)
	assert.Nil(t, rec.DraftReply)
	assert.Equal(t, "2026-04-01", *rec.FollowUpDate)
	assert.Equal(t, []string{"GDPR"}, rec.KeyEntities)
	assert.True(t, rec.RequiresHuman)
}

func TestNormalize_ClampsAndRejects(t *testing.T) {
	rec := Normalize(model.IncomingEmail{}, &model.Analysis{
		Category:        "SOMETHING_ELSE",
		Urgency:         9,
		SuggestedAction: "PANIC",
		FollowUpDate:    strPtr("next tuesday"),
	}, time.Now())

	assert.Equal(t, model.CategoryAdmin, rec.Category)
	assert.Equal(t, model.UrgencyMax, rec.Urgency)
	assert.Equal(t, model.ActionReplyNow, rec.SuggestedAction)
	assert.Nil(t, rec.FollowUpDate)

	rec = Normalize(model.IncomingEmail{}, &model.Analysis{Urgency: -3}, time.Now())
	assert.Equal(t, model.UrgencyMin, rec.Urgency)
}
