package triage

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail-triage/internal/model"
)

func TestSuggestAction(t *testing.T) {
	tests := []struct {
		category model.Category
		urgency  int
		want     model.Action
	}{
		{model.CategoryNewsletter, 5, model.ActionReplyNow},
		{model.CategorySpam, 4, model.ActionReplyNow},
		{model.CategoryNewsletter, 1, model.ActionArchive},
		{model.CategorySpam, 3, model.ActionArchive},
		{model.CategoryMeetingRequest, 2, model.ActionSchedule},
		{model.CategoryFollowUpNeeded, 3, model.ActionFollowUp},
		{model.CategoryTeamManagement, 2, model.ActionDelegate},
		{model.CategoryAdmin, 2, model.ActionReplyNow},
		{model.CategoryLegal, 1, model.ActionReplyNow},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestAction(tt.category, tt.urgency))
		})
	}
}

func TestRequiresHuman(t *testing.T) {
	assert.False(t, RequiresHuman(model.CategoryProcurement, 2))
	assert.True(t, RequiresHuman(model.CategoryLegal, 1))
	assert.True(t, RequiresHuman(model.CategoryEscalation, 1))
	assert.True(t, RequiresHuman(model.CategoryVendorSecurity, 3))
	assert.True(t, RequiresHuman(model.CategoryNewsletter, 4))
	assert.False(t, RequiresHuman(model.CategoryMeetingRequest, 3))
}

func TestProperty_PolicyUrgencyOverride(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	genCategory := gen.OneConstOf(
		model.CategoryVendorSecurity, model.CategoryTeamManagement,
		model.CategoryEscalation, model.CategoryMeetingRequest,
		model.CategoryFYIOnly, model.CategoryNewsletter, model.CategoryAdmin,
		model.CategoryLegal, model.CategoryProcurement,
		model.CategoryFollowUpNeeded, model.CategorySpam,
	)

	properties.Property("urgency 4 and above always replies now", prop.ForAll(
		func(category model.Category, urgency int) bool {
			return SuggestAction(category, urgency) == model.ActionReplyNow &&
				RequiresHuman(category, urgency)
		},
		genCategory,
		gen.IntRange(4, 5),
	))

	properties.Property("suggested action is always a known value", prop.ForAll(
		func(category model.Category, urgency int) bool {
			return SuggestAction(category, urgency).Valid()
		},
		genCategory,
		gen.IntRange(1, 5),
	))

	properties.TestingRun(t)
}

func TestGenerateDraftReply(t *testing.T) {
	t.Run("meeting", func(t *testing.T) {
		got := GenerateDraftReply(model.CategoryMeetingRequest, "jane.doe@example.com", "Sync", 2)
		require.NotNil(t, got)
		assert.Contains(t, *got, "Hi Jane Doe,")
		assert.Contains(t, *got, "calendar invite")
		assert.Contains(t, *got, DefaultSignature)
	})

	t.Run("vendor security interpolates subject", func(t *testing.T) {
		got := GenerateDraftReply(model.CategoryVendorSecurity, "a@b.com", "SOC2 report", 3)
		require.NotNil(t, got)
		assert.Contains(t, *got, "regarding SOC2 report.")
	})

	t.Run("urgent admin uses priority template", func(t *testing.T) {
		got := GenerateDraftReply(model.CategoryAdmin, "a@b.com", "x", 4)
		require.NotNil(t, got)
		assert.Contains(t, *got, "treating this as a priority")
	})

	t.Run("bulk mail has no draft", func(t *testing.T) {
		assert.Nil(t, GenerateDraftReply(model.CategoryNewsletter, "a@b.com", "x", 1))
		assert.Nil(t, GenerateDraftReply(model.CategorySpam, "a@b.com", "x", 2))
	})

	t.Run("default", func(t *testing.T) {
		got := GenerateDraftReply(model.CategoryProcurement, "a@b.com", "x", 2)
		require.NotNil(t, got)
		assert.Contains(t, *got, "review and come back to you shortly")
	})

	t.Run("custom signature", func(t *testing.T) {
		got := DraftReplyWithSignature(model.CategoryAdmin, "a@b.com", "x", 2, "Cheers,\nSam")
		require.NotNil(t, got)
		assert.Contains(t, *got, "Cheers,\nSam")
		assert.NotContains(t, *got, DefaultSignature)
	})
}

func TestSenderDisplayName(t *testing.T) {
	tests := []struct {
		sender string
		want   string
	}{
		{"jane.doe@example.com", "Jane Doe"},
		{"JOHN_SMITH@example.com", "John Smith"},
		{"mary-ann.lee@example.com", "Mary Ann Lee"},
		{"Alex Kim <alex@example.com>", "Alex Kim"},
		{"<ops-team@example.com>", "Ops Team"},
		{"Unknown", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.sender, func(t *testing.T) {
			assert.Equal(t, tt.want, SenderDisplayName(tt.sender))
		})
	}
}

func TestExtractEntities(t *testing.T) {
	got := ExtractEntities("PayPal SOC2 evidence", "Per the Security Annex and gdpr terms for Nestlé")
	assert.Equal(t, []string{"Nestlé", "Security Annex", "GDPR", "SOC2", "PayPal"}, got)

	assert.Equal(t, []string{"GDPR"},
		ExtractEntities("Re: INC-4521", "GDPR impact of INC-4521"))

	assert.Empty(t, ExtractEntities("hello", "world"))
	assert.NotNil(t, ExtractEntities("", ""))
}

func TestGenerateSummary(t *testing.T) {
	body := ""
	for i := 0; i < 40; i++ {
		body += "abcdé"
	}
	got := GenerateSummary("a@b.com", "Hi", body)
	assert.Equal(t, "Email from a@b.com regarding 'Hi'. "+string([]rune(body)[:150])+"...", got)
}
