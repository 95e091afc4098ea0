package triage

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/nhle/mail-triage/internal/model"
)

func TestClassifyCategory(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		want    model.Category
	}{
		{"vendor questionnaire", "TPRM questionnaire for Acme", "", model.CategoryVendorSecurity},
		{"escalation", "Overdue remediation", "", model.CategoryEscalation},
		{"meeting", "Quick zoom tomorrow?", "", model.CategoryMeetingRequest},
		{"legal", "DPA redlines", "see the clause on retention", model.CategoryLegal},
		{"procurement", "Invoice 4411", "", model.CategoryProcurement},
		{"team", "PTO next week", "", model.CategoryTeamManagement},
		{"newsletter", "Monthly bulletin", "", model.CategoryNewsletter},
		{"follow up", "Still waiting on this", "", model.CategoryFollowUpNeeded},
		{"spam", "Act now", "free gift inside", model.CategorySpam},
		{"case insensitive", "SECURITY ANNEX review", "", model.CategoryVendorSecurity},
		{"body only", "Hello", "We have a data protection question", model.CategoryLegal},
		{"no match", "Hello", "Nice to hear from you", model.CategoryAdmin},
		{"empty", "", "", model.CategoryAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCategory(tt.subject, tt.body))
		})
	}
}

func TestClassifyCategory_DeclarationOrderWins(t *testing.T) {
	got := ClassifyCategory("Urgent: security annex sign-off", "")
	assert.Equal(t, model.CategoryVendorSecurity, got)

	// Both keywords in the body, escalation keyword first.
	got = ClassifyCategory("", "urgent, please check the security annex")
	assert.Equal(t, model.CategoryVendorSecurity, got)
}

func TestClassifyUrgency(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		want    int
	}{
		{"breach", "Breach notification", "", 5},
		{"asap", "Need this asap", "", 5},
		{"deadline", "Deadline Friday", "", 4},
		{"reminder", "Reminder: training", "", 3},
		{"fyi", "FYI", "new org chart", 2},
		{"automatic", "Automatic reply", "", 1},
		{"highest wins", "Reminder", "this is urgent", 5},
		{"default", "Hello", "how are you", model.UrgencyDefault},
		{"empty", "", "", model.UrgencyDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyUrgency(tt.subject, tt.body))
		})
	}
}

func TestClassify_NonASCIIAndLongInput(t *testing.T) {
	long := strings.Repeat("ünïcödé 日本語 ", 20000)

	assert.Equal(t, model.CategoryAdmin, ClassifyCategory(long, long))
	assert.Equal(t, model.UrgencyDefault, ClassifyUrgency(long, long))
	assert.Equal(t, model.CategoryLegal, ClassifyCategory("Nestlé GDPR", long))
}

func TestProperty_ClassificationIsTotalAndDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("category is always a known value", prop.ForAll(
		func(subject, body string) bool {
			return ClassifyCategory(subject, body).Valid()
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("urgency is always in range", prop.ForAll(
		func(subject, body string) bool {
			u := ClassifyUrgency(subject, body)
			return u >= model.UrgencyMin && u <= model.UrgencyMax
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("same input gives same output", prop.ForAll(
		func(subject, body string) bool {
			return ClassifyCategory(subject, body) == ClassifyCategory(subject, body) &&
				ClassifyUrgency(subject, body) == ClassifyUrgency(subject, body)
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("case does not change the category", prop.ForAll(
		func(subject, body string) bool {
			return ClassifyCategory(subject, body) ==
				ClassifyCategory(strings.ToUpper(subject), strings.ToUpper(body))
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestRuleAnalyzer_BreachScenario(t *testing.T) {
	a := NewRuleAnalyzer("")
	got, err := a.Analyze(t.Context(), model.IncomingEmail{
		Sender:  "soc@example.com",
		Subject: "URGENT: Data breach incident report needed immediately",
		Body:    "We detected a critical incident overnight. Immediate escalation required.",
	})

	assert.NoError(t, err)
	assert.Equal(t, model.CategoryEscalation, got.Category)
	assert.Equal(t, model.Urgency(5), got.Urgency)
	assert.True(t, got.RequiresHuman)
	assert.Equal(t, model.ActionReplyNow, got.SuggestedAction)
	if assert.NotNil(t, got.DraftReply) {
		assert.Contains(t, *got.DraftReply, "treating this as a priority")
	}
}

func TestRuleAnalyzer_BreachScenarioFromVendor(t *testing.T) {
	a := NewRuleAnalyzer("")
	got, err := a.Analyze(t.Context(), model.IncomingEmail{
		Sender:  "soc@example.com",
		Subject: "URGENT: Data breach incident report needed immediately",
		Body:    "Our vendor reported a critical incident. Immediate escalation required.",
	})

	assert.NoError(t, err)
	assert.Equal(t, model.CategoryVendorSecurity, got.Category)
	assert.Equal(t, model.Urgency(5), got.Urgency)
	assert.True(t, got.RequiresHuman)
	assert.Equal(t, model.ActionReplyNow, got.SuggestedAction)
}

func TestRuleAnalyzer_NewsletterScenario(t *testing.T) {
	a := NewRuleAnalyzer("")
	got, err := a.Analyze(t.Context(), model.IncomingEmail{
		Sender:  "news@security-weekly.example",
		Subject: "Your weekly cybersecurity digest is here",
		Body:    "Top stories this week. Unsubscribe at any time.",
	})

	assert.NoError(t, err)
	assert.Equal(t, model.CategoryNewsletter, got.Category)
	assert.Equal(t, model.Urgency(1), got.Urgency)
	assert.Equal(t, model.ActionArchive, got.SuggestedAction)
	assert.False(t, got.RequiresHuman)
	assert.Nil(t, got.DraftReply)
}

func TestRuleAnalyzer_TicketKeysFollowVocabulary(t *testing.T) {
	a := NewRuleAnalyzer("")
	got, err := a.Analyze(t.Context(), model.IncomingEmail{
		Sender:  "soc@example.com",
		Subject: "Re: INC-4521 GDPR impact",
		Body:    "Tracking under INC-4521 and TPRM-88.",
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{"TPRM", "GDPR", "INC-4521", "TPRM-88"}, got.KeyEntities)
}
