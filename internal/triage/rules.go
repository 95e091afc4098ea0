package triage

import "github.com/nhle/mail-triage/internal/model"

// categoryRule maps a category to the keywords that select it.
type categoryRule struct {
	category model.Category
	keywords []string
}

// urgencyRule maps an urgency level to the keywords that select it.
type urgencyRule struct {
	level    int
	keywords []string
}

// categoryRules is evaluated top to bottom and the first match wins, so
// the order below is the tie-break between overlapping categories.
// VENDOR_SECURITY must stay ahead of ESCALATION.
var categoryRules = []categoryRule{
	{model.CategoryVendorSecurity, []string{
		"security annex", "vendor", "supplier", "tprm", "third party",
		"risk assessment", "security review", "questionnaire", "saq",
		"penetration test", "pentest", "iso 27001", "soc2", "soc 2",
	}},
	{model.CategoryEscalation, []string{
		"escalat", "urgent", "critical", "breach", "incident",
		"violation", "non-complian", "overdue", "immediate",
	}},
	{model.CategoryMeetingRequest, []string{
		"meeting", "call", "invite", "calendar", "schedule",
		"catch up", "sync", "teams call", "zoom",
	}},
	{model.CategoryLegal, []string{
		"contract", "legal", "clause", "gdpr", "privacy",
		"data protection", "dpa", "agreement", "terms",
	}},
	{model.CategoryProcurement, []string{
		"purchase", "procurement", "po ", "invoice", "budget",
		"cost", "payment", "sourcing",
	}},
	{model.CategoryTeamManagement, []string{
		"team", "my report", "direct report", "performance",
		"leave", "vacation", "pto", "absence",
	}},
	{model.CategoryNewsletter, []string{
		"unsubscribe", "newsletter", "digest", "weekly update",
		"monthly report", "bulletin", "no-reply", "noreply",
	}},
	{model.CategoryFollowUpNeeded, []string{
		"follow up", "following up", "reminder", "pending",
		"still waiting", "no response", "chasing",
	}},
	{model.CategorySpam, []string{
		"congratulations you won", "click here", "limited offer",
		"free gift", "act now", "verify your account",
	}},
}

// urgencyRules is ordered from most to least urgent.
var urgencyRules = []urgencyRule{
	{5, []string{
		"breach", "incident", "critical", "immediate action",
		"escalat", "urgent", "asap", "today",
	}},
	{4, []string{
		"overdue", "deadline", "by end of day", "eod",
		"non-complian", "violation", "pending approval",
	}},
	{3, []string{
		"follow up", "reminder", "please review",
		"your input", "feedback needed",
	}},
	{2, []string{
		"fyi", "for your information", "update",
	}},
	{1, []string{
		"unsubscribe", "no-reply", "automatic", "noreply",
		"newsletter", "digest",
	}},
}

// entityVocabulary is reported in this order, not in order of appearance.
var entityVocabulary = []string{
	"Nestlé", "TPRM", "Security Annex", "GDPR",
	"ISO 27001", "SOC2", "ALSEA", "PayPal",
}
