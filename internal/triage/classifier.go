package triage

import (
	"strings"

	"github.com/nhle/mail-triage/internal/model"
)

// matchText is the lowercased haystack every rule is matched against.
func matchText(subject, body string) string {
	return strings.ToLower(subject + " " + body)
}

// containsAny reports whether any keyword is a substring of text.
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// ClassifyCategory returns the first category, in table order, whose
// keywords occur anywhere in the subject or body. It falls back to ADMIN.
func ClassifyCategory(subject, body string) model.Category {
	text := matchText(subject, body)
	for _, rule := range categoryRules {
		if containsAny(text, rule.keywords) {
			return rule.category
		}
	}
	return model.CategoryAdmin
}

// ClassifyUrgency returns the highest urgency level whose keywords occur
// in the subject or body, or model.UrgencyDefault when none do.
func ClassifyUrgency(subject, body string) int {
	text := matchText(subject, body)
	for _, rule := range urgencyRules {
		if containsAny(text, rule.keywords) {
			return rule.level
		}
	}
	return model.UrgencyDefault
}
