package triage

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/mail-triage/internal/model"
)

// DefaultSignature closes canned draft replies when no signature is
// configured.
const DefaultSignature = "Best regards,\nGabriela\nTPRM Security Annex Lead | Nestlé"

// summaryBodyLength is how much body text GenerateSummary quotes.
const summaryBodyLength = 150

// SuggestAction derives the next step from category and urgency. The
// urgency check runs first and overrides the category.
func SuggestAction(category model.Category, urgency int) model.Action {
	if urgency >= 4 {
		return model.ActionReplyNow
	}

	switch category {
	case model.CategoryNewsletter, model.CategorySpam:
		return model.ActionArchive
	case model.CategoryMeetingRequest:
		return model.ActionSchedule
	case model.CategoryFollowUpNeeded:
		return model.ActionFollowUp
	case model.CategoryTeamManagement:
		return model.ActionDelegate
	default:
		return model.ActionReplyNow
	}
}

// RequiresHuman reports whether the email needs the user's own attention:
// anything urgent, plus escalations, vendor security and legal matters at
// any urgency.
func RequiresHuman(category model.Category, urgency int) bool {
	if urgency >= 4 {
		return true
	}

	switch category {
	case model.CategoryEscalation, model.CategoryVendorSecurity, model.CategoryLegal:
		return true
	default:
		return false
	}
}

// GenerateDraftReply returns a canned reply signed with DefaultSignature,
// or nil for bulk mail.
func GenerateDraftReply(
	category model.Category,
	sender, subject string,
	urgency int,
) *string {
	return DraftReplyWithSignature(category, sender, subject, urgency, DefaultSignature)
}

// DraftReplyWithSignature is GenerateDraftReply with a caller-supplied
// signature block.
func DraftReplyWithSignature(
	category model.Category,
	sender, subject string,
	urgency int,
	signature string,
) *string {
	if signature == "" {
		signature = DefaultSignature
	}
	name := SenderDisplayName(sender)

	var body string
	switch {
	case category == model.CategoryMeetingRequest:
		body = "Thank you for reaching out. I'd be happy to connect. " +
			"Please feel free to send a calendar invite at your convenience, " +
			"or let me know your preferred time slots."

	case category == model.CategoryVendorSecurity:
		body = fmt.Sprintf(
			"Thank you for your message regarding %s. I will review the "+
				"details and get back to you with next steps within 2 business days.",
			subject,
		)

	case category == model.CategoryEscalation || urgency >= 4:
		body = "Thank you for flagging this. I am treating this as a priority " +
			"and will respond with a full update shortly."

	case category == model.CategoryNewsletter || category == model.CategorySpam:
		return nil

	default:
		body = "Thank you for your email. I will review and come back to you shortly."
	}

	reply := fmt.Sprintf("Hi %s,\n\n%s\n\n%s", name, body, signature)
	return &reply
}

// SenderDisplayName derives a greeting name from a sender. A display name
// in "Name <addr>" form is used as is; otherwise the local part of the
// address is split on separators and title-cased.
func SenderDisplayName(sender string) string {
	sender = strings.TrimSpace(sender)
	if addr, err := mail.ParseAddress(sender); err == nil {
		if addr.Name != "" {
			return addr.Name
		}
		sender = addr.Address
	}

	local, _, _ := strings.Cut(sender, "@")
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)
	return titleCase(strings.Join(strings.Fields(local), " "))
}

// titleCase upper-cases the first letter of every run of letters and
// lower-cases the rest.
func titleCase(s string) string {
	var sb strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				sb.WriteRune(unicode.ToLower(r))
			} else {
				sb.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		sb.WriteRune(r)
		prevLetter = false
	}
	return sb.String()
}

// ExtractEntities returns the vocabulary terms mentioned in the subject or
// body, in vocabulary order.
func ExtractEntities(subject, body string) []string {
	text := matchText(subject, body)
	entities := make([]string, 0, len(entityVocabulary))
	for _, term := range entityVocabulary {
		if strings.Contains(text, strings.ToLower(term)) {
			entities = append(entities, term)
		}
	}
	return entities
}

// GenerateSummary builds a one-line summary quoting the start of the body.
func GenerateSummary(sender, subject, body string) string {
	return fmt.Sprintf(
		"Email from %s regarding '%s'. %s...",
		sender, subject, truncateRunes(body, summaryBodyLength),
	)
}

// truncateRunes returns at most n characters of s without splitting a
// multi-byte character.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
