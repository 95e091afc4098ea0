package ai

import (
	"fmt"
	"strings"

	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/triage"
)

// systemPrompt describes the mailbox owner and the JSON contract. Draft
// replies are signed with signature.
func systemPrompt(signature string) string {
	if signature == "" {
		signature = triage.DefaultSignature
	}

	var sb strings.Builder

	sb.WriteString("You are an expert email analyst triaging the inbox of a ")
	sb.WriteString("third-party risk management (TPRM) Security Annex lead.\n\n")

	sb.WriteString("The mailbox owner:\n")
	sb.WriteString("- manages vendor security assessments and Security Annex reviews globally\n")
	sb.WriteString("- leads a team spread across several regions\n")
	sb.WriteString("- handles third-party risk escalations and contract negotiations\n")
	sb.WriteString("- receives 80+ emails daily and writes in a professional, direct, warm, concise tone\n\n")

	sb.WriteString("Understand context, intent and urgency rather than matching keywords. ")
	sb.WriteString("A polite email can still be a 5 if it reports a breach; ")
	sb.WriteString("URGENT in a sales subject can be a 2.\n\n")

	sb.WriteString("Respond ONLY with raw valid JSON, no markdown and no preamble:\n\n")
	sb.WriteString("{\n")
	fmt.Fprintf(&sb, "\"category\": \"%s\",\n", joinCategories())
	sb.WriteString("\"urgency\": 1-5,\n")
	sb.WriteString("\"summary\": \"at most 2 sentences on what this is and why it matters\",\n")
	fmt.Fprintf(&sb, "\"suggested_action\": \"%s\",\n", joinActions())
	sb.WriteString("\"delegate_to\": \"name or role, or null\",\n")
	sb.WriteString("\"draft_reply\": \"complete reply in the owner's voice ending with the signature below, or null\",\n")
	sb.WriteString("\"follow_up_date\": \"YYYY-MM-DD or null\",\n")
	sb.WriteString("\"key_entities\": [\"vendor names\", \"people\", \"systems\", \"topics\"],\n")
	sb.WriteString("\"requires_human\": true or false,\n")
	sb.WriteString("\"reasoning\": \"1 sentence on why this urgency and action\"\n")
	sb.WriteString("}\n\n")

	sb.WriteString("Urgency:\n")
	sb.WriteString("5 = breach, incident, critical, immediate legal/compliance risk\n")
	sb.WriteString("4 = overdue, deadline today, escalation, non-compliance\n")
	sb.WriteString("3 = needs review or input, vendor follow-up, team decision\n")
	sb.WriteString("2 = FYI, informational, low priority\n")
	sb.WriteString("1 = newsletters, auto-notifications, digests\n\n")

	sb.WriteString("Signature for draft replies:\n")
	sb.WriteString(signature)

	return sb.String()
}

// userPrompt renders one email for analysis.
func userPrompt(email model.IncomingEmail) string {
	return fmt.Sprintf(
		"Analyze this email:\n\nFROM: %s\nSUBJECT: %s\nRECEIVED: %s\nBODY:\n%s\n\nReturn only the JSON analysis.",
		email.Sender, email.Subject, email.ReceivedAt, email.Body,
	)
}

func joinCategories() string {
	names := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, "|")
}

func joinActions() string {
	names := make([]string, len(model.Actions))
	for i, a := range model.Actions {
		names[i] = string(a)
	}
	return strings.Join(names, "|")
}
