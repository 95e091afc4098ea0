package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/mail-triage/internal/model"
)

// PastedEmail is one block of agent output: the email as the agent saw
// it plus the agent's own analysis.
type PastedEmail struct {
	Email    model.IncomingEmail
	Analysis model.Analysis
}

var (
	blockPattern    = regexp.MustCompile(`(?s)EMAIL_START(.*?)EMAIL_END`)
	fieldPattern    = regexp.MustCompile(`^([A-Z_]+):\s*(.*)$`)
	urlParenPattern = regexp.MustCompile(`\(https?://\S+\)`)
	mdLinkPattern   = regexp.MustCompile(`\[([^\]]+)\]`)
)

// Placeholder values for blocks that omit them.
const (
	pastedNoSubject = "No Subject"
	pastedNoSender  = "Unknown"
	pastedThreadFmt = "ARIA-%s-%d"
)

// ParsePasted extracts every EMAIL_START ... EMAIL_END block from raw.
// Each block holds "FIELD: value" lines; a value runs until the next
// field line, so multi-line draft replies survive. A value of NONE means
// the field is absent.
func ParsePasted(raw string, now time.Time) []PastedEmail {
	matches := blockPattern.FindAllStringSubmatch(raw, -1)
	out := make([]PastedEmail, 0, len(matches))

	for i, m := range matches {
		block := strings.TrimSpace(m[1])
		fields := parseFields(block)

		subject := cleanLinks(fields.get("SUBJECT"))
		if subject == "" {
			subject = pastedNoSubject
		}
		sender := cleanLinks(fields.get("FROM"))
		if sender == "" {
			sender = pastedNoSender
		}

		email := model.IncomingEmail{
			Sender:     sender,
			Subject:    subject,
			Body:       block,
			ReceivedAt: now.Format(time.RFC3339),
			ThreadID:   fmt.Sprintf(pastedThreadFmt, now.Format("20060102150405"), i),
		}

		analysis := model.Analysis{
			Category:        model.Category(strings.ToUpper(fields.get("CATEGORY"))),
			Urgency:         model.Urgency(parseUrgency(fields.get("URGENCY"))),
			Summary:         fields.get("SUMMARY"),
			SuggestedAction: model.Action(strings.ToUpper(fields.get("ACTION"))),
			DelegateTo:      fields.optional("DELEGATE_TO"),
			DraftReply:      fields.optional("DRAFT_REPLY"),
			FollowUpDate:    fields.optional("FOLLOW_UP_DATE"),
			KeyEntities:     []string{},
			RequiresHuman:   yes(fields.get("REQUIRES_HUMAN")) || yes(fields.get("REQUIRES_GABRIELA")),
			Reasoning:       "pasted agent output",
		}

		out = append(out, PastedEmail{Email: email, Analysis: analysis})
	}
	return out
}

// pastedFields holds the first value seen for each field name.
type pastedFields map[string]string

func parseFields(block string) pastedFields {
	fields := pastedFields{}
	var current string
	var value []string

	flush := func() {
		if current == "" {
			return
		}
		if _, seen := fields[current]; !seen {
			fields[current] = strings.TrimSpace(strings.Join(value, "\n"))
		}
	}

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		if m := fieldPattern.FindStringSubmatch(line); m != nil {
			flush()
			current = m[1]
			value = []string{m[2]}
			continue
		}
		if current != "" {
			value = append(value, line)
		}
	}
	flush()

	return fields
}

// get returns a field value with NONE mapped to "".
func (f pastedFields) get(name string) string {
	v := f[name]
	if strings.EqualFold(v, "NONE") {
		return ""
	}
	return v
}

func (f pastedFields) optional(name string) *string {
	v := f.get(name)
	if v == "" {
		return nil
	}
	return &v
}

// cleanLinks drops "(http...)" targets and unwraps "[text]" so markdown
// links reduce to their text.
func cleanLinks(s string) string {
	s = urlParenPattern.ReplaceAllString(s, "")
	s = mdLinkPattern.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// parseUrgency returns 0 (the normalizer's "missing") for anything that
// is not an integer.
func parseUrgency(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func yes(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "YES", "TRUE", "Y":
		return true
	}
	return false
}
