package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// IncomingEmail is the normalized input every ingestion adapter produces.
type IncomingEmail struct {
	Sender     string `json:"sender"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	ReceivedAt string `json:"received_at"`
	ThreadID   string `json:"thread_id,omitempty"`
	MessageID  string `json:"message_id,omitempty"`
}

// Analysis is the structured result returned by an analyzer, either the
// rule-based classifier or an external model. Every field is optional;
// missing values are filled in by the normalizer.
type Analysis struct {
	Category        Category `json:"category"`
	Urgency         Urgency  `json:"urgency"`
	Summary         string   `json:"summary"`
	SuggestedAction Action   `json:"suggested_action"`
	DelegateTo      *string  `json:"delegate_to"`
	DraftReply      *string  `json:"draft_reply"`
	FollowUpDate    *string  `json:"follow_up_date"`
	KeyEntities     []string `json:"key_entities"`
	RequiresHuman   bool     `json:"requires_human"`
	Reasoning       string   `json:"reasoning"`
}

// analysisWire accepts the legacy "requires_gabriela" key alongside
// "requires_human". The flag and key_entities are kept raw because models
// drift on their types.
type analysisWire struct {
	Category         Category        `json:"category"`
	Urgency          Urgency         `json:"urgency"`
	Summary          string          `json:"summary"`
	SuggestedAction  Action          `json:"suggested_action"`
	DelegateTo       *string         `json:"delegate_to"`
	DraftReply       *string         `json:"draft_reply"`
	FollowUpDate     *string         `json:"follow_up_date"`
	KeyEntities      json.RawMessage `json:"key_entities"`
	RequiresHuman    json.RawMessage `json:"requires_human"`
	RequiresGabriela json.RawMessage `json:"requires_gabriela"`
	Reasoning        string          `json:"reasoning"`
}

// UnmarshalJSON decodes an analysis, honoring both spellings of the
// requires-human flag.
func (a *Analysis) UnmarshalJSON(data []byte) error {
	var w analysisWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*a = Analysis{
		Category:        w.Category,
		Urgency:         w.Urgency,
		Summary:         w.Summary,
		SuggestedAction: w.SuggestedAction,
		DelegateTo:      w.DelegateTo,
		DraftReply:      w.DraftReply,
		FollowUpDate:    w.FollowUpDate,
		KeyEntities:     decodeEntities(w.KeyEntities),
		Reasoning:       w.Reasoning,
	}
	if v, ok := decodeFlag(w.RequiresHuman); ok {
		a.RequiresHuman = v
	} else if v, ok := decodeFlag(w.RequiresGabriela); ok {
		a.RequiresHuman = v
	}
	return nil
}

// decodeEntities accepts a list of strings, a list with non-string
// items (kept as their JSON text) or a single comma-separated string.
// Anything else yields nil.
func decodeEntities(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		out := make([]string, 0, len(items))
		for _, item := range items {
			var s string
			if json.Unmarshal(item, &s) != nil {
				s = string(item)
				if s == "null" {
					continue
				}
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		var out []string
		for _, part := range strings.Split(single, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}

// decodeFlag reads a boolean written as true/false, a number, or a word
// such as "yes" or "NO". ok is false when the value is absent, null or
// unreadable.
func decodeFlag(raw json.RawMessage) (value, ok bool) {
	s := strings.ToLower(strings.Trim(strings.TrimSpace(string(raw)), `"`))
	switch s {
	case "true", "yes", "y", "1":
		return true, true
	case "false", "no", "n", "0":
		return false, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f != 0, true
	}
	return false, false
}

// Urgency is an urgency level that decodes from either a JSON number or a
// numeric string. Zero means the value was absent or unreadable.
type Urgency int

// UnmarshalJSON accepts 4, 4.0, "4" and null. Anything else decodes to zero
// instead of failing the whole analysis.
func (u *Urgency) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*u = 0
		return nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		*u = Urgency(n)
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*u = Urgency(int(f))
		return nil
	}
	*u = 0
	return nil
}
