// Package crossref finds ticket and case references in email text.
package crossref

import "regexp"

// ticketKeyPattern matches tracker keys such as TPRM-123 or INC-4521.
var ticketKeyPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9]+-\d+)\b`)

// ExtractTicketKeys returns every ticket key in text, deduplicated in
// order of first occurrence.
func ExtractTicketKeys(text string) []string {
	matches := ticketKeyPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var result []string
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		result = append(result, m)
	}
	return result
}

// FromEmail extracts ticket keys from a subject and body. If known is
// non-empty, only keys in that set are returned.
func FromEmail(subject, body string, known map[string]bool) []string {
	keys := ExtractTicketKeys(subject + " " + body)

	if len(known) == 0 {
		return keys
	}

	var filtered []string
	for _, key := range keys {
		if known[key] {
			filtered = append(filtered, key)
		}
	}
	return filtered
}
