package triage

import (
	"context"
	"errors"

	"github.com/nhle/mail-triage/internal/crossref"
	"github.com/nhle/mail-triage/internal/model"
)

// ErrMalformedResponse indicates an analyzer's upstream returned text that
// could not be read as an analysis. It is never replaced by defaults so
// that contract drift in the upstream stays visible.
var ErrMalformedResponse = errors.New("malformed analysis response")

// Analyzer turns an incoming email into a structured analysis. The
// rule-based classifier and the external model both implement it.
type Analyzer interface {
	// Name identifies the strategy in logs and metrics.
	Name() string

	// Analyze classifies the email. Implementations may return partial
	// analyses; Normalize fills in whatever is missing.
	Analyze(ctx context.Context, email model.IncomingEmail) (*model.Analysis, error)
}

// RuleAnalyzer is the deterministic keyword-table analyzer. It never fails.
type RuleAnalyzer struct {
	signature string
}

// NewRuleAnalyzer creates a rule-based analyzer that signs draft replies
// with signature (DefaultSignature when empty).
func NewRuleAnalyzer(signature string) *RuleAnalyzer {
	if signature == "" {
		signature = DefaultSignature
	}
	return &RuleAnalyzer{signature: signature}
}

// Name returns "rules".
func (r *RuleAnalyzer) Name() string {
	return "rules"
}

// Analyze runs the classifier and decision policy over the email.
func (r *RuleAnalyzer) Analyze(
	_ context.Context,
	email model.IncomingEmail,
) (*model.Analysis, error) {
	category := ClassifyCategory(email.Subject, email.Body)
	urgency := ClassifyUrgency(email.Subject, email.Body)

	return &model.Analysis{
		Category:        category,
		Urgency:         model.Urgency(urgency),
		Summary:         GenerateSummary(email.Sender, email.Subject, email.Body),
		SuggestedAction: SuggestAction(category, urgency),
		DraftReply: DraftReplyWithSignature(
			category, email.Sender, email.Subject, urgency, r.signature,
		),
		KeyEntities:   keyEntities(email.Subject, email.Body),
		RequiresHuman: RequiresHuman(category, urgency),
		Reasoning:     "keyword rules",
	}, nil
}

// keyEntities is the vocabulary matches followed by ticket keys found in
// the email.
func keyEntities(subject, body string) []string {
	entities := ExtractEntities(subject, body)
	seen := make(map[string]bool, len(entities))
	for _, e := range entities {
		seen[e] = true
	}
	for _, key := range crossref.FromEmail(subject, body, nil) {
		if !seen[key] {
			entities = append(entities, key)
		}
	}
	return entities
}
