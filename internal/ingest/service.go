package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/mail-triage/internal/metrics"
	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/store"
	"github.com/nhle/mail-triage/internal/triage"
)

// ErrInvalidEmail is returned for emails without a sender.
var ErrInvalidEmail = errors.New("email has no sender")

// OutcomeStatus distinguishes a newly stored email from a duplicate.
type OutcomeStatus string

const (
	StatusSuccess   OutcomeStatus = "success"
	StatusDuplicate OutcomeStatus = "duplicate"
)

// Outcome is the result of running one email through the pipeline.
type Outcome struct {
	Status   OutcomeStatus
	EmailID  int64
	Record   model.EmailRecord
	Analyzer string
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	Saved      int
	Duplicates int
	Failed     int
	Outcomes   []*Outcome
}

// Service runs emails through analysis, normalization and storage.
type Service struct {
	analyzer triage.Analyzer
	store    store.Store
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the pipeline. m and logger may be nil.
func NewService(
	analyzer triage.Analyzer,
	s store.Store,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		analyzer: analyzer,
		store:    s,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Process analyzes and stores one email. A duplicate is reported through
// the outcome, not as an error. Malformed analyzer output and store
// failures are returned unchanged for the caller to classify.
func (s *Service) Process(ctx context.Context, email model.IncomingEmail) (*Outcome, error) {
	if strings.TrimSpace(email.Sender) == "" {
		return nil, ErrInvalidEmail
	}

	start := time.Now()
	analysis, err := s.analyzer.Analyze(ctx, email)
	s.recordAnalysis(err, time.Since(start))
	if err != nil {
		s.recordOutcome("error", "")
		s.logger.Error("analysis failed",
			zap.String("analyzer", s.analyzer.Name()),
			zap.String("sender", email.Sender),
			zap.String("subject", email.Subject),
			zap.Error(err),
		)
		return nil, fmt.Errorf("analyzing email: %w", err)
	}

	out, err := s.Save(ctx, email, analysis)
	if out != nil {
		out.Analyzer = s.analyzer.Name()
	}
	return out, err
}

// Save normalizes an already analyzed email and stores it.
func (s *Service) Save(
	ctx context.Context,
	email model.IncomingEmail,
	analysis *model.Analysis,
) (*Outcome, error) {
	rec := triage.Normalize(email, analysis, s.now())

	id, err := s.store.SaveEmail(ctx, rec)
	if errors.Is(err, store.ErrDuplicate) {
		s.recordOutcome(string(StatusDuplicate), string(rec.Category))
		s.logger.Info("duplicate email skipped",
			zap.String("sender", rec.Sender),
			zap.String("subject", rec.Subject),
		)
		return &Outcome{Status: StatusDuplicate, Record: rec}, nil
	}
	if err != nil {
		s.recordOutcome("error", string(rec.Category))
		return nil, fmt.Errorf("saving email: %w", err)
	}

	rec.ID = id
	s.recordOutcome(string(StatusSuccess), string(rec.Category))
	s.logger.Info("email triaged",
		zap.Int64("email_id", id),
		zap.String("category", string(rec.Category)),
		zap.Int("urgency", rec.Urgency),
		zap.String("action", string(rec.SuggestedAction)),
		zap.Bool("requires_human", rec.RequiresHuman),
	)
	return &Outcome{Status: StatusSuccess, EmailID: id, Record: rec}, nil
}

// ProcessBatch runs Process over emails. Per-email failures are counted
// and logged; an unreachable store or a cancelled context stops the batch.
func (s *Service) ProcessBatch(ctx context.Context, emails []model.IncomingEmail) (BatchResult, error) {
	var res BatchResult
	for _, e := range emails {
		out, err := s.Process(ctx, e)
		if stop := res.add(out, err); stop != nil {
			return res, stop
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
	}
	return res, nil
}

// SaveBatch stores pre-analyzed pasted emails.
func (s *Service) SaveBatch(ctx context.Context, items []PastedEmail) (BatchResult, error) {
	var res BatchResult
	for _, it := range items {
		analysis := it.Analysis
		out, err := s.Save(ctx, it.Email, &analysis)
		if stop := res.add(out, err); stop != nil {
			return res, stop
		}
	}
	return res, nil
}

// add tallies one result and returns err when the batch must stop.
func (r *BatchResult) add(out *Outcome, err error) error {
	if err != nil {
		if errors.Is(err, store.ErrStoreUnavailable) ||
			errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		r.Failed++
		return nil
	}

	r.Outcomes = append(r.Outcomes, out)
	switch out.Status {
	case StatusDuplicate:
		r.Duplicates++
	default:
		r.Saved++
	}
	return nil
}

func (s *Service) recordAnalysis(err error, d time.Duration) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	switch {
	case errors.Is(err, triage.ErrMalformedResponse):
		status = "malformed"
	case err != nil:
		status = "error"
	}
	s.metrics.RecordAnalysis(s.analyzer.Name(), status, d)
}

func (s *Service) recordOutcome(outcome, category string) {
	if s.metrics != nil {
		s.metrics.RecordProcessed(outcome, category)
	}
}
