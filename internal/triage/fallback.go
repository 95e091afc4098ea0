package triage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/mail-triage/internal/model"
)

// defaultFallbackTimeout bounds the primary analyzer when no timeout is set.
const defaultFallbackTimeout = 30 * time.Second

// FallbackAnalyzer runs a primary analyzer under a timeout and switches to
// a fallback analyzer when the primary fails to answer. A malformed
// primary response is returned as an error rather than masked.
type FallbackAnalyzer struct {
	primary  Analyzer
	fallback Analyzer
	timeout  time.Duration
	logger   *zap.Logger

	// OnFallback, when set, is called every time the fallback is used.
	OnFallback func(err error)
}

// NewFallbackAnalyzer wraps primary so that transport failures and
// timeouts are answered by fallback.
func NewFallbackAnalyzer(
	primary, fallback Analyzer,
	timeout time.Duration,
	logger *zap.Logger,
) *FallbackAnalyzer {
	if timeout <= 0 {
		timeout = defaultFallbackTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackAnalyzer{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger,
	}
}

// Name reports the primary strategy.
func (f *FallbackAnalyzer) Name() string {
	return f.primary.Name()
}

// Analyze tries the primary analyzer first.
func (f *FallbackAnalyzer) Analyze(
	ctx context.Context,
	email model.IncomingEmail,
) (*model.Analysis, error) {
	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	analysis, err := f.primary.Analyze(callCtx, email)
	if err == nil {
		return analysis, nil
	}
	if errors.Is(err, ErrMalformedResponse) {
		return nil, err
	}
	// The caller gave up; do not answer on its behalf.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f.logger.Warn("primary analyzer failed, using fallback",
		zap.String("primary", f.primary.Name()),
		zap.String("fallback", f.fallback.Name()),
		zap.String("subject", email.Subject),
		zap.Error(err),
	)
	if f.OnFallback != nil {
		f.OnFallback(err)
	}

	return f.fallback.Analyze(ctx, email)
}
