package triage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail-triage/internal/model"
)

type stubAnalyzer struct {
	name     string
	analysis *model.Analysis
	err      error
	block    bool
	calls    int
}

func (s *stubAnalyzer) Name() string { return s.name }

func (s *stubAnalyzer) Analyze(ctx context.Context, _ model.IncomingEmail) (*model.Analysis, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.analysis, s.err
}

func TestFallbackAnalyzer_PrimarySucceeds(t *testing.T) {
	primary := &stubAnalyzer{name: "model", analysis: &model.Analysis{Category: model.CategoryLegal}}
	fallback := &stubAnalyzer{name: "rules"}

	f := NewFallbackAnalyzer(primary, fallback, time.Second, nil)
	got, err := f.Analyze(t.Context(), model.IncomingEmail{})

	require.NoError(t, err)
	assert.Equal(t, model.CategoryLegal, got.Category)
	assert.Equal(t, 0, fallback.calls)
	assert.Equal(t, "model", f.Name())
}

func TestFallbackAnalyzer_TransportErrorFallsBack(t *testing.T) {
	primary := &stubAnalyzer{name: "model", err: errors.New("connection refused")}
	var seen error
	f := NewFallbackAnalyzer(primary, NewRuleAnalyzer(""), time.Second, nil)
	f.OnFallback = func(err error) { seen = err }

	got, err := f.Analyze(t.Context(), model.IncomingEmail{Subject: "Invoice 12"})

	require.NoError(t, err)
	assert.Equal(t, model.CategoryProcurement, got.Category)
	assert.EqualError(t, seen, "connection refused")
}

func TestFallbackAnalyzer_TimeoutFallsBack(t *testing.T) {
	primary := &stubAnalyzer{name: "model", block: true}
	f := NewFallbackAnalyzer(primary, NewRuleAnalyzer(""), 10*time.Millisecond, nil)

	got, err := f.Analyze(t.Context(), model.IncomingEmail{Subject: "Team offsite"})

	require.NoError(t, err)
	assert.Equal(t, model.CategoryTeamManagement, got.Category)
}

func TestFallbackAnalyzer_MalformedIsNotMasked(t *testing.T) {
	primary := &stubAnalyzer{
		name: "model",
		err:  fmt.Errorf("decoding: %w", ErrMalformedResponse),
	}
	fallback := &stubAnalyzer{name: "rules"}
	f := NewFallbackAnalyzer(primary, fallback, time.Second, nil)

	_, err := f.Analyze(t.Context(), model.IncomingEmail{})

	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, 0, fallback.calls)
}

func TestFallbackAnalyzer_CallerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	primary := &stubAnalyzer{name: "model", block: true}
	fallback := &stubAnalyzer{name: "rules"}
	f := NewFallbackAnalyzer(primary, fallback, time.Second, nil)

	_, err := f.Analyze(ctx, model.IncomingEmail{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, fallback.calls)
}
