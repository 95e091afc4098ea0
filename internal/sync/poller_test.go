package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail-triage/internal/ingest"
	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/source"
	"github.com/nhle/mail-triage/internal/triage"
	"github.com/nhle/mail-triage/tests/testutil"
)

type fakeFetcher struct {
	emails []model.IncomingEmail
	err    error
	since  time.Time
	limit  int
}

func (f *fakeFetcher) Type() source.SourceType { return source.SourceTypeIMAP }

func (f *fakeFetcher) ValidateConnection(context.Context) (string, error) { return "ok", nil }

func (f *fakeFetcher) FetchRecent(_ context.Context, since time.Time, limit int) ([]model.IncomingEmail, error) {
	f.since = since
	f.limit = limit
	return f.emails, f.err
}

func newPipeline(t *testing.T) *ingest.Service {
	return ingest.NewService(triage.NewRuleAnalyzer(""), testutil.NewTestStore(t), nil, nil)
}

func TestRunOnce_ProcessesFetchedMail(t *testing.T) {
	fetcher := &fakeFetcher{emails: []model.IncomingEmail{
		{Sender: "a@example.com", Subject: "Invoice 7"},
		{Sender: "b@example.com", Subject: "Team offsite"},
		{Sender: "a@example.com", Subject: "Invoice 7"},
	}}
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	p := New(fetcher, newPipeline(t), Options{LookbackDays: 3, Limit: 20}, nil, nil)
	p.now = func() time.Time { return now }

	msg := p.RunOnce(t.Context())

	require.NoError(t, msg.Error)
	assert.Equal(t, 3, msg.Fetched)
	assert.Equal(t, 2, msg.Saved)
	assert.Equal(t, 1, msg.Duplicates)
	assert.Equal(t, now.AddDate(0, 0, -3), fetcher.since)
	assert.Equal(t, 20, fetcher.limit)
	assert.Equal(t, SyncIdle, p.Status().State)
	assert.Equal(t, now, p.Status().LastSync)
}

func TestRunOnce_AuthError(t *testing.T) {
	fetcher := &fakeFetcher{err: &source.AuthError{SourceType: source.SourceTypeIMAP, Message: "bad password"}}
	p := New(fetcher, newPipeline(t), Options{}, nil, nil)

	msg := p.RunOnce(t.Context())

	require.Error(t, msg.Error)
	require.NotNil(t, msg.AuthError)
	assert.Contains(t, msg.AuthError.Message, "credential set")
	assert.Equal(t, SyncError, p.Status().State)
}

func TestRunOnce_FetchError(t *testing.T) {
	p := New(&fakeFetcher{err: errors.New("timeout")}, newPipeline(t), Options{}, nil, nil)

	msg := p.RunOnce(t.Context())

	assert.EqualError(t, msg.Error, "timeout")
	assert.Nil(t, msg.AuthError)
}

func TestStart_DeliversFirstResult(t *testing.T) {
	fetcher := &fakeFetcher{emails: []model.IncomingEmail{{Sender: "a@example.com", Subject: "FYI"}}}
	p := New(fetcher, newPipeline(t), Options{Interval: time.Hour}, nil, nil)
	defer p.Stop()

	cmd := p.Start()
	require.NotNil(t, cmd)
	assert.Nil(t, p.Start())

	msg, ok := cmd().(SyncResultMsg)
	require.True(t, ok)
	assert.Equal(t, 1, msg.Saved)
}

func TestRun_StopsWithContext(t *testing.T) {
	p := New(&fakeFetcher{}, newPipeline(t), Options{Interval: time.Hour}, nil, nil)
	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan struct{})
	results := 0
	go func() {
		p.Run(ctx, func(SyncResultMsg) { results++ })
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
	assert.Equal(t, 1, results)
}
