package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/mail-triage/internal/ingest"
	"github.com/nhle/mail-triage/internal/metrics"
	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/source"
)

// SyncState represents the current state of the poller.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the poller's state after its latest cycle.
type SyncStatus struct {
	SourceType source.SourceType
	State      SyncState
	LastSync   time.Time
	Error      error
}

// SyncResultMsg is a tea.Msg sent when a poll cycle completes.
type SyncResultMsg struct {
	Source     source.SourceType
	Fetched    int
	Saved      int
	Duplicates int
	Failed     int
	Error      error
	AuthError  *AuthErrorMsg
}

// AuthErrorMsg is a tea.Msg sent when the mailbox rejects the credentials.
type AuthErrorMsg struct {
	SourceType source.SourceType
	Message    string
}

// Pipeline is the part of ingest.Service the poller drives.
type Pipeline interface {
	ProcessBatch(ctx context.Context, emails []model.IncomingEmail) (ingest.BatchResult, error)
}

// Options tunes a Poller. Zero values select defaults.
type Options struct {
	Interval     time.Duration
	LookbackDays int
	Limit        int

	// CycleTimeout bounds one fetch-and-process cycle.
	CycleTimeout time.Duration
}

const (
	defaultInterval     = 5 * time.Minute
	defaultLookbackDays = 7
	defaultLimit        = 50
	defaultCycleTimeout = 5 * time.Minute
)

// Poller periodically fetches recent mail and feeds it to the pipeline.
type Poller struct {
	fetcher  source.Fetcher
	pipeline Pipeline
	opts     Options
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	status    SyncStatus
	resultCh  chan SyncResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a Poller. m and logger may be nil.
func New(
	fetcher source.Fetcher,
	pipeline Pipeline,
	opts Options,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = defaultLookbackDays
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if opts.CycleTimeout <= 0 {
		opts.CycleTimeout = defaultCycleTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Poller{
		fetcher:   fetcher,
		pipeline:  pipeline,
		opts:      opts,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
		status:    SyncStatus{SourceType: fetcher.Type(), State: SyncIdle},
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the polling goroutine and returns a tea.Cmd that
// delivers the next SyncResultMsg to the Bubble Tea runtime.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop(func(msg SyncResultMsg) { p.sendResult(msg) })

	return p.waitForResult()
}

// Run polls in the foreground until ctx is done, handing every result to
// onResult. It is the headless counterpart of Start.
func (p *Poller) Run(ctx context.Context, onResult func(SyncResultMsg)) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.Stop()
	}()
	p.loop(onResult)
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate poll.
func (p *Poller) Refresh() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A poll is already queued.
	}
	return nil
}

// Status returns the state after the latest cycle.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) loop(onResult func(SyncResultMsg)) {
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	onResult(p.RunOnce(context.Background()))

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			onResult(p.RunOnce(context.Background()))
		case <-p.triggerCh:
			onResult(p.RunOnce(context.Background()))
		}
	}
}

// RunOnce performs a single fetch-and-process cycle.
func (p *Poller) RunOnce(ctx context.Context) SyncResultMsg {
	st := p.fetcher.Type()
	p.setStatus(SyncRunning, nil)

	ctx, cancel := context.WithTimeout(ctx, p.opts.CycleTimeout)
	defer cancel()

	since := p.now().AddDate(0, 0, -p.opts.LookbackDays)
	emails, err := p.fetcher.FetchRecent(ctx, since, p.opts.Limit)
	if err != nil {
		p.setStatus(SyncError, err)
		p.recordRun("fetch_error")
		p.logger.Warn("fetching mail failed", zap.String("source", string(st)), zap.Error(err))

		msg := SyncResultMsg{Source: st, Error: err}
		if source.IsAuthError(err) {
			msg.AuthError = &AuthErrorMsg{
				SourceType: st,
				Message: fmt.Sprintf(
					"%s: authentication failed. Run 'triage credential set %s' to update the password.",
					st, "imap_password",
				),
			}
		}
		return msg
	}

	res, err := p.pipeline.ProcessBatch(ctx, emails)
	msg := SyncResultMsg{
		Source:     st,
		Fetched:    len(emails),
		Saved:      res.Saved,
		Duplicates: res.Duplicates,
		Failed:     res.Failed,
		Error:      err,
	}
	if err != nil {
		p.setStatus(SyncError, err)
		p.recordRun("process_error")
		p.logger.Error("processing fetched mail failed", zap.Error(err))
		return msg
	}

	p.setStatus(SyncIdle, nil)
	p.recordRun("ok")
	p.logger.Info("poll finished",
		zap.String("source", string(st)),
		zap.Int("fetched", msg.Fetched),
		zap.Int("saved", msg.Saved),
		zap.Int("duplicates", msg.Duplicates),
		zap.Int("failed", msg.Failed),
	)
	return msg
}

func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle && err == nil {
		p.status.LastSync = p.now()
	}
}

func (p *Poller) recordRun(result string) {
	if p.metrics != nil {
		p.metrics.PollRuns.WithLabelValues(result).Inc()
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// This should be called after processing a SyncResultMsg to continue
// listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
