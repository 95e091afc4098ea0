package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/mail-triage/internal/ai"
	"github.com/nhle/mail-triage/internal/credential"
	"github.com/nhle/mail-triage/internal/ingest"
	"github.com/nhle/mail-triage/internal/metrics"
	"github.com/nhle/mail-triage/internal/store"
	appsync "github.com/nhle/mail-triage/internal/sync"
	"github.com/nhle/mail-triage/internal/source/email"
	"github.com/nhle/mail-triage/internal/triage"
)

// errNoMailbox is returned by commands that need IMAP settings.
var errNoMailbox = errors.New("no mailbox configured: set imap.host and imap.username")

// deps is the wired pipeline shared by the long-running commands.
type deps struct {
	store    *store.SQLiteStore
	metrics  *metrics.Metrics
	analyzer triage.Analyzer
	service  *ingest.Service
}

func (d *deps) Close() error {
	return d.store.Close()
}

// openStore opens the configured database, creating its directory.
func (e *env) openStore() (*store.SQLiteStore, error) {
	path := e.cfg.Store.Path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	return store.NewSQLiteStore(path)
}

// openDeps wires store, metrics, analyzer and pipeline.
func (e *env) openDeps() (*deps, error) {
	s, err := e.openStore()
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	analyzer := e.buildAnalyzer(m)
	e.logger.Debug("pipeline ready",
		zap.String("analyzer", analyzer.Name()),
		zap.String("store", e.cfg.Store.Path),
	)

	return &deps{
		store:    s,
		metrics:  m,
		analyzer: analyzer,
		service:  ingest.NewService(analyzer, s, m, e.logger),
	}, nil
}

// buildAnalyzer returns the external model analyzer guarded by the rule
// fallback, or the rules alone when the model is disabled or no API key
// is available.
func (e *env) buildAnalyzer(m *metrics.Metrics) triage.Analyzer {
	rules := triage.NewRuleAnalyzer(e.cfg.Triage.Signature)
	if !e.cfg.AI.Enabled {
		return rules
	}

	apiKey, err := credential.Get(credential.KeyAnthropicAPIKey)
	if err != nil || apiKey == "" {
		e.logger.Info("no Anthropic API key, using keyword rules only", zap.Error(err))
		return rules
	}

	client := ai.New(apiKey, ai.Options{
		Model:     e.cfg.AI.Model,
		MaxTokens: e.cfg.AI.MaxTokens,
		BaseURL:   e.cfg.AI.BaseURL,
		Signature: e.cfg.Triage.Signature,
	})

	f := triage.NewFallbackAnalyzer(client, rules, e.cfg.AI.Timeout(), e.logger)
	f.OnFallback = func(error) { m.AnalyzerFallback.Inc() }
	return f
}

// newPoller builds the IMAP poller, or returns errNoMailbox.
func (e *env) newPoller(d *deps) (*appsync.Poller, error) {
	c := e.cfg.IMAP
	if !c.Configured() {
		return nil, errNoMailbox
	}

	password, err := credential.Get(credential.KeyIMAPPassword)
	if err != nil {
		return nil, fmt.Errorf(
			"IMAP password: %w (run 'triage credential set %s')",
			err, credential.KeyIMAPPassword,
		)
	}

	port := c.Port
	if _, err := strconv.Atoi(port); err != nil {
		return nil, fmt.Errorf("invalid imap.port %q", port)
	}

	fetcher := email.NewIMAPClient(c.Host, port, c.Username, password, c.TLS)
	return appsync.New(fetcher, d.service, appsync.Options{
		Interval:     time.Duration(c.PollIntervalSec) * time.Second,
		LookbackDays: c.LookbackDays,
		Limit:        c.Limit,
	}, d.metrics, e.logger), nil
}
