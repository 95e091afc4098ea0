package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/mail-triage/internal/httpapi"
	appsync "github.com/nhle/mail-triage/internal/sync"
)

func newServeCmd(e *env) *cobra.Command {
	var (
		addr string
		poll bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the triage API:

  GET  /             health check
  POST /analyze      triage one email
  POST /status       update an email's review status
  GET  /pending      review queue
  GET  /emails/:id   one email with follow-ups and history
  GET  /metrics      Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = e.cfg.Server.Addr
			}

			d, err := e.openDeps()
			if err != nil {
				return err
			}
			defer d.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if poll {
				p, err := e.newPoller(d)
				switch {
				case errors.Is(err, errNoMailbox):
					e.logger.Warn("--poll given but no mailbox is configured")
				case err != nil:
					return err
				default:
					go p.Run(ctx, func(appsync.SyncResultMsg) {})
				}
			}

			srv := httpapi.NewServer(d.service, d.store, d.metrics, e.logger)
			e.logger.Info("starting", zap.String("analyzer", d.analyzer.Name()))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().BoolVar(&poll, "poll", false, "also poll the configured IMAP mailbox")
	return cmd
}
