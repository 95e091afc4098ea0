package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	appsync "github.com/nhle/mail-triage/internal/sync"
)

func newPollCmd(e *env) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Fetch recent mail over IMAP and triage it",
		Long: `Fetch messages received within imap.lookback_days, triage each one
and store the results. Without --once, polls every
imap.poll_interval_sec seconds until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := e.openDeps()
			if err != nil {
				return err
			}
			defer d.Close()

			p, err := e.newPoller(d)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if once {
				res := p.RunOnce(cmd.Context())
				printPollResult(w, res)
				return res.Error
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p.Run(ctx, func(res appsync.SyncResultMsg) { printPollResult(w, res) })
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "poll a single time and exit")
	return cmd
}

func printPollResult(w io.Writer, res appsync.SyncResultMsg) {
	switch {
	case res.AuthError != nil:
		fmt.Fprintln(w, res.AuthError.Message)
	case res.Error != nil:
		fmt.Fprintf(w, "poll failed: %v\n", res.Error)
	default:
		fmt.Fprintf(w, "fetched %d: saved %d, duplicates %d, failed %d\n",
			res.Fetched, res.Saved, res.Duplicates, res.Failed)
	}
}
