package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/mail-triage/internal/app"
	appsync "github.com/nhle/mail-triage/internal/sync"
)

func newReviewCmd(e *env) *cobra.Command {
	var noPoll bool

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Open the interactive review queue",
		Long: `Open the review queue in the terminal. Emails are ordered by urgency,
then by receive time. When a mailbox is configured it is polled in the
background and r triggers a poll immediately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := e.openDeps()
			if err != nil {
				return err
			}
			defer d.Close()

			var poller *appsync.Poller
			if !noPoll {
				poller, err = e.newPoller(d)
				switch {
				case errors.Is(err, errNoMailbox):
					poller = nil
				case err != nil:
					return err
				}
			}
			if poller != nil {
				defer poller.Stop()
			}

			p := tea.NewProgram(app.New(d.store, poller, e.logger), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running review screen: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noPoll, "no-poll", false, "do not poll the mailbox")
	return cmd
}
