// Package cli defines the triage command tree.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/mail-triage/internal/logger"
	"github.com/nhle/mail-triage/internal/model"
)

// env carries what every subcommand needs once configuration is loaded.
type env struct {
	configPath string
	verbose    bool

	cfg    *model.AppConfig
	logger *zap.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "triage",
		Short: "Email triage for a busy inbox",
		Long: `triage classifies incoming email by category and urgency, suggests
the next action, drafts replies and keeps a review queue with an
audit trail.

Examples:
  triage serve                       # HTTP API on server.addr
  triage analyze --from a@b.c --subject "Breach" --body "..."
  triage paste agent-output.txt      # import pre-analyzed blocks
  triage pending                     # list the review queue
  triage status 42 DONE --notes "called vendor"
  triage review                      # interactive review screen
  triage poll --once                 # fetch recent IMAP mail once
  triage setup                       # configure mailbox and analyzer`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", model.DefaultConfigPath(), "config file")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "also log to stderr")

	root.AddCommand(
		newServeCmd(e),
		newAnalyzeCmd(e),
		newPasteCmd(e),
		newPendingCmd(e),
		newStatusCmd(e),
		newReviewCmd(e),
		newPollCmd(e),
		newSetupCmd(e),
		newCredentialCmd(),
	)

	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}

func (e *env) load(cmd *cobra.Command) error {
	if cmd.Name() == "credential" || (cmd.Parent() != nil && cmd.Parent().Name() == "credential") {
		return nil
	}

	cfg, err := model.LoadConfig(e.configPath)
	if err != nil {
		return err
	}
	e.cfg = cfg

	var console io.Writer
	if e.verbose || cmd.Name() == "serve" || cmd.Name() == "poll" {
		console = cmd.ErrOrStderr()
	}
	// Full-screen commands own the terminal.
	if cmd.Name() == "review" || cmd.Name() == "setup" {
		console = nil
	}

	l, err := logger.New(cfg.Log, console)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	e.logger = l.With(zap.String("command", cmd.Name()))
	return nil
}
