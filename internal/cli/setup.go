package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/mail-triage/internal/credential"
	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/source/email"
	"github.com/nhle/mail-triage/internal/ui/setup"
)

func newSetupCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Configure the mailbox and analyzer interactively",
		Long: `Edit the IMAP mailbox and analyzer settings, test the mailbox login
and write the config file. Passwords and API keys go to the system
keyring.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := setup.New(e.cfg, setup.Options{
				Validate: validateMailbox,
				Save: func(cfg *model.AppConfig, s setup.Secrets) error {
					return saveSettings(e.configPath, cfg, s)
				},
			}, 80, 24)

			final, err := tea.NewProgram(m).Run()
			if err != nil {
				return fmt.Errorf("running setup: %w", err)
			}
			if sm, ok := final.(setup.Model); ok && sm.Saved() {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", e.configPath)
			}
			return nil
		},
	}
}

// validateMailbox logs in with password, or with the stored password
// when none was typed.
func validateMailbox(ctx context.Context, c model.IMAPConfig, password string) (string, error) {
	if password == "" {
		stored, err := credential.Get(credential.KeyIMAPPassword)
		if err != nil {
			return "", fmt.Errorf("no IMAP password entered or stored: %w", err)
		}
		password = stored
	}
	return email.NewIMAPClient(c.Host, c.Port, c.Username, password, c.TLS).ValidateConnection(ctx)
}

func saveSettings(path string, cfg *model.AppConfig, s setup.Secrets) error {
	if s.IMAPPassword != "" {
		if err := credential.Set(credential.KeyIMAPPassword, s.IMAPPassword); err != nil {
			return err
		}
	}
	if s.AnthropicAPIKey != "" {
		if err := credential.Set(credential.KeyAnthropicAPIKey, s.AnthropicAPIKey); err != nil {
			return err
		}
	}
	return model.SaveConfig(path, cfg)
}
