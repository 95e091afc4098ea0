package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/mail-triage/internal/credential"
)

func newCredentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage secrets in the system keyring",
		Long: fmt.Sprintf(`Store or remove secrets in the system keyring.

Keys:
  %s   Anthropic API key (or set ANTHROPIC_API_KEY)
  %s       IMAP password (or set TRIAGE_IMAP_PASSWORD)`,
			credential.KeyAnthropicAPIKey, credential.KeyIMAPPassword),
	}

	var value string
	set := &cobra.Command{
		Use:   "set KEY",
		Short: "Store a secret, prompting for it unless --value is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !credential.Known(key) {
				return unknownKey(key)
			}

			if value == "" {
				err := huh.NewInput().
					Title(key).
					EchoMode(huh.EchoModePassword).
					Value(&value).
					Run()
				if err != nil {
					return err
				}
			}
			value = strings.TrimSpace(value)
			if value == "" {
				return fmt.Errorf("empty value, nothing stored")
			}

			if err := credential.Set(key, value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", key)
			return nil
		},
	}
	set.Flags().StringVar(&value, "value", "", "secret value (visible in shell history)")

	del := &cobra.Command{
		Use:   "delete KEY",
		Short: "Remove a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !credential.Known(key) {
				return unknownKey(key)
			}
			if err := credential.Delete(key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", key)
			return nil
		},
	}

	cmd.AddCommand(set, del)
	return cmd
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown credential %q (want %s or %s)",
		key, credential.KeyAnthropicAPIKey, credential.KeyIMAPPassword)
}
