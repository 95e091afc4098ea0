package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/theme"
)

func newPendingCmd(e *env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List emails awaiting review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			emails, err := s.ListPending(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"count": len(emails), "emails": emails})
			}

			if len(emails) == 0 {
				fmt.Fprintln(w, "Nothing pending.")
				return nil
			}
			fmt.Fprintln(w, pendingTable(emails))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func pendingTable(emails []model.EmailRecord) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorSubtle)).
		Headers("ID", "URG", "CATEGORY", "FROM", "SUBJECT", "ACTION", "ME").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.HeaderStyle
			}
			if col == 1 && row >= 0 && row < len(emails) {
				return theme.UrgencyStyle(emails[row].Urgency)
			}
			return lipgloss.NewStyle()
		})

	for _, r := range emails {
		me := ""
		if r.RequiresHuman {
			me = "yes"
		}
		t.Row(
			strconv.FormatInt(r.ID, 10),
			strconv.Itoa(r.Urgency),
			string(r.Category),
			truncate(r.Sender, 28),
			truncate(r.Subject, 48),
			string(r.SuggestedAction),
			me,
		)
	}
	return t.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func newStatusCmd(e *env) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Set an email's review status",
		Long: `Set an email's review status, e.g. DONE, DELEGATED or ARCHIVED.
Any status other than PENDING removes the email from the queue.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid email id %q", args[0])
			}
			status := strings.TrimSpace(args[1])
			if status == "" {
				return fmt.Errorf("status must not be empty")
			}

			var n *string
			if cmd.Flags().Changed("notes") {
				n = &notes
			}

			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.UpdateStatus(cmd.Context(), id, status, n); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "email %d -> %s\n", id, status)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "reviewer notes")
	return cmd
}
