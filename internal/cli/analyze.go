package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/mail-triage/internal/ingest"
	"github.com/nhle/mail-triage/internal/model"
)

func newAnalyzeCmd(e *env) *cobra.Command {
	var (
		in       model.IncomingEmail
		bodyFile string
		jsonFile string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Triage one email and store it",
		Long: `Triage one email and store the result.

The email is given either with flags or as a JSON object
({"sender", "subject", "body", "received_at", "thread_id"}) read from
--json FILE, or from stdin with --json -.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if jsonFile != "" {
				raw, err := readInput(cmd, jsonFile)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(raw, &in); err != nil {
					return fmt.Errorf("decoding email JSON: %w", err)
				}
			}
			if bodyFile != "" {
				raw, err := readInput(cmd, bodyFile)
				if err != nil {
					return err
				}
				in.Body = string(raw)
			}
			if in.ReceivedAt == "" {
				in.ReceivedAt = time.Now().UTC().Format(time.RFC3339)
			}

			d, err := e.openDeps()
			if err != nil {
				return err
			}
			defer d.Close()

			out, err := d.service.Process(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printOutcome(cmd.OutOrStdout(), out)
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Sender, "from", "", "sender address")
	f.StringVar(&in.Subject, "subject", "", "subject line")
	f.StringVar(&in.Body, "body", "", "body text")
	f.StringVar(&bodyFile, "body-file", "", "read the body from FILE (- for stdin)")
	f.StringVar(&in.ReceivedAt, "received-at", "", "ISO-8601 receive time (default now)")
	f.StringVar(&in.ThreadID, "thread-id", "", "thread identifier")
	f.StringVar(&jsonFile, "json", "", "read the whole email as JSON from FILE (- for stdin)")
	cmd.MarkFlagsMutuallyExclusive("json", "from")

	return cmd
}

func newPasteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "paste [FILE]",
		Short: "Import pre-analyzed EMAIL_START ... EMAIL_END blocks",
		Long: `Import agent output made of EMAIL_START ... EMAIL_END blocks, each
holding FROM, SUBJECT, CATEGORY, URGENCY and the other analysis fields
as "FIELD: value" lines. Reads FILE, or stdin when FILE is omitted or -.
The analysis is stored as given; no analyzer runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "-"
			if len(args) == 1 {
				name = args[0]
			}
			raw, err := readInput(cmd, name)
			if err != nil {
				return err
			}

			items := ingest.ParsePasted(string(raw), time.Now())
			if len(items) == 0 {
				return fmt.Errorf("no EMAIL_START ... EMAIL_END blocks found")
			}

			d, err := e.openDeps()
			if err != nil {
				return err
			}
			defer d.Close()

			res, err := d.service.SaveBatch(cmd.Context(), items)
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d, duplicates %d, failed %d\n",
				res.Saved, res.Duplicates, res.Failed)
			return err
		},
	}
}

// readInput reads a whole file, or stdin when name is "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	raw, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return raw, nil
}

// printOutcome writes the same JSON the API answers /analyze with.
func printOutcome(w io.Writer, out *ingest.Outcome) error {
	var body map[string]any
	if out.Status == ingest.StatusDuplicate {
		body = map[string]any{"status": "duplicate", "message": "Email already exists"}
	} else {
		r := out.Record
		body = map[string]any{
			"status":         string(out.Status),
			"email_id":       out.EmailID,
			"category":       r.Category,
			"urgency":        r.Urgency,
			"action":         r.SuggestedAction,
			"summary":        r.Summary,
			"requires_human": r.RequiresHuman,
			"analyzer":       out.Analyzer,
		}
		if r.DraftReply != nil && strings.TrimSpace(*r.DraftReply) != "" {
			body["draft_reply"] = *r.DraftReply
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(body)
}
