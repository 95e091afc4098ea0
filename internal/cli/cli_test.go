package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail-triage/internal/store"
)

const pasted = `EMAIL_START
SUBJECT: Security Annex v3 review
FROM: Jane Doe
CATEGORY: VENDOR_SECURITY
URGENCY: 4
SUMMARY: Acme returned the annex with redlines.
ACTION: REPLY_NOW
REQUIRES_GABRIELA: YES
EMAIL_END

EMAIL_START
SUBJECT: Weekly digest
FROM: news@example.com
CATEGORY: NEWSLETTER
URGENCY: 1
ACTION: ARCHIVE
REQUIRES_GABRIELA: NO
EMAIL_END
`

// writeConfig points the store at a temp database and keeps the model
// analyzer and log file out of the way.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`store:
  path: %s
ai:
  enabled: false
log:
  file: ""
`, filepath.Join(dir, "data", "triage.db"))
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func run(t *testing.T, cfgPath, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestAnalyze_FlagsThenDuplicate(t *testing.T) {
	cfg := writeConfig(t)
	args := []string{"analyze",
		"--from", "soc@partner.example",
		"--subject", "Data breach notification",
		"--body", "We detected a breach affecting your data.",
	}

	out, err := run(t, cfg, "", args...)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "success", got["status"])
	assert.Equal(t, "ESCALATION", got["category"])
	assert.EqualValues(t, 5, got["urgency"])
	assert.Equal(t, "rules", got["analyzer"])

	out, err = run(t, cfg, "", args...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "duplicate", got["status"])
}

func TestAnalyze_JSONFromStdin(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg,
		`{"sender":"a@example.com","subject":"Lunch?","body":"Free on Friday?"}`,
		"analyze", "--json", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "success"`)
}

func TestAnalyze_MissingSender(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "", "analyze", "--subject", "No sender")
	require.Error(t, err)
}

func TestPastePendingStatus(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, pasted, "paste")
	require.NoError(t, err)
	assert.Equal(t, "saved 2, duplicates 0, failed 0\n", out)

	out, err = run(t, cfg, "", "pending", "--json")
	require.NoError(t, err)

	var listed struct {
		Count  int `json:"count"`
		Emails []struct {
			ID      int64  `json:"id"`
			Subject string `json:"subject"`
		} `json:"emails"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Equal(t, 2, listed.Count)
	assert.Equal(t, "Security Annex v3 review", listed.Emails[0].Subject)

	out, err = run(t, cfg, "", "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "Weekly digest")

	for _, e := range listed.Emails {
		_, err = run(t, cfg, "", "status", fmt.Sprint(e.ID), "DONE", "--notes", "handled")
		require.NoError(t, err)
	}

	out, err = run(t, cfg, "", "pending")
	require.NoError(t, err)
	assert.Equal(t, "Nothing pending.\n", out)
}

func TestPaste_NoBlocks(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "just some text", "paste")
	assert.ErrorContains(t, err, "no EMAIL_START")
}

func TestStatus_NotFound(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "", "status", "999", "DONE")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = run(t, cfg, "", "status", "abc", "DONE")
	assert.ErrorContains(t, err, "invalid email id")
}

func TestPoll_NoMailbox(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "", "poll", "--once")
	assert.ErrorIs(t, err, errNoMailbox)
}

func TestCredential_UnknownKey(t *testing.T) {
	_, err := run(t, writeConfig(t), "", "credential", "set", "github_token", "--value", "x")
	assert.ErrorContains(t, err, "unknown credential")
}
