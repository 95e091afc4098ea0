package app

import (
	"fmt"

	"github.com/nhle/mail-triage/internal/model"
)

// headerTitle shows the pending and total counts next to the app name.
func headerTitle(counts map[string]int) string {
	if counts == nil {
		return "Mail Triage"
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return fmt.Sprintf("Mail Triage [%d pending / %d]", counts[model.StatusPending], total)
}
