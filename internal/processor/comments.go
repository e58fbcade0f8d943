package processor

import (
	"strings"

	"github.com/syncbridge/pms-wits-sync/internal/wits"
)

// trimmed normalizes a comment body for dedup comparison.
func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// historyTextSet collects every non-empty History entry across a work
// item's revisions, trimmed, for comment-dedup comparison against PMS
// comments flowing outbound. The result is a set: the inbound comment
// copies range over it, so they create PMS comments in no particular
// order, not in revision order.
func historyTextSet(revisions []wits.Revision) map[string]bool {
	set := make(map[string]bool, len(revisions))
	for _, rev := range revisions {
		if text := trimmed(rev.Fields.History); text != "" {
			set[text] = true
		}
	}
	return set
}
