package processor

import (
	"fmt"
	"strings"

	"github.com/syncbridge/pms-wits-sync/internal/textnorm"
)

// emptyDescriptionPlaceholder is substituted when no description source
// has any content, matching the legacy TFS integration's literal text.
const emptyDescriptionPlaceholder = "Empty Description in TFS"

// outboundDescription resolves an incident's description for the
// create-outbound direction: steps-to-reproduce (rich text) first, then
// the rich-text description, then the plain-text description normalized
// via C8. Returns (reproSteps, description) — at most one of which is
// non-empty, depending on which source populated it; both are empty when
// no source has content.
func outboundDescription(stepsToReproduce, richDescription, plainDescription string) (repro string, description string) {
	if strings.TrimSpace(stepsToReproduce) != "" {
		return stepsToReproduce, ""
	}
	if strings.TrimSpace(richDescription) != "" {
		return "", richDescription
	}
	return "", textnorm.HTMLToPlainText(plainDescription)
}

// inboundDescription resolves a WITS work item's description for the
// create-inbound direction: rich text first, else plain text, else the
// literal placeholder.
func inboundDescription(richText, plainText string) string {
	if strings.TrimSpace(richText) != "" {
		return richText
	}
	if strings.TrimSpace(plainText) != "" {
		return plainText
	}
	return emptyDescriptionPlaceholder
}

// safeString renders any field value as a string for dirty-flag
// comparison during merge-update, so numeric and string fields can be
// compared uniformly without per-type branches at every call site.
func safeString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// dirtyTracker accumulates whether any field differed during a
// merge-update pass, so the save can be skipped entirely when nothing
// changed — the mechanism that prevents oscillation when both sides are
// re-authoritative in consecutive cycles.
type dirtyTracker struct {
	dirty bool
}

// diff compares current against proposed via safeString and, if they
// differ, marks the tracker dirty and returns true; building the patch op
// is left to the caller.
func (d *dirtyTracker) diff(current, proposed interface{}) bool {
	if safeString(current) == safeString(proposed) {
		return false
	}
	d.dirty = true
	return true
}
