// Package iteration implements the release/iteration reconciler (C4):
// bidirectional resolution between PMS releases and WITS iterations,
// auto-creation of the missing side, and iteration-visibility polling.
package iteration

import (
	"strconv"
	"time"
)

// Release is a PMS release as the reconciler needs to see it.
type Release struct {
	ProjectID int
	ID        int
	Name      string
}

// IterationNode is a WITS iteration tree node as the reconciler needs to
// see it.
type IterationNode struct {
	ProjectID int
	ID        int
	Name      string
}

// DefaultDurationDays is the default release window used when auto-creating
// a PMS release from a WITS iteration: 5 days starting
// today. Callers may override via Reconciler.DurationDays.
const DefaultDurationDays = 5

// reservedNameChars are stripped from an iteration name derived from a
// PMS release name.
const reservedNameChars = "\\/$?*:\"&><#%|"

// StripReservedChars removes every character in reservedNameChars from
// name, used when naming a WITS iteration after a PMS release.
func StripReservedChars(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if containsRune(reservedNameChars, r) {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

func containsRune(set string, r rune) bool {
	for _, c := range set {
		if c == r {
			return true
		}
	}
	return false
}

// versionFromIterationID formats the WITS-derived version string stamped
// on an auto-created PMS release.
func versionFromIterationID(iterationID int) string {
	return "TFS-" + strconv.Itoa(iterationID)
}

// releaseWindow computes the (start, end) pair for an auto-created
// release: start = today, end = today+durationDays.
func releaseWindow(now time.Time, durationDays int) (time.Time, time.Time) {
	start := now.UTC().Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, durationDays)
	return start, end
}
