package translate

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/syncbridge/pms-wits-sync/internal/mapping"
)

// compositeSeparator joins state and reason into the single external key
// stored in the incident status mapping table.
const compositeSeparator = "+"

// CompositeState is the (state, reason) pair WITS uses for incident
// status, encoded as a single external key in the mapping table.
type CompositeState struct {
	State  string
	Reason string
}

// String renders the composite key form "<state>+<reason>".
func (c CompositeState) String() string {
	return c.State + compositeSeparator + c.Reason
}

// ParseCompositeState splits an external key of the form "<state>+<reason>"
// into its two fields. WITS's two-field state machine is the only reason
// this encoding exists; other artifact kinds use a plain single value.
func ParseCompositeState(externalKey string) (CompositeState, error) {
	parts := strings.SplitN(externalKey, compositeSeparator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return CompositeState{}, fmt.Errorf("translate: malformed composite state key %q", externalKey)
	}
	return CompositeState{State: parts[0], Reason: parts[1]}, nil
}

// StatusToExternal resolves an internal status id to the WITS
// (state, reason) pair. Unlike priority/severity, an unmapped status is
// fatal for the whole artifact: the caller must abort
// artifact processing when ok is false.
func StatusToExternal(logger *slog.Logger, internalStatusID string, table []mapping.FieldValueMapping) (CompositeState, bool) {
	key, ok := mapping.FindFieldValue(internalStatusID, table)
	if !ok {
		if logger != nil {
			logger.Error("unmapped status on creation, skipping artifact",
				"internal_status_id", internalStatusID)
		}
		return CompositeState{}, false
	}
	cs, err := ParseCompositeState(key)
	if err != nil {
		if logger != nil {
			logger.Error("malformed composite status mapping", "error", err)
		}
		return CompositeState{}, false
	}
	return cs, true
}

// StatusToInternal resolves a WITS (state, reason) pair back to an
// internal status id.
func StatusToInternal(logger *slog.Logger, state, reason string, table []mapping.FieldValueMapping) (string, bool) {
	key := CompositeState{State: state, Reason: reason}.String()
	internal, ok := mapping.FindInternalValue(key, table)
	if !ok {
		if logger != nil {
			logger.Error("unmapped composite status on inbound sync",
				"state", state, "reason", reason)
		}
		return "", false
	}
	return internal, true
}
