// Package translate implements the field/value translation layer (C2):
// enum ids, composite states, and user identities translated in both
// directions via mapping tables loaded from internal/mapping.
package translate

import (
	"log/slog"

	"github.com/syncbridge/pms-wits-sync/internal/mapping"
)

// EnumResult carries the outcome of an enum translation: either a
// resolved value, or an indication that the destination field should be
// left unchanged because the source value has no mapping.
type EnumResult struct {
	Value   string
	Mapped  bool
}

// ToExternal translates an internal enum value (priority, severity,
// importance) to its external counterpart. An unmapped value is logged
// at warning severity here (when logger is non-nil) and reported as
// Mapped=false so callers can decide whether the field is critical
// (status/type, fatal) or cosmetic (priority/severity, warn-and-skip).
func ToExternal(logger *slog.Logger, fieldName string, internalValue string, table []mapping.FieldValueMapping) EnumResult {
	external, ok := mapping.FindFieldValue(internalValue, table)
	if !ok {
		if logger != nil {
			logger.Warn("unmapped enum value, leaving destination unchanged",
				"field", fieldName, "internal_value", internalValue, "direction", "internal_to_external")
		}
		return EnumResult{Mapped: false}
	}
	return EnumResult{Value: external, Mapped: true}
}

// ToInternal translates an external enum value back to its internal
// counterpart, symmetric to ToExternal.
func ToInternal(logger *slog.Logger, fieldName string, externalValue string, table []mapping.FieldValueMapping) EnumResult {
	internal, ok := mapping.FindInternalValue(externalValue, table)
	if !ok {
		if logger != nil {
			logger.Warn("unmapped enum value, leaving destination unchanged",
				"field", fieldName, "external_value", externalValue, "direction", "external_to_internal")
		}
		return EnumResult{Mapped: false}
	}
	return EnumResult{Value: internal, Mapped: true}
}
