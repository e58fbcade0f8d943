package customprop

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/syncbridge/pms-wits-sync/internal/mapping"
)

// Context bundles everything a handler needs to translate one slot,
// grounded on internal/tracker's FieldMapper methods taking only the
// value to translate plus whatever lookup state the package already held
// as fields — here passed explicitly instead of as struct state, since
// one Context is shared read-only across every slot in a cycle.
type Context struct {
	Logger     *slog.Logger
	Location   *time.Location
	ValueTable []mapping.CustomPropertyValueMapping
	Users      []mapping.UserMapping
}

// toExternalFunc translates one slot's internal value into the
// destination field writes it produces. ok=false means "skip with a
// warning" (unmapped value mapping, rejected Area on multi-list, etc).
type toExternalFunc func(c *Context, slot Slot) (writes []FieldWrite, ok bool)

// toInternalFunc is the mirror direction, reading a raw external value
// already pulled off the destination's field dictionary.
type toInternalFunc func(c *Context, raw interface{}) (slot Slot, changed bool, ok bool)

var toExternalHandlers = map[PropertyType]toExternalFunc{
	PropertyText:      textToExternal,
	PropertyInteger:   integerToExternal,
	PropertyBoolean:   booleanToExternal,
	PropertyDecimal:   decimalToExternal,
	PropertyDate:      dateToExternal,
	PropertyList:      listToExternal,
	PropertyMultiList: multiListToExternal,
	PropertyUser:      userToExternal,
}

var toInternalHandlers = map[PropertyType]toInternalFunc{
	PropertyText:      textToInternal,
	PropertyInteger:   integerToInternal,
	PropertyBoolean:   booleanToInternal,
	PropertyDecimal:   decimalToInternal,
	PropertyDate:      dateToInternal,
	PropertyList:      listToInternal,
	PropertyMultiList: multiListToInternal,
	PropertyUser:      userToInternal,
}

// ToExternal dispatches slot to the handler registered for its type. A
// slot with no destination mapping is always skipped with a warning,
// before the type-specific handler ever runs.
func ToExternal(c *Context, slot Slot) ([]FieldWrite, bool) {
	if slot.ExternalField == "" {
		if c.Logger != nil {
			c.Logger.Warn("custom property slot has no destination mapping, skipping",
				"custom_property_id", slot.CustomPropertyID)
		}
		return nil, false
	}
	fn, ok := toExternalHandlers[slot.Type]
	if !ok {
		if c.Logger != nil {
			c.Logger.Warn("unknown custom property type, skipping", "type", slot.Type)
		}
		return nil, false
	}
	return fn(c, slot)
}

// ToInternal dispatches the reverse direction for a known property type.
func ToInternal(c *Context, propType PropertyType, raw interface{}) (Slot, bool, bool) {
	fn, ok := toInternalHandlers[propType]
	if !ok {
		return Slot{}, false, false
	}
	slot, changed, ok := fn(c, raw)
	return slot, changed, ok
}

func textToExternal(_ *Context, slot Slot) ([]FieldWrite, bool) {
	return []FieldWrite{{FieldName: slot.ExternalField, Value: slot.TextValue}}, true
}

func textToInternal(_ *Context, raw interface{}) (Slot, bool, bool) {
	s := safeString(raw)
	return Slot{Type: PropertyText, TextValue: s}, true, true
}

func integerToExternal(_ *Context, slot Slot) ([]FieldWrite, bool) {
	return []FieldWrite{{FieldName: slot.ExternalField, Value: slot.IntValue}}, true
}

func integerToInternal(_ *Context, raw interface{}) (Slot, bool, bool) {
	v, ok := coerceInt64(raw)
	if !ok {
		return Slot{}, false, false
	}
	return Slot{Type: PropertyInteger, IntValue: v}, true, true
}

func booleanToExternal(_ *Context, slot Slot) ([]FieldWrite, bool) {
	return []FieldWrite{{FieldName: slot.ExternalField, Value: slot.BoolValue}}, true
}

func booleanToInternal(_ *Context, raw interface{}) (Slot, bool, bool) {
	b, ok := raw.(bool)
	if !ok {
		return Slot{}, false, false
	}
	return Slot{Type: PropertyBoolean, BoolValue: b}, true, true
}

// decimalToExternal coerces a PMS decimal into WITS's double field type.
func decimalToExternal(_ *Context, slot Slot) ([]FieldWrite, bool) {
	return []FieldWrite{{FieldName: slot.ExternalField, Value: slot.DecimalValue}}, true
}

func decimalToInternal(_ *Context, raw interface{}) (Slot, bool, bool) {
	v, ok := coerceFloat64(raw)
	if !ok {
		return Slot{}, false, false
	}
	return Slot{Type: PropertyDecimal, DecimalValue: v}, true, true
}

// dateToExternal converts the stored UTC instant to the destination's
// local time zone.
func dateToExternal(c *Context, slot Slot) ([]FieldWrite, bool) {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return []FieldWrite{{FieldName: slot.ExternalField, Value: slot.DateValue.In(loc)}}, true
}

func dateToInternal(c *Context, raw interface{}) (Slot, bool, bool) {
	t, ok := raw.(time.Time)
	if !ok {
		return Slot{}, false, false
	}
	return Slot{Type: PropertyDate, DateValue: t.UTC()}, true, true
}

// listToExternal writes the value-mapped external string. The reserved
// "Area" destination sets the numeric areaId instead of a named field;
// "Incident.ID" is handled by the caller at the top level, never
// reaching this handler.
func listToExternal(c *Context, slot Slot) ([]FieldWrite, bool) {
	external, ok := mapping.FindCustomPropertyValue(slot.ListValue, c.ValueTable)
	if !ok {
		if c.Logger != nil {
			c.Logger.Warn("unmapped list value, skipping", "internal_value", slot.ListValue)
		}
		return nil, false
	}
	if slot.ExternalField == ReservedArea {
		areaID, err := strconv.Atoi(external)
		if err != nil {
			if c.Logger != nil {
				c.Logger.Warn("area value mapping is not numeric, skipping", "value", external)
			}
			return nil, false
		}
		return []FieldWrite{{FieldName: "System.AreaId", Value: areaID}}, true
	}
	return []FieldWrite{{FieldName: slot.ExternalField, Value: external}}, true
}

func listToInternal(c *Context, raw interface{}) (Slot, bool, bool) {
	external := safeString(raw)
	internal, ok := mapping.FindCustomPropertyInternalValue(external, c.ValueTable)
	if !ok {
		return Slot{}, false, false
	}
	return Slot{Type: PropertyList, ListValue: internal}, true, true
}

// multiListToExternal value-maps each id and writes a semicolon-joined
// string. A multi-list slot mapped to the reserved "Area" destination is
// rejected outright since area is single-valued.
func multiListToExternal(c *Context, slot Slot) ([]FieldWrite, bool) {
	if slot.ExternalField == ReservedArea {
		if c.Logger != nil {
			c.Logger.Warn("multi-list cannot target reserved Area destination, skipping",
				"custom_property_id", slot.CustomPropertyID)
		}
		return nil, false
	}
	var externals []string
	for _, v := range slot.MultiValues {
		ext, ok := mapping.FindCustomPropertyValue(v, c.ValueTable)
		if !ok {
			if c.Logger != nil {
				c.Logger.Warn("unmapped multi-list value, omitting", "internal_value", v)
			}
			continue
		}
		externals = append(externals, ext)
	}
	return []FieldWrite{{FieldName: slot.ExternalField, Value: strings.Join(externals, ";")}}, true
}

func multiListToInternal(c *Context, raw interface{}) (Slot, bool, bool) {
	joined := safeString(raw)
	var internals []string
	for _, ext := range strings.Split(joined, ";") {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if internal, ok := mapping.FindCustomPropertyInternalValue(ext, c.ValueTable); ok {
			internals = append(internals, internal)
		}
	}
	return Slot{Type: PropertyMultiList, MultiValues: internals}, true, true
}

func userToExternal(c *Context, slot Slot) ([]FieldWrite, bool) {
	name, ok := mapping.FindUserByInternalID(slot.UserValue, c.Users)
	if !ok {
		if c.Logger != nil {
			c.Logger.Warn("unmapped user in custom property, skipping", "internal_user_id", slot.UserValue)
		}
		return nil, false
	}
	return []FieldWrite{{FieldName: slot.ExternalField, Value: name}}, true
}

func userToInternal(c *Context, raw interface{}) (Slot, bool, bool) {
	name := safeString(raw)
	id, ok := mapping.FindUserByDisplayName(name, c.Users)
	if !ok {
		return Slot{}, false, false
	}
	return Slot{Type: PropertyUser, UserValue: id}, true, true
}

// safeString coerces an arbitrary destination-field value to a string so
// dirty-checking can compare proposed against current by value rather
// than by type; nil becomes "".
func safeString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return sprintValue(v)
}

func sprintValue(v interface{}) string {
	switch t := v.(type) {
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func coerceInt64(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	default:
		return 0, false
	}
}

func coerceFloat64(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}
