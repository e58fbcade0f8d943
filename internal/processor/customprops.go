package processor

import (
	"time"

	"github.com/syncbridge/pms-wits-sync/internal/customprop"
	"github.com/syncbridge/pms-wits-sync/internal/mapping"
	"github.com/syncbridge/pms-wits-sync/internal/pms"
)

// OutboundSlots converts a PMS artifact's raw custom-property values
// into the typed Slot list customprop.ToExternal expects, skipping any
// slot with no populated value.
func OutboundSlots(defs []pms.CustomPropertyDefinition, mappings []mapping.CustomPropertyMapping, values map[int]interface{}) []customprop.Slot {
	var slots []customprop.Slot
	for _, def := range defs {
		raw, ok := values[def.CustomPropertyID]
		if !ok || raw == nil {
			continue
		}
		fieldName := findCustomPropertyField(def.CustomPropertyID, mappings)
		slot := customprop.Slot{
			CustomPropertyID: def.CustomPropertyID,
			Type:             customprop.PropertyType(def.Type),
			ExternalField:    fieldName,
		}
		switch slot.Type {
		case customprop.PropertyText:
			slot.TextValue = toDisplayString(raw)
		case customprop.PropertyInteger:
			if v, ok := toInt64(raw); ok {
				slot.IntValue = v
			}
		case customprop.PropertyBoolean:
			if v, ok := raw.(bool); ok {
				slot.BoolValue = v
			}
		case customprop.PropertyDecimal:
			if v, ok := toFloat64(raw); ok {
				slot.DecimalValue = v
			}
		case customprop.PropertyDate:
			if v, ok := raw.(time.Time); ok {
				slot.DateValue = v
			}
		case customprop.PropertyList:
			slot.ListValue = toDisplayString(raw)
		case customprop.PropertyMultiList:
			if v, ok := raw.([]string); ok {
				slot.MultiValues = v
			}
		case customprop.PropertyUser:
			if v, ok := toInt64(raw); ok {
				slot.UserValue = int(v)
			}
		default:
			continue
		}
		slots = append(slots, slot)
	}
	return slots
}

func toDisplayString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return safeString(v)
}

func toInt64(v interface{}) (int64, bool) {
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

func toFloat64(v interface{}) (float64, bool) {
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

// InboundCustomProperties translates every custom-property slot that has
// a destination mapping and a present value on the work item's raw
// field dictionary, keyed by the slot id the PMS artifact stores it
// under. Slots mapped to a reserved destination (Area, Incident.ID,
// TfsWorkItemId) are handled by the caller at the top level and are
// skipped here.
func InboundCustomProperties(c *customprop.Context, defs []pms.CustomPropertyDefinition, mappings []mapping.CustomPropertyMapping, raw map[string]interface{}) map[int]interface{} {
	out := make(map[int]interface{})
	for _, def := range defs {
		fieldName := findCustomPropertyField(def.CustomPropertyID, mappings)
		if fieldName == "" || isReservedDestination(fieldName) {
			continue
		}
		value, ok := raw[fieldName]
		if !ok || value == nil {
			continue
		}
		slot, _, ok := customprop.ToInternal(c, customprop.PropertyType(def.Type), value)
		if !ok {
			continue
		}
		out[def.CustomPropertyID] = slotValue(slot)
	}
	return out
}

func isReservedDestination(fieldName string) bool {
	switch fieldName {
	case mapping.ReservedArea, mapping.ReservedIncidentID, mapping.ReservedTfsWorkItemID:
		return true
	default:
		return false
	}
}

func findCustomPropertyField(customPropertyID int, mappings []mapping.CustomPropertyMapping) string {
	for _, m := range mappings {
		if m.CustomPropertyID == customPropertyID {
			return m.ExternalFieldName
		}
	}
	return ""
}

func slotValue(slot customprop.Slot) interface{} {
	switch slot.Type {
	case customprop.PropertyText:
		return slot.TextValue
	case customprop.PropertyInteger:
		return slot.IntValue
	case customprop.PropertyBoolean:
		return slot.BoolValue
	case customprop.PropertyDecimal:
		return slot.DecimalValue
	case customprop.PropertyDate:
		return slot.DateValue
	case customprop.PropertyList:
		return slot.ListValue
	case customprop.PropertyMultiList:
		return slot.MultiValues
	case customprop.PropertyUser:
		return slot.UserValue
	default:
		return nil
	}
}
