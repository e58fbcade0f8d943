// Package customprop implements the custom-property bridge (C3): a
// closed enum of property types with one handler function per type,
// dispatched via a lookup table built once at init rather than a type
// switch or reflection.
package customprop

import "time"

// PropertyType is a PMS custom-property slot's declared type.
type PropertyType string

const (
	PropertyText      PropertyType = "text"
	PropertyInteger   PropertyType = "integer"
	PropertyBoolean   PropertyType = "boolean"
	PropertyDecimal   PropertyType = "decimal"
	PropertyDate      PropertyType = "date"
	PropertyList      PropertyType = "list"
	PropertyMultiList PropertyType = "multi-list"
	PropertyUser      PropertyType = "user"
)

// MaxSlots is the number of positional custom-property slots a PMS
// artifact carries.
const MaxSlots = 30

// Reserved destination field names handled specially rather than
// through the generic value-mapping path.
const (
	ReservedArea       = "Area"
	ReservedIncidentID = "Incident.ID"
)

// Slot is one PMS custom-property value alongside its declared type and
// destination mapping, the input to both translation directions.
type Slot struct {
	CustomPropertyID int
	Type             PropertyType
	ExternalField    string // "" when no mapping row exists for this slot

	TextValue    string
	IntValue     int64
	BoolValue    bool
	DecimalValue float64
	DateValue    time.Time
	ListValue    string   // raw internal id, resolved via value mapping
	MultiValues  []string // raw internal ids, each resolved via value mapping
	UserValue    int      // internal user id
}

// FieldWrite is one write against the destination's named field
// dictionary, produced by a PMS->WITS handler or consumed in reverse.
type FieldWrite struct {
	FieldName string
	Value     interface{}
}
