// Package mapping implements the cross-reference mapping store: the persistent table linking PMS internal ids to
// WITS external keys, plus the field-value, custom-property, and user
// translation tables.
package mapping

import "time"

// ArtifactMapping is the central cross-reference record.
type ArtifactMapping struct {
	ProjectID      int
	ArtifactTypeID int
	InternalID     int
	ExternalKey    string
	Primary        bool
	CreatedAt      time.Time
}

// FieldValueMapping translates one enum value between PMS and WITS for a
// given artifact field (priority, severity, status, type, importance).
// For the incident status field, ExternalValue encodes the composite key
// "<state>+<reason>".
type FieldValueMapping struct {
	ArtifactFieldID int
	InternalValue   string
	ExternalValue   string
}

// CustomPropertyMapping links one PMS custom-property slot to a named WITS
// field. ExternalFieldName may be one of the reserved
// sentinels "Area" or "Incident.ID" / "TfsWorkItemId".
type CustomPropertyMapping struct {
	ArtifactTypeID   int
	CustomPropertyID int
	ExternalFieldName string
}

// CustomPropertyValueMapping translates one list/multi-list custom
// property value between a PMS internal value id and a WITS string value.
type CustomPropertyValueMapping struct {
	ArtifactTypeID   int
	CustomPropertyID int
	InternalValue    string
	ExternalValue    string
}

// UserMapping links a PMS internal user id to a WITS display name.
type UserMapping struct {
	InternalUserID     int
	ExternalDisplayName string
}

// Reserved custom-property mapping destination names.
const (
	ReservedArea           = "Area"
	ReservedIncidentID     = "Incident.ID"
	ReservedTfsWorkItemID  = "TfsWorkItemId"
)

// Artifact type ids, a closed set assigned stable small integers the way
// the mapping store's schema expects them.
const (
	ArtifactTypeIncident    = 1
	ArtifactTypeTask        = 2
	ArtifactTypeRequirement = 3
	ArtifactTypeRelease     = 4
)

// Artifact field ids identify which enum translation table a
// FieldValueMapping row belongs to.
const (
	FieldPriority = 1
	FieldSeverity = 2
	FieldStatus   = 3
	FieldType     = 4
	FieldImportance = 5
)
