package mapping

import "context"

// Store is the mapping store client surface, scoped by
// plugInId at construction time. Implementations: sqlstore (production,
// over database/sql) and memstore (tests).
type Store interface {
	// ListProjectMappings returns every project-scoped mapping row known
	// to this plug-in instance, across all artifact types.
	ListProjectMappings(ctx context.Context) ([]ArtifactMapping, error)

	// ListUserMappings returns all explicit user cross-references.
	ListUserMappings(ctx context.Context) ([]UserMapping, error)

	// ListArtifactMappings returns the per-kind mappings for the given
	// project and artifact type.
	ListArtifactMappings(ctx context.Context, projectID, artifactTypeID int) ([]ArtifactMapping, error)

	// ListFieldValueMappings returns the translation table for one
	// artifact field (priority, severity, status, type, importance).
	ListFieldValueMappings(ctx context.Context, artifactFieldID int) ([]FieldValueMapping, error)

	// ListCustomPropertyMapping returns the property-definition mapping
	// for every custom-property slot of the given artifact type.
	ListCustomPropertyMapping(ctx context.Context, artifactTypeID int) ([]CustomPropertyMapping, error)

	// ListCustomPropertyValueMappings returns the value-translation table
	// for one custom property slot.
	ListCustomPropertyValueMappings(ctx context.Context, artifactTypeID, customPropertyID int) ([]CustomPropertyValueMapping, error)

	// AddArtifactMappings performs an idempotent batched insert; entries
	// that already exist (same unique key) are silently skipped.
	AddArtifactMappings(ctx context.Context, artifactTypeID int, entries []ArtifactMapping) error

	// RemoveArtifactMappings performs an idempotent batched delete. Used
	// only for auto-created releases whose source iteration has
	// disappeared.
	RemoveArtifactMappings(ctx context.Context, artifactTypeID int, entries []ArtifactMapping) error

	// GetWatermark and SetWatermark manage the engine's own local
	// crash-recovery bookmark. The host-supplied watermark passed into
	// Run is always authoritative; this is a diagnostic aid only.
	GetWatermark(ctx context.Context) (string, error)
	SetWatermark(ctx context.Context, rfc3339 string) error

	Close() error
}
