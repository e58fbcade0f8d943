package mapping

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql" // registers the "mysql" driver
)

// SQLStore is the production Store implementation, over database/sql,
// grounded on internal/storage/sqlite/config.go's plain-SQL
// GetConfig/SetConfig pair and internal/storage/sqlite/queries.go's
// CreateIssue-style direct query style (no ORM, no query builder).
type SQLStore struct {
	db       *sql.DB
	plugInID int
}

// Open connects to the mapping store database at dsn (a MySQL/Dolt-style
// data source name) and ensures its schema exists.
func Open(ctx context.Context, dsn string, plugInID int) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, wrapDBError("open mapping store", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, wrapDBError("ping mapping store", err)
	}
	if err := migrateSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLStore{db: db, plugInID: plugInID}, nil
}

func (s *SQLStore) ListProjectMappings(ctx context.Context) ([]ArtifactMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, artifact_type_id, internal_id, external_key, is_primary, created_at
		FROM artifact_mappings WHERE plug_in_id = ?`, s.plugInID)
	if err != nil {
		return nil, wrapDBError("list project mappings", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ArtifactMapping
	for rows.Next() {
		var m ArtifactMapping
		if err := rows.Scan(&m.ProjectID, &m.ArtifactTypeID, &m.InternalID, &m.ExternalKey, &m.Primary, &m.CreatedAt); err != nil {
			return nil, wrapDBError("scan artifact mapping", err)
		}
		out = append(out, m)
	}
	return out, wrapDBError("iterate project mappings", rows.Err())
}

func (s *SQLStore) ListUserMappings(ctx context.Context) ([]UserMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT internal_user_id, external_display_name FROM user_mappings WHERE plug_in_id = ?`, s.plugInID)
	if err != nil {
		return nil, wrapDBError("list user mappings", err)
	}
	defer func() { _ = rows.Close() }()

	var out []UserMapping
	for rows.Next() {
		var m UserMapping
		if err := rows.Scan(&m.InternalUserID, &m.ExternalDisplayName); err != nil {
			return nil, wrapDBError("scan user mapping", err)
		}
		out = append(out, m)
	}
	return out, wrapDBError("iterate user mappings", rows.Err())
}

func (s *SQLStore) ListArtifactMappings(ctx context.Context, projectID, artifactTypeID int) ([]ArtifactMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, artifact_type_id, internal_id, external_key, is_primary, created_at
		FROM artifact_mappings
		WHERE plug_in_id = ? AND project_id = ? AND artifact_type_id = ?`,
		s.plugInID, projectID, artifactTypeID)
	if err != nil {
		return nil, wrapDBError("list artifact mappings", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ArtifactMapping
	for rows.Next() {
		var m ArtifactMapping
		if err := rows.Scan(&m.ProjectID, &m.ArtifactTypeID, &m.InternalID, &m.ExternalKey, &m.Primary, &m.CreatedAt); err != nil {
			return nil, wrapDBError("scan artifact mapping", err)
		}
		out = append(out, m)
	}
	return out, wrapDBError("iterate artifact mappings", rows.Err())
}

func (s *SQLStore) ListFieldValueMappings(ctx context.Context, artifactFieldID int) ([]FieldValueMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT artifact_field_id, internal_value, external_value
		FROM field_value_mappings WHERE plug_in_id = ? AND artifact_field_id = ?`,
		s.plugInID, artifactFieldID)
	if err != nil {
		return nil, wrapDBError("list field value mappings", err)
	}
	defer func() { _ = rows.Close() }()

	var out []FieldValueMapping
	for rows.Next() {
		var m FieldValueMapping
		if err := rows.Scan(&m.ArtifactFieldID, &m.InternalValue, &m.ExternalValue); err != nil {
			return nil, wrapDBError("scan field value mapping", err)
		}
		out = append(out, m)
	}
	return out, wrapDBError("iterate field value mappings", rows.Err())
}

func (s *SQLStore) ListCustomPropertyMapping(ctx context.Context, artifactTypeID int) ([]CustomPropertyMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT artifact_type_id, custom_property_id, external_field_name
		FROM custom_property_mappings WHERE plug_in_id = ? AND artifact_type_id = ?`,
		s.plugInID, artifactTypeID)
	if err != nil {
		return nil, wrapDBError("list custom property mappings", err)
	}
	defer func() { _ = rows.Close() }()

	var out []CustomPropertyMapping
	for rows.Next() {
		var m CustomPropertyMapping
		if err := rows.Scan(&m.ArtifactTypeID, &m.CustomPropertyID, &m.ExternalFieldName); err != nil {
			return nil, wrapDBError("scan custom property mapping", err)
		}
		out = append(out, m)
	}
	return out, wrapDBError("iterate custom property mappings", rows.Err())
}

func (s *SQLStore) ListCustomPropertyValueMappings(ctx context.Context, artifactTypeID, customPropertyID int) ([]CustomPropertyValueMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT artifact_type_id, custom_property_id, internal_value, external_value
		FROM custom_property_value_mappings
		WHERE plug_in_id = ? AND artifact_type_id = ? AND custom_property_id = ?`,
		s.plugInID, artifactTypeID, customPropertyID)
	if err != nil {
		return nil, wrapDBError("list custom property value mappings", err)
	}
	defer func() { _ = rows.Close() }()

	var out []CustomPropertyValueMapping
	for rows.Next() {
		var m CustomPropertyValueMapping
		if err := rows.Scan(&m.ArtifactTypeID, &m.CustomPropertyID, &m.InternalValue, &m.ExternalValue); err != nil {
			return nil, wrapDBError("scan custom property value mapping", err)
		}
		out = append(out, m)
	}
	return out, wrapDBError("iterate custom property value mappings", rows.Err())
}

// AddArtifactMappings batch-inserts entries using INSERT ... ON DUPLICATE
// KEY semantics so repeat calls with the same entries are a no-op,
// grounded on internal/storage/sqlite/config.go's "ON CONFLICT DO UPDATE"
// idiom for SetConfig (here a no-op update since the row already
// represents the desired state once written).
func (s *SQLStore) AddArtifactMappings(ctx context.Context, artifactTypeID int, entries []ArtifactMapping) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("begin add artifact mappings", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO artifact_mappings
			(plug_in_id, project_id, artifact_type_id, internal_id, external_key, is_primary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE external_key = external_key`)
	if err != nil {
		return wrapDBError("prepare add artifact mappings", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, s.plugInID, e.ProjectID, artifactTypeID, e.InternalID, e.ExternalKey, e.Primary, createdAt); err != nil {
			return wrapDBError("add artifact mapping", err)
		}
	}
	return wrapDBError("commit add artifact mappings", tx.Commit())
}

// RemoveArtifactMappings deletes the given mappings. This is only ever
// called for auto-created release mappings whose source iteration has
// disappeared.
func (s *SQLStore) RemoveArtifactMappings(ctx context.Context, artifactTypeID int, entries []ArtifactMapping) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("begin remove artifact mappings", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		DELETE FROM artifact_mappings
		WHERE plug_in_id = ? AND project_id = ? AND artifact_type_id = ? AND internal_id = ?`)
	if err != nil {
		return wrapDBError("prepare remove artifact mappings", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, s.plugInID, e.ProjectID, artifactTypeID, e.InternalID); err != nil {
			return wrapDBError("remove artifact mapping", err)
		}
	}
	return wrapDBError("commit remove artifact mappings", tx.Commit())
}

func (s *SQLStore) GetWatermark(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT last_sync_at FROM sync_watermarks WHERE plug_in_id = ?`, s.plugInID).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, wrapDBError("get watermark", err)
}

func (s *SQLStore) SetWatermark(ctx context.Context, rfc3339 string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_watermarks (plug_in_id, last_sync_at) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE last_sync_at = VALUES(last_sync_at)`, s.plugInID, rfc3339)
	return wrapDBError("set watermark", err)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLStore)(nil)
