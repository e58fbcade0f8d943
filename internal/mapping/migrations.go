package mapping

import "database/sql"

// migrateSchema creates the mapping store's tables if they do not already
// exist. Unlike internal/storage/sqlite/migrations (which evolves one
// growing SQLite schema across many releases), this store's schema is
// small and fixed, so a single idempotent CREATE-TABLE-IF-NOT-EXISTS pass
// is sufficient; the pattern of one function per concern is kept for
// consistency with that package.
func migrateSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS artifact_mappings (
			plug_in_id INT NOT NULL,
			project_id INT NOT NULL,
			artifact_type_id INT NOT NULL,
			internal_id INT NOT NULL,
			external_key VARCHAR(255) NOT NULL,
			is_primary BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (plug_in_id, project_id, artifact_type_id, internal_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_artifact_mappings_external
			ON artifact_mappings (plug_in_id, project_id, artifact_type_id, external_key)`,
		`CREATE TABLE IF NOT EXISTS field_value_mappings (
			plug_in_id INT NOT NULL,
			artifact_field_id INT NOT NULL,
			internal_value VARCHAR(255) NOT NULL,
			external_value VARCHAR(255) NOT NULL,
			PRIMARY KEY (plug_in_id, artifact_field_id, internal_value)
		)`,
		`CREATE TABLE IF NOT EXISTS custom_property_mappings (
			plug_in_id INT NOT NULL,
			artifact_type_id INT NOT NULL,
			custom_property_id INT NOT NULL,
			external_field_name VARCHAR(255) NOT NULL,
			PRIMARY KEY (plug_in_id, artifact_type_id, custom_property_id)
		)`,
		`CREATE TABLE IF NOT EXISTS custom_property_value_mappings (
			plug_in_id INT NOT NULL,
			artifact_type_id INT NOT NULL,
			custom_property_id INT NOT NULL,
			internal_value VARCHAR(255) NOT NULL,
			external_value VARCHAR(255) NOT NULL,
			PRIMARY KEY (plug_in_id, artifact_type_id, custom_property_id, internal_value)
		)`,
		`CREATE TABLE IF NOT EXISTS user_mappings (
			plug_in_id INT NOT NULL,
			internal_user_id INT NOT NULL,
			external_display_name VARCHAR(255) NOT NULL,
			PRIMARY KEY (plug_in_id, internal_user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS sync_watermarks (
			plug_in_id INT NOT NULL PRIMARY KEY,
			last_sync_at VARCHAR(64) NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return wrapDBError("migrate mapping schema", err)
		}
	}
	return nil
}
