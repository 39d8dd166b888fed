package repository

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteDB creates and initializes a SQLite database
func NewSQLiteDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	// Create tables
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	schema := `
	-- Users table
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		display_name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'inspector',
		api_key_hash TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_users_api_key_hash ON users(api_key_hash);

	-- Checklist items (read-only snapshot of template versions)
	CREATE TABLE IF NOT EXISTS checklist_items (
		id TEXT PRIMARY KEY,
		template_id TEXT NOT NULL,
		template_version INTEGER NOT NULL,
		text TEXT NOT NULL,
		photo_required INTEGER NOT NULL DEFAULT 0,
		sort_order INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_checklist_items_template ON checklist_items(template_id, template_version);

	-- Inspections
	CREATE TABLE IF NOT EXISTS inspections (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		building_id TEXT NOT NULL,
		space_id TEXT NOT NULL,
		inspector_id TEXT NOT NULL,
		template_id TEXT NOT NULL DEFAULT '',
		template_version INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'in_progress',
		started_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_inspections_space_status ON inspections(space_id, status);
	CREATE INDEX IF NOT EXISTS idx_inspections_building ON inspections(building_id);

	-- Responses: one answer per checklist item per inspection
	CREATE TABLE IF NOT EXISTS responses (
		inspection_id TEXT NOT NULL REFERENCES inspections(id) ON DELETE CASCADE,
		checklist_item_id TEXT NOT NULL,
		result TEXT,
		comment TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (inspection_id, checklist_item_id)
	);

	-- Ordered photo records attached to responses
	CREATE TABLE IF NOT EXISTS response_photos (
		inspection_id TEXT NOT NULL,
		checklist_item_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		stored_path TEXT NOT NULL,
		PRIMARY KEY (inspection_id, checklist_item_id, position)
	);

	-- Deficiencies derived from failed responses at completion time.
	-- UNIQUE(space_id, number) backs the retry-on-conflict numbering scheme;
	-- UNIQUE(inspection_id, checklist_item_id) keeps fan-out idempotent.
	CREATE TABLE IF NOT EXISTS deficiencies (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL,
		space_id TEXT NOT NULL,
		inspection_id TEXT NOT NULL,
		checklist_item_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		created_at DATETIME NOT NULL,
		UNIQUE (space_id, number),
		UNIQUE (inspection_id, checklist_item_id)
	);

	CREATE INDEX IF NOT EXISTS idx_deficiencies_space ON deficiencies(space_id);

	-- Remediation tasks
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		deficiency_id TEXT NOT NULL REFERENCES deficiencies(id) ON DELETE CASCADE,
		space_id TEXT NOT NULL,
		description TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT 'auto',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_deficiency ON tasks(deficiency_id);

	-- Recurring inspection schedules
	CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		space_id TEXT NOT NULL,
		frequency TEXT NOT NULL,
		anchor_weekday INTEGER NOT NULL DEFAULT 0,
		anchor_day_of_month INTEGER NOT NULL DEFAULT 1,
		time_of_day TEXT NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1,
		next_due_at DATETIME NOT NULL,
		last_triggered_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_schedules_due ON schedules(enabled, next_due_at);

	-- Report directives
	CREATE TABLE IF NOT EXISTS report_configs (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		building_id TEXT NOT NULL,
		trigger_type TEXT NOT NULL,
		cadence TEXT NOT NULL DEFAULT '',
		enabled INTEGER NOT NULL DEFAULT 1,
		last_sent_at DATETIME,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_report_configs_building ON report_configs(building_id);
	`

	_, err := db.Exec(schema)
	return err
}
