package database

import (
	"fmt"
	"strings"
)

// RunMigrations приводит схему к актуальному состоянию. Выполняется один
// раз при старте процесса, а не лениво из методов запросов: вся схема
// видна в одном месте, и повторный запуск безопасен.
func (db *ServiceDB) RunMigrations() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS suppliers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			official_name TEXT NOT NULL,
			display_name TEXT DEFAULT '',
			normalized_name TEXT NOT NULL,
			confirmed INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_suppliers_normalized_name ON suppliers(normalized_name)`,

		`CREATE TABLE IF NOT EXISTS banks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			official_name TEXT NOT NULL,
			display_name TEXT DEFAULT '',
			normalized_name TEXT NOT NULL,
			short_code TEXT DEFAULT '',
			normalized_short_code TEXT DEFAULT '',
			confirmed INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_banks_normalized_name ON banks(normalized_name)`,
		`CREATE INDEX IF NOT EXISTS idx_banks_normalized_short_code ON banks(normalized_short_code)`,

		`CREATE TABLE IF NOT EXISTS alternative_names (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entity_kind TEXT NOT NULL,
			entity_id INTEGER NOT NULL,
			raw_name TEXT NOT NULL,
			normalized_raw_name TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT 'manual',
			occurrence_count INTEGER NOT NULL DEFAULT 1,
			last_seen_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(entity_kind, entity_id, normalized_raw_name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alternative_names_lookup ON alternative_names(entity_kind, normalized_raw_name)`,

		`CREATE TABLE IF NOT EXISTS overrides (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entity_kind TEXT NOT NULL,
			entity_id INTEGER NOT NULL,
			override_name TEXT NOT NULL,
			normalized_override TEXT NOT NULL,
			notes TEXT DEFAULT '',
			UNIQUE(entity_kind, normalized_override)
		)`,

		`CREATE TABLE IF NOT EXISTS learning_decisions (
			entity_kind TEXT NOT NULL,
			normalized_input TEXT NOT NULL,
			input_name TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			entity_id INTEGER,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (entity_kind, normalized_input)
		)`,

		`CREATE TABLE IF NOT EXISTS suggestion_cache (
			entity_kind TEXT NOT NULL,
			normalized_input TEXT NOT NULL,
			entity_id INTEGER NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT 'dictionary',
			fuzzy_score REAL NOT NULL DEFAULT 0,
			source_weight INTEGER NOT NULL DEFAULT 0,
			usage_count INTEGER NOT NULL DEFAULT 0,
			total_score REAL NOT NULL DEFAULT 0,
			star_rating INTEGER NOT NULL DEFAULT 1,
			last_updated TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (entity_kind, normalized_input, entity_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestion_cache_input ON suggestion_cache(entity_kind, normalized_input, total_score)`,

		`CREATE TABLE IF NOT EXISTS guarantee_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL DEFAULT '',
			raw_supplier_name TEXT NOT NULL DEFAULT '',
			raw_bank_name TEXT NOT NULL DEFAULT '',
			supplier_id INTEGER,
			bank_id INTEGER,
			supplier_match_status TEXT NOT NULL DEFAULT 'pending',
			bank_match_status TEXT NOT NULL DEFAULT 'pending',
			supplier_decision_result TEXT DEFAULT '',
			bank_decision_result TEXT DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_guarantee_records_session ON guarantee_records(session_id)`,

		`CREATE TABLE IF NOT EXISTS learning_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entity_kind TEXT NOT NULL,
			record_id INTEGER,
			raw_input TEXT NOT NULL DEFAULT '',
			normalized_input TEXT NOT NULL DEFAULT '',
			entity_id INTEGER,
			decision_result TEXT NOT NULL,
			candidate_source TEXT NOT NULL DEFAULT '',
			score_raw REAL NOT NULL DEFAULT 0,
			score_weighted REAL NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_learning_log_record ON learning_log(record_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.conn.Exec(migration); err != nil {
			errStr := strings.ToLower(err.Error())
			// Повторный прогон на старой базе: дубликаты колонок и
			// индексов не считаются ошибкой
			if !strings.Contains(errStr, "duplicate column") &&
				!strings.Contains(errStr, "already exists") &&
				!strings.Contains(errStr, "duplicate index") {
				return fmt.Errorf("migration failed: %s, error: %w", migration, err)
			}
		}
	}

	return nil
}
