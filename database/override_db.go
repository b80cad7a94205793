package database

import (
	"database/sql"
	"fmt"
)

// SaveOverride создает или заменяет кураторское сопоставление.
// На пару (kind, normalized_override) допускается одна запись: повторное
// сохранение перенаправляет ввод на другую сущность.
func (db *ServiceDB) SaveOverride(kind EntityKind, entityID int, overrideName, normalizedOverride, notes string) error {
	_, err := db.conn.Exec(`
		INSERT INTO overrides (entity_kind, entity_id, override_name, normalized_override, notes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(entity_kind, normalized_override) DO UPDATE SET
			entity_id = excluded.entity_id,
			override_name = excluded.override_name,
			notes = excluded.notes
	`, string(kind), entityID, overrideName, normalizedOverride, notes)
	if err != nil {
		return fmt.Errorf("failed to save override %q: %w", overrideName, err)
	}
	return nil
}

// GetOverrideByNormalized возвращает кураторское сопоставление для
// нормализованного ввода; nil, если его нет
func (db *ServiceDB) GetOverrideByNormalized(kind EntityKind, normalizedInput string) (*Override, error) {
	row := db.conn.QueryRow(`
		SELECT id, entity_kind, entity_id, override_name, normalized_override, notes
		FROM overrides
		WHERE entity_kind = ? AND normalized_override = ?
	`, string(kind), normalizedInput)

	var o Override
	var kindStr string
	var notes sql.NullString
	err := row.Scan(&o.ID, &kindStr, &o.EntityID, &o.OverrideName, &o.NormalizedOverride, &notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan override: %w", err)
	}
	o.EntityKind = EntityKind(kindStr)
	o.Notes = nullString(notes)
	return &o, nil
}

// DeleteOverride удаляет кураторское сопоставление
func (db *ServiceDB) DeleteOverride(kind EntityKind, normalizedOverride string) error {
	_, err := db.conn.Exec(`
		DELETE FROM overrides WHERE entity_kind = ? AND normalized_override = ?
	`, string(kind), normalizedOverride)
	if err != nil {
		return fmt.Errorf("failed to delete override: %w", err)
	}
	return nil
}

// ListOverrides возвращает все кураторские сопоставления вида
func (db *ServiceDB) ListOverrides(kind EntityKind) ([]*Override, error) {
	rows, err := db.conn.Query(`
		SELECT id, entity_kind, entity_id, override_name, normalized_override, notes
		FROM overrides WHERE entity_kind = ?
		ORDER BY id
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	defer rows.Close()

	overrides := make([]*Override, 0)
	for rows.Next() {
		var o Override
		var kindStr string
		var notes sql.NullString
		if err := rows.Scan(&o.ID, &kindStr, &o.EntityID, &o.OverrideName, &o.NormalizedOverride, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		o.EntityKind = EntityKind(kindStr)
		o.Notes = nullString(notes)
		overrides = append(overrides, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("override rows iteration failed: %w", err)
	}
	return overrides, nil
}
