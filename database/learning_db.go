package database

import (
	"database/sql"
	"fmt"
)

// SaveLearningDecision записывает решение человека по нормализованному
// вводу. Последнее решение побеждает: alias может смениться блокировкой
// и наоборот, без накопления истории в этой таблице (история ведется
// отдельно в learning_log).
func (db *ServiceDB) SaveLearningDecision(decision *LearningDecision) error {
	if decision.Status != LearningStatusAlias && decision.Status != LearningStatusBlocked {
		return fmt.Errorf("unknown learning decision status: %q", decision.Status)
	}
	// Alias без сущности не имеет смысла: подсказать будет нечего
	if decision.Status == LearningStatusAlias && decision.EntityID == nil {
		return fmt.Errorf("alias decision for %q requires entity id", decision.NormalizedInput)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var entityID sql.NullInt64
	if decision.EntityID != nil {
		entityID = sql.NullInt64{Int64: int64(*decision.EntityID), Valid: true}
	}

	_, err = tx.Exec(`
		INSERT INTO learning_decisions (entity_kind, normalized_input, input_name, status, entity_id, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(entity_kind, normalized_input) DO UPDATE SET
			input_name = excluded.input_name,
			status = excluded.status,
			entity_id = excluded.entity_id,
			updated_at = CURRENT_TIMESTAMP
	`, string(decision.EntityKind), decision.NormalizedInput, decision.InputName, decision.Status, entityID)
	if err != nil {
		return fmt.Errorf("failed to save learning decision for %q: %w", decision.NormalizedInput, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit learning decision: %w", err)
	}
	return nil
}

// GetLearningDecision возвращает текущее решение по нормализованному
// вводу; nil, если решения нет
func (db *ServiceDB) GetLearningDecision(kind EntityKind, normalizedInput string) (*LearningDecision, error) {
	row := db.conn.QueryRow(`
		SELECT entity_kind, normalized_input, input_name, status, entity_id, updated_at
		FROM learning_decisions
		WHERE entity_kind = ? AND normalized_input = ?
	`, string(kind), normalizedInput)

	var d LearningDecision
	var kindStr string
	var entityID sql.NullInt64
	var updatedAt string
	err := row.Scan(&kindStr, &d.NormalizedInput, &d.InputName, &d.Status, &entityID, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan learning decision: %w", err)
	}
	d.EntityKind = EntityKind(kindStr)
	d.EntityID = nullIntPtr(entityID)
	d.UpdatedAt = parseTimestamp(updatedAt)
	return &d, nil
}

// DeleteLearningDecision снимает ранее принятое решение
func (db *ServiceDB) DeleteLearningDecision(kind EntityKind, normalizedInput string) error {
	_, err := db.conn.Exec(`
		DELETE FROM learning_decisions WHERE entity_kind = ? AND normalized_input = ?
	`, string(kind), normalizedInput)
	if err != nil {
		return fmt.Errorf("failed to delete learning decision: %w", err)
	}
	return nil
}

// ListLearningDecisions возвращает все решения вида (для админки)
func (db *ServiceDB) ListLearningDecisions(kind EntityKind) ([]*LearningDecision, error) {
	rows, err := db.conn.Query(`
		SELECT entity_kind, normalized_input, input_name, status, entity_id, updated_at
		FROM learning_decisions
		WHERE entity_kind = ?
		ORDER BY updated_at DESC
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list learning decisions: %w", err)
	}
	defer rows.Close()

	decisions := make([]*LearningDecision, 0)
	for rows.Next() {
		var d LearningDecision
		var kindStr string
		var entityID sql.NullInt64
		var updatedAt string
		if err := rows.Scan(&kindStr, &d.NormalizedInput, &d.InputName, &d.Status, &entityID, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan learning decision: %w", err)
		}
		d.EntityKind = EntityKind(kindStr)
		d.EntityID = nullIntPtr(entityID)
		d.UpdatedAt = parseTimestamp(updatedAt)
		decisions = append(decisions, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("learning decision rows iteration failed: %w", err)
	}
	return decisions, nil
}
