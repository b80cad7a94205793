package database

import (
	"database/sql"
	"fmt"
)

// AppendLearningLog добавляет строку в журнал решений. Журнал только
// растет: правки и удаления не предусмотрены.
func (db *ServiceDB) AppendLearningLog(entry *LearningLogEntry) error {
	var recordID, entityID sql.NullInt64
	if entry.RecordID != nil {
		recordID = sql.NullInt64{Int64: int64(*entry.RecordID), Valid: true}
	}
	if entry.EntityID != nil {
		entityID = sql.NullInt64{Int64: int64(*entry.EntityID), Valid: true}
	}

	_, err := db.conn.Exec(`
		INSERT INTO learning_log (entity_kind, record_id, raw_input, normalized_input, entity_id,
			decision_result, candidate_source, score_raw, score_weighted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, string(entry.EntityKind), recordID, entry.RawInput, entry.NormalizedInput, entityID,
		entry.DecisionResult, entry.CandidateSource, entry.ScoreRaw, entry.ScoreWeighted)
	if err != nil {
		return fmt.Errorf("failed to append learning log: %w", err)
	}
	return nil
}

// ListLearningLog возвращает журнал решений, новые записи первыми
func (db *ServiceDB) ListLearningLog(kind EntityKind, limit int) ([]*LearningLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.Query(`
		SELECT id, entity_kind, record_id, raw_input, normalized_input, entity_id,
		       decision_result, candidate_source, score_raw, score_weighted, created_at
		FROM learning_log
		WHERE entity_kind = ?
		ORDER BY id DESC
		LIMIT ?
	`, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list learning log: %w", err)
	}
	defer rows.Close()

	entries := make([]*LearningLogEntry, 0)
	for rows.Next() {
		var e LearningLogEntry
		var kindStr string
		var recordID, entityID sql.NullInt64
		var createdAt string
		if err := rows.Scan(&e.ID, &kindStr, &recordID, &e.RawInput, &e.NormalizedInput, &entityID,
			&e.DecisionResult, &e.CandidateSource, &e.ScoreRaw, &e.ScoreWeighted, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan learning log entry: %w", err)
		}
		e.EntityKind = EntityKind(kindStr)
		e.RecordID = nullIntPtr(recordID)
		e.EntityID = nullIntPtr(entityID)
		e.CreatedAt = parseTimestamp(createdAt)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("learning log rows iteration failed: %w", err)
	}
	return entries, nil
}
