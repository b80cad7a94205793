package database

import (
	"database/sql"
	"fmt"
)

// HasSuggestions проверяет наличие кэша подсказок для нормализованного
// ввода без выборки самих строк
func (db *ServiceDB) HasSuggestions(kind EntityKind, normalizedInput string) (bool, error) {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM suggestion_cache
		WHERE entity_kind = ? AND normalized_input = ?
	`, string(kind), normalizedInput).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count suggestions: %w", err)
	}
	return count > 0, nil
}

// GetSuggestions возвращает кэшированные подсказки, отсортированные по
// итоговому баллу; при равенстве баллов порядок стабилен по id сущности
func (db *ServiceDB) GetSuggestions(kind EntityKind, normalizedInput string) ([]*SuggestionRow, error) {
	rows, err := db.conn.Query(`
		SELECT entity_kind, normalized_input, entity_id, display_name, source,
		       fuzzy_score, source_weight, usage_count, total_score, star_rating, last_updated
		FROM suggestion_cache
		WHERE entity_kind = ? AND normalized_input = ?
		ORDER BY total_score DESC, entity_id ASC
	`, string(kind), normalizedInput)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	suggestions := make([]*SuggestionRow, 0)
	for rows.Next() {
		suggestion, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, suggestion)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("suggestion rows iteration failed: %w", err)
	}
	return suggestions, nil
}

// UpsertSuggestion сохраняет строку кэша. Итоговый балл и звезды
// пересчитываются вызывающей стороной и передаются готовыми: формула
// живет в одном месте, а не размазана между Go и SQL.
func (db *ServiceDB) UpsertSuggestion(row *SuggestionRow) error {
	_, err := db.conn.Exec(`
		INSERT INTO suggestion_cache (entity_kind, normalized_input, entity_id, display_name, source,
			fuzzy_score, source_weight, usage_count, total_score, star_rating, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(entity_kind, normalized_input, entity_id) DO UPDATE SET
			display_name = excluded.display_name,
			source = excluded.source,
			fuzzy_score = excluded.fuzzy_score,
			source_weight = excluded.source_weight,
			usage_count = excluded.usage_count,
			total_score = excluded.total_score,
			star_rating = excluded.star_rating,
			last_updated = CURRENT_TIMESTAMP
	`, string(row.EntityKind), row.NormalizedInput, row.EntityID, row.DisplayName, row.Source,
		row.FuzzyScore, row.SourceWeight, row.UsageCount, row.TotalScore, row.StarRating)
	if err != nil {
		return fmt.Errorf("failed to upsert suggestion for %q: %w", row.NormalizedInput, err)
	}
	return nil
}

// GetSuggestion возвращает одну строку кэша; nil, если ее нет
func (db *ServiceDB) GetSuggestion(kind EntityKind, normalizedInput string, entityID int) (*SuggestionRow, error) {
	row := db.conn.QueryRow(`
		SELECT entity_kind, normalized_input, entity_id, display_name, source,
		       fuzzy_score, source_weight, usage_count, total_score, star_rating, last_updated
		FROM suggestion_cache
		WHERE entity_kind = ? AND normalized_input = ? AND entity_id = ?
	`, string(kind), normalizedInput, entityID)
	suggestion, err := scanSuggestion(row)
	if err != nil {
		return nil, err
	}
	return suggestion, nil
}

// RecordSuggestionSelection фиксирует выбор подсказки одной транзакцией:
// существующая строка получает +1 к счетчику, отсутствующая вставляется
// из seed как есть. Балл и звезды пересчитываются через recompute по
// счетчику после инкремента, не выходя из транзакции: параллельные
// выборы не теряют инкременты и не оставляют балл от устаревшего
// счетчика. Возвращает счетчик после инкремента.
func (db *ServiceDB) RecordSuggestionSelection(seed *SuggestionRow, recompute func(fuzzyScore float64, sourceWeight, usageCount int) (totalScore float64, starRating int)) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Вставка-или-инкремент: существующая строка сохраняет свой
	// источник и схожесть, меняется только счетчик
	_, err = tx.Exec(`
		INSERT INTO suggestion_cache (entity_kind, normalized_input, entity_id, display_name, source,
			fuzzy_score, source_weight, usage_count, total_score, star_rating, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(entity_kind, normalized_input, entity_id) DO UPDATE SET
			usage_count = usage_count + 1,
			last_updated = CURRENT_TIMESTAMP
	`, string(seed.EntityKind), seed.NormalizedInput, seed.EntityID, seed.DisplayName, seed.Source,
		seed.FuzzyScore, seed.SourceWeight, seed.UsageCount, seed.TotalScore, seed.StarRating)
	if err != nil {
		return 0, fmt.Errorf("failed to record suggestion selection for %q: %w", seed.NormalizedInput, err)
	}

	var fuzzyScore float64
	var sourceWeight, usageCount int
	err = tx.QueryRow(`
		SELECT fuzzy_score, source_weight, usage_count FROM suggestion_cache
		WHERE entity_kind = ? AND normalized_input = ? AND entity_id = ?
	`, string(seed.EntityKind), seed.NormalizedInput, seed.EntityID).Scan(&fuzzyScore, &sourceWeight, &usageCount)
	if err != nil {
		return 0, fmt.Errorf("failed to read suggestion after selection: %w", err)
	}

	totalScore, starRating := recompute(fuzzyScore, sourceWeight, usageCount)
	_, err = tx.Exec(`
		UPDATE suggestion_cache
		SET total_score = ?, star_rating = ?
		WHERE entity_kind = ? AND normalized_input = ? AND entity_id = ?
	`, totalScore, starRating, string(seed.EntityKind), seed.NormalizedInput, seed.EntityID)
	if err != nil {
		return 0, fmt.Errorf("failed to update suggestion score: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit suggestion selection: %w", err)
	}
	return usageCount, nil
}

// ClearSuggestions инвалидирует кэш по нормализованному вводу
func (db *ServiceDB) ClearSuggestions(kind EntityKind, normalizedInput string) error {
	_, err := db.conn.Exec(`
		DELETE FROM suggestion_cache WHERE entity_kind = ? AND normalized_input = ?
	`, string(kind), normalizedInput)
	if err != nil {
		return fmt.Errorf("failed to clear suggestions: %w", err)
	}
	return nil
}

// ClearAllSuggestions полностью сбрасывает кэш подсказок вида
// (после массового изменения справочника)
func (db *ServiceDB) ClearAllSuggestions(kind EntityKind) error {
	_, err := db.conn.Exec(`DELETE FROM suggestion_cache WHERE entity_kind = ?`, string(kind))
	if err != nil {
		return fmt.Errorf("failed to clear suggestion cache: %w", err)
	}
	return nil
}

func scanSuggestion(row rowScanner) (*SuggestionRow, error) {
	var s SuggestionRow
	var kindStr string
	var lastUpdated string
	err := row.Scan(&kindStr, &s.NormalizedInput, &s.EntityID, &s.DisplayName, &s.Source,
		&s.FuzzyScore, &s.SourceWeight, &s.UsageCount, &s.TotalScore, &s.StarRating, &lastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan suggestion: %w", err)
	}
	s.EntityKind = EntityKind(kindStr)
	s.LastUpdated = parseTimestamp(lastUpdated)
	return &s, nil
}
