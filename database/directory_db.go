package database

import (
	"database/sql"
	"fmt"
)

// SaveSupplier создает запись справочника поставщиков и возвращает ее id
func (db *ServiceDB) SaveSupplier(officialName, displayName, normalizedName string, confirmed bool) (int, error) {
	result, err := db.conn.Exec(`
		INSERT INTO suppliers (official_name, display_name, normalized_name, confirmed)
		VALUES (?, ?, ?, ?)
	`, officialName, displayName, normalizedName, boolToInt(confirmed))
	if err != nil {
		return 0, fmt.Errorf("failed to save supplier %q: %w", officialName, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get supplier id: %w", err)
	}
	return int(id), nil
}

// GetSupplier возвращает поставщика по id; nil, если не найден
func (db *ServiceDB) GetSupplier(id int) (*Supplier, error) {
	row := db.conn.QueryRow(`
		SELECT id, official_name, display_name, normalized_name, confirmed, created_at
		FROM suppliers WHERE id = ?
	`, id)
	return scanSupplier(row)
}

// GetSuppliersByNormalizedName возвращает поставщиков с точным совпадением
// нормализованного названия
func (db *ServiceDB) GetSuppliersByNormalizedName(normalizedName string) ([]*Supplier, error) {
	rows, err := db.conn.Query(`
		SELECT id, official_name, display_name, normalized_name, confirmed, created_at
		FROM suppliers WHERE normalized_name = ?
		ORDER BY id
	`, normalizedName)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers by normalized name: %w", err)
	}
	defer rows.Close()
	return collectSuppliers(rows)
}

// ListSuppliers возвращает весь справочник поставщиков (для fuzzy-прохода)
func (db *ServiceDB) ListSuppliers() ([]*Supplier, error) {
	rows, err := db.conn.Query(`
		SELECT id, official_name, display_name, normalized_name, confirmed, created_at
		FROM suppliers ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()
	return collectSuppliers(rows)
}

// SaveBank создает запись справочника банков и возвращает ее id
func (db *ServiceDB) SaveBank(officialName, displayName, normalizedName, shortCode, normalizedShortCode string, confirmed bool) (int, error) {
	result, err := db.conn.Exec(`
		INSERT INTO banks (official_name, display_name, normalized_name, short_code, normalized_short_code, confirmed)
		VALUES (?, ?, ?, ?, ?, ?)
	`, officialName, displayName, normalizedName, shortCode, normalizedShortCode, boolToInt(confirmed))
	if err != nil {
		return 0, fmt.Errorf("failed to save bank %q: %w", officialName, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get bank id: %w", err)
	}
	return int(id), nil
}

// GetBank возвращает банк по id; nil, если не найден
func (db *ServiceDB) GetBank(id int) (*Bank, error) {
	row := db.conn.QueryRow(`
		SELECT id, official_name, display_name, normalized_name, short_code, normalized_short_code, confirmed, created_at
		FROM banks WHERE id = ?
	`, id)
	return scanBank(row)
}

// GetBanksByNormalizedName возвращает банки с точным совпадением
// нормализованного названия
func (db *ServiceDB) GetBanksByNormalizedName(normalizedName string) ([]*Bank, error) {
	rows, err := db.conn.Query(`
		SELECT id, official_name, display_name, normalized_name, short_code, normalized_short_code, confirmed, created_at
		FROM banks WHERE normalized_name = ?
		ORDER BY id
	`, normalizedName)
	if err != nil {
		return nil, fmt.Errorf("failed to query banks by normalized name: %w", err)
	}
	defer rows.Close()
	return collectBanks(rows)
}

// GetBanksByShortCode возвращает банки с точным совпадением аббревиатуры
func (db *ServiceDB) GetBanksByShortCode(normalizedShortCode string) ([]*Bank, error) {
	rows, err := db.conn.Query(`
		SELECT id, official_name, display_name, normalized_name, short_code, normalized_short_code, confirmed, created_at
		FROM banks WHERE normalized_short_code = ? AND normalized_short_code != ''
		ORDER BY id
	`, normalizedShortCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query banks by short code: %w", err)
	}
	defer rows.Close()
	return collectBanks(rows)
}

// ListBanks возвращает весь справочник банков
func (db *ServiceDB) ListBanks() ([]*Bank, error) {
	rows, err := db.conn.Query(`
		SELECT id, official_name, display_name, normalized_name, short_code, normalized_short_code, confirmed, created_at
		FROM banks ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list banks: %w", err)
	}
	defer rows.Close()
	return collectBanks(rows)
}

// SaveAlternativeName сохраняет подтвержденный вариант написания.
// Повторное подтверждение того же варианта увеличивает счетчик
// встречаемости, а не создает дубликат.
func (db *ServiceDB) SaveAlternativeName(kind EntityKind, entityID int, rawName, normalizedRawName, source string) error {
	_, err := db.conn.Exec(`
		INSERT INTO alternative_names (entity_kind, entity_id, raw_name, normalized_raw_name, source, occurrence_count, last_seen_at)
		VALUES (?, ?, ?, ?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT(entity_kind, entity_id, normalized_raw_name) DO UPDATE SET
			occurrence_count = occurrence_count + 1,
			last_seen_at = CURRENT_TIMESTAMP
	`, string(kind), entityID, rawName, normalizedRawName, source)
	if err != nil {
		return fmt.Errorf("failed to save alternative name %q: %w", rawName, err)
	}
	return nil
}

// GetAlternativeNamesByNormalized возвращает альтернативные названия с
// точным совпадением нормализованной формы
func (db *ServiceDB) GetAlternativeNamesByNormalized(kind EntityKind, normalizedRawName string) ([]*AlternativeName, error) {
	rows, err := db.conn.Query(`
		SELECT id, entity_kind, entity_id, raw_name, normalized_raw_name, source, occurrence_count, last_seen_at
		FROM alternative_names
		WHERE entity_kind = ? AND normalized_raw_name = ?
		ORDER BY entity_id
	`, string(kind), normalizedRawName)
	if err != nil {
		return nil, fmt.Errorf("failed to query alternative names: %w", err)
	}
	defer rows.Close()
	return collectAlternativeNames(rows)
}

// ListAlternativeNames возвращает все альтернативные названия вида
// (для fuzzy-прохода)
func (db *ServiceDB) ListAlternativeNames(kind EntityKind) ([]*AlternativeName, error) {
	rows, err := db.conn.Query(`
		SELECT id, entity_kind, entity_id, raw_name, normalized_raw_name, source, occurrence_count, last_seen_at
		FROM alternative_names
		WHERE entity_kind = ?
		ORDER BY entity_id
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list alternative names: %w", err)
	}
	defer rows.Close()
	return collectAlternativeNames(rows)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSupplier(row rowScanner) (*Supplier, error) {
	var s Supplier
	var displayName sql.NullString
	var confirmed int
	var createdAt string
	err := row.Scan(&s.ID, &s.OfficialName, &displayName, &s.NormalizedName, &confirmed, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan supplier: %w", err)
	}
	s.DisplayName = nullString(displayName)
	s.Confirmed = confirmed != 0
	s.CreatedAt = parseTimestamp(createdAt)
	return &s, nil
}

func collectSuppliers(rows *sql.Rows) ([]*Supplier, error) {
	suppliers := make([]*Supplier, 0)
	for rows.Next() {
		supplier, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, supplier)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("supplier rows iteration failed: %w", err)
	}
	return suppliers, nil
}

func scanBank(row rowScanner) (*Bank, error) {
	var b Bank
	var displayName, shortCode, normalizedShortCode sql.NullString
	var confirmed int
	var createdAt string
	err := row.Scan(&b.ID, &b.OfficialName, &displayName, &b.NormalizedName, &shortCode, &normalizedShortCode, &confirmed, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan bank: %w", err)
	}
	b.DisplayName = nullString(displayName)
	b.ShortCode = nullString(shortCode)
	b.NormalizedShortCode = nullString(normalizedShortCode)
	b.Confirmed = confirmed != 0
	b.CreatedAt = parseTimestamp(createdAt)
	return &b, nil
}

func collectBanks(rows *sql.Rows) ([]*Bank, error) {
	banks := make([]*Bank, 0)
	for rows.Next() {
		bank, err := scanBank(rows)
		if err != nil {
			return nil, err
		}
		banks = append(banks, bank)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bank rows iteration failed: %w", err)
	}
	return banks, nil
}

func scanAlternativeName(row rowScanner) (*AlternativeName, error) {
	var a AlternativeName
	var kind string
	var lastSeenAt string
	err := row.Scan(&a.ID, &kind, &a.EntityID, &a.RawName, &a.NormalizedRawName, &a.Source, &a.OccurrenceCount, &lastSeenAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan alternative name: %w", err)
	}
	a.EntityKind = EntityKind(kind)
	a.LastSeenAt = parseTimestamp(lastSeenAt)
	return &a, nil
}

func collectAlternativeNames(rows *sql.Rows) ([]*AlternativeName, error) {
	names := make([]*AlternativeName, 0)
	for rows.Next() {
		name, err := scanAlternativeName(rows)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("alternative name rows iteration failed: %w", err)
	}
	return names, nil
}
