package database

import (
	"database/sql"
	"fmt"
)

// SaveGuaranteeRecord создает импортированную строку и возвращает ее id
func (db *ServiceDB) SaveGuaranteeRecord(sessionID, rawSupplierName, rawBankName string) (int, error) {
	result, err := db.conn.Exec(`
		INSERT INTO guarantee_records (session_id, raw_supplier_name, raw_bank_name)
		VALUES (?, ?, ?)
	`, sessionID, rawSupplierName, rawBankName)
	if err != nil {
		return 0, fmt.Errorf("failed to save guarantee record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get record id: %w", err)
	}
	return int(id), nil
}

// GetGuaranteeRecord возвращает запись по id; nil, если не найдена
func (db *ServiceDB) GetGuaranteeRecord(id int) (*GuaranteeRecord, error) {
	row := db.conn.QueryRow(`
		SELECT id, session_id, raw_supplier_name, raw_bank_name, supplier_id, bank_id,
		       supplier_match_status, bank_match_status, supplier_decision_result, bank_decision_result,
		       created_at, updated_at
		FROM guarantee_records WHERE id = ?
	`, id)
	return scanGuaranteeRecord(row)
}

// ListGuaranteeRecords возвращает записи сессии импорта; при пустом
// sessionID — все записи
func (db *ServiceDB) ListGuaranteeRecords(sessionID string) ([]*GuaranteeRecord, error) {
	query := `
		SELECT id, session_id, raw_supplier_name, raw_bank_name, supplier_id, bank_id,
		       supplier_match_status, bank_match_status, supplier_decision_result, bank_decision_result,
		       created_at, updated_at
		FROM guarantee_records`
	args := []interface{}{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list guarantee records: %w", err)
	}
	defer rows.Close()

	records := make([]*GuaranteeRecord, 0)
	for rows.Next() {
		record, err := scanGuaranteeRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("guarantee record rows iteration failed: %w", err)
	}
	return records, nil
}

// ListPendingRecords возвращает записи, у которых хотя бы одна сторона
// (поставщик или банк) еще не разрешена
func (db *ServiceDB) ListPendingRecords() ([]*GuaranteeRecord, error) {
	rows, err := db.conn.Query(`
		SELECT id, session_id, raw_supplier_name, raw_bank_name, supplier_id, bank_id,
		       supplier_match_status, bank_match_status, supplier_decision_result, bank_decision_result,
		       created_at, updated_at
		FROM guarantee_records
		WHERE supplier_match_status = ? OR bank_match_status = ?
		ORDER BY id
	`, MatchStatusPending, MatchStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending records: %w", err)
	}
	defer rows.Close()

	records := make([]*GuaranteeRecord, 0)
	for rows.Next() {
		record, err := scanGuaranteeRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pending record rows iteration failed: %w", err)
	}
	return records, nil
}

// AssignRecordSupplier назначает записи поставщика и переводит
// сторону поставщика в статус ready. Результат решения проставляется
// отдельным вызовом SetRecordSupplierDecision.
func (db *ServiceDB) AssignRecordSupplier(recordID, supplierID int) error {
	result, err := db.conn.Exec(`
		UPDATE guarantee_records
		SET supplier_id = ?, supplier_match_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, supplierID, MatchStatusReady, recordID)
	if err != nil {
		return fmt.Errorf("failed to assign supplier to record %d: %w", recordID, err)
	}
	return checkRecordUpdated(result, recordID)
}

// AssignRecordBank назначает записи банк и переводит сторону банка в
// статус ready
func (db *ServiceDB) AssignRecordBank(recordID, bankID int) error {
	result, err := db.conn.Exec(`
		UPDATE guarantee_records
		SET bank_id = ?, bank_match_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, bankID, MatchStatusReady, recordID)
	if err != nil {
		return fmt.Errorf("failed to assign bank to record %d: %w", recordID, err)
	}
	return checkRecordUpdated(result, recordID)
}

// SetRecordSupplierDecision помечает, как была решена сторона
// поставщика: автоматически или человеком
func (db *ServiceDB) SetRecordSupplierDecision(recordID int, decisionResult string) error {
	result, err := db.conn.Exec(`
		UPDATE guarantee_records
		SET supplier_decision_result = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, decisionResult, recordID)
	if err != nil {
		return fmt.Errorf("failed to set supplier decision on record %d: %w", recordID, err)
	}
	return checkRecordUpdated(result, recordID)
}

// SetRecordBankDecision помечает, как была решена сторона банка
func (db *ServiceDB) SetRecordBankDecision(recordID int, decisionResult string) error {
	result, err := db.conn.Exec(`
		UPDATE guarantee_records
		SET bank_decision_result = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, decisionResult, recordID)
	if err != nil {
		return fmt.Errorf("failed to set bank decision on record %d: %w", recordID, err)
	}
	return checkRecordUpdated(result, recordID)
}

// ResetRecordSupplier возвращает сторону поставщика в pending
// (после пересчета при изменившемся справочнике)
func (db *ServiceDB) ResetRecordSupplier(recordID int) error {
	result, err := db.conn.Exec(`
		UPDATE guarantee_records
		SET supplier_id = NULL, supplier_match_status = ?, supplier_decision_result = '',
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, MatchStatusPending, recordID)
	if err != nil {
		return fmt.Errorf("failed to reset supplier on record %d: %w", recordID, err)
	}
	return checkRecordUpdated(result, recordID)
}

// ResetRecordBank возвращает сторону банка в pending
func (db *ServiceDB) ResetRecordBank(recordID int) error {
	result, err := db.conn.Exec(`
		UPDATE guarantee_records
		SET bank_id = NULL, bank_match_status = ?, bank_decision_result = '',
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, MatchStatusPending, recordID)
	if err != nil {
		return fmt.Errorf("failed to reset bank on record %d: %w", recordID, err)
	}
	return checkRecordUpdated(result, recordID)
}

func checkRecordUpdated(result sql.Result, recordID int) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("guarantee record %d not found", recordID)
	}
	return nil
}

func scanGuaranteeRecord(row rowScanner) (*GuaranteeRecord, error) {
	var r GuaranteeRecord
	var supplierID, bankID sql.NullInt64
	var supplierDecision, bankDecision sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&r.ID, &r.SessionID, &r.RawSupplierName, &r.RawBankName, &supplierID, &bankID,
		&r.SupplierMatchStatus, &r.BankMatchStatus, &supplierDecision, &bankDecision,
		&createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan guarantee record: %w", err)
	}
	r.SupplierID = nullIntPtr(supplierID)
	r.BankID = nullIntPtr(bankID)
	r.SupplierDecisionResult = nullString(supplierDecision)
	r.BankDecisionResult = nullString(bankDecision)
	r.CreatedAt = parseTimestamp(createdAt)
	r.UpdatedAt = parseTimestamp(updatedAt)
	return &r, nil
}
