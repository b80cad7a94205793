package matching

import (
	"fmt"

	"bglserver/database"
)

// RecordResolution итог одного прохода разрешения записи
type RecordResolution struct {
	RecordID         int      `json:"record_id"`
	SupplierResult   *Result  `json:"supplier_result"`
	BankResult       *Result  `json:"bank_result"`
	Conflicts        []string `json:"conflicts"`
	SupplierAccepted bool     `json:"supplier_accepted"`
	BankAccepted     bool     `json:"bank_accepted"`
}

// ResolveRecord прогоняет запись через полный цикл: генерация
// кандидатов по обеим сторонам, детекция конфликтов, попытка
// авто-принятия нерешенных сторон. Уже решенные стороны не трогаются.
func (e *Engine) ResolveRecord(recordID int) (*RecordResolution, error) {
	record, err := e.db.GetGuaranteeRecord(recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load record %d: %w", recordID, err)
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	return e.resolveRecord(record)
}

func (e *Engine) resolveRecord(record *database.GuaranteeRecord) (*RecordResolution, error) {
	supplierResult, err := e.ResolveSupplier(record.RawSupplierName)
	if err != nil {
		return nil, err
	}
	bankResult, err := e.ResolveBank(record.RawBankName)
	if err != nil {
		return nil, err
	}

	conflicts := e.DetectConflicts(supplierResult, bankResult, record.RawSupplierName, record.RawBankName)

	resolution := &RecordResolution{
		RecordID:       record.ID,
		SupplierResult: supplierResult,
		BankResult:     bankResult,
		Conflicts:      conflicts,
	}

	if record.SupplierMatchStatus == database.MatchStatusPending {
		accepted, err := e.TryAutoAcceptSupplier(record.ID, supplierResult, conflicts)
		if err != nil {
			return nil, err
		}
		resolution.SupplierAccepted = accepted
	}
	if record.BankMatchStatus == database.MatchStatusPending {
		accepted, err := e.TryAutoAcceptBank(record.ID, bankResult, conflicts)
		if err != nil {
			return nil, err
		}
		resolution.BankAccepted = accepted
	}

	// Живой результат попадает в кэш подсказок для быстрых повторных
	// запросов UI; сбой кэша не мешает разрешению
	if err := e.SaveResolvedSuggestions(database.KindSupplier, supplierResult); err != nil {
		e.logger.Error("failed to cache supplier suggestions", "record_id", record.ID, "error", err)
	}
	if err := e.SaveResolvedSuggestions(database.KindBank, bankResult); err != nil {
		e.logger.Error("failed to cache bank suggestions", "record_id", record.ID, "error", err)
	}

	return resolution, nil
}

// ResolveAllPending пересчитывает все записи с нерешенными сторонами.
// Записи независимы: ошибка одной не прерывает остальные, но попадает
// в итоговую сводку.
func (e *Engine) ResolveAllPending() ([]*RecordResolution, error) {
	records, err := e.db.ListPendingRecords()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending records: %w", err)
	}

	resolutions := make([]*RecordResolution, 0, len(records))
	var failed int
	for _, record := range records {
		resolution, err := e.resolveRecord(record)
		if err != nil {
			failed++
			e.logger.Error("record resolution failed", "record_id", record.ID, "error", err)
			continue
		}
		resolutions = append(resolutions, resolution)
	}

	if failed > 0 {
		e.logger.Warn("recalculation finished with failures",
			"total", len(records),
			"failed", failed)
	}
	return resolutions, nil
}
