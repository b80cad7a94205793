package importer

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"bglserver/database"
	"bglserver/matching"
)

// RecordImportResult сводка импорта записей с итогами авто-принятия
type RecordImportResult struct {
	SessionID        string        `json:"session_id"`
	Total            int           `json:"total"`
	Imported         int           `json:"imported"`
	Skipped          int           `json:"skipped"`
	SupplierAccepted int           `json:"supplier_accepted"`
	BankAccepted     int           `json:"bank_accepted"`
	Conflicted       int           `json:"conflicted"`
	Errors           []string      `json:"errors"`
	Started          time.Time     `json:"started"`
	Completed        time.Time     `json:"completed"`
	Duration         time.Duration `json:"duration"`
}

// RecordImporter загружает строки с сырыми названиями поставщика и банка
// и сразу прогоняет каждую через цикл разрешения
type RecordImporter struct {
	db     *database.ServiceDB
	engine *matching.Engine
}

// NewRecordImporter создает импортер записей
func NewRecordImporter(db *database.ServiceDB, engine *matching.Engine) *RecordImporter {
	return &RecordImporter{db: db, engine: engine}
}

// ImportFromFile загружает записи из файла.
// Ожидаемые колонки: название поставщика, название банка. Первая
// строка считается заголовком.
func (ri *RecordImporter) ImportFromFile(path string) (*RecordImportResult, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer file.Close()
	return ri.importRecords(file)
}

// ImportFromReader загружает записи из потока (upload)
func (ri *RecordImporter) ImportFromReader(reader io.Reader) (*RecordImportResult, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx stream: %w", err)
	}
	defer file.Close()
	return ri.importRecords(file)
}

func (ri *RecordImporter) importRecords(file *excelize.File) (*RecordImportResult, error) {
	rows, err := readFirstSheet(file)
	if err != nil {
		return nil, err
	}

	result := &RecordImportResult{
		SessionID: uuid.New().String(),
		Total:     len(rows),
		Errors:    make([]string, 0),
		Started:   time.Now(),
	}

	for idx, row := range rows {
		rawSupplierName := cell(row, 0)
		rawBankName := cell(row, 1)
		if rawSupplierName == "" && rawBankName == "" {
			result.Skipped++
			continue
		}

		recordID, err := ri.db.SaveGuaranteeRecord(result.SessionID, rawSupplierName, rawBankName)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", idx+2, err))
			continue
		}
		result.Imported++

		// Сразу после импорта: кандидаты, конфликты, авто-принятие
		resolution, err := ri.engine.ResolveRecord(recordID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: resolution failed: %v", idx+2, err))
			continue
		}
		if resolution.SupplierAccepted {
			result.SupplierAccepted++
		}
		if resolution.BankAccepted {
			result.BankAccepted++
		}
		if len(resolution.Conflicts) > 0 {
			result.Conflicted++
		}
	}

	result.Completed = time.Now()
	result.Duration = result.Completed.Sub(result.Started)
	log.Printf("Record import %s completed: %d/%d imported, %d supplier auto-accepts, %d bank auto-accepts, %d conflicted",
		result.SessionID, result.Imported, result.Total,
		result.SupplierAccepted, result.BankAccepted, result.Conflicted)
	return result, nil
}
