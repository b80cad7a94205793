package importer

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"bglserver/database"
	"bglserver/normalization"
)

// ImportResult сводка импорта
type ImportResult struct {
	Total     int           `json:"total"`
	Success   int           `json:"success"`
	Skipped   int           `json:"skipped"`
	Errors    []string      `json:"errors"`
	Started   time.Time     `json:"started"`
	Completed time.Time     `json:"completed"`
	Duration  time.Duration `json:"duration"`
}

// DirectoryImporter загружает справочники поставщиков и банков из .xlsx
type DirectoryImporter struct {
	db         *database.ServiceDB
	normalizer *normalization.Normalizer
}

// NewDirectoryImporter создает импортер справочников
func NewDirectoryImporter(db *database.ServiceDB) *DirectoryImporter {
	return &DirectoryImporter{
		db:         db,
		normalizer: normalization.NewNormalizer(),
	}
}

// ImportSuppliersFromFile загружает поставщиков из файла.
// Ожидаемые колонки: официальное название, отображаемое название
// (опционально). Первая строка считается заголовком.
func (di *DirectoryImporter) ImportSuppliersFromFile(path string) (*ImportResult, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer file.Close()
	return di.importSuppliers(file)
}

// ImportSuppliersFromReader загружает поставщиков из потока (upload)
func (di *DirectoryImporter) ImportSuppliersFromReader(reader io.Reader) (*ImportResult, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx stream: %w", err)
	}
	defer file.Close()
	return di.importSuppliers(file)
}

func (di *DirectoryImporter) importSuppliers(file *excelize.File) (*ImportResult, error) {
	rows, err := readFirstSheet(file)
	if err != nil {
		return nil, err
	}

	result := newImportResult(len(rows))
	for idx, row := range rows {
		officialName := cell(row, 0)
		if officialName == "" {
			result.Skipped++
			continue
		}
		displayName := cell(row, 1)

		normalized := di.normalizer.Normalize(officialName)
		if normalized == "" {
			result.Skipped++
			continue
		}

		// Повторный импорт того же файла не должен плодить дубликаты
		existing, err := di.db.GetSuppliersByNormalizedName(normalized)
		if err != nil {
			return nil, fmt.Errorf("supplier lookup failed on row %d: %w", idx+2, err)
		}
		if len(existing) > 0 {
			result.Skipped++
			continue
		}

		if _, err := di.db.SaveSupplier(officialName, displayName, normalized, true); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s: %v", idx+2, officialName, err))
			continue
		}
		result.Success++
	}

	finishImport(result, "supplier directory")
	return result, nil
}

// ImportBanksFromFile загружает банки из файла.
// Ожидаемые колонки: официальное название, отображаемое название,
// аббревиатура. Первая строка считается заголовком.
func (di *DirectoryImporter) ImportBanksFromFile(path string) (*ImportResult, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer file.Close()
	return di.importBanks(file)
}

// ImportBanksFromReader загружает банки из потока (upload)
func (di *DirectoryImporter) ImportBanksFromReader(reader io.Reader) (*ImportResult, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx stream: %w", err)
	}
	defer file.Close()
	return di.importBanks(file)
}

func (di *DirectoryImporter) importBanks(file *excelize.File) (*ImportResult, error) {
	rows, err := readFirstSheet(file)
	if err != nil {
		return nil, err
	}

	result := newImportResult(len(rows))
	for idx, row := range rows {
		officialName := cell(row, 0)
		if officialName == "" {
			result.Skipped++
			continue
		}
		displayName := cell(row, 1)
		shortCode := cell(row, 2)

		normalized := di.normalizer.Normalize(officialName)
		if normalized == "" {
			result.Skipped++
			continue
		}
		normalizedShortCode := di.normalizer.NormalizeShortCode(shortCode)

		existing, err := di.db.GetBanksByNormalizedName(normalized)
		if err != nil {
			return nil, fmt.Errorf("bank lookup failed on row %d: %w", idx+2, err)
		}
		if len(existing) > 0 {
			result.Skipped++
			continue
		}

		if _, err := di.db.SaveBank(officialName, displayName, normalized, shortCode, normalizedShortCode, true); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s: %v", idx+2, officialName, err))
			continue
		}
		result.Success++
	}

	finishImport(result, "bank directory")
	return result, nil
}

// readFirstSheet возвращает строки первого листа без заголовка
func readFirstSheet(file *excelize.File) ([][]string, error) {
	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file has no sheets")
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func newImportResult(total int) *ImportResult {
	return &ImportResult{
		Total:   total,
		Errors:  make([]string, 0),
		Started: time.Now(),
	}
}

func finishImport(result *ImportResult, what string) {
	result.Completed = time.Now()
	result.Duration = result.Completed.Sub(result.Started)
	log.Printf("Import of %s completed: %d/%d successful, %d skipped, %d errors",
		what, result.Success, result.Total, result.Skipped, len(result.Errors))
}
