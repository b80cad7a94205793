package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"bglserver/database"
	"bglserver/importer"
	"bglserver/matching"
	apperrors "bglserver/server/errors"
)

// ImportHandler обработчики загрузки .xlsx файлов
type ImportHandler struct {
	directoryImporter *importer.DirectoryImporter
	recordImporter    *importer.RecordImporter
}

// NewImportHandler создает обработчик импорта
func NewImportHandler(db *database.ServiceDB, engine *matching.Engine) *ImportHandler {
	return &ImportHandler{
		directoryImporter: importer.NewDirectoryImporter(db),
		recordImporter:    importer.NewRecordImporter(db, engine),
	}
}

// openUploadedFile достает файл из multipart формы
func openUploadedFile(c *gin.Context) (io.ReadCloser, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		appErr := apperrors.NewValidationError("файл не найден в форме (поле 'file')", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return nil, false
	}
	file, err := fileHeader.Open()
	if err != nil {
		appErr := apperrors.NewInternalError("не удалось открыть загруженный файл", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return nil, false
	}
	return file, true
}

// HandleImportSuppliersGin импорт справочника поставщиков
// @Summary Импортировать справочник поставщиков
// @Description Загружает .xlsx с колонками: официальное название, отображаемое название
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Файл .xlsx"
// @Success 200 {object} importer.ImportResult "Сводка импорта"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /import/suppliers [post]
func (h *ImportHandler) HandleImportSuppliersGin(c *gin.Context) {
	file, ok := openUploadedFile(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.directoryImporter.ImportSuppliersFromReader(file)
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка импорта поставщиков", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	SendJSONResponse(c, http.StatusOK, result)
}

// HandleImportBanksGin импорт справочника банков
// @Summary Импортировать справочник банков
// @Description Загружает .xlsx с колонками: официальное название, отображаемое название, аббревиатура
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Файл .xlsx"
// @Success 200 {object} importer.ImportResult "Сводка импорта"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /import/banks [post]
func (h *ImportHandler) HandleImportBanksGin(c *gin.Context) {
	file, ok := openUploadedFile(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.directoryImporter.ImportBanksFromReader(file)
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка импорта банков", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	SendJSONResponse(c, http.StatusOK, result)
}

// HandleImportRecordsGin импорт записей с немедленным разрешением
// @Summary Импортировать записи
// @Description Загружает .xlsx с колонками: название поставщика, название банка; каждая строка сразу проходит цикл разрешения
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Файл .xlsx"
// @Success 200 {object} importer.RecordImportResult "Сводка импорта"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /import/records [post]
func (h *ImportHandler) HandleImportRecordsGin(c *gin.Context) {
	file, ok := openUploadedFile(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.recordImporter.ImportFromReader(file)
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка импорта записей", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	SendJSONResponse(c, http.StatusOK, result)
}
