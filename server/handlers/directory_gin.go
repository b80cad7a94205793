package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bglserver/database"
	"bglserver/matching"
	apperrors "bglserver/server/errors"
)

// DirectoryHandler обработчики администрирования справочников
type DirectoryHandler struct {
	engine *matching.Engine
	db     *database.ServiceDB
}

// NewDirectoryHandler создает обработчик справочников
func NewDirectoryHandler(engine *matching.Engine, db *database.ServiceDB) *DirectoryHandler {
	return &DirectoryHandler{engine: engine, db: db}
}

// SupplierRequest создание поставщика
type SupplierRequest struct {
	OfficialName string `json:"official_name" binding:"required"`
	DisplayName  string `json:"display_name"`
}

// HandleCreateSupplierGin создание поставщика
// @Summary Создать поставщика
// @Description Добавляет каноническую запись в справочник поставщиков
// @Tags directory
// @Accept json
// @Produce json
// @Param request body SupplierRequest true "Поставщик"
// @Success 201 {object} database.Supplier "Созданная запись"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /directory/suppliers [post]
func (h *DirectoryHandler) HandleCreateSupplierGin(c *gin.Context) {
	var req SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewValidationError("неверный формат тела запроса", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	normalized := h.engine.Normalizer().Normalize(req.OfficialName)
	if normalized == "" {
		SendJSONError(c, http.StatusBadRequest, "official_name normalizes to empty string")
		return
	}

	id, err := h.db.SaveSupplier(req.OfficialName, req.DisplayName, normalized, true)
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка создания поставщика", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	supplier, err := h.db.GetSupplier(id)
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка чтения поставщика", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	SendJSONResponse(c, http.StatusCreated, supplier)
}

// HandleListSuppliersGin список поставщиков
// @Summary Список поставщиков
// @Tags directory
// @Produce json
// @Success 200 {array} database.Supplier "Справочник"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /directory/suppliers [get]
func (h *DirectoryHandler) HandleListSuppliersGin(c *gin.Context) {
	suppliers, err := h.db.ListSuppliers()
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка чтения справочника", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	SendJSONResponse(c, http.StatusOK, suppliers)
}

// BankRequest создание банка
type BankRequest struct {
	OfficialName string `json:"official_name" binding:"required"`
	DisplayName  string `json:"display_name"`
	ShortCode    string `json:"short_code"`
}

// HandleCreateBankGin создание банка
// @Summary Создать банк
// @Description Добавляет банк с опциональной аббревиатурой для водопадного сопоставления
// @Tags directory
// @Accept json
// @Produce json
// @Param request body BankRequest true "Банк"
// @Success 201 {object} database.Bank "Созданная запись"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /directory/banks [post]
func (h *DirectoryHandler) HandleCreateBankGin(c *gin.Context) {
	var req BankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewValidationError("неверный формат тела запроса", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	normalized := h.engine.Normalizer().Normalize(req.OfficialName)
	if normalized == "" {
		SendJSONError(c, http.StatusBadRequest, "official_name normalizes to empty string")
		return
	}
	normalizedShortCode := h.engine.Normalizer().NormalizeShortCode(req.ShortCode)

	id, err := h.db.SaveBank(req.OfficialName, req.DisplayName, normalized, req.ShortCode, normalizedShortCode, true)
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка создания банка", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	bank, err := h.db.GetBank(id)
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка чтения банка", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	SendJSONResponse(c, http.StatusCreated, bank)
}

// HandleListBanksGin список банков
// @Summary Список банков
// @Tags directory
// @Produce json
// @Success 200 {array} database.Bank "Справочник"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /directory/banks [get]
func (h *DirectoryHandler) HandleListBanksGin(c *gin.Context) {
	banks, err := h.db.ListBanks()
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка чтения справочника", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	SendJSONResponse(c, http.StatusOK, banks)
}

// OverrideRequest кураторское сопоставление
type OverrideRequest struct {
	EntityID     int    `json:"entity_id" binding:"required"`
	OverrideName string `json:"override_name" binding:"required"`
	Notes        string `json:"notes"`
}

// HandleSaveOverrideGin сохранение кураторского сопоставления
// @Summary Сохранить кураторское сопоставление
// @Description Создает или заменяет сопоставление нормализованного названия с сущностью
// @Tags directory
// @Accept json
// @Produce json
// @Param kind path string true "Вид сущности: supplier или bank"
// @Param request body OverrideRequest true "Сопоставление"
// @Success 200 {object} map[string]bool "Подтверждение"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /directory/{kind}/overrides [post]
func (h *DirectoryHandler) HandleSaveOverrideGin(c *gin.Context) {
	kind, ok := parseEntityKind(c)
	if !ok {
		return
	}

	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewValidationError("неверный формат тела запроса", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	normalized := h.engine.Normalizer().Normalize(req.OverrideName)
	if normalized == "" {
		SendJSONError(c, http.StatusBadRequest, "override_name normalizes to empty string")
		return
	}

	if err := h.db.SaveOverride(kind, req.EntityID, req.OverrideName, normalized, req.Notes); err != nil {
		appErr := apperrors.NewInternalError("ошибка сохранения сопоставления", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	// Кэш по этому вводу устарел
	if err := h.engine.ClearSuggestions(kind, normalized); err != nil {
		appErr := apperrors.NewInternalError("ошибка сброса кэша", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	SendJSONResponse(c, http.StatusOK, gin.H{"saved": true})
}

// HandleListOverridesGin список кураторских сопоставлений
// @Summary Список кураторских сопоставлений
// @Tags directory
// @Produce json
// @Param kind path string true "Вид сущности: supplier или bank"
// @Success 200 {array} database.Override "Сопоставления"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /directory/{kind}/overrides [get]
func (h *DirectoryHandler) HandleListOverridesGin(c *gin.Context) {
	kind, ok := parseEntityKind(c)
	if !ok {
		return
	}

	overrides, err := h.db.ListOverrides(kind)
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка чтения сопоставлений", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	SendJSONResponse(c, http.StatusOK, overrides)
}

// AlternativeNameRequest подтверждение варианта написания
type AlternativeNameRequest struct {
	EntityID int    `json:"entity_id" binding:"required"`
	RawName  string `json:"raw_name" binding:"required"`
}

// HandleConfirmAlternativeGin подтверждение альтернативного названия
// @Summary Подтвердить вариант написания
// @Description Закрепляет вариант написания за сущностью; повторное подтверждение увеличивает счетчик
// @Tags directory
// @Accept json
// @Produce json
// @Param kind path string true "Вид сущности: supplier или bank"
// @Param request body AlternativeNameRequest true "Вариант"
// @Success 200 {object} map[string]bool "Подтверждение"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /directory/{kind}/alternatives [post]
func (h *DirectoryHandler) HandleConfirmAlternativeGin(c *gin.Context) {
	kind, ok := parseEntityKind(c)
	if !ok {
		return
	}

	var req AlternativeNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewValidationError("неверный формат тела запроса", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	normalized := h.engine.Normalizer().Normalize(req.RawName)
	if normalized == "" {
		SendJSONError(c, http.StatusBadRequest, "raw_name normalizes to empty string")
		return
	}

	if err := h.db.SaveAlternativeName(kind, req.EntityID, req.RawName, normalized, database.AltSourceManual); err != nil {
		appErr := apperrors.NewInternalError("ошибка сохранения варианта", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	if err := h.engine.ClearSuggestions(kind, normalized); err != nil {
		appErr := apperrors.NewInternalError("ошибка сброса кэша", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	SendJSONResponse(c, http.StatusOK, gin.H{"confirmed": true})
}

// HandleListRecordsGin список записей
// @Summary Список импортированных записей
// @Tags records
// @Produce json
// @Param session_id query string false "Фильтр по сессии импорта"
// @Success 200 {array} database.GuaranteeRecord "Записи"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /records [get]
func (h *DirectoryHandler) HandleListRecordsGin(c *gin.Context) {
	records, err := h.db.ListGuaranteeRecords(c.Query("session_id"))
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка чтения записей", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	SendJSONResponse(c, http.StatusOK, records)
}

// HandleGetRecordGin одна запись
// @Summary Получить запись
// @Tags records
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} database.GuaranteeRecord "Запись"
// @Failure 400 {object} ErrorResponse "Неверный ID"
// @Failure 404 {object} ErrorResponse "Запись не найдена"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /records/{id} [get]
func (h *DirectoryHandler) HandleGetRecordGin(c *gin.Context) {
	recordID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		appErr := apperrors.NewValidationError("неверный формат id записи", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	record, err := h.db.GetGuaranteeRecord(recordID)
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка чтения записи", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	if record == nil {
		SendJSONError(c, http.StatusNotFound, "запись не найдена")
		return
	}
	SendJSONResponse(c, http.StatusOK, record)
}
