package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bglserver/matching"
	apperrors "bglserver/server/errors"
)

// ResolutionHandler обработчики разрешения названий и пересчета записей
type ResolutionHandler struct {
	engine *matching.Engine
}

// NewResolutionHandler создает обработчик разрешения
func NewResolutionHandler(engine *matching.Engine) *ResolutionHandler {
	return &ResolutionHandler{engine: engine}
}

// ResolveRequest запрос на разрешение сырого названия
type ResolveRequest struct {
	RawName string `json:"raw_name" binding:"required"`
}

// ResolveResponse результат разрешения с конфликтами по одному виду
type ResolveResponse struct {
	Raw        string               `json:"raw"`
	Normalized string               `json:"normalized"`
	Candidates []matching.Candidate `json:"candidates"`
}

// HandleResolveSupplierGin разрешение названия поставщика
// @Summary Разрешить название поставщика
// @Description Генерирует ранжированный список кандидатов-поставщиков для сырого названия
// @Tags resolution
// @Accept json
// @Produce json
// @Param request body ResolveRequest true "Сырое название"
// @Success 200 {object} ResolveResponse "Кандидаты"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /resolve/supplier [post]
func (h *ResolutionHandler) HandleResolveSupplierGin(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewValidationError("неверный формат тела запроса", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	result, err := h.engine.ResolveSupplier(req.RawName)
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка разрешения поставщика", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	SendJSONResponse(c, http.StatusOK, ResolveResponse{
		Raw:        result.Raw,
		Normalized: result.Normalized,
		Candidates: result.Candidates,
	})
}

// HandleResolveBankGin разрешение названия банка
// @Summary Разрешить название банка
// @Description Генерирует кандидатов-банков по водопадной схеме (аббревиатура, затем полное название)
// @Tags resolution
// @Accept json
// @Produce json
// @Param request body ResolveRequest true "Сырое название"
// @Success 200 {object} ResolveResponse "Кандидаты"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /resolve/bank [post]
func (h *ResolutionHandler) HandleResolveBankGin(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewValidationError("неверный формат тела запроса", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	result, err := h.engine.ResolveBank(req.RawName)
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка разрешения банка", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	SendJSONResponse(c, http.StatusOK, ResolveResponse{
		Raw:        result.Raw,
		Normalized: result.Normalized,
		Candidates: result.Candidates,
	})
}

// HandleRecalculateRecordGin пересчет одной записи
// @Summary Пересчитать запись
// @Description Прогоняет запись через полный цикл: кандидаты, конфликты, авто-принятие нерешенных сторон
// @Tags resolution
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} matching.RecordResolution "Итог пересчета"
// @Failure 400 {object} ErrorResponse "Неверный ID"
// @Failure 404 {object} ErrorResponse "Запись не найдена"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /records/{id}/recalculate [post]
func (h *ResolutionHandler) HandleRecalculateRecordGin(c *gin.Context) {
	recordID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		appErr := apperrors.NewValidationError("неверный формат id записи", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	resolution, err := h.engine.ResolveRecord(recordID)
	if errors.Is(err, matching.ErrRecordNotFound) {
		appErr := apperrors.NewNotFoundError("запись не найдена", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка пересчета записи", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	SendJSONResponse(c, http.StatusOK, resolution)
}

// RecalculateAllResponse сводка пересчета всех нерешенных записей
type RecalculateAllResponse struct {
	Processed int                          `json:"processed"`
	Accepted  int                          `json:"accepted"`
	Results   []*matching.RecordResolution `json:"results"`
}

// HandleRecalculateAllGin пересчет всех нерешенных записей
// @Summary Пересчитать все нерешенные записи
// @Description Запускает цикл разрешения для каждой записи с нерешенной стороной
// @Tags resolution
// @Produce json
// @Success 200 {object} RecalculateAllResponse "Сводка пересчета"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /records/recalculate [post]
func (h *ResolutionHandler) HandleRecalculateAllGin(c *gin.Context) {
	resolutions, err := h.engine.ResolveAllPending()
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка массового пересчета", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	accepted := 0
	for _, resolution := range resolutions {
		if resolution.SupplierAccepted || resolution.BankAccepted {
			accepted++
		}
	}

	SendJSONResponse(c, http.StatusOK, RecalculateAllResponse{
		Processed: len(resolutions),
		Accepted:  accepted,
		Results:   resolutions,
	})
}

// ConflictsRequest запрос на детекцию конфликтов по паре названий
type ConflictsRequest struct {
	RawSupplierName string `json:"raw_supplier_name"`
	RawBankName     string `json:"raw_bank_name"`
}

// ConflictsResponse список причин для ручного просмотра
type ConflictsResponse struct {
	Conflicts []string `json:"conflicts"`
}

// HandleDetectConflictsGin детекция конфликтов без побочных эффектов
// @Summary Проверить пару названий на конфликты
// @Description Возвращает список причин, по которым запись требует ручного просмотра
// @Tags resolution
// @Accept json
// @Produce json
// @Param request body ConflictsRequest true "Сырые названия"
// @Success 200 {object} ConflictsResponse "Причины"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /resolve/conflicts [post]
func (h *ResolutionHandler) HandleDetectConflictsGin(c *gin.Context) {
	var req ConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewValidationError("неверный формат тела запроса", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	supplierResult, err := h.engine.ResolveSupplier(req.RawSupplierName)
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка разрешения поставщика", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	bankResult, err := h.engine.ResolveBank(req.RawBankName)
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка разрешения банка", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	conflicts := h.engine.DetectConflicts(supplierResult, bankResult, req.RawSupplierName, req.RawBankName)
	SendJSONResponse(c, http.StatusOK, ConflictsResponse{Conflicts: conflicts})
}
