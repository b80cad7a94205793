package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bglserver/database"
	"bglserver/matching"
	apperrors "bglserver/server/errors"
)

// LearningHandler обработчики решений обучения и журнала
type LearningHandler struct {
	engine *matching.Engine
	db     *database.ServiceDB
}

// NewLearningHandler создает обработчик обучения
func NewLearningHandler(engine *matching.Engine, db *database.ServiceDB) *LearningHandler {
	return &LearningHandler{engine: engine, db: db}
}

// LearningDecisionRequest решение человека по вводу
type LearningDecisionRequest struct {
	RawInput    string `json:"raw_input" binding:"required"`
	DisplayName string `json:"display_name"`
	Status      string `json:"status" binding:"required"`
	EntityID    *int   `json:"entity_id"`
}

// HandleRecordDecisionGin фиксация решения человека
// @Summary Зафиксировать решение по вводу
// @Description Сохраняет alias или блокировку для нормализованного ввода; новое решение перезаписывает старое
// @Tags learning
// @Accept json
// @Produce json
// @Param kind path string true "Вид сущности: supplier или bank"
// @Param request body LearningDecisionRequest true "Решение"
// @Success 200 {object} map[string]bool "Подтверждение"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /learning/{kind} [post]
func (h *LearningHandler) HandleRecordDecisionGin(c *gin.Context) {
	kind, ok := parseEntityKind(c)
	if !ok {
		return
	}

	var req LearningDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewValidationError("неверный формат тела запроса", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	if req.Status != database.LearningStatusAlias && req.Status != database.LearningStatusBlocked {
		SendJSONError(c, http.StatusBadRequest, "status must be 'alias' or 'blocked'")
		return
	}
	// Глобальная блокировка без сущности допустима только для банков
	if req.Status == database.LearningStatusBlocked && req.EntityID == nil && kind != database.KindBank {
		SendJSONError(c, http.StatusBadRequest, "blocked decision for supplier requires entity_id")
		return
	}

	err := h.engine.RecordLearningDecision(kind, req.RawInput, req.DisplayName, req.Status, req.EntityID)
	if errors.Is(err, matching.ErrEmptyInput) {
		SendJSONError(c, http.StatusBadRequest, "raw_input normalizes to empty string")
		return
	}
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка сохранения решения", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	SendJSONResponse(c, http.StatusOK, gin.H{"recorded": true})
}

// HandleListDecisionsGin список решений вида
// @Summary Список решений обучения
// @Description Возвращает все текущие решения вида, новые первыми
// @Tags learning
// @Produce json
// @Param kind path string true "Вид сущности: supplier или bank"
// @Success 200 {array} database.LearningDecision "Решения"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /learning/{kind} [get]
func (h *LearningHandler) HandleListDecisionsGin(c *gin.Context) {
	kind, ok := parseEntityKind(c)
	if !ok {
		return
	}

	decisions, err := h.db.ListLearningDecisions(kind)
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка чтения решений", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	SendJSONResponse(c, http.StatusOK, decisions)
}

// HandleDeleteDecisionGin снятие решения
// @Summary Снять решение по вводу
// @Description Удаляет текущее решение для нормализованного ввода
// @Tags learning
// @Produce json
// @Param kind path string true "Вид сущности: supplier или bank"
// @Param input query string true "Сырой ввод"
// @Success 200 {object} map[string]bool "Подтверждение"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /learning/{kind} [delete]
func (h *LearningHandler) HandleDeleteDecisionGin(c *gin.Context) {
	kind, ok := parseEntityKind(c)
	if !ok {
		return
	}

	rawInput := c.Query("input")
	if rawInput == "" {
		SendJSONError(c, http.StatusBadRequest, "input query parameter is required")
		return
	}
	normalized := h.engine.Normalizer().Normalize(rawInput)

	if err := h.db.DeleteLearningDecision(kind, normalized); err != nil {
		appErr := apperrors.NewInternalError("ошибка удаления решения", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	// Кэш подсказок больше не отражает состояние без решения
	if err := h.engine.ClearSuggestions(kind, normalized); err != nil {
		appErr := apperrors.NewInternalError("ошибка сброса кэша", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	SendJSONResponse(c, http.StatusOK, gin.H{"deleted": true})
}

// HandleLearningLogGin журнал решений
// @Summary Журнал решений
// @Description Возвращает append-only журнал решений по виду сущности
// @Tags learning
// @Produce json
// @Param kind path string true "Вид сущности: supplier или bank"
// @Param limit query int false "Максимум строк (по умолчанию 100)"
// @Success 200 {array} database.LearningLogEntry "Журнал"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /learning/{kind}/log [get]
func (h *LearningHandler) HandleLearningLogGin(c *gin.Context) {
	kind, ok := parseEntityKind(c)
	if !ok {
		return
	}

	limit := 100
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			SendJSONError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.db.ListLearningLog(kind, limit)
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка чтения журнала", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	SendJSONResponse(c, http.StatusOK, entries)
}
