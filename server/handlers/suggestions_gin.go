package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bglserver/database"
	"bglserver/matching"
	apperrors "bglserver/server/errors"
)

// SuggestionHandler обработчики кэша подсказок
type SuggestionHandler struct {
	engine *matching.Engine
}

// NewSuggestionHandler создает обработчик подсказок
func NewSuggestionHandler(engine *matching.Engine) *SuggestionHandler {
	return &SuggestionHandler{engine: engine}
}

// parseEntityKind валидирует параметр вида сущности из пути
func parseEntityKind(c *gin.Context) (database.EntityKind, bool) {
	kind := database.EntityKind(c.Param("kind"))
	if kind != database.KindSupplier && kind != database.KindBank {
		SendJSONError(c, http.StatusBadRequest, "kind must be 'supplier' or 'bank'")
		return "", false
	}
	return kind, true
}

// SuggestionsResponse кэшированные подсказки для ввода
type SuggestionsResponse struct {
	NormalizedInput string                    `json:"normalized_input"`
	Cached          bool                      `json:"cached"`
	Suggestions     []*database.SuggestionRow `json:"suggestions"`
}

// HandleGetSuggestionsGin получение подсказок по вводу
// @Summary Получить подсказки
// @Description Возвращает кэшированные подсказки для ввода; при пустом кэше вычисляет их и кэширует
// @Tags suggestions
// @Produce json
// @Param kind path string true "Вид сущности: supplier или bank"
// @Param input query string true "Сырой ввод"
// @Param limit query int false "Максимум строк (по умолчанию 10)"
// @Success 200 {object} SuggestionsResponse "Подсказки"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /suggestions/{kind} [get]
func (h *SuggestionHandler) HandleGetSuggestionsGin(c *gin.Context) {
	kind, ok := parseEntityKind(c)
	if !ok {
		return
	}

	rawInput := c.Query("input")
	if rawInput == "" {
		SendJSONError(c, http.StatusBadRequest, "input query parameter is required")
		return
	}

	limit := 10
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			SendJSONError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	normalized := h.engine.Normalizer().Normalize(rawInput)
	if normalized == "" {
		SendJSONResponse(c, http.StatusOK, SuggestionsResponse{Suggestions: []*database.SuggestionRow{}})
		return
	}

	cached, err := h.engine.HasCachedSuggestions(kind, normalized)
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка чтения кэша подсказок", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	// Холодный кэш: считаем кандидатов вживую и сохраняем результат
	if !cached {
		var result *matching.Result
		switch kind {
		case database.KindSupplier:
			result, err = h.engine.ResolveSupplier(rawInput)
		case database.KindBank:
			result, err = h.engine.ResolveBank(rawInput)
		}
		if err != nil {
			appErr := apperrors.NewInternalError("ошибка вычисления подсказок", err)
			SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
			return
		}
		if err := h.engine.SaveResolvedSuggestions(kind, result); err != nil {
			appErr := apperrors.NewInternalError("ошибка сохранения подсказок", err)
			SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
			return
		}
	}

	suggestions, err := h.engine.GetCachedSuggestions(kind, normalized, limit)
	if err != nil {
		appErr := apperrors.NewInternalError("ошибка чтения подсказок", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	SendJSONResponse(c, http.StatusOK, SuggestionsResponse{
		NormalizedInput: normalized,
		Cached:          cached,
		Suggestions:     suggestions,
	})
}

// SelectionRequest фиксация выбора подсказки человеком
type SelectionRequest struct {
	RawInput string `json:"raw_input" binding:"required"`
	EntityID int    `json:"entity_id" binding:"required"`
}

// HandleRecordSelectionGin фиксация выбора подсказки
// @Summary Зафиксировать выбор подсказки
// @Description Увеличивает счетчик выборов строки кэша; отсутствующая строка синтезируется как user_history
// @Tags suggestions
// @Accept json
// @Produce json
// @Param kind path string true "Вид сущности: supplier или bank"
// @Param request body SelectionRequest true "Выбор"
// @Success 200 {object} map[string]bool "Подтверждение"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /suggestions/{kind}/selection [post]
func (h *SuggestionHandler) HandleRecordSelectionGin(c *gin.Context) {
	kind, ok := parseEntityKind(c)
	if !ok {
		return
	}

	var req SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewValidationError("неверный формат тела запроса", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	normalized := h.engine.Normalizer().Normalize(req.RawInput)
	if normalized == "" {
		SendJSONError(c, http.StatusBadRequest, "raw_input normalizes to empty string")
		return
	}

	if err := h.engine.RecordSelection(kind, normalized, req.EntityID); err != nil {
		appErr := apperrors.NewInternalError("ошибка фиксации выбора", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	SendJSONResponse(c, http.StatusOK, gin.H{"recorded": true})
}

// HandleClearSuggestionsGin инвалидация кэша по вводу
// @Summary Сбросить кэш подсказок для ввода
// @Description Удаляет кэшированные подсказки (после правок справочника)
// @Tags suggestions
// @Produce json
// @Param kind path string true "Вид сущности: supplier или bank"
// @Param input query string true "Сырой ввод"
// @Success 200 {object} map[string]bool "Подтверждение"
// @Failure 400 {object} ErrorResponse "Неверный запрос"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /suggestions/{kind} [delete]
func (h *SuggestionHandler) HandleClearSuggestionsGin(c *gin.Context) {
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
	if err := h.engine.ClearSuggestions(kind, normalized); err != nil {
		appErr := apperrors.NewInternalError("ошибка сброса кэша", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	SendJSONResponse(c, http.StatusOK, gin.H{"cleared": true})
}
