package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_WrapsCause(t *testing.T) {
	cause := errors.New("no such table: suppliers")
	appErr := NewNotFoundError("поставщик не найден", cause)

	assert.Equal(t, http.StatusNotFound, appErr.StatusCode())
	assert.Equal(t, "поставщик не найден", appErr.UserMessage())
	assert.True(t, errors.Is(appErr, cause))
	assert.Contains(t, appErr.Error(), "no such table")
}

func TestAppError_NilCause(t *testing.T) {
	appErr := NewValidationError("неверный формат тела запроса", nil)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode())
	assert.Equal(t, "неверный формат тела запроса", appErr.Error())
	assert.Nil(t, appErr.Unwrap())
}

func TestNewInternalError_HidesDetails(t *testing.T) {
	cause := errors.New("database is locked")
	appErr := NewInternalError("ошибка пересчета записи", cause)

	require.Equal(t, http.StatusInternalServerError, appErr.StatusCode())
	// Пользователь видит общее сообщение, детали остаются в цепочке ошибки
	assert.Equal(t, "Внутренняя ошибка сервера", appErr.UserMessage())
	assert.True(t, errors.Is(appErr, cause))
	assert.Contains(t, appErr.Error(), "ошибка пересчета записи")
}

func TestWithContext(t *testing.T) {
	appErr := NewConflictError("решение уже существует", nil).WithContext("RecordLearningDecision")
	assert.Equal(t, http.StatusConflict, appErr.StatusCode())
	assert.Equal(t, "RecordLearningDecision", appErr.Context)
}
