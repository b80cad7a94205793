package matching

import "errors"

// Доменные ошибки движка разрешения
var (
	// ErrEmptyInput сырой ввод пуст после нормализации
	ErrEmptyInput = errors.New("normalized input is empty")

	// ErrRecordNotFound запись для пересчета не найдена
	ErrRecordNotFound = errors.New("guarantee record not found")
)
