package domain

import "errors"

// Виды бизнес-ошибок. Граница (HTTP) различает только их.
var (
	// ErrNotFound — запрошенная сущность отсутствует.
	ErrNotFound = errors.New("not found")

	// ErrOperationFailed — ошибка валидации или имитированный сбой хранилища.
	ErrOperationFailed = errors.New("operation failed")
)
