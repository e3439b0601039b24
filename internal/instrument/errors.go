package instrument

import (
	"errors"

	"github.com/shaiso/obsdemo/internal/domain"
)

// Kind — вид ошибки операции.
type Kind string

const (
	// KindNotFound — сущность не найдена.
	KindNotFound Kind = "NotFound"

	// KindOperationFailed — валидация или имитированный сбой.
	KindOperationFailed Kind = "OperationFailed"

	// KindInternal — непредвиденный сбой (неизвестная ошибка или panic).
	KindInternal Kind = "Internal"
)

// KindOf классифицирует ошибку.
func KindOf(err error) Kind {
	var opErr *OperationError
	switch {
	case errors.As(err, &opErr):
		return opErr.Kind
	case errors.Is(err, domain.ErrNotFound):
		return KindNotFound
	case errors.Is(err, domain.ErrOperationFailed):
		return KindOperationFailed
	default:
		return KindInternal
	}
}

// OperationError — структурированное описание сбоя операции:
// вид, сообщение и correlation id.
type OperationError struct {
	Kind      Kind
	Operation string
	RequestID string
	Message   string
	Err       error
}

// Error реализует интерфейс error.
func (e *OperationError) Error() string {
	return e.Operation + " [" + string(e.Kind) + "]: " + e.Message
}

// Unwrap возвращает исходную ошибку.
func (e *OperationError) Unwrap() error {
	return e.Err
}

// AsOperationError извлекает OperationError из цепочки.
func AsOperationError(err error) (*OperationError, bool) {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr, true
	}
	return nil, false
}
