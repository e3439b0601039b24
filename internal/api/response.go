package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaiso/obsdemo/internal/instrument"
	"github.com/shaiso/obsdemo/internal/telemetry"
)

// Тексты ошибок в ответах.
const (
	MsgInternalError  = "Internal server error"
	MsgUserNotFound   = "User not found"
	MsgCreateFailed   = "Failed to create user"
	MsgSimulatedError = "Simulated error occurred"
)

// ErrorResponse — тело ответа с ошибкой. Correlation id есть всегда.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId"`
	UserID    string `json:"userId,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Respond отправляет JSON ответ с заголовком X-Request-ID.
func Respond(w http.ResponseWriter, status int, requestID string, data any) {
	if requestID != "" {
		w.Header().Set(telemetry.RequestIDHeader, requestID)
	}
	JSON(w, status, data)
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, body ErrorResponse) {
	Respond(w, status, body.RequestID, body)
}

// InternalError отправляет общую ошибку 500.
func InternalError(w http.ResponseWriter, requestID string) {
	Error(w, http.StatusInternalServerError, ErrorResponse{
		Error:     MsgInternalError,
		RequestID: requestID,
	})
}

// requestIDOf возвращает correlation id сбойной операции.
func requestIDOf(err error) string {
	if opErr, ok := instrument.AsOperationError(err); ok {
		return opErr.RequestID
	}
	return ""
}
