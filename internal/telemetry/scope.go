package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// RequestIDHeader — HTTP заголовок с correlation id.
const RequestIDHeader = "X-Request-ID"

// Ключи атрибутов scope в логах.
const (
	KeyRequestID = "request_id"
	KeyUserID    = "user_id"
)

// NewRequestID генерирует новый correlation id (UUIDv4).
func NewRequestID() string {
	return uuid.NewString()
}

// Scope — correlation context одной логической операции.
//
// Создаётся на входе в операцию (OpenScope) и закрывается на выходе (Close).
// После закрытия scope не отдаёт атрибуты, даже если ctx с ним
// был захвачен горутиной и пережил операцию.
type Scope struct {
	requestID string

	mu    sync.RWMutex
	attrs []slog.Attr

	closed atomic.Bool
}

type scopeKey struct{}

// OpenScope открывает scope и возвращает производный контекст с ним.
// Родительский ctx не изменяется.
func OpenScope(ctx context.Context, requestID string, attrs ...slog.Attr) (context.Context, *Scope) {
	s := &Scope{
		requestID: requestID,
		attrs:     append([]slog.Attr(nil), attrs...),
	}
	return context.WithValue(ctx, scopeKey{}, s), s
}

// ScopeFromContext возвращает scope из контекста или nil.
func ScopeFromContext(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

// RequestIDFromContext возвращает correlation id активного scope.
// Пустая строка, если scope нет или он уже закрыт.
func RequestIDFromContext(ctx context.Context) string {
	return ScopeFromContext(ctx).RequestID()
}

// SetScopeAttr добавляет атрибут в активный scope контекста, если он есть.
func SetScopeAttr(ctx context.Context, key string, value any) {
	ScopeFromContext(ctx).Set(key, value)
}

// RequestID возвращает correlation id. Для закрытого scope — "".
func (s *Scope) RequestID() string {
	if s == nil || s.closed.Load() {
		return ""
	}
	return s.requestID
}

// Set добавляет или заменяет атрибут scope.
func (s *Scope) Set(key string, value any) {
	if s == nil || s.closed.Load() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.attrs {
		if s.attrs[i].Key == key {
			s.attrs[i] = slog.Any(key, value)
			return
		}
	}
	s.attrs = append(s.attrs, slog.Any(key, value))
}

// Get возвращает значение атрибута.
func (s *Scope) Get(key string) (any, bool) {
	if s == nil || s.closed.Load() {
		return nil, false
	}
	if key == KeyRequestID {
		return s.requestID, true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.attrs {
		if a.Key == key {
			return a.Value.Any(), true
		}
	}
	return nil, false
}

// Attrs возвращает копию атрибутов вместе с request_id.
func (s *Scope) Attrs() []slog.Attr {
	if s == nil || s.closed.Load() {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]slog.Attr, 0, len(s.attrs)+1)
	out = append(out, slog.String(KeyRequestID, s.requestID))
	out = append(out, s.attrs...)
	return out
}

// Close закрывает scope. Возвращает true только при первом вызове.
func (s *Scope) Close() bool {
	if s == nil {
		return false
	}
	return s.closed.CompareAndSwap(false, true)
}

// Closed сообщает, закрыт ли scope.
func (s *Scope) Closed() bool {
	return s == nil || s.closed.Load()
}
