package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel определяет уровень логирования по строке.
// Возможные значения: DEBUG, INFO, WARN, ERROR
// По умолчанию: INFO
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger создаёт логгер, пишущий в w.
//
// Формат вывода:
//   - "json" (по умолчанию) — JSON формат для production
//   - "text" — человекочитаемый формат для разработки
//
// Handler оборачивается в ContextHandler, поэтому атрибуты активного
// correlation scope попадают во все записи, сделанные через *Context методы.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(NewContextHandler(handler))
}

// SetupLogger инициализирует глобальный логгер (stdout).
func SetupLogger(level, format string) *slog.Logger {
	logger := NewLogger(os.Stdout, ParseLevel(level), format)
	slog.SetDefault(logger)
	return logger
}

// ContextHandler добавляет к записи атрибуты correlation scope из ctx.
// Закрытый scope ничего не добавляет.
//
// Атрибуты scope всегда пишутся на верхнем уровне записи, даже если
// логгер открыл группу: WithAttrs и WithGroup после первой группы
// запоминаются и применяются поверх scope в Handle.
type ContextHandler struct {
	base slog.Handler
	ops  []handlerOp
}

// handlerOp — отложенный WithGroup (group != "") или WithAttrs.
type handlerOp struct {
	group string
	attrs []slog.Attr
}

// NewContextHandler оборачивает handler.
func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{base: h}
}

// Enabled реализует slog.Handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle реализует slog.Handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := ScopeFromContext(ctx).Attrs()
	if len(attrs) == 0 && len(h.ops) == 0 {
		return h.base.Handle(ctx, r)
	}

	handler := h.base
	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}
	for _, op := range h.ops {
		if op.group != "" {
			handler = handler.WithGroup(op.group)
		} else {
			handler = handler.WithAttrs(op.attrs)
		}
	}
	return handler.Handle(ctx, r)
}

// WithAttrs реализует slog.Handler.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	if len(h.ops) == 0 {
		return &ContextHandler{base: h.base.WithAttrs(attrs)}
	}
	return h.withOp(handlerOp{attrs: attrs})
}

// WithGroup реализует slog.Handler.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.withOp(handlerOp{group: name})
}

func (h *ContextHandler) withOp(op handlerOp) *ContextHandler {
	ops := make([]handlerOp, len(h.ops), len(h.ops)+1)
	copy(ops, h.ops)
	return &ContextHandler{base: h.base, ops: append(ops, op)}
}

// Ключи контекста для передачи данных в логгер.
type ctxKey string

const (
	// CtxLogger — ключ для логгера в контексте.
	CtxLogger ctxKey = "logger"
)

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, CtxLogger, logger)
}

// FromContext извлекает логгер из контекста.
// Если логгер не найден, возвращает глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(CtxLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
