package api

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/shaiso/obsdemo/internal/telemetry"
)

// Middleware — функция-обёртка для http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain применяет middleware в порядке слева направо.
// Chain(m1, m2)(handler) = m1(m2(handler))
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// Logging логирует HTTP запросы вместе с correlation id ответа.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := wrapWriter(w)
			next.ServeHTTP(rw, r)

			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route(r),
				"status", rw.status,
				"duration", time.Since(start),
				"remote_addr", r.RemoteAddr,
				telemetry.KeyRequestID, rw.Header().Get(telemetry.RequestIDHeader),
			)
		})
	}
}

// Recovery восстанавливается после паники вне instrument.Run.
// Ответ получает свежий correlation id, чтобы сбой можно было найти в логах.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					requestID := telemetry.NewRequestID()
					logger.ErrorContext(r.Context(), "panic recovered",
						"error", err,
						"stack", string(debug.Stack()),
						"path", r.URL.Path,
						telemetry.KeyRequestID, requestID,
					)
					InternalError(w, requestID)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Tracing открывает server span на запрос. Входящий traceparent продолжается.
func Tracing(tracer trace.Tracer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			rt := route(r)
			ctx, span := tracer.Start(ctx, r.Method+" "+rt,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String("http.route", rt),
					attribute.String("url.path", r.URL.Path),
				),
			)
			defer span.End()

			rw := wrapWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.response.status_code", rw.status))
			if id := rw.Header().Get(telemetry.RequestIDHeader); id != "" {
				span.SetAttributes(attribute.String("request.id", id))
			}
			if rw.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rw.status))
			}
		})
	}
}

// Metrics пишет HTTP метрики: счётчик, латентность и запросы в обработке.
func Metrics(m *telemetry.HTTPMetrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.InFlight.Inc()
			defer m.InFlight.Dec()

			rw := wrapWriter(w)
			next.ServeHTTP(rw, r)

			rt := route(r)
			m.RequestsTotal.WithLabelValues(r.Method, rt, strconv.Itoa(rw.status)).Inc()
			m.RequestDuration.WithLabelValues(r.Method, rt).Observe(time.Since(start).Seconds())
		})
	}
}

// route возвращает шаблон маршрута без метода ("/api/demo/users/{userId}").
func route(r *http.Request) string {
	p := r.Pattern
	if p == "" {
		return "unmatched"
	}
	if i := strings.IndexByte(p, ' '); i >= 0 {
		p = p[i+1:]
	}
	return p
}

// responseWriter — обёртка для захвата статуса ответа.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func wrapWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(status int) {
	if !rw.wroteHeader {
		rw.status = status
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
