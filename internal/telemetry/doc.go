// Package telemetry обеспечивает наблюдаемость сервиса.
//
// Включает:
//   - logging.go — structured logging через slog с контекстным handler'ом
//   - scope.go   — correlation scope (request_id, user_id) на время операции
//   - metrics.go — Prometheus метрики (счётчики, таймеры, gauge)
//   - tracing.go — OpenTelemetry tracer provider
//
// Correlation scope живёт только в context.Context конкретного запроса.
// Глобального изменяемого состояния для контекста логирования нет:
// ContextHandler читает атрибуты scope из ctx в момент записи лога.
package telemetry
