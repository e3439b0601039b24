// Package api содержит HTTP API демо-сервиса.
//
// Структура:
//   - handler.go      — Handler с DI (service, instrumenter, logger, tracer)
//   - routes.go       — регистрация маршрутов
//   - middleware.go   — middleware (recovery, tracing, logging, metrics)
//   - response.go     — JSON-ответы и перевод ошибок операций в HTTP
//   - dto.go          — Data Transfer Objects (request/response)
//   - demo_handler.go — обработчики /api/demo/*
//   - home_handler.go — описание API (/api)
//
// Каждый обработчик /api/demo/* выполняет свою работу через instrument.Run,
// поэтому у каждого ответа есть свой correlation id (поле requestId и
// заголовок X-Request-ID).
package api
