// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация событий
//   - consumer.go   — потребление событий с восстановлением correlation scope
//   - carrier.go    — перенос trace context через AMQP headers
//   - audit.go      — обработчик user.created для obsdemo-auditor
//
// Типы сообщений:
//   - user.created  — пользователь создан
//
// Exchanges:
//   - demo.events   — события сервиса
//   - demo.dlq      — dead letter queue
//
// Correlation id операции, породившей событие, передаётся в поле request_id
// тела и в AMQP CorrelationId.
package mq
