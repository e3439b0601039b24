package mq

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/shaiso/obsdemo/internal/telemetry"
)

// NewAuditHandler создаёт обработчик событий user.created.
//
// Логгер берётся из ctx (его кладёт Consumer), request_id и user_id
// попадают в записи из scope сообщения. Каждое событие считается в
// demo.audit.events. Битый payload подтверждается: повторная доставка
// его не исправит.
func NewAuditHandler(metrics telemetry.Sink, tracer trace.Tracer) Handler {
	return func(ctx context.Context, d *Delivery) error {
		logger := telemetry.FromContext(ctx)
		ctx, span := tracer.Start(ctx, "demo.audit.user_created",
			trace.WithSpanKind(trace.SpanKindConsumer))
		defer span.End()

		if d.Message.Type != MessageTypeUserCreated {
			logger.WarnContext(ctx, "unexpected message type", "type", d.Message.Type)
			return nil
		}

		payload, err := ParsePayload[UserCreatedPayload](&d.Message)
		if err != nil {
			metrics.Count(telemetry.MetricEvent{Name: telemetry.MetricAuditEvents, Outcome: telemetry.OutcomeError})
			logger.ErrorContext(ctx, "invalid user.created payload", "error", err)
			return nil
		}

		telemetry.SetScopeAttr(ctx, telemetry.KeyUserID, payload.UserID)
		metrics.Count(telemetry.MetricEvent{Name: telemetry.MetricAuditEvents, Outcome: telemetry.OutcomeSuccess})
		logger.InfoContext(ctx, "user created",
			"name", payload.Name,
			"message_id", d.Message.ID,
		)
		return nil
	}
}
