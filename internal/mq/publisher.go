package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"

	"github.com/shaiso/obsdemo/internal/domain"
	"github.com/shaiso/obsdemo/internal/telemetry"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeUserCreated MessageType = "user.created"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
		now:    time.Now,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// RequestID — correlation id операции, породившей событие.
	RequestID string `json:"request_id,omitempty"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// UserCreatedPayload — payload события о созданном пользователе.
type UserCreatedPayload struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage создаёт сообщение с correlation id активного scope.
func NewMessage(ctx context.Context, msgType MessageType, payload any, now time.Time) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		RequestID: telemetry.RequestIDFromContext(ctx),
		Payload:   payload,
		Timestamp: now,
	}
}

// newPublishing собирает AMQP сообщение. Trace context кладётся в headers.
func newPublishing(ctx context.Context, msg *Message) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal message: %w", err)
	}

	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier(headers))

	return amqp.Publishing{
		Headers:       headers,
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
		MessageId:     msg.ID,
		CorrelationId: msg.RequestID,
		Type:          string(msg.Type),
		Timestamp:     msg.Timestamp,
		Body:          body,
	}, nil
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	pub, err := newPublishing(ctx, msg)
	if err != nil {
		return err
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			pub,
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.DebugContext(ctx, "published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishUserCreated публикует событие user.created.
// Потребитель: obsdemo-auditor.
func (p *Publisher) PublishUserCreated(ctx context.Context, user *domain.User) error {
	msg := NewMessage(ctx, MessageTypeUserCreated, UserCreatedPayload{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, p.now())

	return p.Publish(ctx, ExchangeEvents, RoutingKeyUserCreated, msg)
}
