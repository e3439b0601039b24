package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeEvents Exchange = "demo.events"
	ExchangeDLQ    Exchange = "demo.dlq"
)

// Queues — имена очередей.
const (
	QueueUsersCreated Queue = "demo.users.created"
	QueueDLQEvents    Queue = "dlq.events"
)

// Routing keys.
const (
	RoutingKeyUserCreated RoutingKey = "user.created"
	RoutingKeyDLQEvents   RoutingKey = "events"
)

type exchangeDecl struct {
	name Exchange
	kind string
}

type queueDecl struct {
	name Queue
	args amqp.Table
}

type bindingDecl struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

// Topology — объявления exchanges, queues и bindings.
type Topology struct {
	Exchanges []exchangeDecl
	Queues    []queueDecl
	Bindings  []bindingDecl
}

// DefaultTopology возвращает топологию демо-сервиса.
func DefaultTopology() Topology {
	// Аргументы для очередей с DLQ
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQEvents),
	}

	return Topology{
		Exchanges: []exchangeDecl{
			{ExchangeEvents, amqp.ExchangeDirect},
			{ExchangeDLQ, amqp.ExchangeDirect},
		},
		Queues: []queueDecl{
			// demo.users.created — нечитаемые сообщения уходят в DLQ
			{QueueUsersCreated, dlqArgs},

			// dlq.events — сама DLQ очередь
			{QueueDLQEvents, nil},
		},
		Bindings: []bindingDecl{
			{QueueUsersCreated, RoutingKeyUserCreated, ExchangeEvents},
			{QueueDLQEvents, RoutingKeyDLQEvents, ExchangeDLQ},
		},
	}
}

// SetupTopology объявляет топологию по умолчанию.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		return DefaultTopology().Declare(ch)
	})
}

// Declarer — часть amqp.Channel, нужная для объявления топологии.
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// Declare создаёт exchanges, затем queues, затем bindings.
func (t Topology) Declare(ch Declarer) error {
	for _, ex := range t.Exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	for _, q := range t.Queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	for _, b := range t.Bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  obsdemo RabbitMQ Topology:

    demo.events (direct)
    └── demo.users.created [routing: user.created]
            Consumer: obsdemo-auditor
            DLQ: dlq.events

    demo.dlq (direct)
    └── dlq.events [routing: events]
            Manual processing
  `
}
