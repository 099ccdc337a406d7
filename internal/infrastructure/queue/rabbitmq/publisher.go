package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/devportal/user-registry/internal/core/domain"
)

const (
	// ExchangeName is the topic exchange lifecycle events fan out from.
	// Subscribers bind their own queues with routing patterns ("user.*",
	// "user.created", ...) without the publisher knowing their identities.
	ExchangeName = "user.events"

	// Messages the topic exchange cannot route land on the unrouted
	// exchange, which feeds a durable dead-letter queue for later
	// inspection instead of silent loss.
	unroutedExchange = "user.events.unrouted"
	deadLetterQueue  = "user.events.dead-letter"
)

// Publisher publishes lifecycle events to the RabbitMQ topic exchange.
type Publisher struct {
	channel *amqp.Channel
}

// NewPublisher opens a channel and declares the exchange topology: the topic
// exchange with an alternate exchange for unroutable messages, the fanout
// alternate, and the dead-letter queue bound to it.
func NewPublisher(conn *Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		unroutedExchange,
		"fanout",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare unrouted exchange: %w", err)
	}

	if err := ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,
		false,
		false,
		false,
		amqp.Table{"alternate-exchange": unroutedExchange},
	); err != nil {
		return nil, fmt.Errorf("declare topic exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(
		deadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare dead-letter queue: %w", err)
	}
	if err := ch.QueueBind(deadLetterQueue, "", unroutedExchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind dead-letter queue: %w", err)
	}

	return &Publisher{channel: ch}, nil
}

// Publish sends one event to the topic exchange using its kind as the
// routing key. Persistent delivery, single attempt: retry and dead-letter
// policy belong to the broker topology, never to the caller.
func (p *Publisher) Publish(ctx context.Context, event domain.LifecycleEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.channel.PublishWithContext(
		ctx,
		ExchangeName,
		string(event.Kind),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			MessageId:     event.EventID,
			CorrelationId: event.CorrelationID,
			Timestamp:     time.Now(),
			DeliveryMode:  amqp.Persistent,
			Body:          body,
		},
	)
}

// Close closes the publisher channel.
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
