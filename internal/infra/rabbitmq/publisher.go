package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const statusRoutingKey = "pair.status"

// StatusPublisher publishes per-pair outcome messages so downstream
// consumers can react to processed footage without polling the record
// directory.
type StatusPublisher struct {
	channel  *amqp.Channel
	exchange string
}

func NewStatusPublisher(conn *amqp.Connection, exchange, statusQueue string) (*StatusPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(statusQueue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", statusQueue, err)
	}
	if err := ch.QueueBind(statusQueue, statusRoutingKey, exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind status queue: %w", err)
	}

	return &StatusPublisher{channel: ch, exchange: exchange}, nil
}

func (p *StatusPublisher) PublishStatus(ctx context.Context, msg []byte) error {
	return p.channel.PublishWithContext(ctx,
		p.exchange,
		statusRoutingKey,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         msg,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
		},
	)
}

func (p *StatusPublisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
