package rabbit

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Consumer struct {
	ch    *amqp.Channel
	queue string
}

// NewConsumer declares queue and binds it to the booking exchange for the
// given routing pattern (e.g. "reservation.#").
func NewConsumer(conn *amqp.Connection, queue, pattern string) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	// Declare the exchange here too: the consumer may start before any
	// publisher has.
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, err
	}
	_, err = ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return nil, err
	}
	if err := ch.QueueBind(queue, pattern, Exchange, false, nil); err != nil {
		return nil, err
	}
	return &Consumer{ch: ch, queue: queue}, nil
}

func (c *Consumer) Consume(ctx context.Context) (<-chan amqp.Delivery, error) {
	return c.ch.Consume(c.queue, "", false, false, false, false, nil)
}
