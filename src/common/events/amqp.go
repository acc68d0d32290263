package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher sends events to a queue on the default exchange.
type AMQPPublisher struct {
	mu      sync.Mutex
	channel amqpChannel
	queue   string
}

func NewAMQPPublisher(channel *amqp.Channel, queue string) (*AMQPPublisher, error) {
	return newAMQPPublisher(channel, queue)
}

func newAMQPPublisher(channel amqpChannel, queue string) (*AMQPPublisher, error) {
	if _, err := channel.QueueDeclare(queue, false, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &AMQPPublisher{channel: channel, queue: queue}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.channel.PublishWithContext(ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   ev.ID,
			Timestamp:   ev.Timestamp,
			Type:        string(ev.Kind),
			Body:        body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	return p.channel.Close()
}
