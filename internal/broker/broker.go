// Package broker wraps the RabbitMQ connection both workers share: a
// backoff-retrying dial, declaration of the four canonical durable queues,
// and prefetch=1 consumption, matching the original workers' single-message-
// in-flight design.
package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const reconnectDelay = 5 * time.Second

// QueueNames names the four canonical durable queues declared at startup.
type QueueNames struct {
	InQueueAgent    string
	OutQueueAgent   string
	InQueueSandbox  string
	OutQueueSandbox string
}

// Broker owns one AMQP connection and channel. The canonical queues are
// declared once, when Dial connects; Broker does not reconnect or redeclare
// them after the connection drops.
type Broker struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	url     string
	queues  QueueNames
	logger  *slog.Logger
}

// Dial loops with a fixed backoff until it establishes a connection and
// channel, declares the canonical queues, and sets prefetch=1. It only
// returns once connected, or when ctx is canceled.
func Dial(ctx context.Context, url string, queues QueueNames, logger *slog.Logger) (*Broker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Broker{url: url, queues: queues, logger: logger}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.connect(); err != nil {
			logger.Warn("broker connect failed, retrying", "error", err, "delay", reconnectDelay)
			select {
			case <-time.After(reconnectDelay):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return b, nil
	}
}

func (b *Broker) connect() error {
	conn, err := amqp.DialConfig(b.url, amqp.Config{
		Heartbeat: 600 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	for _, name := range []string{
		b.queues.InQueueAgent,
		b.queues.OutQueueAgent,
		b.queues.InQueueSandbox,
		b.queues.OutQueueSandbox,
	} {
		if name == "" {
			continue
		}
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return fmt.Errorf("declare queue %s: %w", name, err)
		}
	}

	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("set qos: %w", err)
	}

	b.conn = conn
	b.ch = ch
	return nil
}

// Channel returns the underlying AMQP channel.
func (b *Broker) Channel() *amqp.Channel { return b.ch }

// NotifyClose returns a channel that closes/emits when the connection drops,
// so callers can trigger their own reconnect loop.
func (b *Broker) NotifyClose() chan *amqp.Error {
	return b.conn.NotifyClose(make(chan *amqp.Error, 1))
}

// Publish sends a persistent message (delivery_mode=2) to the given queue
// via the default exchange.
func (b *Broker) Publish(ctx context.Context, queue string, body []byte) error {
	return b.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Consume starts a consumer on the given queue with auto_ack=false, matching
// the workers' explicit ack/nack error taxonomy.
func (b *Broker) Consume(queue, consumerTag string) (<-chan amqp.Delivery, error) {
	return b.ch.Consume(queue, consumerTag, false, false, false, false, nil)
}

// Close shuts down the channel and connection.
func (b *Broker) Close() error {
	var err error
	if b.ch != nil {
		err = b.ch.Close()
	}
	if b.conn != nil {
		if cerr := b.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
