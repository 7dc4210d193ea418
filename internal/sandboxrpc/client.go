// Package sandboxrpc lets an agent role submit code to the Sandbox Worker
// and wait for its reply, without racing any other consumer of the shared
// results queue. Each call opens its own connection and declares a private,
// exclusive, auto-delete reply queue — the reply is correlated by queue
// identity, not by a correlation id, which is sufficient because the queue
// is unique per call.
package sandboxrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/orpipe/orpipe"
)

const callTimeout = 60 * time.Second

// Client submits code to the sandbox in-queue and waits for the matching
// result on a private reply queue.
type Client struct {
	url        string
	sandboxIn  string
}

// New returns a Client that dials url fresh for every Submit call.
func New(url, sandboxInQueue string) *Client {
	return &Client{url: url, sandboxIn: sandboxInQueue}
}

// Submit publishes a Sandbox Job Message carrying jobID and code, and blocks
// until a matching reply arrives or 60 seconds elapse. The connection is
// always closed on return, which auto-deletes the private reply queue.
func (c *Client) Submit(ctx context.Context, jobID, code string) (orpipe.SandboxResultMessage, error) {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return orpipe.SandboxResultMessage{}, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return orpipe.SandboxResultMessage{}, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(c.sandboxIn, true, false, false, false, nil); err != nil {
		return orpipe.SandboxResultMessage{}, fmt.Errorf("declare in-queue: %w", err)
	}

	replyQueue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return orpipe.SandboxResultMessage{}, fmt.Errorf("declare reply queue: %w", err)
	}

	job := orpipe.SandboxJobMessage{JobID: jobID, Code: code, ResponseQueue: replyQueue.Name}
	body, err := json.Marshal(job)
	if err != nil {
		return orpipe.SandboxResultMessage{}, fmt.Errorf("marshal job: %w", err)
	}

	if err := ch.PublishWithContext(ctx, "", c.sandboxIn, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}); err != nil {
		return orpipe.SandboxResultMessage{}, fmt.Errorf("publish job: %w", err)
	}

	deliveries, err := ch.Consume(replyQueue.Name, "", false, true, false, false, nil)
	if err != nil {
		return orpipe.SandboxResultMessage{}, fmt.Errorf("consume reply queue: %w", err)
	}

	deadline := time.After(callTimeout)
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return orpipe.SandboxResultMessage{}, fmt.Errorf("%w: job %s", orpipe.ErrSandboxTimeout, jobID)
			}
			var result orpipe.SandboxResultMessage
			if err := json.Unmarshal(d.Body, &result); err != nil {
				d.Nack(false, true)
				continue
			}
			if result.JobID != jobID {
				d.Nack(false, true)
				continue
			}
			d.Ack(false)
			return result, nil
		case <-deadline:
			return orpipe.SandboxResultMessage{}, fmt.Errorf("%w: job %s", orpipe.ErrSandboxTimeout, jobID)
		case <-ctx.Done():
			return orpipe.SandboxResultMessage{}, ctx.Err()
		}
	}
}
