package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DialTimeout bounds connection setup for a single publish.  A shorter
// context deadline wins.
const DialTimeout = 2 * time.Second

// Publisher sends events to a durable queue on the default exchange.  A
// connection is opened per publish.
type Publisher struct {
	URL   string
	Queue string
	dial  func(url string, timeout time.Duration) (*amqp.Connection, error)
}

// NewPublisher returns a Publisher for the given broker URL and queue.
func NewPublisher(url, queue string) *Publisher {
	return &Publisher{URL: url, Queue: queue, dial: dialBroker}
}

func dialBroker(url string, timeout time.Duration) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
}

// dialTimeout returns DialTimeout capped by the time left on ctx.
func dialTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < DialTimeout {
			return left
		}
	}
	return DialTimeout
}

// Publish marshals ev and publishes it as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	timeout := dialTimeout(ctx)
	if err := ctx.Err(); err != nil || timeout <= 0 {
		if err == nil {
			err = context.DeadlineExceeded
		}
		return fmt.Errorf("dial broker: %w", err)
	}
	conn, err := p.dial(p.URL, timeout)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Nop discards events.  It is used when the queue is disabled.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
