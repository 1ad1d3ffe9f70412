package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// ConsumerConfig configures the activity consumer.
type ConsumerConfig struct {
	URL     string
	Queue   string
	LogPath string
}

// StartActivityConsumer connects to RabbitMQ, declares the queue (durable)
// and appends one line per event to cfg.LogPath.  It reconnects with
// exponential back-off from 1s to 30s and returns when ctx is cancelled.
// Messages that cannot be handled are rejected without requeue so a bad
// payload cannot loop.
func StartActivityConsumer(ctx context.Context, cfg ConsumerConfig) error {
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir activity log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open activity log: %w", err)
	}
	defer f.Close()
	w := &lockedWriter{w: f}

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(cfg.URL)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("activity-consumer: dial failed")
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
				if backoff > 30*time.Second {
					backoff = 30 * time.Second
				}
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, cfg.Queue, w)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("activity-consumer: consume loop ended; reconnecting")
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, w io.Writer) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn().Err(err).Msg("activity-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleMessage(d.Body, w); err != nil {
				log.Error().Err(err).Msg("activity-consumer: handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// handleMessage decodes one event and writes it as a single line.
func handleMessage(body []byte, w io.Writer) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	if _, err := io.WriteString(w, formatEvent(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatEvent(ev Event) string {
	at := ev.OccurredAt.UTC().Format(time.RFC3339)
	switch ev.Type {
	case EventReservationCreated:
		return fmt.Sprintf("[%s] Reservation created | reservation_id=%d | announcement_id=%d | student_id=%d | owner_id=%d\n",
			at, ev.ReservationID, ev.AnnouncementID, ev.ActorID, ev.RecipientID)
	case EventMessageSent:
		return fmt.Sprintf("[%s] Message sent | message_id=%d | reservation_id=%d | sender_id=%d | recipient_id=%d\n",
			at, ev.MessageID, ev.ReservationID, ev.ActorID, ev.RecipientID)
	case EventReviewCreated:
		return fmt.Sprintf("[%s] Review created | review_id=%d | announcement_id=%d | user_id=%d | rating=%d\n",
			at, ev.ReviewID, ev.AnnouncementID, ev.ActorID, ev.Rating)
	default:
		return fmt.Sprintf("[%s] %s | actor_id=%d\n", at, ev.Type, ev.ActorID)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
