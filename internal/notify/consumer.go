package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// maxSeen bounds the duplicate filter; redeliveries arrive close together.
const maxSeen = 10000

// Consumer drains the events queue and appends one rendered line per event
// to a notification log, standing in for the outbound mail worker.
type Consumer struct {
	URL     string
	Queue   string
	LogPath string

	log  *logrus.Entry
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewConsumer returns a consumer writing to logPath.  Empty values select
// DefaultQueue and logs/notifications.log.
func NewConsumer(url, queue, logPath string) *Consumer {
	if queue == "" {
		queue = DefaultQueue
	}
	if logPath == "" {
		logPath = filepath.Join("logs", "notifications.log")
	}
	return &Consumer{
		URL:     url,
		Queue:   queue,
		LogPath: logPath,
		log:     logrus.WithField("component", "notify.consumer"),
		seen:    make(map[string]struct{}),
	}
}

// Run connects and consumes until ctx is cancelled, reconnecting with
// exponential backoff when the broker goes away.  It returns nil on
// cancellation.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.log.WithError(err).WithField("retry_in", backoff.String()).Warn("failed to dial broker")
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.log.WithError(err).Warn("consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.WithError(err).Warn("set QoS failed")
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
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
			if err := c.HandleMessage(d.Body); err != nil {
				c.log.WithError(err).WithField("message_id", d.MessageId).Error("handle message failed")
				_ = d.Nack(false, false) // do not requeue poison messages
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one delivery body and appends its rendered line.
// Redelivered events with an already seen ID are acknowledged silently.
func (c *Consumer) HandleMessage(body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.ID == "" || ev.Kind == "" {
		return errors.New("event without id or kind")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.seen[ev.ID]; dup {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(Render(ev) + "\n"); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	if len(c.seen) >= maxSeen {
		c.seen = make(map[string]struct{})
	}
	c.seen[ev.ID] = struct{}{}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
