package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// DefaultQueue is the durable queue auction events are routed to.
const DefaultQueue = "auction.events"

// AMQPPublisher publishes events to a durable RabbitMQ queue through the
// default exchange.  Each call dials its own connection; events are rare
// enough that pooling is not worth the reconnect bookkeeping.
type AMQPPublisher struct {
	URL   string
	Queue string
	log   *logrus.Entry
}

// NewAMQPPublisher returns a publisher for url.  An empty queue selects
// DefaultQueue.
func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AMQPPublisher{URL: url, Queue: queue, log: logrus.WithField("component", "notify.amqp")}
}

// Notify publishes ev as a persistent JSON message.  The event ID becomes
// the AMQP MessageId so consumers can drop duplicates.
func (p *AMQPPublisher) Notify(ctx context.Context, ev Event) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         string(ev.Kind),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	p.log.WithFields(logrus.Fields{"event_id": ev.ID, "kind": ev.Kind}).Debug("event published")
	return nil
}

// LogPublisher writes events to the log instead of a broker.  It backs
// NOTIFY_DRIVER=log and local runs without RabbitMQ.
type LogPublisher struct {
	log *logrus.Entry
}

// NewLogPublisher returns a LogPublisher writing through l, or the standard
// logger when l is nil.
func NewLogPublisher(l *logrus.Entry) *LogPublisher {
	if l == nil {
		l = logrus.WithField("component", "notify.log")
	}
	return &LogPublisher{log: l}
}

func (p *LogPublisher) Notify(_ context.Context, ev Event) error {
	p.log.WithFields(logrus.Fields{
		"event_id":       ev.ID,
		"kind":           ev.Kind,
		"recipients":     ev.Recipients,
		"listing_id":     ev.ListingID,
		"transaction_id": ev.TransactionID,
	}).Info(Render(ev))
	return nil
}
