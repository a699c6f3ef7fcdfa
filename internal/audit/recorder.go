package audit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"adminpanel/internal/repository"
)

// Recorder accepts audit events. Implementations must never return an error
// to the caller; a lost audit entry costs an entry, not a request.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

type recorder struct {
	amqpURL      string
	queueEnabled bool
	logs         repository.ActivityLogRepository
}

// NewRecorder creates a recorder that publishes events to the broker when
// queueEnabled is set and falls back to a direct database write otherwise or
// whenever the broker is unreachable.
func NewRecorder(amqpURL string, queueEnabled bool, logs repository.ActivityLogRepository) Recorder {
	return &recorder{amqpURL: amqpURL, queueEnabled: queueEnabled, logs: logs}
}

func (r *recorder) Record(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if r.queueEnabled {
		if err := r.publish(ctx, event); err == nil {
			return
		}
		// fall through to the direct write so the entry is not lost
	}

	if err := r.logs.Create(ctx, event.ToModel()); err != nil {
		log.Printf("audit: persist event %s failed: %v", event.Action, err)
	}
}

// publish sends the event to the audit queue. Messages are persistent so they
// survive a broker restart; the background consumer drains them into the
// activity_logs table.
func (r *recorder) publish(ctx context.Context, event Event) error {
	conn, err := amqp.Dial(r.amqpURL)
	if err != nil {
		log.Printf("audit: broker dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("audit: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		log.Printf("audit: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("audit: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", QueueName, false, false, pub); err != nil {
		log.Printf("audit: publish failed: %v", err)
		return err
	}
	return nil
}
