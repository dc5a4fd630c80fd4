// internal/messaging/rabbit.go
package messaging

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"maintenance-intake/internal/metrics"
	"maintenance-intake/internal/notifier"
)

const (
	IntakeQueue = "intake_events"
	IntakeDLQ   = "intake_events_dlq"
)

// IntakeEvent is the envelope published after a submission commits. The
// relay workers consume it and forward the payload to the webhook endpoint.
type IntakeEvent struct {
	EventID    uuid.UUID        `json:"event_id"`
	Action     string           `json:"action"`
	OccurredAt time.Time        `json:"occurred_at"`
	Payload    notifier.Payload `json:"payload"`
}

type RabbitClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	URL     string
}

func NewRabbitClient(url string) (*RabbitClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	return &RabbitClient{
		conn:    conn,
		channel: ch,
		URL:     url,
	}, nil
}

func (r *RabbitClient) GetChannel() *amqp.Channel {
	return r.channel
}

func (r *RabbitClient) GetConnection() *amqp.Connection {
	return r.conn
}

// DeclareQueues sets up the durable intake events queue with its DLQ.
// Relay failures are dead-lettered there for diagnostics; nothing retries
// them.
func (r *RabbitClient) DeclareQueues() error {
	// 1. DLQ
	_, err := r.channel.QueueDeclare(
		IntakeDLQ,
		true, false, false, false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}

	// 2. Main queue with DLQ binding
	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": IntakeDLQ,
	}
	_, err = r.channel.QueueDeclare(
		IntakeQueue,
		true, false, false, false,
		args,
	)
	if err != nil {
		return fmt.Errorf("declare main queue: %w", err)
	}

	log.Printf("[Rabbit] Intake queues declared")
	return nil
}

// PublishIntake sends an intake event to the events queue.
func (r *RabbitClient) PublishIntake(event IntakeEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = r.channel.Publish(
		"",          // default exchange
		IntakeQueue, // routing key (queue name)
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID.String(),
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to queue %s: %w", IntakeQueue, err)
	}
	return nil
}

// Close cleans up connection and channel
func (r *RabbitClient) Close() error {
	if err := r.channel.Close(); err != nil {
		return err
	}
	if err := r.conn.Close(); err != nil {
		return err
	}
	return nil
}

func (r *RabbitClient) UpdateQueueDepth() {
	q, err := r.channel.QueueInspect(IntakeQueue)
	if err != nil {
		log.Printf("[Rabbit] Failed to inspect queue %s: %v", IntakeQueue, err)
		return
	}

	metrics.QueueDepth.Set(float64(q.Messages))
}
