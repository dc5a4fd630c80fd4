// internal/consumer/consumer.go
package consumer

import (
	"fmt"
	"log"

	"github.com/streadway/amqp"

	"maintenance-intake/internal/messaging"
)

type HandlerFunc func(delivery amqp.Delivery)

// Consumer holds control channels and metadata for the running intake-event
// consumer. Deliveries are handed to the handler unacked; the handler owns
// the ack/reject decision.
type Consumer struct {
	QueueName   string
	Channel     *amqp.Channel
	StopChan    chan struct{}
	DoneChan    chan struct{}
	Handler     HandlerFunc
	ConsumerTag string
}

// StartConsumer starts a goroutine that consumes intake events
func StartConsumer(conn *amqp.Connection, handler HandlerFunc) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	consumerTag := "intake-relay-consumer"

	msgs, err := ch.Consume(
		messaging.IntakeQueue,
		consumerTag,
		false, // autoAck: false, relay outcome decides
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	c := &Consumer{
		QueueName:   messaging.IntakeQueue,
		Channel:     ch,
		StopChan:    make(chan struct{}),
		DoneChan:    make(chan struct{}),
		Handler:     handler,
		ConsumerTag: consumerTag,
	}

	go c.consumeLoop(msgs)

	log.Printf("Started intake event consumer")
	return c, nil
}

// consumeLoop processes messages until StopChan is closed
func (c *Consumer) consumeLoop(msgs <-chan amqp.Delivery) {
	defer func() {
		close(c.DoneChan)
	}()

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				log.Printf("Intake consumer: delivery channel closed")
				return
			}
			c.Handler(msg)

		case <-c.StopChan:
			log.Printf("Stopping intake consumer...")
			_ = c.Channel.Cancel(c.ConsumerTag, false)
			return
		}
	}
}

// Stop signals the consumer to stop and waits for cleanup
func (c *Consumer) Stop() {
	close(c.StopChan)
	<-c.DoneChan
	_ = c.Channel.Close()
	log.Printf("Stopped intake consumer")
}
