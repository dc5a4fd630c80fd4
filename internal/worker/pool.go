package worker

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/streadway/amqp"

	"maintenance-intake/internal/messaging"
	"maintenance-intake/internal/metrics"
	"maintenance-intake/internal/notifier"
)

// Pool is a fixed-size set of relay workers. The consumer feeds it intake
// event deliveries; each worker forwards the payload to the webhook endpoint
// and acks on success. Failed relays are rejected to the DLQ for diagnostics
// only; nothing retries them, and nothing upstream ever hears about them.
type Pool struct {
	notify  *notifier.Notifier
	jobs    chan amqp.Delivery
	stopCh  chan struct{}
	wg      sync.WaitGroup
	workers int
}

func NewPool(notify *notifier.Notifier, workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{
		notify:  notify,
		jobs:    make(chan amqp.Delivery, workerCount),
		stopCh:  make(chan struct{}),
		workers: workerCount,
	}
}

func (p *Pool) Start() {
	log.Printf("[Worker] Starting relay pool with %d workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()

			metrics.RelayWorkerActive.Add(1)
			defer metrics.RelayWorkerActive.Sub(1)

			for {
				select {
				case <-p.stopCh:
					return
				case msg, ok := <-p.jobs:
					if !ok {
						return
					}
					p.handleDelivery(msg)
				}
			}
		}()
	}
}

// Enqueue hands a delivery to the pool. It is the consumer's handler.
func (p *Pool) Enqueue(msg amqp.Delivery) {
	select {
	case p.jobs <- msg:
	case <-p.stopCh:
		_ = msg.Nack(false, true) // requeue for after restart
	}
}

// Stop drains the workers and waits for in-flight relays to finish.
func (p *Pool) Stop() {
	close(p.stopCh)
	p.wg.Wait()
	log.Printf("[Worker] Relay pool stopped")
}

func (p *Pool) handleDelivery(msg amqp.Delivery) {
	var event messaging.IntakeEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Printf("[Worker] Failed to parse intake event: %v", err)
		_ = msg.Reject(false) // send to DLQ
		return
	}

	result := p.notify.Relay(context.Background(), event.Payload)
	if !result.Success {
		log.Printf("[Worker] Relay failed for request %s: %s", event.Payload.RequestID, result.Error)
		metrics.RelaysTotal.WithLabelValues("failure").Inc()
		_ = msg.Reject(false) // send to DLQ
		return
	}

	_ = msg.Ack(false)
	metrics.RelaysTotal.WithLabelValues("success").Inc()
	log.Printf("[Worker] Relayed intake event %s", event.EventID)
}
