package rabbitmqrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/booking/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/booking/internal/service/models/event"
	"github.com/corray333/backend-labs/booking/internal/service/models/outbox"
)

const contentTypeJSON = "application/json"

// publisher sends raw messages to the broker.
type publisher interface {
	Publish(exchange, routingKey, contentType string, body []byte) error
}

// EventRabbitMQRepository publishes order events to a queue.
// Messages the broker rejects are parked in the outbox for the outbox worker.
type EventRabbitMQRepository struct {
	publisher  publisher
	outboxRepo ioutboxrepo.IOutboxRepository
	queueName  string
	maxRetries int
}

// NewEventRabbitMQRepository creates a new EventRabbitMQRepository.
func NewEventRabbitMQRepository(
	publisher publisher,
	outboxRepo ioutboxrepo.IOutboxRepository,
	queueName string,
	maxRetries int,
) *EventRabbitMQRepository {
	return &EventRabbitMQRepository{
		publisher:  publisher,
		outboxRepo: outboxRepo,
		queueName:  queueName,
		maxRetries: maxRetries,
	}
}

// Publish sends evt to the order events queue.
// It only fails when the event could neither be published nor parked in the outbox.
func (r *EventRabbitMQRepository) Publish(ctx context.Context, evt event.OrderEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}

	publishErr := r.publisher.Publish("", r.queueName, contentTypeJSON, payload)
	if publishErr == nil {
		return nil
	}

	slog.Warn("Failed to publish order event, parking it in the outbox",
		"event_type", evt.Type,
		"order_uid", evt.UID,
		"error", publishErr,
	)

	now := time.Now()
	err = r.outboxRepo.Insert(ctx, outbox.OutboxMessage{
		QueueName:    r.queueName,
		ExchangeName: "",
		RoutingKey:   r.queueName,
		Payload:      payload,
		ContentType:  contentTypeJSON,
		RetryCount:   0,
		MaxRetries:   r.maxRetries,
		LastError:    publishErr.Error(),
		CreatedAt:    now,
		UpdatedAt:    now,
		NextRetryAt:  now,
	})
	if err != nil {
		return fmt.Errorf("failed to park order event in outbox: %w", err)
	}

	return nil
}
