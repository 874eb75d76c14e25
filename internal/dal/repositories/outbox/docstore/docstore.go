package docstorerepo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/corray333/backend-labs/booking/internal/dal/docstore"
	"github.com/corray333/backend-labs/booking/internal/service/models/outbox"
)

const collection = "outbox"

// OutboxRepository keeps undelivered messages in the "outbox" collection.
type OutboxRepository struct {
	client docstore.Client
}

// NewOutboxRepository creates a new outbox repository.
func NewOutboxRepository(client docstore.Client) *OutboxRepository {
	return &OutboxRepository{
		client: client,
	}
}

// Insert adds a new message to the outbox.
func (r *OutboxRepository) Insert(ctx context.Context, msg outbox.OutboxMessage) error {
	if _, err := r.client.Insert(ctx, collection, msg); err != nil {
		return fmt.Errorf("failed to insert outbox message: %w", err)
	}

	return nil
}

// GetPendingMessages retrieves messages that are ready for retry, oldest retry first.
func (r *OutboxRepository) GetPendingMessages(
	ctx context.Context,
	limit int,
) ([]outbox.OutboxMessage, error) {
	snap, err := r.client.ReadOnce(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to read outbox messages: %w", err)
	}

	var docs map[string]outbox.OutboxMessage
	if err := snap.Unmarshal(&docs); err != nil {
		return nil, err
	}

	now := time.Now()
	messages := make([]outbox.OutboxMessage, 0, len(docs))
	for id, msg := range docs {
		if !msg.Pending(now) {
			continue
		}
		msg.ID = id
		messages = append(messages, msg)
	}

	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].NextRetryAt.Equal(messages[j].NextRetryAt) {
			return messages[i].NextRetryAt.Before(messages[j].NextRetryAt)
		}

		return messages[i].ID < messages[j].ID
	})

	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}

	return messages, nil
}

// Delete removes a message from the outbox after successful delivery.
func (r *OutboxRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Write(ctx, docstore.Join(collection, id), nil); err != nil {
		return fmt.Errorf("failed to delete outbox message: %w", err)
	}

	return nil
}

// UpdateRetry updates retry count and error information.
func (r *OutboxRepository) UpdateRetry(
	ctx context.Context,
	id string,
	retryCount int,
	lastError string,
	nextRetryAt time.Time,
) error {
	err := r.client.Merge(ctx, docstore.Join(collection, id), map[string]any{
		"retryCount":  retryCount,
		"lastError":   lastError,
		"nextRetryAt": nextRetryAt,
		"updatedAt":   time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to update outbox message: %w", err)
	}

	return nil
}
