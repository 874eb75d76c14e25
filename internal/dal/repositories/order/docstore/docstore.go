package docstorerepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/corray333/backend-labs/booking/internal/dal/docstore"
	"github.com/corray333/backend-labs/booking/internal/service/models/order"
)

const collection = "orders"

// OrderRepository keeps orders under the "orders" collection of a document store.
type OrderRepository struct {
	client docstore.Client
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(client docstore.Client) *OrderRepository {
	return &OrderRepository{
		client: client,
	}
}

// List reads the collection once and returns every order annotated with its key.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	snap, err := r.client.ReadOnce(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	return toList(snap)
}

// Get reads a single order. It returns order.ErrNotFound when the key holds no document.
func (r *OrderRepository) Get(ctx context.Context, uid string) (*order.Order, error) {
	if err := docstore.ValidateKey(uid); err != nil {
		return nil, order.ErrNotFound
	}

	snap, err := r.client.ReadOnce(ctx, docstore.Join(collection, uid))
	if err != nil {
		if errors.Is(err, docstore.ErrInvalidPath) {
			return nil, order.ErrNotFound
		}

		return nil, fmt.Errorf("failed to read order %q: %w", uid, err)
	}
	if !snap.Exists() {
		return nil, order.ErrNotFound
	}

	var o order.Order
	if err := snap.Unmarshal(&o); err != nil {
		return nil, fmt.Errorf("failed to decode order %q: %w", uid, err)
	}

	return &o, nil
}

// Insert stores o under a new key and returns the key.
func (r *OrderRepository) Insert(ctx context.Context, o order.Order) (string, error) {
	o.UID = ""

	uid, err := r.client.Insert(ctx, collection, o)
	if err != nil {
		return "", fmt.Errorf("failed to insert order: %w", err)
	}

	return uid, nil
}

// Merge applies a partial update to the order at uid.
// The store creates the document if it is absent, so callers check existence first.
func (r *OrderRepository) Merge(ctx context.Context, uid string, fields map[string]any) error {
	if err := docstore.ValidateKey(uid); err != nil {
		return order.ErrNotFound
	}

	if err := r.client.Merge(ctx, docstore.Join(collection, uid), fields); err != nil {
		return fmt.Errorf("failed to merge order %q: %w", uid, err)
	}

	return nil
}

// Watch reports the full order list now and after every change to the collection.
func (r *OrderRepository) Watch(
	ctx context.Context,
	onList func([]order.Order),
	onError func(error),
) (func(), error) {
	stop, err := r.client.ReadContinuous(ctx, collection, func(snap docstore.Snapshot) {
		list, err := toList(snap)
		if err != nil {
			if onError != nil {
				onError(err)
			}

			return
		}
		onList(list)
	}, onError)
	if err != nil {
		return nil, fmt.Errorf("failed to watch orders: %w", err)
	}

	return stop, nil
}

func toList(snap docstore.Snapshot) ([]order.Order, error) {
	var docs map[string]order.Order
	if err := snap.Unmarshal(&docs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	return order.CollectionToList(docs), nil
}
