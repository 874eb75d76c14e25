package iorderrepo

import (
	"context"

	"github.com/corray333/backend-labs/booking/internal/service/models/order"
)

// IOrderRepository is an interface for the order repository.
type IOrderRepository interface {
	List(ctx context.Context) ([]order.Order, error)
	Get(ctx context.Context, uid string) (*order.Order, error)
	Insert(ctx context.Context, o order.Order) (string, error)
	Merge(ctx context.Context, uid string, fields map[string]any) error
	Watch(
		ctx context.Context,
		onList func([]order.Order),
		onError func(error),
	) (stop func(), err error)
}
