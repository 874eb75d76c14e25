package ieventrepo

import (
	"context"

	"github.com/corray333/backend-labs/booking/internal/service/models/event"
)

// IEventRepository publishes order events.
type IEventRepository interface {
	Publish(ctx context.Context, evt event.OrderEvent) error
}
