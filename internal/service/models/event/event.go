package event

import (
	"time"

	"github.com/corray333/backend-labs/booking/internal/service/models/order"
)

// Type names an order lifecycle event.
type Type string

const (
	TypeOrderCreated Type = "order.created"
	TypeOrderUpdated Type = "order.updated"
)

func (t Type) String() string {
	return string(t)
}

// OrderEvent is published after an order has been written.
// Created events carry the whole order, updated events only the merged fields.
type OrderEvent struct {
	Type       Type                `json:"type"`
	UID        string              `json:"uid"`
	Order      *order.Order        `json:"order,omitempty"`
	Update     *order.UpdateFields `json:"update,omitempty"`
	OccurredAt time.Time           `json:"occurredAt"`
}

// Created builds the event for a newly inserted order.
func Created(uid string, o order.Order, at time.Time) OrderEvent {
	o.UID = uid

	return OrderEvent{Type: TypeOrderCreated, UID: uid, Order: &o, OccurredAt: at}
}

// Updated builds the event for a merged update.
func Updated(uid string, u order.UpdateFields, at time.Time) OrderEvent {
	return OrderEvent{Type: TypeOrderUpdated, UID: uid, Update: &u, OccurredAt: at}
}
