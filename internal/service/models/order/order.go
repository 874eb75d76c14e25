package order

import (
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when no document exists under the requested key.
var ErrNotFound = errors.New("order not found")

// Address is the delivery address of an order.
type Address struct {
	City    string `json:"city"`
	Country string `json:"country"`
	Street  string `json:"street"`
	Zip     string `json:"zip"`
}

// Customer holds the contact details of the person who booked the order.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Order represents a booking stored in the document store.
// UID is the store key: it is filled on reads and never persisted inside the document.
type Order struct {
	UID         string   `json:"uid,omitempty"`
	Address     Address  `json:"address"`
	BookingDate int64    `json:"bookingDate"`
	Customer    Customer `json:"customer"`
	Title       string   `json:"title"`
}

// UpdateFields is the mutable part of an order.
type UpdateFields struct {
	BookingDate int64  `json:"bookingDate"`
	Title       string `json:"title"`
}

// Fields returns the update as a field map suitable for a partial merge.
func (u UpdateFields) Fields() map[string]any {
	return map[string]any{
		fieldBookingDate: u.BookingDate,
		fieldTitle:       u.Title,
	}
}

// FromDocument decodes a shaped document into an Order.
func FromDocument(doc map[string]any) (Order, error) {
	var o Order
	if err := decodeDocument(doc, &o); err != nil {
		return Order{}, err
	}
	o.UID = ""

	return o, nil
}

// UpdateFromDocument decodes a shaped update document into UpdateFields.
func UpdateFromDocument(doc map[string]any) (UpdateFields, error) {
	var u UpdateFields
	if err := decodeDocument(doc, &u); err != nil {
		return UpdateFields{}, err
	}

	return u, nil
}

func decodeDocument(doc map[string]any, v any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}
