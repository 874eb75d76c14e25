package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/corray333/backend-labs/booking/internal/service/models/order"
)

const maxBodyBytes = 1 << 20

// DecodePayload reads the request body as a JSON object.
// Numbers are kept as json.Number so integers survive validation intact.
func DecodePayload(w http.ResponseWriter, r *http.Request) (order.Payload, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()

	var payload order.Payload
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, errors.New("body must be a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON object")
	}

	return payload, nil
}
