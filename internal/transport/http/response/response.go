package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/corray333/backend-labs/booking/internal/service/models/order"
	"github.com/corray333/backend-labs/booking/internal/service/services/ordersvc"
)

const (
	errStore       = "store error"
	errInvalidBody = "invalid request body"
)

// ErrorResponse is the body of every failed request except validation failures.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// MessageResponse confirms a write. UID is set only for created orders.
type MessageResponse struct {
	Message string `json:"message"`
	UID     string `json:"uid,omitempty"`
}

// WriteJSONResponse writes data as JSON with the given status code.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteErrorResponse writes an ErrorResponse with the given status code.
func WriteErrorResponse(w http.ResponseWriter, statusCode int, err, message string) {
	WriteJSONResponse(w, statusCode, ErrorResponse{
		Error:   err,
		Message: message,
	})
}

// WriteInvalidBody reports a request body that is not a JSON object.
func WriteInvalidBody(w http.ResponseWriter, err error) {
	WriteErrorResponse(w, http.StatusBadRequest, errInvalidBody, err.Error())
}

// WriteServiceError maps an order service error to its response.
// Every failure is reported as 400.
func WriteServiceError(w http.ResponseWriter, err error) {
	var validationErr *ordersvc.ValidationError
	switch {
	case errors.As(err, &validationErr):
		WriteJSONResponse(w, http.StatusBadRequest, validationErr.Violations)
	case errors.Is(err, order.ErrNotFound):
		WriteErrorResponse(w, http.StatusBadRequest, order.ErrNotFound.Error(), "")
	default:
		WriteErrorResponse(w, http.StatusBadRequest, errStore, err.Error())
	}
}
