package createorder

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/booking/internal/service/models/order"
	"github.com/corray333/backend-labs/booking/internal/transport/http/request"
	"github.com/corray333/backend-labs/booking/internal/transport/http/response"
)

const createdMessage = "order created"

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, payload order.Payload) (string, error)
}

// CreateOrder handles the create order request.
// Both nested and flat payloads are accepted; the response carries the new uid.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	payload, err := request.DecodePayload(w, r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Error decoding request body for create order", "error", err)
		response.WriteInvalidBody(w, err)

		return
	}

	uid, err := service.CreateOrder(r.Context(), payload)
	if err != nil {
		slog.ErrorContext(r.Context(), "Error creating order", "error", err)
		response.WriteServiceError(w, err)

		return
	}

	response.WriteJSONResponse(w, http.StatusCreated, response.MessageResponse{
		Message: createdMessage,
		UID:     uid,
	})
}
