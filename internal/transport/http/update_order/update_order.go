package updateorder

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/booking/internal/service/models/order"
	"github.com/corray333/backend-labs/booking/internal/transport/http/request"
	"github.com/corray333/backend-labs/booking/internal/transport/http/response"
	"github.com/go-chi/chi/v5"
)

const updatedMessage = "order updated"

type service interface {
	UpdateOrder(ctx context.Context, uid string, payload order.Payload) error
}

// UpdateOrder handles the update order request. Only bookingDate and title are changed.
func UpdateOrder(w http.ResponseWriter, r *http.Request, service service) {
	uid := chi.URLParam(r, "uid")

	payload, err := request.DecodePayload(w, r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Error decoding request body for update order", "uid", uid, "error", err)
		response.WriteInvalidBody(w, err)

		return
	}

	if err := service.UpdateOrder(r.Context(), uid, payload); err != nil {
		slog.ErrorContext(r.Context(), "Error updating order", "uid", uid, "error", err)
		response.WriteServiceError(w, err)

		return
	}

	response.WriteJSONResponse(w, http.StatusOK, response.MessageResponse{Message: updatedMessage})
}
