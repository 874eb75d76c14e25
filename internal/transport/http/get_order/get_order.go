package getorder

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/booking/internal/service/models/order"
	"github.com/corray333/backend-labs/booking/internal/transport/http/response"
	"github.com/go-chi/chi/v5"
)

type service interface {
	GetOrder(ctx context.Context, uid string) (*order.Order, error)
}

// GetOrder handles the get order request. The order is returned without its uid.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	uid := chi.URLParam(r, "uid")

	o, err := service.GetOrder(r.Context(), uid)
	if err != nil {
		slog.ErrorContext(r.Context(), "Error getting order", "uid", uid, "error", err)
		response.WriteServiceError(w, err)

		return
	}

	response.WriteJSONResponse(w, http.StatusOK, o)
}
