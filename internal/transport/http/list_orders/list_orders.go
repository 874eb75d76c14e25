package listorders

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/booking/internal/service/models/order"
	"github.com/corray333/backend-labs/booking/internal/transport/http/response"
)

// service is an interface for the service layer.
type service interface {
	ListOrders(ctx context.Context) ([]order.Order, error)
}

// ListOrders handles the list orders request with a single read of the collection.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	orders, err := service.ListOrders(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Error listing orders", "error", err)
		response.WriteServiceError(w, err)

		return
	}

	response.WriteJSONResponse(w, http.StatusOK, orders)
}
