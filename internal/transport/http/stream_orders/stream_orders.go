package streamorders

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/backend-labs/booking/internal/service/models/order"
	"github.com/corray333/backend-labs/booking/internal/transport/http/response"
)

const (
	eventOrders = "orders"
	eventError  = "error"

	keepAliveInterval = 15 * time.Second
)

type service interface {
	WatchOrders(ctx context.Context, onList func([]order.Order), onError func(error)) (func(), error)
}

// StreamOrders pushes the order list as server-sent events: once on connect
// and again after every change, until the client goes away.
func StreamOrders(w http.ResponseWriter, r *http.Request, service service) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	lists := make(chan []order.Order, 1)
	errs := make(chan error, 1)

	stop, err := service.WatchOrders(ctx, func(list []order.Order) {
		// keep only the newest list
		select {
		case <-lists:
		default:
		}
		select {
		case lists <- list:
		case <-ctx.Done():
		}
	}, func(err error) {
		select {
		case errs <- err:
		default:
		}
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Error subscribing to orders", "error", err)
		response.WriteServiceError(w, err)

		return
	}
	defer stop()

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		slog.ErrorContext(r.Context(), "Streaming is not supported by the response writer", "error", err)

		return
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case list := <-lists:
			if err := writeEvent(w, eventOrders, list); err != nil {
				slog.ErrorContext(r.Context(), "Error writing orders event", "error", err)

				return
			}
		case err := <-errs:
			slog.ErrorContext(r.Context(), "Order subscription failed", "error", err)
			_ = writeEvent(w, eventError, response.ErrorResponse{Error: "store error", Message: err.Error()})
			_ = rc.Flush()

			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}

		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)

	return err
}
