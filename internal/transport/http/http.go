package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/backend-labs/booking/internal/service/models/order"
	createorder "github.com/corray333/backend-labs/booking/internal/transport/http/create_order"
	getorder "github.com/corray333/backend-labs/booking/internal/transport/http/get_order"
	listorders "github.com/corray333/backend-labs/booking/internal/transport/http/list_orders"
	streamorders "github.com/corray333/backend-labs/booking/internal/transport/http/stream_orders"
	updateorder "github.com/corray333/backend-labs/booking/internal/transport/http/update_order"
	"github.com/corray333/backend-labs/booking/pkg/http/middleware/ratelimit"
	"github.com/corray333/backend-labs/booking/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/booking/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
)

const tracerName = "booking-svc"

type service interface {
	ListOrders(ctx context.Context) ([]order.Order, error)
	GetOrder(ctx context.Context, uid string) (*order.Order, error)
	CreateOrder(ctx context.Context, payload order.Payload) (string, error)
	UpdateOrder(ctx context.Context, uid string, payload order.Payload) error
	WatchOrders(ctx context.Context, onList func([]order.Order), onError func(error)) (func(), error)
}

type HTTPTransport struct {
	server  *http.Server
	router  *chi.Mux
	service service

	// streams is cancelled on shutdown so open event streams end
	streams       context.Context
	cancelStreams context.CancelFunc
}

func NewHTTPTransport(service service) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	streams, cancelStreams := context.WithCancel(context.Background())
	server.RegisterOnShutdown(cancelStreams)

	return &HTTPTransport{
		server:        server,
		router:        router,
		service:       service,
		streams:       streams,
		cancelStreams: cancelStreams,
	}
}

// Handler returns the router serving the registered routes.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// Run serves until Shutdown is called. A clean shutdown returns nil.
func (h *HTTPTransport) Run() error {
	if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown stops accepting connections and waits for active requests.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Post("/", h.createOrder)
		r.Get("/stream", h.streamOrders)
		r.Get("/{uid}", h.getOrder)
		r.Put("/{uid}", h.updateOrder)
	})
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.service)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.service)
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.service)
}

func (h *HTTPTransport) updateOrder(w http.ResponseWriter, r *http.Request) {
	updateorder.UpdateOrder(w, r, h.service)
}

func (h *HTTPTransport) streamOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(h.streams, cancel)
	defer stop()

	streamorders.StreamOrders(w, r.WithContext(ctx), h.service)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware(tracerName))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	if rps := viper.GetFloat64("server.http.rate_limit.rps"); rps > 0 {
		limiter := ratelimit.New(
			rps,
			viper.GetInt("server.http.rate_limit.burst"),
			ratelimit.WithTrustForwarded(viper.GetBool("server.http.rate_limit.trust_forwarded")),
		)
		router.Use(limiter.Handler)
	}

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:           router,
		ReadHeaderTimeout: time.Duration(viper.GetInt("server.http.read_header_timeout_seconds")) * time.Second,
	}
}
