package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corray333/backend-labs/booking/internal/dal/docstore"
	firebasestore "github.com/corray333/backend-labs/booking/internal/dal/docstore/firebase"
	"github.com/corray333/backend-labs/booking/internal/dal/docstore/memory"
	postgresstore "github.com/corray333/backend-labs/booking/internal/dal/docstore/postgres"
	"github.com/corray333/backend-labs/booking/internal/dal/interfaces/ieventrepo"
	"github.com/corray333/backend-labs/booking/internal/dal/postgres"
	"github.com/corray333/backend-labs/booking/internal/dal/rabbitmq"
	rabbitmqrepo "github.com/corray333/backend-labs/booking/internal/dal/repositories/event/rabbitmq"
	orderrepo "github.com/corray333/backend-labs/booking/internal/dal/repositories/order/docstore"
	outboxrepo "github.com/corray333/backend-labs/booking/internal/dal/repositories/outbox/docstore"
	"github.com/corray333/backend-labs/booking/internal/otel"
	"github.com/corray333/backend-labs/booking/internal/service/services/ordersvc"
	httptransport "github.com/corray333/backend-labs/booking/internal/transport/http"
	outboxworker "github.com/corray333/backend-labs/booking/internal/worker/outbox"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// App represents the application.
type App struct {
	orderSvc       *ordersvc.OrderService
	transport      *httptransport.HTTPTransport
	store          docstore.Client
	outboxWorker   *outboxworker.Worker
	rabbitMqClient *rabbitmq.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	a := &App{}

	if viper.GetBool("otel.enabled") {
		a.otelController = otel.MustInitOtel()
	}

	a.store = mustNewStore()

	var eventRepository ieventrepo.IEventRepository
	if viper.GetBool("rabbitmq.enabled") {
		a.rabbitMqClient = rabbitmq.MustNewClient()

		queue := viper.GetString("rabbitmq.queues.order_events")
		if _, err := a.rabbitMqClient.DeclareQueue(rabbitmq.DeclareQueueConfig{
			Name:    queue,
			Durable: true,
		}); err != nil {
			panic(fmt.Sprintf("Failed to declare queue %q: %v", queue, err))
		}

		// Initialize outbox repository in the same store as the orders
		outboxRepository := outboxrepo.NewOutboxRepository(a.store)

		eventRepository = rabbitmqrepo.NewEventRabbitMQRepository(
			a.rabbitMqClient,
			outboxRepository,
			queue,
			viper.GetInt("rabbitmq.outbox.max_retries"),
		)

		a.outboxWorker = outboxworker.NewWorker(outboxRepository, a.rabbitMqClient)
	}

	a.orderSvc = ordersvc.MustNewOrderService(
		ordersvc.WithOrderRepository(orderrepo.NewOrderRepository(a.store)),
		ordersvc.WithEventRepository(eventRepository),
	)

	a.transport = httptransport.NewHTTPTransport(a.orderSvc)
	a.transport.RegisterRoutes()

	return a
}

// mustNewStore connects to the document store selected by store.driver.
func mustNewStore() docstore.Client {
	driver := viper.GetString("store.driver")
	slog.Info("Connecting to document store", "driver", driver)

	switch driver {
	case "memory":
		return memory.NewStore()
	case "postgres":
		return postgresstore.NewStore(postgres.MustNewClient())
	case "firebase":
		return firebasestore.MustNewStore(
			context.Background(),
			viper.GetString("store.firebase.database_url"),
			viper.GetString("store.firebase.credentials_file"),
			viper.GetDuration("store.firebase.poll_interval"),
		)
	default:
		panic(fmt.Sprintf("unknown store driver %q", driver))
	}
}

// Run starts the application and blocks until an interrupt signal or a fatal server error.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting HTTP server", "port", viper.GetString("server.http.port"))

		return a.transport.Run()
	})

	if a.outboxWorker != nil {
		g.Go(func() error {
			slog.Info("Starting outbox worker")
			a.outboxWorker.Start(gctx)

			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutdown signal received")

		a.gracefulShutdown()

		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Application stopped with error", "error", err)
	}

	slog.Info("Application shutdown complete")
}

// gracefulShutdown stops the HTTP server, the outbox worker, RabbitMQ, the store and tracing, in that order.
func (a *App) gracefulShutdown() {
	timeout := time.Duration(viper.GetInt("server.http.shutdown_timeout_seconds")) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if a.outboxWorker != nil {
		a.outboxWorker.Stop()
		slog.Info("Outbox worker stopped gracefully")
	}

	if a.rabbitMqClient != nil {
		if err := a.rabbitMqClient.Close(); err != nil {
			slog.Error("RabbitMQ connection close error", "error", err)
		} else {
			slog.Info("RabbitMQ connection closed gracefully")
		}
	}

	if err := a.store.Close(); err != nil {
		slog.Error("Document store close error", "error", err)
	} else {
		slog.Info("Document store closed gracefully")
	}

	if a.otelController != nil {
		if err := a.otelController.Shutdown(ctx); err != nil {
			slog.Error("Otel trace provider connection close error", "error", err)
		} else {
			slog.Info("Otel trace provider connection closed gracefully")
		}
	}
}
