package ordersvc

import (
	"context"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/booking/internal/dal/interfaces/ieventrepo"
	"github.com/corray333/backend-labs/booking/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/booking/internal/service/models/event"
	"github.com/corray333/backend-labs/booking/internal/service/models/order"
	"github.com/corray333/backend-labs/booking/internal/validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "booking-svc/ordersvc"

// OrderService validates, shapes and persists orders.
type OrderService struct {
	orderRepo       iorderrepo.IOrderRepository
	eventRepo       ieventrepo.IEventRepository
	createValidator *validation.Validator
	updateValidator *validation.Validator
	tracer          trace.Tracer
	now             func() time.Time
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		createValidator: validation.MustCompile(order.CreateSchema),
		updateValidator: validation.MustCompile(order.UpdateSchema),
		tracer:          otel.Tracer(tracerName),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.orderRepo == nil {
		panic("ordersvc: order repository is required")
	}

	return s
}

// WithOrderRepository sets the order repository for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderRepository(repo iorderrepo.IOrderRepository) option {
	return func(s *OrderService) {
		s.orderRepo = repo
	}
}

// WithEventRepository sets the repository order events are published to.
// Without it no events are published.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithEventRepository(repo ieventrepo.IEventRepository) option {
	return func(s *OrderService) {
		s.eventRepo = repo
	}
}

// ListOrders reads every order once.
func (s *OrderService) ListOrders(ctx context.Context) ([]order.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrders")
	defer span.End()

	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		recordError(span, err)

		return nil, err
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))

	return orders, nil
}

// GetOrder reads the order stored under uid.
func (s *OrderService) GetOrder(ctx context.Context, uid string) (*order.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder", trace.WithAttributes(
		attribute.String("order.uid", uid),
	))
	defer span.End()

	o, err := s.orderRepo.Get(ctx, uid)
	if err != nil {
		recordError(span, err)

		return nil, err
	}

	return o, nil
}

// CreateOrder validates payload against the create schema and stores it under a new key.
func (s *OrderService) CreateOrder(ctx context.Context, payload order.Payload) (string, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	doc := order.ToStorageShape(payload)
	if err := s.validate(s.createValidator, doc); err != nil {
		recordError(span, err)

		return "", err
	}

	o, err := order.FromDocument(doc)
	if err != nil {
		recordError(span, err)

		return "", fmt.Errorf("failed to decode order: %w", err)
	}

	uid, err := s.orderRepo.Insert(ctx, o)
	if err != nil {
		recordError(span, err)

		return "", err
	}
	span.SetAttributes(attribute.String("order.uid", uid))

	s.publish(ctx, span, event.Created(uid, o, s.now()))

	return uid, nil
}

// UpdateOrder validates payload against the update schema and merges
// bookingDate and title into the existing order.
//
// The existence check and the merge are two separate store calls: a delete
// landing between them lets the merge recreate a document holding only the
// updated fields. Concurrent updates of the same order are last-write-wins.
func (s *OrderService) UpdateOrder(ctx context.Context, uid string, payload order.Payload) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateOrder", trace.WithAttributes(
		attribute.String("order.uid", uid),
	))
	defer span.End()

	doc := order.ToUpdateShape(payload)
	if err := s.validate(s.updateValidator, doc); err != nil {
		recordError(span, err)

		return err
	}

	update, err := order.UpdateFromDocument(doc)
	if err != nil {
		recordError(span, err)

		return fmt.Errorf("failed to decode order update: %w", err)
	}

	// merge would create the document, so absent keys must stop here
	if _, err := s.orderRepo.Get(ctx, uid); err != nil {
		recordError(span, err)

		return err
	}

	if err := s.orderRepo.Merge(ctx, uid, update.Fields()); err != nil {
		recordError(span, err)

		return err
	}

	s.publish(ctx, span, event.Updated(uid, update, s.now()))

	return nil
}

// WatchOrders calls onList with the current orders and after every change,
// until stop is called or ctx is done.
func (s *OrderService) WatchOrders(
	ctx context.Context,
	onList func([]order.Order),
	onError func(error),
) (func(), error) {
	return s.orderRepo.Watch(ctx, onList, onError)
}

func (s *OrderService) validate(v *validation.Validator, doc map[string]any) error {
	violations, err := v.Validate(doc)
	if err != nil {
		return err
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	if violation := order.NormalizeBookingDate(doc); violation != nil {
		return &ValidationError{Violations: []validation.Violation{*violation}}
	}

	return nil
}

// publish hands evt to the event repository. Delivery problems never fail the write.
func (s *OrderService) publish(ctx context.Context, span trace.Span, evt event.OrderEvent) {
	if s.eventRepo == nil {
		return
	}

	if err := s.eventRepo.Publish(ctx, evt); err != nil {
		span.RecordError(err, trace.WithAttributes(attribute.String("event.type", evt.Type.String())))
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
