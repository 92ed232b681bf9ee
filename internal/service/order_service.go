package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pizzashop/order-service/internal/domain"
	"github.com/pizzashop/order-service/internal/factory"
	"github.com/pizzashop/order-service/internal/observability"
	"github.com/pizzashop/order-service/internal/repository"
	apperrors "github.com/pizzashop/order-service/pkg/util"
)

const orderPageSize = 10

// OrderService serves the menu and orchestrates order placement against
// the external factory.
type OrderService struct {
	menu      repository.MenuRepository
	orders    repository.OrderRepository
	factory   factory.Submitter
	telemetry *observability.Telemetry
	logger    *zap.Logger
}

// OrderDependencies bundles the service's collaborators.
type OrderDependencies struct {
	MenuRepo  repository.MenuRepository
	OrderRepo repository.OrderRepository
	Factory   factory.Submitter
	Telemetry *observability.Telemetry
	Logger    *zap.Logger
}

// NewOrderService builds the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	return &OrderService{
		menu:      deps.MenuRepo,
		orders:    deps.OrderRepo,
		factory:   deps.Factory,
		telemetry: deps.Telemetry,
		logger:    deps.Logger,
	}
}

// OrderItemInput is one requested line item, priced at request time.
type OrderItemInput struct {
	MenuID      int64
	Description string
	Price       float64
}

// OrderInput is the payload for placing an order.
type OrderInput struct {
	FranchiseID int64
	StoreID     int64
	Items       []OrderItemInput
}

// PlacedOrder is the successful result of placing an order.
type PlacedOrder struct {
	Order            *domain.Order
	FulfillmentToken string
	ReportURL        string
}

// Menu returns all menu items.
func (s *OrderService) Menu(ctx context.Context) ([]domain.MenuItem, error) {
	return s.menu.List(ctx)
}

// AddMenuItem inserts an item and returns the updated menu. Admin-only,
// enforced by the authorization guard upstream.
func (s *OrderService) AddMenuItem(ctx context.Context, item *domain.MenuItem) ([]domain.MenuItem, error) {
	if item.Title == "" || item.Price < 0 {
		return nil, apperrors.NewValidationError("title required and price must be non-negative", nil)
	}
	if err := s.menu.Add(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info("menu item added",
		zap.Int64("menu_id", item.ID),
		zap.String("title", item.Title))
	return s.menu.List(ctx)
}

// ListOrders returns one page of the diner's orders.
func (s *OrderService) ListOrders(ctx context.Context, dinerID int64, page int) ([]domain.Order, error) {
	if page < 1 {
		page = 1
	}
	return s.orders.ListByDiner(ctx, dinerID, page, orderPageSize)
}

// PlaceOrder persists the order, then delegates fulfillment to the
// factory. The order row is retained no matter how the factory call
// turns out: durably recorded intent, best-effort fulfillment.
func (s *OrderService) PlaceOrder(ctx context.Context, user *domain.User, input OrderInput) (*PlacedOrder, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.NewValidationError("order must contain at least one item", nil)
	}

	order := &domain.Order{
		DinerID:     user.ID,
		FranchiseID: input.FranchiseID,
		StoreID:     input.StoreID,
		Items:       make([]domain.OrderItem, 0, len(input.Items)),
	}
	for _, item := range input.Items {
		order.Items = append(order.Items, domain.OrderItem{
			MenuID:      item.MenuID,
			Description: item.Description,
			Price:       item.Price,
		})
	}

	start := time.Now()
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	s.logger.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", user.ID))

	// The factory call survives client disconnects: once an order is
	// recorded, the in-flight submission runs to completion or timeout.
	factoryCtx := context.WithoutCancel(ctx)
	outcome := s.factory.Submit(factoryCtx, factory.Diner{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}, order)

	switch outcome.Status {
	case factory.StatusFulfilled:
		return s.completeFulfilled(factoryCtx, user, order, outcome, start)
	case factory.StatusRejected:
		return nil, s.completeRejected(factoryCtx, user, order, outcome)
	default:
		return nil, s.completeUnreachable(factoryCtx, user, order)
	}
}

func (s *OrderService) completeFulfilled(ctx context.Context, user *domain.User, order *domain.Order, outcome factory.Outcome, start time.Time) (*PlacedOrder, error) {
	for _, item := range order.Items {
		s.telemetry.RecordSale(item.Price)
	}
	latency := time.Since(start)
	s.telemetry.RecordLatency("order_fulfillment", latency)

	order.Status = domain.FulfillmentFulfilled
	order.Receipt = &outcome.Receipt
	if outcome.ReportURL != "" {
		order.ReportURL = &outcome.ReportURL
	}
	if err := s.orders.SetFulfillment(ctx, order.ID, order.Status, order.Receipt, order.ReportURL); err != nil {
		// The outcome was delivered; losing the status update is logged,
		// not surfaced to the diner.
		s.logger.Warn("failed to record fulfillment outcome",
			zap.Int64("order_id", order.ID), zap.Error(err))
	}

	s.logger.Info("order fulfilled",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", user.ID),
		zap.Duration("latency", latency),
		zap.Float64("revenue", order.Total()))

	return &PlacedOrder{
		Order:            order,
		FulfillmentToken: outcome.Receipt,
		ReportURL:        outcome.ReportURL,
	}, nil
}

func (s *OrderService) completeRejected(ctx context.Context, user *domain.User, order *domain.Order, outcome factory.Outcome) error {
	s.telemetry.RecordOrderFailure("rejected")

	order.Status = domain.FulfillmentRejected
	if outcome.ReportURL != "" {
		order.ReportURL = &outcome.ReportURL
	}
	if err := s.orders.SetFulfillment(ctx, order.ID, order.Status, nil, order.ReportURL); err != nil {
		s.logger.Warn("failed to record fulfillment outcome",
			zap.Int64("order_id", order.ID), zap.Error(err))
	}

	s.logger.Error("factory fulfillment failed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", user.ID),
		zap.Any("factory_response", outcome.Body))

	details := map[string]any{}
	if outcome.ReportURL != "" {
		details["reportUrl"] = outcome.ReportURL
	}
	return apperrors.NewDependencyFailed("failed to fulfill order at factory", details)
}

func (s *OrderService) completeUnreachable(ctx context.Context, user *domain.User, order *domain.Order) error {
	s.telemetry.RecordOrderFailure("unreachable")

	order.Status = domain.FulfillmentUnreachable
	if err := s.orders.SetFulfillment(ctx, order.ID, order.Status, nil, nil); err != nil {
		s.logger.Warn("failed to record fulfillment outcome",
			zap.Int64("order_id", order.ID), zap.Error(err))
	}

	s.logger.Error("factory service error",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", user.ID))

	return apperrors.NewDependencyFailed("failed to fulfill order at factory", nil)
}
