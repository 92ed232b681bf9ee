package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pizzashop/order-service/internal/domain"
	"github.com/pizzashop/order-service/internal/factory"
	"github.com/pizzashop/order-service/internal/observability"
	apperrors "github.com/pizzashop/order-service/pkg/util"
)

type mockMenuRepo struct {
	mock.Mock
}

func (m *mockMenuRepo) List(ctx context.Context) ([]domain.MenuItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MenuItem), args.Error(1)
}

func (m *mockMenuRepo) Add(ctx context.Context, item *domain.MenuItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepo) ListByDiner(ctx context.Context, dinerID int64, page, pageSize int) ([]domain.Order, error) {
	args := m.Called(ctx, dinerID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepo) SetFulfillment(ctx context.Context, orderID int64, status domain.FulfillmentStatus, receipt, reportURL *string) error {
	args := m.Called(ctx, orderID, status, receipt, reportURL)
	return args.Error(0)
}

// stubFactory returns a canned outcome and remembers the submission.
type stubFactory struct {
	outcome   factory.Outcome
	called    bool
	lastDiner factory.Diner
	lastOrder *domain.Order
}

func (f *stubFactory) Submit(_ context.Context, diner factory.Diner, order *domain.Order) factory.Outcome {
	f.called = true
	f.lastDiner = diner
	f.lastOrder = order
	return f.outcome
}

type recordingSink struct {
	mu     sync.Mutex
	pushes [][]observability.Metric
}

func (s *recordingSink) Push(_ context.Context, metrics []observability.Metric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushes = append(s.pushes, metrics)
	return nil
}

func (s *recordingSink) find(prefix, tag, name string) (observability.Metric, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, push := range s.pushes {
		for _, m := range push {
			if m.Prefix == prefix && m.Tag == tag && m.Name == name {
				return m, true
			}
		}
	}
	return observability.Metric{}, false
}

type orderServiceFixture struct {
	service *OrderService
	menu    *mockMenuRepo
	orders  *mockOrderRepo
	factory *stubFactory
	sink    *recordingSink
	flush   func()
}

func newOrderServiceFixture(outcome factory.Outcome) *orderServiceFixture {
	menu := &mockMenuRepo{}
	orders := &mockOrderRepo{}
	stub := &stubFactory{outcome: outcome}
	sink := &recordingSink{}
	telemetry := observability.NewTelemetry(sink, time.Hour, zap.NewNop())

	svc := NewOrderService(OrderDependencies{
		MenuRepo:  menu,
		OrderRepo: orders,
		Factory:   stub,
		Telemetry: telemetry,
		Logger:    zap.NewNop(),
	})

	return &orderServiceFixture{
		service: svc,
		menu:    menu,
		orders:  orders,
		factory: stub,
		sink:    sink,
		flush:   func() { telemetry.Flush(context.Background()) },
	}
}

func dinerUser() *domain.User {
	return &domain.User{
		ID:    42,
		Name:  "pizza diner",
		Email: "d@example.com",
		Roles: []domain.RoleGrant{{Role: domain.RoleDiner}},
	}
}

func twoItemInput() OrderInput {
	return OrderInput{
		FranchiseID: 1,
		StoreID:     2,
		Items: []OrderItemInput{
			{MenuID: 1, Description: "Veggie", Price: 0.05},
			{MenuID: 2, Description: "Student", Price: 0.0038},
		},
	}
}

func TestPlaceOrderEmptyItems(t *testing.T) {
	fixture := newOrderServiceFixture(factory.Outcome{Status: factory.StatusFulfilled})

	_, err := fixture.service.PlaceOrder(context.Background(), dinerUser(), OrderInput{FranchiseID: 1, StoreID: 2})

	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)

	// Nothing was persisted and the factory was never contacted.
	fixture.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.False(t, fixture.factory.called)
}

func TestPlaceOrderFulfilled(t *testing.T) {
	fixture := newOrderServiceFixture(factory.Outcome{
		Status:    factory.StatusFulfilled,
		Receipt:   "abc.def.ghi",
		ReportURL: "https://factory.example/report/1",
	})
	fixture.orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Order).ID = 7
		}).Return(nil)
	fixture.orders.On("SetFulfillment", mock.Anything, int64(7), domain.FulfillmentFulfilled, mock.Anything, mock.Anything).Return(nil)

	placed, err := fixture.service.PlaceOrder(context.Background(), dinerUser(), twoItemInput())
	require.NoError(t, err)

	assert.Equal(t, "abc.def.ghi", placed.FulfillmentToken)
	assert.Equal(t, "https://factory.example/report/1", placed.ReportURL)
	assert.Equal(t, int64(7), placed.Order.ID)
	assert.Equal(t, domain.FulfillmentFulfilled, placed.Order.Status)
	assert.Equal(t, int64(42), fixture.factory.lastDiner.ID)
	assert.Equal(t, "d@example.com", fixture.factory.lastDiner.Email)

	fixture.flush()
	revenue, ok := fixture.sink.find("pizza", "revenue", "total")
	require.True(t, ok)
	assert.InDelta(t, 0.0538, revenue.Value, 1e-9)

	sold, ok := fixture.sink.find("pizza", "sold", "total")
	require.True(t, ok)
	assert.Equal(t, float64(2), sold.Value)

	_, ok = fixture.sink.find("latency", "order_fulfillment", "response_time")
	assert.True(t, ok)

	fixture.orders.AssertExpectations(t)
}

func TestPlaceOrderRejectedKeepsOrderAndReportURL(t *testing.T) {
	fixture := newOrderServiceFixture(factory.Outcome{
		Status:    factory.StatusRejected,
		ReportURL: "https://factory.example/report/fail",
		Body:      map[string]any{"message": "no dough"},
	})
	fixture.orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Order).ID = 8
		}).Return(nil)
	fixture.orders.On("SetFulfillment", mock.Anything, int64(8), domain.FulfillmentRejected, (*string)(nil), mock.Anything).Return(nil)

	_, err := fixture.service.PlaceOrder(context.Background(), dinerUser(), twoItemInput())

	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "DEPENDENCY_FAILED", domainErr.Code)
	assert.Equal(t, "https://factory.example/report/fail", domainErr.Details["reportUrl"])

	// The order row was persisted before the factory call and survives it.
	fixture.orders.AssertCalled(t, "Create", mock.Anything, mock.AnythingOfType("*domain.Order"))

	fixture.flush()
	failures, ok := fixture.sink.find("pizza", "rejected", "failures")
	require.True(t, ok)
	assert.Equal(t, float64(1), failures.Value)
	_, ok = fixture.sink.find("pizza", "revenue", "total")
	assert.False(t, ok)
}

func TestPlaceOrderUnreachableKeepsOrder(t *testing.T) {
	fixture := newOrderServiceFixture(factory.Outcome{Status: factory.StatusUnreachable})
	fixture.orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Order).ID = 9
		}).Return(nil)
	fixture.orders.On("SetFulfillment", mock.Anything, int64(9), domain.FulfillmentUnreachable, (*string)(nil), (*string)(nil)).Return(nil)

	_, err := fixture.service.PlaceOrder(context.Background(), dinerUser(), twoItemInput())

	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "DEPENDENCY_FAILED", domainErr.Code)
	assert.NotContains(t, domainErr.Details, "reportUrl")

	fixture.orders.AssertCalled(t, "Create", mock.Anything, mock.AnythingOfType("*domain.Order"))

	fixture.flush()
	failures, ok := fixture.sink.find("pizza", "unreachable", "failures")
	require.True(t, ok)
	assert.Equal(t, float64(1), failures.Value)
}

func TestPlaceOrderCreateFailureSkipsFactory(t *testing.T) {
	fixture := newOrderServiceFixture(factory.Outcome{Status: factory.StatusFulfilled})
	fixture.orders.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := fixture.service.PlaceOrder(context.Background(), dinerUser(), twoItemInput())

	require.Error(t, err)
	assert.False(t, fixture.factory.called, "factory must not be contacted when persistence fails")
}

func TestAddMenuItemValidation(t *testing.T) {
	fixture := newOrderServiceFixture(factory.Outcome{})

	_, err := fixture.service.AddMenuItem(context.Background(), &domain.MenuItem{Title: "", Price: 0.01})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	fixture.menu.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestAddMenuItemReturnsUpdatedMenu(t *testing.T) {
	fixture := newOrderServiceFixture(factory.Outcome{})
	item := &domain.MenuItem{Title: "Student", Description: "Just carbs", Price: 0.0001}
	updated := []domain.MenuItem{{ID: 1, Title: "Veggie"}, {ID: 2, Title: "Student"}}

	fixture.menu.On("Add", mock.Anything, item).Return(nil)
	fixture.menu.On("List", mock.Anything).Return(updated, nil)

	menu, err := fixture.service.AddMenuItem(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, updated, menu)
	fixture.menu.AssertExpectations(t)
}

func TestListOrdersDefaultsPage(t *testing.T) {
	fixture := newOrderServiceFixture(factory.Outcome{})
	fixture.orders.On("ListByDiner", mock.Anything, int64(42), 1, orderPageSize).Return([]domain.Order{}, nil)

	_, err := fixture.service.ListOrders(context.Background(), 42, 0)
	require.NoError(t, err)
	fixture.orders.AssertExpectations(t)
}
