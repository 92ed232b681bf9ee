package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pizzashop/order-service/internal/api/http/handlers"
	"github.com/pizzashop/order-service/internal/auth"
	"github.com/pizzashop/order-service/internal/domain"
	"github.com/pizzashop/order-service/internal/factory"
	"github.com/pizzashop/order-service/internal/observability"
	"github.com/pizzashop/order-service/internal/repository"
	"github.com/pizzashop/order-service/internal/service"
)

// In-memory repositories so the full middleware and handler chain can
// be exercised without a database.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	dup := *user
	return &dup, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			dup := *user
			return &dup, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) Update(_ context.Context, id int64, email, passwordHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if email != "" {
		user.Email = email
	}
	if passwordHash != "" {
		user.PasswordHash = passwordHash
	}
	dup := *user
	return &dup, nil
}

type fakeMenuRepo struct {
	mu     sync.Mutex
	nextID int64
	items  []domain.MenuItem
}

func (r *fakeMenuRepo) List(_ context.Context) ([]domain.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.MenuItem(nil), r.items...), nil
}

func (r *fakeMenuRepo) Add(_ context.Context, item *domain.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	item.ID = r.nextID
	r.items = append(r.items, *item)
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	nextID int64
	orders []*domain.Order
}

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	order.ID = r.nextID
	for i := range order.Items {
		order.Items[i].ID = int64(i + 1)
	}
	stored := *order
	r.orders = append(r.orders, &stored)
	return nil
}

func (r *fakeOrderRepo) ListByDiner(_ context.Context, dinerID int64, page, pageSize int) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.Order
	for _, order := range r.orders {
		if order.DinerID == dinerID {
			all = append(all, *order)
		}
	}
	offset := (page - 1) * pageSize
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakeOrderRepo) SetFulfillment(_ context.Context, orderID int64, status domain.FulfillmentStatus, receipt, reportURL *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.ID == orderID {
			order.Status = status
			order.Receipt = receipt
			order.ReportURL = reportURL
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeFranchiseRepo struct {
	mu          sync.Mutex
	nextID      int64
	nextStoreID int64
	franchises  map[int64]*domain.Franchise
}

func newFakeFranchiseRepo() *fakeFranchiseRepo {
	return &fakeFranchiseRepo{franchises: map[int64]*domain.Franchise{}}
}

func (r *fakeFranchiseRepo) Create(_ context.Context, franchise *domain.Franchise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	franchise.ID = r.nextID
	stored := *franchise
	r.franchises[franchise.ID] = &stored
	return nil
}

func (r *fakeFranchiseRepo) GetByID(_ context.Context, id int64) (*domain.Franchise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	franchise, ok := r.franchises[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	dup := *franchise
	return &dup, nil
}

func (r *fakeFranchiseRepo) List(_ context.Context) ([]domain.Franchise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Franchise
	for _, franchise := range r.franchises {
		out = append(out, *franchise)
	}
	return out, nil
}

func (r *fakeFranchiseRepo) ListForUser(_ context.Context, userID int64) ([]domain.Franchise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Franchise
	for _, franchise := range r.franchises {
		for _, admin := range franchise.Admins {
			if admin.ID == userID {
				out = append(out, *franchise)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeFranchiseRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.franchises[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.franchises, id)
	return nil
}

func (r *fakeFranchiseRepo) CreateStore(_ context.Context, store *domain.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	franchise, ok := r.franchises[store.FranchiseID]
	if !ok {
		return pgx.ErrNoRows
	}
	r.nextStoreID++
	store.ID = r.nextStoreID
	franchise.Stores = append(franchise.Stores, *store)
	return nil
}

func (r *fakeFranchiseRepo) DeleteStore(_ context.Context, franchiseID, storeID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	franchise, ok := r.franchises[franchiseID]
	if !ok {
		return pgx.ErrNoRows
	}
	for i, store := range franchise.Stores {
		if store.ID == storeID {
			franchise.Stores = append(franchise.Stores[:i], franchise.Stores[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type scriptedFactory struct {
	outcome factory.Outcome
}

func (f *scriptedFactory) Submit(context.Context, factory.Diner, *domain.Order) factory.Outcome {
	return f.outcome
}

type routerFixture struct {
	app        *fiber.App
	users      *fakeUserRepo
	menu       *fakeMenuRepo
	orders     *fakeOrderRepo
	franchises *fakeFranchiseRepo
	factory    *scriptedFactory
	sessions   *auth.SessionManager
}

type routerFixtureConfig struct {
	timeout   time.Duration
	orderRepo repository.OrderRepository
}

func newRouterFixture(t *testing.T) *routerFixture {
	return newRouterFixtureWith(t, routerFixtureConfig{timeout: 5 * time.Second})
}

func newRouterFixtureWith(t *testing.T, cfg routerFixtureConfig) *routerFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zap.NewNop()
	telemetry := observability.NewTelemetry(observability.NopSink{}, time.Hour, logger)
	sessions := auth.NewSessionManager(auth.NewTokenManager("router-test-secret"), repository.NewSessionRepository(client))
	guard := auth.NewMiddleware(sessions, telemetry)

	users := newFakeUserRepo()
	menu := &fakeMenuRepo{}
	orders := &fakeOrderRepo{}
	franchises := newFakeFranchiseRepo()
	fulfiller := &scriptedFactory{outcome: factory.Outcome{Status: factory.StatusFulfilled, Receipt: "factory-jwt"}}

	var orderRepo repository.OrderRepository = orders
	if cfg.orderRepo != nil {
		orderRepo = cfg.orderRepo
	}

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   users,
		Sessions:   sessions,
		Telemetry:  telemetry,
		Logger:     logger,
		BcryptCost: 4,
	})
	orderService := service.NewOrderService(service.OrderDependencies{
		MenuRepo:  menu,
		OrderRepo: orderRepo,
		Factory:   fulfiller,
		Telemetry: telemetry,
		Logger:    logger,
	})
	franchiseService := service.NewFranchiseService(service.FranchiseDependencies{
		FranchiseRepo: franchises,
		UserRepo:      users,
		Logger:        logger,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, telemetry, guard, cfg.timeout)
	RegisterRoutes(app, RouteConfig{
		Health:    handlers.NewHealthHandler("order-service", "test", nil, nil),
		Docs:      handlers.NewDocsHandler("test"),
		Auth:      handlers.NewAuthHandler(authService),
		Order:     handlers.NewOrderHandler(orderService),
		Franchise: handlers.NewFranchiseHandler(franchiseService),
		Guard:     guard,
	})

	return &routerFixture{
		app:        app,
		users:      users,
		menu:       menu,
		orders:     orders,
		franchises: franchises,
		factory:    fulfiller,
		sessions:   sessions,
	}
}

func (f *routerFixture) request(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	var decoded any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	parsed, _ := decoded.(map[string]any)
	return resp, parsed
}

// seedUser inserts a user directly and opens a session for it.
func (f *routerFixture) seedUser(t *testing.T, name, email string, roles ...domain.RoleGrant) (*domain.User, string) {
	t.Helper()
	hash, err := auth.HashPassword("seed-password", 4)
	require.NoError(t, err)
	user := &domain.User{Name: name, Email: email, PasswordHash: hash, Roles: roles}
	require.NoError(t, f.users.Create(context.Background(), user))
	token, err := f.sessions.Issue(context.Background(), user)
	require.NoError(t, err)
	return user, token
}

func errorCode(body map[string]any) string {
	errObj, _ := body["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	fixture := newRouterFixture(t)

	resp, body := fixture.request(t, http.MethodGet, "/order", "", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestMenuIsPublic(t *testing.T) {
	fixture := newRouterFixture(t)

	resp, _ := fixture.request(t, http.MethodGet, "/order/menu", "", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterThenPlaceOrder(t *testing.T) {
	fixture := newRouterFixture(t)

	resp, body := fixture.request(t, http.MethodPost, "/auth", "", fiber.Map{
		"name": "pizza diner", "email": "d@example.com", "password": "secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	resp, body = fixture.request(t, http.MethodPost, "/order", token, fiber.Map{
		"franchiseId": 1,
		"storeId":     1,
		"items":       []fiber.Map{{"menuId": 1, "description": "Veggie", "price": 0.05}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "factory-jwt", body["fulfillmentToken"])

	resp, body = fixture.request(t, http.MethodGet, "/order", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	orders, _ := body["orders"].([]any)
	require.Len(t, orders, 1)
	first, _ := orders[0].(map[string]any)
	assert.Equal(t, "fulfilled", first["status"])
}

func TestPlaceOrderRejectedSurfacesReport(t *testing.T) {
	fixture := newRouterFixture(t)
	fixture.factory.outcome = factory.Outcome{
		Status:    factory.StatusRejected,
		ReportURL: "https://factory.example.com/report/1",
	}
	_, token := fixture.seedUser(t, "pizza diner", "d@example.com", domain.RoleGrant{Role: domain.RoleDiner})

	resp, body := fixture.request(t, http.MethodPost, "/order", token, fiber.Map{
		"franchiseId": 1,
		"storeId":     1,
		"items":       []fiber.Map{{"menuId": 1, "description": "Veggie", "price": 0.05}},
	})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "DEPENDENCY_FAILED", errorCode(body))
	errObj, _ := body["error"].(map[string]any)
	details, _ := errObj["details"].(map[string]any)
	assert.Equal(t, "https://factory.example.com/report/1", details["reportUrl"])

	// The order row survives the rejection.
	require.Len(t, fixture.orders.orders, 1)
	assert.Equal(t, domain.FulfillmentRejected, fixture.orders.orders[0].Status)
}

func TestMenuUpdateRequiresAdmin(t *testing.T) {
	fixture := newRouterFixture(t)
	_, dinerToken := fixture.seedUser(t, "pizza diner", "d@example.com", domain.RoleGrant{Role: domain.RoleDiner})
	_, adminToken := fixture.seedUser(t, "admin", "a@example.com", domain.RoleGrant{Role: domain.RoleAdmin})

	item := fiber.Map{"title": "Student", "description": "No topping", "image": "pizza9.png", "price": 0.0001}

	resp, body := fixture.request(t, http.MethodPut, "/order/menu", dinerToken, item)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	resp, _ = fixture.request(t, http.MethodPut, "/order/menu", adminToken, item)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, fixture.menu.items, 1)
	assert.Equal(t, "Student", fixture.menu.items[0].Title)
}

func TestUpdateUserSelfOrAdmin(t *testing.T) {
	fixture := newRouterFixture(t)
	alice, aliceToken := fixture.seedUser(t, "alice", "alice@example.com", domain.RoleGrant{Role: domain.RoleDiner})
	bob, _ := fixture.seedUser(t, "bob", "bob@example.com", domain.RoleGrant{Role: domain.RoleDiner})
	_, adminToken := fixture.seedUser(t, "admin", "a@example.com", domain.RoleGrant{Role: domain.RoleAdmin})

	update := fiber.Map{"email": "new@example.com"}

	resp, body := fixture.request(t, http.MethodPut, fmt.Sprintf("/auth/%d", bob.ID), aliceToken, update)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	resp, _ = fixture.request(t, http.MethodPut, fmt.Sprintf("/auth/%d", alice.ID), aliceToken, fiber.Map{"email": "alice2@example.com"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = fixture.request(t, http.MethodPut, fmt.Sprintf("/auth/%d", bob.ID), adminToken, update)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	updated, err := fixture.users.GetByID(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	fixture := newRouterFixture(t)
	_, token := fixture.seedUser(t, "pizza diner", "d@example.com", domain.RoleGrant{Role: domain.RoleDiner})

	resp, _ := fixture.request(t, http.MethodDelete, "/auth", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := fixture.request(t, http.MethodGet, "/order", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestFranchiseCreateRequiresAdmin(t *testing.T) {
	fixture := newRouterFixture(t)
	_, dinerToken := fixture.seedUser(t, "pizza diner", "d@example.com", domain.RoleGrant{Role: domain.RoleDiner})
	owner, _ := fixture.seedUser(t, "owner", "owner@example.com", domain.RoleGrant{Role: domain.RoleDiner})
	_, adminToken := fixture.seedUser(t, "admin", "a@example.com", domain.RoleGrant{Role: domain.RoleAdmin})

	payload := fiber.Map{"name": "pizzaPocket", "admins": []fiber.Map{{"email": owner.Email}}}

	resp, body := fixture.request(t, http.MethodPost, "/franchise", dinerToken, payload)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	resp, body = fixture.request(t, http.MethodPost, "/franchise", adminToken, payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pizzaPocket", body["name"])

	// Anyone can browse franchises.
	resp, _ = fixture.request(t, http.MethodGet, "/franchise", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthLive(t *testing.T) {
	fixture := newRouterFixture(t)

	resp, _ := fixture.request(t, http.MethodGet, "/health/live", "", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// stallingOrderRepo blocks until the request context is canceled,
// standing in for a wedged database.
type stallingOrderRepo struct {
	fakeOrderRepo
}

func (r *stallingOrderRepo) ListByDiner(ctx context.Context, _ int64, _, _ int) ([]domain.Order, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(2 * time.Second):
		return nil, nil
	}
}

func TestRequestTimeoutReachesRepositories(t *testing.T) {
	fixture := newRouterFixtureWith(t, routerFixtureConfig{
		timeout:   50 * time.Millisecond,
		orderRepo: &stallingOrderRepo{},
	})
	_, token := fixture.seedUser(t, "pizza diner", "d@example.com", domain.RoleGrant{Role: domain.RoleDiner})

	start := time.Now()
	resp, body := fixture.request(t, http.MethodGet, "/order", token, nil)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, time.Second, "request must be cut off by the configured timeout")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(body))
}
