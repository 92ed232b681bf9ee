package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/pizzashop/order-service/internal/api/dto"
	"github.com/pizzashop/order-service/internal/auth"
	"github.com/pizzashop/order-service/internal/domain"
	"github.com/pizzashop/order-service/internal/service"
	apperrors "github.com/pizzashop/order-service/pkg/util"
)

// OrderHandler exposes the menu and order endpoints.
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler constructs handler.
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orderService}
}

// GetMenu handles GET /order/menu.
func (h *OrderHandler) GetMenu(c *fiber.Ctx) error {
	menu, err := h.orders.Menu(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewMenuItemResponses(menu))
}

// AddMenuItem handles PUT /order/menu. Admin-only by route guard.
func (h *OrderHandler) AddMenuItem(c *fiber.Ctx) error {
	var req dto.MenuItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	item := &domain.MenuItem{
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		Price:       req.Price,
	}
	menu, err := h.orders.AddMenuItem(c.UserContext(), item)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewMenuItemResponses(menu))
}

// ListOrders handles GET /order.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}

	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	orders, err := h.orders.ListOrders(c.UserContext(), user.ID, page)
	if err != nil {
		return err
	}

	resp := dto.OrderListResponse{
		DinerID: user.ID,
		Orders:  make([]dto.OrderResponse, 0, len(orders)),
		Page:    page,
	}
	for i := range orders {
		resp.Orders = append(resp.Orders, dto.NewOrderResponse(&orders[i]))
	}
	return c.JSON(resp)
}

// CreateOrder handles POST /order.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}

	var req dto.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.OrderInput{
		FranchiseID: req.FranchiseID,
		StoreID:     req.StoreID,
		Items:       make([]service.OrderItemInput, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.OrderItemInput{
			MenuID:      item.MenuID,
			Description: item.Description,
			Price:       item.Price,
		})
	}

	placed, err := h.orders.PlaceOrder(c.UserContext(), user, input)
	if err != nil {
		return err
	}

	return c.JSON(dto.CreateOrderResponse{
		Order:            dto.NewOrderResponse(placed.Order),
		FulfillmentToken: placed.FulfillmentToken,
		ReportURL:        placed.ReportURL,
	})
}
