package dto

import (
	"time"

	"github.com/pizzashop/order-service/internal/domain"
)

// MenuItemRequest payload for adding a menu item.
type MenuItemRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
}

// MenuItemResponse is one menu entry.
type MenuItemResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
}

// CreateOrderRequest payload for placing an order.
type CreateOrderRequest struct {
	FranchiseID int64              `json:"franchiseId"`
	StoreID     int64              `json:"storeId"`
	Items       []OrderItemRequest `json:"items"`
}

// OrderItemRequest is one requested line item.
type OrderItemRequest struct {
	MenuID      int64   `json:"menuId"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// OrderItemResponse is one persisted line item.
type OrderItemResponse struct {
	ID          int64   `json:"id"`
	MenuID      int64   `json:"menuId"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// OrderResponse is the public view of an order.
type OrderResponse struct {
	ID          int64                    `json:"id"`
	FranchiseID int64                    `json:"franchiseId"`
	StoreID     int64                    `json:"storeId"`
	Status      domain.FulfillmentStatus `json:"status"`
	Date        time.Time                `json:"date"`
	Items       []OrderItemResponse      `json:"items"`
}

// OrderListResponse wraps one page of a diner's orders.
type OrderListResponse struct {
	DinerID int64           `json:"dinerId"`
	Orders  []OrderResponse `json:"orders"`
	Page    int             `json:"page"`
}

// CreateOrderResponse is returned when fulfillment succeeds.
type CreateOrderResponse struct {
	Order            OrderResponse `json:"order"`
	FulfillmentToken string        `json:"fulfillmentToken"`
	ReportURL        string        `json:"reportUrl,omitempty"`
}

// NewMenuItemResponses maps menu items.
func NewMenuItemResponses(items []domain.MenuItem) []MenuItemResponse {
	out := make([]MenuItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, MenuItemResponse{
			ID:          item.ID,
			Title:       item.Title,
			Description: item.Description,
			Image:       item.Image,
			Price:       item.Price,
		})
	}
	return out
}

// NewOrderResponse maps a domain order.
func NewOrderResponse(order *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			ID:          item.ID,
			MenuID:      item.MenuID,
			Description: item.Description,
			Price:       item.Price,
		})
	}
	return OrderResponse{
		ID:          order.ID,
		FranchiseID: order.FranchiseID,
		StoreID:     order.StoreID,
		Status:      order.Status,
		Date:        order.CreatedAt,
		Items:       items,
	}
}
