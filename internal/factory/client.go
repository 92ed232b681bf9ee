package factory

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/pizzashop/order-service/internal/config"
	"github.com/pizzashop/order-service/internal/domain"
)

// Status is the tri-state result of contacting the factory.
type Status string

const (
	StatusFulfilled   Status = "fulfilled"
	StatusRejected    Status = "rejected"
	StatusUnreachable Status = "unreachable"
)

// Outcome is the structured result of one submission. On rejection the
// factory's body is passed through opaquely; only reportUrl is lifted
// out for the caller.
type Outcome struct {
	Status    Status
	Receipt   string
	ReportURL string
	Body      map[string]any
}

// Diner is the identity summary sent alongside an order.
type Diner struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Submitter is the narrow interface the orchestrator depends on.
type Submitter interface {
	Submit(ctx context.Context, diner Diner, order *domain.Order) Outcome
}

// Client wraps a single bounded HTTP call to the external fulfillment
// dependency. No retries happen at this layer.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds the factory client.
func NewClient(cfg config.FactoryConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		logger:     logger,
	}
}

type orderPayload struct {
	ID          int64         `json:"id"`
	FranchiseID int64         `json:"franchiseId"`
	StoreID     int64         `json:"storeId"`
	Items       []itemPayload `json:"items"`
}

type itemPayload struct {
	MenuID      int64   `json:"menuId"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

type submitRequest struct {
	Diner Diner        `json:"diner"`
	Order orderPayload `json:"order"`
}

// Submit posts the order to the factory and interprets the response.
// Transport failures, timeouts and undecodable bodies resolve to
// unreachable; a well-formed non-success response resolves to rejected.
func (c *Client) Submit(ctx context.Context, diner Diner, order *domain.Order) Outcome {
	payload := submitRequest{
		Diner: diner,
		Order: orderPayload{
			ID:          order.ID,
			FranchiseID: order.FranchiseID,
			StoreID:     order.StoreID,
			Items:       make([]itemPayload, 0, len(order.Items)),
		},
	}
	for _, item := range order.Items {
		payload.Order.Items = append(payload.Order.Items, itemPayload{
			MenuID:      item.MenuID,
			Description: item.Description,
			Price:       item.Price,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("factory payload encode failed", zap.Error(err))
		return Outcome{Status: StatusUnreachable}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/order", bytes.NewReader(body))
	if err != nil {
		c.logger.Error("factory request build failed", zap.Error(err))
		return Outcome{Status: StatusUnreachable}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("factory unreachable", zap.Error(err), zap.Int64("order_id", order.ID))
		return Outcome{Status: StatusUnreachable}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("factory response read failed", zap.Error(err), zap.Int64("order_id", order.ID))
		return Outcome{Status: StatusUnreachable}
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		c.logger.Warn("factory response malformed", zap.Error(err), zap.Int64("order_id", order.ID))
		return Outcome{Status: StatusUnreachable}
	}

	outcome := Outcome{Body: decoded}
	if url, ok := decoded["reportUrl"].(string); ok {
		outcome.ReportURL = url
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome.Status = StatusRejected
		return outcome
	}

	outcome.Status = StatusFulfilled
	if receipt, ok := decoded["jwt"].(string); ok {
		outcome.Receipt = receipt
	}
	return outcome
}
