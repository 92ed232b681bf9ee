package domain

import "time"

// FulfillmentStatus tracks the terminal outcome of delegating an order
// to the factory. pending is set when the row is persisted; exactly one
// terminal state follows and never changes afterwards.
type FulfillmentStatus string

const (
	FulfillmentPending     FulfillmentStatus = "pending"
	FulfillmentFulfilled   FulfillmentStatus = "fulfilled"
	FulfillmentRejected    FulfillmentStatus = "rejected"
	FulfillmentUnreachable FulfillmentStatus = "unreachable"
)

// Order is a diner's durably recorded purchase intent. It is immutable
// once submitted to the factory except for the fulfillment outcome.
type Order struct {
	ID          int64
	DinerID     int64
	FranchiseID int64
	StoreID     int64
	Status      FulfillmentStatus
	Receipt     *string
	ReportURL   *string
	Items       []OrderItem
	CreatedAt   time.Time
}

// OrderItem captures the menu reference and the price at order time.
// There is no post-creation repricing.
type OrderItem struct {
	ID          int64
	MenuID      int64
	Description string
	Price       float64
}

// Total returns the sum of item prices at creation time.
func (o *Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Price
	}
	return total
}
