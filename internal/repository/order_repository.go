package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pizzashop/order-service/internal/domain"
)

// OrderRepository defines persistence access for diner orders.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	ListByDiner(ctx context.Context, dinerID int64, page, pageSize int) ([]domain.Order, error)
	SetFulfillment(ctx context.Context, orderID int64, status domain.FulfillmentStatus, receipt, reportURL *string) error
}

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns a Postgres-backed implementation.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

// Create persists the order and its items in one transaction. The row
// exists before the factory is contacted and is never rolled back.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO orders (diner_id, franchise_id, store_id, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	order.Status = domain.FulfillmentPending
	if err := tx.QueryRow(ctx, query,
		order.DinerID,
		order.FranchiseID,
		order.StoreID,
		order.Status,
	).Scan(&order.ID, &order.CreatedAt); err != nil {
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		if err := tx.QueryRow(ctx,
			`INSERT INTO order_items (order_id, menu_id, description, price)
             VALUES ($1, $2, $3, $4)
             RETURNING id`,
			order.ID, item.MenuID, item.Description, item.Price,
		).Scan(&item.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) ListByDiner(ctx context.Context, dinerID int64, page, pageSize int) ([]domain.Order, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	const query = `
        SELECT id, diner_id, franchise_id, store_id, status, receipt, report_url, created_at
        FROM orders
        WHERE diner_id=$1
        ORDER BY id DESC
        LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, dinerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.DinerID,
			&order.FranchiseID,
			&order.StoreID,
			&order.Status,
			&order.Receipt,
			&order.ReportURL,
			&order.CreatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// SetFulfillment records the terminal outcome of the factory call.
func (r *orderRepository) SetFulfillment(ctx context.Context, orderID int64, status domain.FulfillmentStatus, receipt, reportURL *string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE orders SET status=$1, receipt=$2, report_url=$3 WHERE id=$4`,
		status, receipt, reportURL, orderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *orderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, menu_id, description, price FROM order_items WHERE order_id=$1 ORDER BY id`,
		order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	order.Items = order.Items[:0]
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.MenuID, &item.Description, &item.Price); err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}
