package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pizzashop/order-service/internal/domain"
)

// MenuRepository defines persistence access for the menu.
type MenuRepository interface {
	List(ctx context.Context) ([]domain.MenuItem, error)
	Add(ctx context.Context, item *domain.MenuItem) error
}

type menuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a Postgres-backed implementation.
func NewMenuRepository(pool *pgxpool.Pool) MenuRepository {
	return &menuRepository{pool: pool}
}

func (r *menuRepository) List(ctx context.Context) ([]domain.MenuItem, error) {
	const query = `
        SELECT id, title, description, image, price
        FROM menu ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.MenuItem, 0)
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Description,
			&item.Image,
			&item.Price,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *menuRepository) Add(ctx context.Context, item *domain.MenuItem) error {
	const query = `
        INSERT INTO menu (title, description, image, price)
        VALUES ($1, $2, $3, $4)
        RETURNING id`

	return r.pool.QueryRow(ctx, query,
		item.Title,
		item.Description,
		item.Image,
		item.Price,
	).Scan(&item.ID)
}
