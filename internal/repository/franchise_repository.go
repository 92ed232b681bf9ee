package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pizzashop/order-service/internal/domain"
)

// FranchiseRepository defines persistence access for franchises and stores.
type FranchiseRepository interface {
	Create(ctx context.Context, franchise *domain.Franchise) error
	GetByID(ctx context.Context, id int64) (*domain.Franchise, error)
	List(ctx context.Context) ([]domain.Franchise, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.Franchise, error)
	Delete(ctx context.Context, id int64) error
	CreateStore(ctx context.Context, store *domain.Store) error
	DeleteStore(ctx context.Context, franchiseID, storeID int64) error
}

type franchiseRepository struct {
	pool *pgxpool.Pool
}

// NewFranchiseRepository returns a Postgres-backed implementation.
func NewFranchiseRepository(pool *pgxpool.Pool) FranchiseRepository {
	return &franchiseRepository{pool: pool}
}

// Create inserts the franchise and grants each admin a franchisee role
// scoped to it, in one transaction.
func (r *franchiseRepository) Create(ctx context.Context, franchise *domain.Franchise) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := tx.QueryRow(ctx,
		`INSERT INTO franchises (name) VALUES ($1) RETURNING id`,
		franchise.Name,
	).Scan(&franchise.ID); err != nil {
		return err
	}

	for _, admin := range franchise.Admins {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role, object_id) VALUES ($1, $2, $3)
             ON CONFLICT DO NOTHING`,
			admin.ID, domain.RoleFranchisee, franchise.ID,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *franchiseRepository) GetByID(ctx context.Context, id int64) (*domain.Franchise, error) {
	var franchise domain.Franchise
	if err := r.pool.QueryRow(ctx,
		`SELECT id, name FROM franchises WHERE id=$1`, id,
	).Scan(&franchise.ID, &franchise.Name); err != nil {
		return nil, err
	}

	if err := r.loadDetail(ctx, &franchise); err != nil {
		return nil, err
	}
	return &franchise, nil
}

func (r *franchiseRepository) List(ctx context.Context) ([]domain.Franchise, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM franchises ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	franchises := make([]domain.Franchise, 0)
	for rows.Next() {
		var franchise domain.Franchise
		if err := rows.Scan(&franchise.ID, &franchise.Name); err != nil {
			return nil, err
		}
		franchises = append(franchises, franchise)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range franchises {
		if err := r.loadDetail(ctx, &franchises[i]); err != nil {
			return nil, err
		}
	}
	return franchises, nil
}

// ListForUser returns the franchises on which the user holds a
// franchisee grant.
func (r *franchiseRepository) ListForUser(ctx context.Context, userID int64) ([]domain.Franchise, error) {
	const query = `
        SELECT f.id, f.name
        FROM franchises f
        JOIN user_roles ur ON ur.object_id = f.id
        WHERE ur.user_id = $1 AND ur.role = $2
        ORDER BY f.id`

	rows, err := r.pool.Query(ctx, query, userID, domain.RoleFranchisee)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	franchises := make([]domain.Franchise, 0)
	for rows.Next() {
		var franchise domain.Franchise
		if err := rows.Scan(&franchise.ID, &franchise.Name); err != nil {
			return nil, err
		}
		franchises = append(franchises, franchise)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range franchises {
		if err := r.loadDetail(ctx, &franchises[i]); err != nil {
			return nil, err
		}
	}
	return franchises, nil
}

// Delete removes the franchise, its stores and the franchisee grants
// bound to it in one transaction, so no orphan rows survive. Returns
// pgx.ErrNoRows when the franchise does not exist.
func (r *franchiseRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM stores WHERE franchise_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM user_roles WHERE role=$1 AND object_id=$2`,
		domain.RoleFranchisee, id,
	); err != nil {
		return err
	}

	cmd, err := tx.Exec(ctx, `DELETE FROM franchises WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

func (r *franchiseRepository) CreateStore(ctx context.Context, store *domain.Store) error {
	const query = `
        INSERT INTO stores (franchise_id, name)
        VALUES ($1, $2)
        RETURNING id`

	return r.pool.QueryRow(ctx, query, store.FranchiseID, store.Name).Scan(&store.ID)
}

func (r *franchiseRepository) DeleteStore(ctx context.Context, franchiseID, storeID int64) error {
	cmd, err := r.pool.Exec(ctx,
		`DELETE FROM stores WHERE id=$1 AND franchise_id=$2`, storeID, franchiseID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *franchiseRepository) loadDetail(ctx context.Context, franchise *domain.Franchise) error {
	adminRows, err := r.pool.Query(ctx,
		`SELECT u.id, u.name, u.email
         FROM users u
         JOIN user_roles ur ON ur.user_id = u.id
         WHERE ur.role = $1 AND ur.object_id = $2
         ORDER BY u.id`,
		domain.RoleFranchisee, franchise.ID)
	if err != nil {
		return err
	}
	defer adminRows.Close()

	franchise.Admins = franchise.Admins[:0]
	for adminRows.Next() {
		var admin domain.User
		if err := adminRows.Scan(&admin.ID, &admin.Name, &admin.Email); err != nil {
			return err
		}
		franchise.Admins = append(franchise.Admins, admin)
	}
	if err := adminRows.Err(); err != nil {
		return err
	}

	storeRows, err := r.pool.Query(ctx,
		`SELECT id, franchise_id, name FROM stores WHERE franchise_id=$1 ORDER BY id`,
		franchise.ID)
	if err != nil {
		return err
	}
	defer storeRows.Close()

	franchise.Stores = franchise.Stores[:0]
	for storeRows.Next() {
		var store domain.Store
		if err := storeRows.Scan(&store.ID, &store.FranchiseID, &store.Name); err != nil {
			return err
		}
		franchise.Stores = append(franchise.Stores, store)
	}
	return storeRows.Err()
}
