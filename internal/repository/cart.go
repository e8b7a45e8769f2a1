package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mariet12/Electro-sub001/internal/domain/cart"
)

const (
	upsertCartLineSQL = `INSERT INTO cart_lines (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity`

	setCartQuantitySQL = `INSERT INTO cart_lines (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity`

	removeCartLineSQL = `DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2`

	listCartLinesSQL = `SELECT user_id, product_id, quantity
		FROM cart_lines WHERE user_id = $1 ORDER BY product_id`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Upsert adds qty to the user's existing line for the product, creating the
// line when absent. The increment happens in the database, so concurrent
// adds never lose updates.
func (r *CartRepository) Upsert(ctx context.Context, userID, productID string, qty int) error {
	if _, err := r.pool.Exec(ctx, upsertCartLineSQL, userID, productID, qty); err != nil {
		return errors.Wrapf(err, "upserting cart line for user %q", userID)
	}
	return nil
}

// SetQuantity replaces the quantity on the user's line for the product.
func (r *CartRepository) SetQuantity(ctx context.Context, userID, productID string, qty int) error {
	if _, err := r.pool.Exec(ctx, setCartQuantitySQL, userID, productID, qty); err != nil {
		return errors.Wrapf(err, "setting cart quantity for user %q", userID)
	}
	return nil
}

// Remove drops the user's line for the product.
func (r *CartRepository) Remove(ctx context.Context, userID, productID string) error {
	if _, err := r.pool.Exec(ctx, removeCartLineSQL, userID, productID); err != nil {
		return errors.Wrapf(err, "removing cart line for user %q", userID)
	}
	return nil
}

// ListByUser returns the user's cart lines ordered by product id.
func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, listCartLinesSQL, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "listing cart lines for user %q", userID)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Line, error) {
		var l cart.Line
		err := row.Scan(&l.UserID, &l.ProductID, &l.Quantity)
		return l, err
	})
}
