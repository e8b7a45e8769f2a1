package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mariet12/Electro-sub001/internal/domain/order"
)

const (
	clearCartSQL = `DELETE FROM cart_lines WHERE user_id = $1 RETURNING product_id, quantity`

	insertOrderSQL = `INSERT INTO orders
		(id, number, user_id, status, paid, ship_name, ship_phone, ship_email,
		 ship_address, ship_city, ship_note, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	insertOrderLineSQL = `INSERT INTO order_lines
		(order_id, product_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5)`

	getOrderSQL = `SELECT id, number, user_id, status, paid, ship_name, ship_phone,
		ship_email, ship_address, ship_city, ship_note, total, created_at, updated_at
		FROM orders WHERE id = $1`

	getOrderForUpdateSQL = getOrderSQL + ` FOR UPDATE`

	listOrdersByUserSQL = `SELECT id, number, user_id, status, paid, ship_name, ship_phone,
		ship_email, ship_address, ship_city, ship_note, total, created_at, updated_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	listOrderLinesSQL = `SELECT order_id, product_id, quantity, unit_price, line_total
		FROM order_lines WHERE order_id = ANY($1) ORDER BY product_id`

	listOrderNumbersSQL = `SELECT number FROM orders`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`

	updateOrderPaidSQL = `UPDATE orders SET paid = $2, updated_at = $3 WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateFromCart persists the order and clears the owning user's cart in one
// transaction. The DELETE's RETURNING set is compared against the order's
// lines: an empty set means another checkout already consumed the cart
// (order.ErrEmptyCart), any mismatch means the cart mutated after pricing
// (order.ErrCartChanged). Either way nothing is committed.
func (r *OrderRepository) CreateFromCart(ctx context.Context, o *order.Order) error {
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, clearCartSQL, o.UserID)
		if err != nil {
			return errors.Wrap(err, "clearing cart")
		}
		cleared := make(map[string]int)
		var count int
		for rows.Next() {
			var (
				productID string
				qty       int
			)
			if err := rows.Scan(&productID, &qty); err != nil {
				rows.Close()
				return errors.Wrap(err, "scanning cleared cart line")
			}
			cleared[productID] = qty
			count++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return errors.Wrap(err, "reading cleared cart lines")
		}

		if count == 0 {
			return order.ErrEmptyCart
		}
		if count != len(o.Lines) {
			return order.ErrCartChanged
		}
		for _, l := range o.Lines {
			if cleared[l.ProductID] != l.Quantity {
				return order.ErrCartChanged
			}
		}

		_, err = tx.Exec(ctx, insertOrderSQL,
			o.ID, o.Number, o.UserID, string(o.Status), o.Paid,
			o.Shipping.FullName, o.Shipping.Phone, o.Shipping.Email,
			o.Shipping.Address, o.Shipping.City, o.Shipping.Note,
			o.Total, o.CreatedAt, o.UpdatedAt,
		)
		if err != nil {
			if isPgError(err, codeUniqueViolation) {
				return order.ErrNumberTaken
			}
			return errors.Wrapf(err, "inserting order %q", o.ID)
		}

		for _, l := range o.Lines {
			_, err := tx.Exec(ctx, insertOrderLineSQL,
				o.ID, l.ProductID, l.Quantity, l.UnitPrice, l.LineTotal)
			if err != nil {
				return errors.Wrapf(err, "inserting order line %q/%q", o.ID, l.ProductID)
			}
		}
		return nil
	})
	if err != nil && isPgError(err, codeSerializationFailure) {
		return order.ErrCartChanged
	}
	return err
}

// GetByID returns an order with its lines.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting order %q", id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting order %q", id)
	}

	lines, err := r.linesFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	o.Lines = lines[id]
	return &o, nil
}

// ListByUser returns the user's orders, newest first, with lines attached.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "listing orders for user %q", userID)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrapf(err, "listing orders for user %q", userID)
	}
	if len(orders) == 0 {
		return nil, nil
	}

	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	lines, err := r.linesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
	}
	return orders, nil
}

// Numbers returns every issued order number.
func (r *OrderRepository) Numbers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listOrderNumbersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "listing order numbers")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var n string
		err := row.Scan(&n)
		return n, err
	})
}

// Transition locks the order row, re-checks the transition table against the
// persisted status, and applies the change. Re-applying the current status
// commits nothing and reports prev == next.
func (r *OrderRepository) Transition(ctx context.Context, id string, next order.Status, at time.Time) (*order.Order, order.Status, error) {
	var (
		o    order.Order
		prev order.Status
	)
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, getOrderForUpdateSQL, id)
		if err != nil {
			return errors.Wrapf(err, "locking order %q", id)
		}
		o, err = pgx.CollectExactlyOneRow(rows, scanOrder)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return order.ErrNotFound
			}
			return errors.Wrapf(err, "locking order %q", id)
		}

		prev = o.Status
		if prev == next {
			return nil
		}
		if !prev.CanTransition(next) {
			return errors.Wrapf(order.ErrInvalidTransition, "%s -> %s", prev, next)
		}

		if _, err := tx.Exec(ctx, updateOrderStatusSQL, id, string(next), at); err != nil {
			return errors.Wrapf(err, "updating order %q status", id)
		}
		o.Status = next
		o.UpdatedAt = at
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	lines, err := r.linesFor(ctx, []string{id})
	if err != nil {
		return nil, "", err
	}
	o.Lines = lines[id]
	return &o, prev, nil
}

// SetPaymentStatus locks the order row and toggles the payment flag. The
// flag is frozen once the order reached a terminal status.
func (r *OrderRepository) SetPaymentStatus(ctx context.Context, id string, paid bool, at time.Time) (*order.Order, error) {
	var o order.Order
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, getOrderForUpdateSQL, id)
		if err != nil {
			return errors.Wrapf(err, "locking order %q", id)
		}
		o, err = pgx.CollectExactlyOneRow(rows, scanOrder)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return order.ErrNotFound
			}
			return errors.Wrapf(err, "locking order %q", id)
		}

		if o.Status.Terminal() {
			return errors.Wrapf(order.ErrInvalidTransition, "payment is frozen on %s order", o.Status)
		}
		if o.Paid == paid {
			return nil
		}

		if _, err := tx.Exec(ctx, updateOrderPaidSQL, id, paid, at); err != nil {
			return errors.Wrapf(err, "updating order %q payment", id)
		}
		o.Paid = paid
		o.UpdatedAt = at
		return nil
	})
	if err != nil {
		return nil, err
	}

	lines, err := r.linesFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	o.Lines = lines[id]
	return &o, nil
}

// linesFor loads order lines for the given order ids, grouped by order.
func (r *OrderRepository) linesFor(ctx context.Context, orderIDs []string) (map[string][]order.Line, error) {
	rows, err := r.pool.Query(ctx, listOrderLinesSQL, orderIDs)
	if err != nil {
		return nil, errors.Wrap(err, "listing order lines")
	}

	out := make(map[string][]order.Line, len(orderIDs))
	for rows.Next() {
		var (
			orderID string
			l       order.Line
		)
		if err := rows.Scan(&orderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scanning order line")
		}
		out[orderID] = append(out[orderID], l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "reading order lines")
	}
	return out, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.UserID, &status, &o.Paid,
		&o.Shipping.FullName, &o.Shipping.Phone, &o.Shipping.Email,
		&o.Shipping.Address, &o.Shipping.City, &o.Shipping.Note,
		&o.Total, &o.CreatedAt, &o.UpdatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}
