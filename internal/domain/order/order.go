package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for order operations.
var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrEmptyCart is returned when checkout finds no cart lines for the user.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidTransition is returned when a status change is not reachable
	// from the order's persisted status, or when the payment flag is mutated
	// on a cancelled or returned order.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNumberTaken is returned by the repository when the generated order
	// number collides with an existing one. Checkout retries with a fresh
	// number; callers never see this error.
	ErrNumberTaken = errors.New("order number already taken")
	// ErrCartChanged is returned when the cart contents observed during
	// pricing no longer match the rows cleared inside the checkout
	// transaction. The whole checkout is retried against the fresh cart.
	ErrCartChanged = errors.New("cart changed concurrently")
)

// Order is an immutable snapshot of a checked-out cart. Lines, unit prices,
// shipping fields, and the total never change after creation; only the
// status and payment flag mutate.
type Order struct {
	ID        string
	Number    string
	UserID    string
	Status    Status
	Paid      bool
	Shipping  Shipping
	Lines     []Line
	Total     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Line is one order line with its unit price frozen at creation time.
type Line struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Shipping holds the contact and delivery fields captured at checkout.
type Shipping struct {
	FullName string
	Phone    string
	Email    string
	Address  string
	City     string
	Note     string
}

// Repository defines persistence operations for orders.
type Repository interface {
	// CreateFromCart atomically persists the order with its lines and clears
	// the owning user's cart. The cleared cart rows must match the order's
	// lines exactly: it returns ErrEmptyCart when the cart is already empty
	// and ErrCartChanged when the cart no longer matches the priced snapshot.
	// Returns ErrNumberTaken when o.Number collides with an existing order.
	CreateFromCart(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// Numbers returns every issued order number, used to seed the number
	// generator's collision filter at startup.
	Numbers(ctx context.Context) ([]string, error)
	// Transition re-checks the persisted status under a row lock, applies the
	// change, and returns the updated order along with the status it held
	// before. prev equals next when the call was an idempotent no-op.
	Transition(ctx context.Context, id string, next Status, at time.Time) (o *Order, prev Status, err error)
	// SetPaymentStatus toggles the payment flag under a row lock. It returns
	// ErrInvalidTransition when the persisted status is cancelled or returned.
	SetPaymentStatus(ctx context.Context, id string, paid bool, at time.Time) (*Order, error)
}

// Notifier receives order lifecycle events for notification fan-out.
// Implementations must be best-effort and must not fail the triggering
// operation.
type Notifier interface {
	OrderPlaced(ctx context.Context, o *Order)
	OrderStatusChanged(ctx context.Context, o *Order, prev Status)
}
