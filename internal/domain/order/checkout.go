package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mariet12/Electro-sub001/internal/domain/cart"
	"github.com/Mariet12/Electro-sub001/internal/domain/catalog"
	"github.com/Mariet12/Electro-sub001/internal/domain/pricing"
)

// checkoutAttempts bounds internal retries on order-number collisions and
// concurrent cart mutations before the failure surfaces to the caller.
const checkoutAttempts = 3

// ProductNotFoundError indicates a cart line references a product that no
// longer exists in the catalog. Checkout fails fast rather than silently
// dropping the line.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return "product " + e.ProductID + " not found"
}

// CheckoutService converts a user's cart into an immutable order snapshot.
type CheckoutService struct {
	orders   Repository
	carts    cart.Repository
	catalog  catalog.Repository
	banners  pricing.Registry
	numbers  *NumberGenerator
	notifier Notifier
	now      func() time.Time
}

// NewCheckoutService creates a CheckoutService with the required dependencies.
func NewCheckoutService(
	orders Repository,
	carts cart.Repository,
	cat catalog.Repository,
	banners pricing.Registry,
	numbers *NumberGenerator,
	notifier Notifier,
) *CheckoutService {
	return &CheckoutService{
		orders:   orders,
		carts:    carts,
		catalog:  cat,
		banners:  banners,
		numbers:  numbers,
		notifier: notifier,
		now:      time.Now,
	}
}

// Checkout prices the user's cart against the banner set at one captured
// instant, freezes those prices into a new order, and atomically persists
// the order while clearing the cart. Nothing is committed on failure, so
// the caller may retry safely. Two concurrent checkouts of the same cart
// produce exactly one order; the loser observes ErrEmptyCart.
func (s *CheckoutService) Checkout(ctx context.Context, userID string, shipping Shipping) (*Order, error) {
	var lastErr error
	for range checkoutAttempts {
		o, err := s.attempt(ctx, userID, shipping)
		switch {
		case err == nil:
			s.notifier.OrderPlaced(ctx, o)
			return o, nil
		case errors.Is(err, ErrNumberTaken), errors.Is(err, ErrCartChanged):
			// Collided number or concurrently mutated cart: rebuild the
			// whole snapshot and try again.
			lastErr = err
		default:
			return nil, err
		}
	}
	return nil, errors.Wrap(lastErr, "checkout retries exhausted")
}

func (s *CheckoutService) attempt(ctx context.Context, userID string, shipping Shipping) (*Order, error) {
	lines, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart lines")
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	// One captured instant prices every line against the same promotional
	// snapshot, even if a banner expires mid-checkout.
	now := s.now()

	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	products, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	banners, err := s.banners.ListBanners(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list banners")
	}

	orderLines := make([]Line, len(lines))
	total := decimal.Zero
	for i, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: l.ProductID}
		}
		unit := pricing.Resolve(p, banners, now).EffectivePrice
		lineTotal := unit.Mul(decimal.NewFromInt(int64(l.Quantity)))
		orderLines[i] = Line{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: unit,
			LineTotal: lineTotal,
		}
		total = total.Add(lineTotal)
	}

	number := s.numbers.Next()
	o := &Order{
		ID:        uuid.New().String(),
		Number:    number,
		UserID:    userID,
		Status:    StatusPending,
		Shipping:  shipping,
		Lines:     orderLines,
		Total:     total.Round(2),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.CreateFromCart(ctx, o); err != nil {
		if errors.Is(err, ErrNumberTaken) {
			s.numbers.Observe(number)
		}
		return nil, err
	}
	return o, nil
}
