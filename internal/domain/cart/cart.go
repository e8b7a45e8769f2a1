package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Mariet12/Electro-sub001/internal/domain/catalog"
	"github.com/Mariet12/Electro-sub001/internal/domain/pricing"
)

// ErrInvalidQuantity is returned when a line quantity is below 1 on add or update.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Line is one (product, quantity) entry in a user's cart. Lines carry no
// price; pricing is always recomputed live from the banner registry.
type Line struct {
	UserID    string
	ProductID string
	Quantity  int
}

// PricedLine decorates a cart line with its product and the current
// discount-resolution outcome for display.
type PricedLine struct {
	Line      Line
	Product   catalog.Product
	Price     pricing.Decision
	LineTotal decimal.Decimal
}

// Repository defines persistence operations for cart lines.
type Repository interface {
	// Upsert adds qty to the user's existing line for the product, creating
	// the line when absent.
	Upsert(ctx context.Context, userID, productID string, qty int) error
	// SetQuantity replaces the quantity on an existing line, creating it
	// when absent.
	SetQuantity(ctx context.Context, userID, productID string, qty int) error
	Remove(ctx context.Context, userID, productID string) error
	ListByUser(ctx context.Context, userID string) ([]Line, error)
}
