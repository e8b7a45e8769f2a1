package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product or category does not exist.
var ErrNotFound = errors.New("not found in catalog")

// Product represents a catalog item available for purchase.
// Products are managed by catalog admin tooling and are read-only here.
type Product struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	CategoryID string
}

// Category groups products for navigation and banner targeting.
type Category struct {
	ID   string
	Name string
}

// Repository defines read operations on the catalog store.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
}
