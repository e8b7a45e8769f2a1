package pricing

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Scope enumerates the targeting breadth of a promotional banner.
type Scope string

const (
	// ScopeGlobal applies to every product in the catalog.
	ScopeGlobal Scope = "global"
	// ScopeCategory applies to products whose category is targeted.
	ScopeCategory Scope = "category"
	// ScopeProduct applies only to explicitly targeted products.
	ScopeProduct Scope = "product"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	switch s {
	case ScopeGlobal, ScopeCategory, ScopeProduct:
		return true
	}
	return false
}

// DiscountType enumerates the supported banner discount strategies.
type DiscountType string

const (
	// DiscountPercentage reduces the price by a percentage of its value.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed subtracts a fixed monetary amount from the price.
	DiscountFixed DiscountType = "fixed"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountPercentage, DiscountFixed:
		return true
	}
	return false
}

// Banner is a promotional campaign with a targeting scope, a discount
// specification, and an active time window.
type Banner struct {
	ID           string
	Title        string
	Scope        Scope
	ProductIDs   []string
	CategoryIDs  []string
	DiscountType DiscountType
	Value        decimal.Decimal
	StartsAt     time.Time
	EndsAt       time.Time
	Active       bool
}

// Live reports whether the banner is in effect at the given instant.
// Both window bounds are inclusive; an inactive banner is never live
// regardless of its window.
func (b Banner) Live(now time.Time) bool {
	if !b.Active {
		return false
	}
	return !now.Before(b.StartsAt) && !now.After(b.EndsAt)
}

// Matches reports whether the banner targets the given product.
func (b Banner) Matches(productID, categoryID string) bool {
	switch b.Scope {
	case ScopeGlobal:
		return true
	case ScopeCategory:
		return slices.Contains(b.CategoryIDs, categoryID)
	case ScopeProduct:
		return slices.Contains(b.ProductIDs, productID)
	default:
		return false
	}
}

// specificity ranks scopes for candidate selection: product-targeted banners
// beat category-targeted ones, which beat global ones.
func (b Banner) specificity() int {
	switch b.Scope {
	case ScopeProduct:
		return 2
	case ScopeCategory:
		return 1
	default:
		return 0
	}
}

// Registry provides access to the full banner set. Filtering for live
// banners is the resolver's responsibility.
type Registry interface {
	ListBanners(ctx context.Context) ([]Banner, error)
}
