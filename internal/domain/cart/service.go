package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Mariet12/Electro-sub001/internal/domain/catalog"
	"github.com/Mariet12/Electro-sub001/internal/domain/pricing"
)

// Service owns cart mutations and live-priced listing.
type Service struct {
	lines   Repository
	catalog catalog.Repository
	banners pricing.Registry
	now     func() time.Time
}

// NewService creates a cart Service with the required dependencies.
func NewService(lines Repository, cat catalog.Repository, banners pricing.Registry) *Service {
	return &Service{
		lines:   lines,
		catalog: cat,
		banners: banners,
		now:     time.Now,
	}
}

// Add puts qty units of the product into the user's cart. Adding a product
// already present increments the existing line instead of duplicating it.
func (s *Service) Add(ctx context.Context, userID, productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if _, err := s.catalog.GetByID(ctx, productID); err != nil {
		return errors.Wrapf(err, "get product %s", productID)
	}
	if err := s.lines.Upsert(ctx, userID, productID, qty); err != nil {
		return errors.Wrap(err, "upsert cart line")
	}
	return nil
}

// Update replaces the quantity on the user's line for the product.
// A quantity of zero removes the line.
func (s *Service) Update(ctx context.Context, userID, productID string, qty int) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	if qty == 0 {
		return s.Remove(ctx, userID, productID)
	}
	if _, err := s.catalog.GetByID(ctx, productID); err != nil {
		return errors.Wrapf(err, "get product %s", productID)
	}
	if err := s.lines.SetQuantity(ctx, userID, productID, qty); err != nil {
		return errors.Wrap(err, "set cart quantity")
	}
	return nil
}

// Remove drops the user's line for the product. Removing an absent line is
// a no-op.
func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	if err := s.lines.Remove(ctx, userID, productID); err != nil {
		return errors.Wrap(err, "remove cart line")
	}
	return nil
}

// List returns the user's cart lines decorated with the current discount
// resolution. Prices are never persisted; every call reprices against the
// banner registry as of one captured instant.
func (s *Service) List(ctx context.Context, userID string) ([]PricedLine, error) {
	lines, err := s.lines.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart lines")
	}
	if len(lines) == 0 {
		return nil, nil
	}

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

	now := s.now()
	priced := make([]PricedLine, 0, len(lines))
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, errors.Wrapf(catalog.ErrNotFound, "product %s", l.ProductID)
		}
		decision := pricing.Resolve(p, banners, now)
		priced = append(priced, PricedLine{
			Line:      l,
			Product:   p,
			Price:     decision,
			LineTotal: decision.EffectivePrice.Mul(decimal.NewFromInt(int64(l.Quantity))),
		})
	}
	return priced, nil
}
