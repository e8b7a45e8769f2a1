package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mariet12/Electro-sub001/internal/domain/pricing"
)

const (
	listBannersSQL = `SELECT id, title, scope, product_ids, category_ids,
		discount_type, value, starts_at, ends_at, active
		FROM banners ORDER BY id`

	upsertBannerSQL = `INSERT INTO banners
		(id, title, scope, product_ids, category_ids, discount_type, value, starts_at, ends_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			scope = EXCLUDED.scope,
			product_ids = EXCLUDED.product_ids,
			category_ids = EXCLUDED.category_ids,
			discount_type = EXCLUDED.discount_type,
			value = EXCLUDED.value,
			starts_at = EXCLUDED.starts_at,
			ends_at = EXCLUDED.ends_at,
			active = EXCLUDED.active`
)

var _ pricing.Registry = (*BannerRepository)(nil)

// BannerRepository implements pricing.Registry backed by PostgreSQL.
type BannerRepository struct {
	pool *pgxpool.Pool
}

// NewBannerRepository returns a BannerRepository that uses the given pool.
func NewBannerRepository(pool *pgxpool.Pool) *BannerRepository {
	return &BannerRepository{pool: pool}
}

// ListBanners returns the full banner set. Live filtering happens in the
// discount resolver, not here.
func (r *BannerRepository) ListBanners(ctx context.Context) ([]pricing.Banner, error) {
	rows, err := r.pool.Query(ctx, listBannersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "listing banners")
	}
	return pgx.CollectRows(rows, scanBanner)
}

// Upsert inserts or replaces a banner by id. Used by admin tooling and the
// bulk ingest command.
func (r *BannerRepository) Upsert(ctx context.Context, b pricing.Banner) error {
	_, err := r.pool.Exec(ctx, upsertBannerSQL,
		b.ID, b.Title, string(b.Scope), b.ProductIDs, b.CategoryIDs,
		string(b.DiscountType), b.Value, b.StartsAt, b.EndsAt, b.Active,
	)
	if err != nil {
		return errors.Wrapf(err, "upserting banner %q", b.ID)
	}
	return nil
}

func scanBanner(row pgx.CollectableRow) (pricing.Banner, error) {
	var (
		b            pricing.Banner
		scope        string
		discountType string
	)
	err := row.Scan(
		&b.ID, &b.Title, &scope, &b.ProductIDs, &b.CategoryIDs,
		&discountType, &b.Value, &b.StartsAt, &b.EndsAt, &b.Active,
	)
	b.Scope = pricing.Scope(scope)
	b.DiscountType = pricing.DiscountType(discountType)
	return b, err
}
