// Command seed-db loads demo catalog data (categories, products, banners)
// into the database for local development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Mariet12/Electro-sub001/internal/domain/catalog"
	"github.com/Mariet12/Electro-sub001/internal/domain/pricing"
	"github.com/Mariet12/Electro-sub001/internal/repository"
)

type categoryJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type productJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

type bannerJSON struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Scope        string          `json:"scope"`
	ProductIDs   []string        `json:"productIds"`
	CategoryIDs  []string        `json:"categoryIds"`
	DiscountType string          `json:"discountType"`
	Value        decimal.Decimal `json:"value"`
	StartsAt     time.Time       `json:"startsAt"`
	EndsAt       time.Time       `json:"endsAt"`
	Active       bool            `json:"active"`
}

type seedJSON struct {
	Categories []categoryJSON `json:"categories"`
	Products   []productJSON  `json:"products"`
	Banners    []bannerJSON   `json:"banners"`
}

func main() {
	var (
		databaseURL string
		seedFile    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedFile, "seed-file", "db/seed/catalog.json", "path to seed JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, seedFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, seedFile string) error {
	slog.Info("reading seed file", slog.String("path", seedFile))

	data, err := os.ReadFile(seedFile)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}

	var seed seedJSON
	if err := json.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "parse seed JSON")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	catalogRepo := repository.NewCatalogRepository(pool)
	bannerRepo := repository.NewBannerRepository(pool)

	slog.Info("upserting categories", slog.Int("count", len(seed.Categories)))

	for _, c := range seed.Categories {
		if err := catalogRepo.UpsertCategory(ctx, catalog.Category{ID: c.ID, Name: c.Name}); err != nil {
			return errors.Wrapf(err, "upsert category %s", c.ID)
		}
	}

	slog.Info("upserting products", slog.Int("count", len(seed.Products)))

	for _, p := range seed.Products {
		if err := catalogRepo.UpsertProduct(ctx, catalog.Product{
			ID:         p.ID,
			Name:       p.Name,
			Price:      p.Price,
			CategoryID: p.Category,
		}); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	slog.Info("upserting banners", slog.Int("count", len(seed.Banners)))

	for _, b := range seed.Banners {
		if err := bannerRepo.Upsert(ctx, pricing.Banner{
			ID:           b.ID,
			Title:        b.Title,
			Scope:        pricing.Scope(b.Scope),
			ProductIDs:   b.ProductIDs,
			CategoryIDs:  b.CategoryIDs,
			DiscountType: pricing.DiscountType(b.DiscountType),
			Value:        b.Value,
			StartsAt:     b.StartsAt,
			EndsAt:       b.EndsAt,
			Active:       b.Active,
		}); err != nil {
			return errors.Wrapf(err, "upsert banner %s", b.ID)
		}
	}

	return nil
}
