// Command banner-ingest bulk-loads promotional banners from gzip-compressed
// JSON Lines exports produced by the marketing tooling. Files are streamed
// concurrently; a bloom filter pre-screens banner ids so duplicates across
// files are upserted once.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Mariet12/Electro-sub001/internal/domain/pricing"
	"github.com/Mariet12/Electro-sub001/internal/repository"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 10_000
)

type bannerLine struct {
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

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing banner *.jsonl.gz exports")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
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

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("banner ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("banner ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob data dir")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz files found in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	banners := repository.NewBannerRepository(pool)

	// Bloom filter plus exact set: the filter rejects the common case
	// cheaply, the set resolves its false positives.
	var (
		mu     sync.Mutex
		filter = bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		seen   = make(map[string]struct{})
	)

	// claim reports whether id has not been ingested yet and records it.
	claim := func(id string) bool {
		mu.Lock()
		defer mu.Unlock()
		if filter.TestString(id) {
			if _, ok := seen[id]; ok {
				return false
			}
		}
		filter.AddString(id)
		seen[id] = struct{}{}
		return true
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(ingestFile(ctx, f, banners, claim))
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("banners ingested", slog.Int("unique", len(seen)))
	return nil
}

func ingestFile(ctx context.Context, path string, banners *repository.BannerRepository, claim func(string) bool) func() error {
	return func() error {
		slog.Info("ingesting file", slog.String("path", path))

		var count uint64
		if err := streamGzFile(ctx, path, func(line []byte) error {
			var b bannerLine
			if err := json.Unmarshal(line, &b); err != nil {
				return errors.Wrap(err, "parse banner line")
			}
			if err := validate(b); err != nil {
				slog.Warn("skipping invalid banner",
					slog.String("id", b.ID), slog.String("reason", err.Error()))
				return nil
			}
			if !claim(b.ID) {
				return nil
			}

			if err := banners.Upsert(ctx, pricing.Banner{
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

			count++
			if count%progressEvery == 0 {
				slog.Info("ingest progress", slog.String("path", path), slog.Uint64("banners", count))
			}
			return nil
		}); err != nil {
			return errors.Wrapf(err, "ingest %s", path)
		}

		slog.Info("file complete", slog.String("path", path), slog.Uint64("banners", count))
		return nil
	}
}

func validate(b bannerLine) error {
	switch {
	case b.ID == "":
		return errors.New("missing id")
	case !pricing.Scope(b.Scope).Valid():
		return errors.Errorf("unknown scope %q", b.Scope)
	case !pricing.DiscountType(b.DiscountType).Valid():
		return errors.Errorf("unknown discount type %q", b.DiscountType)
	case !b.Value.IsPositive():
		return errors.New("non-positive value")
	case b.DiscountType == string(pricing.DiscountPercentage) && b.Value.GreaterThan(decimal.NewFromInt(100)):
		return errors.New("percentage value above 100")
	case !b.StartsAt.Before(b.EndsAt):
		return errors.New("starts_at must precede ends_at")
	}
	return nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}
