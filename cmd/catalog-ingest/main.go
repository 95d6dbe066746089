// Command catalog-ingest imports gzipped JSONL catalog dumps into
// PostgreSQL. Dump files are parsed concurrently; when the same product id
// appears in multiple files, the last file in argument order wins.
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
	"sort"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/pickleworks/storefront/internal/domain/product"
	"github.com/pickleworks/storefront/internal/repository"
)

const upsertBatchSize = 500

// row is one JSONL record in a catalog dump.
type row struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Tag         string          `json:"tag"`
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing catalog*.jsonl.gz dump files")
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
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "catalog*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob dump files")
	}
	if len(files) == 0 {
		return errors.Errorf("no catalog*.jsonl.gz files in %s", dataDir)
	}
	sort.Strings(files)

	slog.Info("parsing dump files", slog.Int("files", len(files)))

	perFile, err := parseFiles(ctx, files)
	if err != nil {
		return errors.Wrap(err, "parse dump files")
	}

	// Merge in file order so later files override earlier ones.
	merged := make(map[string]product.Product)
	for _, products := range perFile {
		for _, p := range products {
			merged[p.ID] = p
		}
	}
	products := make([]product.Product, 0, len(merged))
	for _, p := range merged {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })

	slog.Info("catalog parsed", slog.Int("products", len(products)))

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := repository.NewProductRepository(pool)
	for start := 0; start < len(products); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(products))
		if err := repo.Upsert(ctx, products[start:end]); err != nil {
			return errors.Wrapf(err, "upsert batch %d..%d", start, end)
		}
	}

	return nil
}

// parseFiles reads every dump concurrently. The result slice is indexed
// like files, preserving argument order for the merge.
func parseFiles(ctx context.Context, files []string) ([][]product.Product, error) {
	results := make([][]product.Product, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			products, err := parseFile(ctx, file)
			if err != nil {
				return errors.Wrapf(err, "parse %s", file)
			}
			results[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func parseFile(ctx context.Context, path string) ([]product.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "gzip reader")
	}
	defer func() { _ = gz.Close() }()

	var (
		products []product.Product
		lineNo   int
	)
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var r row
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		if r.ID == "" || r.Name == "" || !r.Price.IsPositive() {
			return nil, errors.Errorf("line %d: invalid product record", lineNo)
		}

		products = append(products, product.Product{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Price:       r.Price,
			Image:       r.Image,
			Tag:         r.Tag,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan")
	}
	return products, nil
}
