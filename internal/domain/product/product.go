package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Prices are in
// major currency units (rupees); conversion to minor units happens at
// checkout time.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Tag         string
}

// Repository defines read and write operations for the product catalog.
// The catalog is the single trusted price source: checkout recomputes
// order totals from it rather than trusting client-submitted amounts.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Upsert(ctx context.Context, products []Product) error
}
