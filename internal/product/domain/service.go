package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Code      string
	Name      string
	Unit      string
	BasePrice decimal.Decimal
}

type Service interface {
	Create(ctx context.Context, req CreateProductRequest) (Product, error)
	Get(ctx context.Context, id snowflake.ID) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	// ActiveByID returns the active catalog keyed by product id. The
	// scheduler loads it once per run to price delivery items.
	ActiveByID(ctx context.Context) (map[snowflake.ID]Product, error)
}

var (
	ErrInvalidCode   = errors.New("invalid_product_code")
	ErrProductExists = errors.New("product_exists")
)
