package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type CreateCustomerRequest struct {
	Name     string
	Phone    string
	Address  string
	Metadata datatypes.JSONMap
}

type Service interface {
	Create(ctx context.Context, req CreateCustomerRequest) (Customer, error)
	Get(ctx context.Context, id snowflake.ID) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
	Deactivate(ctx context.Context, id snowflake.ID) error
}
