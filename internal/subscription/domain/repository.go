package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sub *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	Update(ctx context.Context, db *gorm.DB, sub *Subscription) error
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]Subscription, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]Subscription, error)
}
