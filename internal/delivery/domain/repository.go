package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository gives the scheduler raw insert access so delivery and item
// creation share one transaction per customer.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, delivery *Delivery) error
	InsertItem(ctx context.Context, db *gorm.DB, item *DeliveryItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Delivery, error)
	ItemsByDelivery(ctx context.Context, db *gorm.DB, deliveryID snowflake.ID) ([]DeliveryItem, error)
	ListByDate(ctx context.Context, db *gorm.DB, date time.Time) ([]Delivery, error)
	ListByDateAndStatus(ctx context.Context, db *gorm.DB, date time.Time, status DeliveryStatus) ([]Delivery, error)
}
