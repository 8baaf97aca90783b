package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkroute/milkroute/internal/delivery/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, delivery *domain.Delivery) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO deliveries (id, customer_id, delivery_date, status, delivery_time, notes, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		delivery.ID,
		delivery.CustomerID,
		delivery.DeliveryDate,
		delivery.Status,
		delivery.DeliveryTime,
		delivery.Notes,
		delivery.Metadata,
		delivery.CreatedAt,
		delivery.UpdatedAt,
	).Error
}

func (r *repo) InsertItem(ctx context.Context, db *gorm.DB, item *domain.DeliveryItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO delivery_items (id, delivery_id, product_id, quantity, unit_price, total_amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.DeliveryID,
		item.ProductID,
		item.Quantity,
		item.UnitPrice,
		item.TotalAmount,
		item.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Delivery, error) {
	var delivery domain.Delivery
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, delivery_date, status, delivery_time, notes, metadata, created_at, updated_at
		 FROM deliveries WHERE id = ?`,
		id,
	).Scan(&delivery).Error
	if err != nil {
		return nil, err
	}
	if delivery.ID == 0 {
		return nil, nil
	}
	return &delivery, nil
}

func (r *repo) ItemsByDelivery(ctx context.Context, db *gorm.DB, deliveryID snowflake.ID) ([]domain.DeliveryItem, error) {
	var items []domain.DeliveryItem
	err := db.WithContext(ctx).
		Model(&domain.DeliveryItem{}).
		Where("delivery_id = ?", deliveryID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByDate(ctx context.Context, db *gorm.DB, date time.Time) ([]domain.Delivery, error) {
	var deliveries []domain.Delivery
	err := db.WithContext(ctx).
		Model(&domain.Delivery{}).
		Where("delivery_date = ?", date).
		Order("customer_id asc").
		Find(&deliveries).Error
	if err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *repo) ListByDateAndStatus(ctx context.Context, db *gorm.DB, date time.Time, status domain.DeliveryStatus) ([]domain.Delivery, error) {
	var deliveries []domain.Delivery
	err := db.WithContext(ctx).
		Model(&domain.Delivery{}).
		Where("delivery_date = ? AND status = ?", date, status).
		Order("customer_id asc").
		Find(&deliveries).Error
	if err != nil {
		return nil, err
	}
	return deliveries, nil
}
