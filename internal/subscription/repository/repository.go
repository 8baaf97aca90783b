package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/milkroute/milkroute/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, sub *domain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (id, customer_id, product_id, quantity, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID,
		sub.CustomerID,
		sub.ProductID,
		sub.Quantity,
		sub.Active,
		sub.CreatedAt,
		sub.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, product_id, quantity, active, created_at, updated_at
		 FROM subscriptions WHERE id = ?`,
		id,
	).Scan(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == 0 {
		return nil, nil
	}
	return &sub, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, sub *domain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET quantity = ?, active = ?, updated_at = ? WHERE id = ?`,
		sub.Quantity,
		sub.Active,
		sub.UpdatedAt,
		sub.ID,
	).Error
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	err := db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("customer_id = ?", customerID).
		Order("created_at asc, id asc").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	err := db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("active = ?", true).
		Order("customer_id asc, id asc").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}
