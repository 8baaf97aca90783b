package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkroute/milkroute/internal/vacation/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, hold *domain.VacationHold) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]domain.VacationHold, error)
	CoveringCustomers(ctx context.Context, db *gorm.DB, date time.Time) ([]snowflake.ID, error)
	CountCovering(ctx context.Context, db *gorm.DB, customerID snowflake.ID, date time.Time) (int64, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, hold *domain.VacationHold) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO vacation_holds (id, customer_id, start_date, end_date, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		hold.ID,
		hold.CustomerID,
		hold.StartDate,
		hold.EndDate,
		hold.CreatedAt,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).Exec(`DELETE FROM vacation_holds WHERE id = ?`, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]domain.VacationHold, error) {
	var holds []domain.VacationHold
	err := db.WithContext(ctx).
		Model(&domain.VacationHold{}).
		Where("customer_id = ?", customerID).
		Order("start_date asc, id asc").
		Find(&holds).Error
	if err != nil {
		return nil, err
	}
	return holds, nil
}

func (r *repo) CoveringCustomers(ctx context.Context, db *gorm.DB, date time.Time) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT DISTINCT customer_id FROM vacation_holds WHERE start_date <= ? AND end_date >= ?`,
		date,
		date,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) CountCovering(ctx context.Context, db *gorm.DB, customerID snowflake.ID, date time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM vacation_holds WHERE customer_id = ? AND start_date <= ? AND end_date >= ?`,
		customerID,
		date,
		date,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
