// Package domain contains persistence models for vacation holds.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// VacationHold suppresses deliveries for a customer between StartDate and
// EndDate, both inclusive. Dates are stored at UTC midnight.
type VacationHold struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID `gorm:"not null;index:ix_vacation_holds_customer_dates,priority:1" json:"customer_id"`
	StartDate  time.Time    `gorm:"type:date;not null;index:ix_vacation_holds_customer_dates,priority:2" json:"start_date"`
	EndDate    time.Time    `gorm:"type:date;not null;index:ix_vacation_holds_customer_dates,priority:3" json:"end_date"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (VacationHold) TableName() string { return "vacation_holds" }

type CreateHoldRequest struct {
	CustomerID snowflake.ID
	StartDate  time.Time
	EndDate    time.Time
}

type Service interface {
	Create(ctx context.Context, req CreateHoldRequest) (VacationHold, error)
	Delete(ctx context.Context, id snowflake.ID) error
	ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]VacationHold, error)
	// OnHold reports whether any hold range for the customer contains date.
	OnHold(ctx context.Context, customerID snowflake.ID, date time.Time) (bool, error)
	// HeldCustomers returns the set of customers on hold for date. The
	// scheduler uses this to exclude whole customers in one query.
	HeldCustomers(ctx context.Context, date time.Time) (map[snowflake.ID]struct{}, error)
}

var (
	ErrInvalidCustomer = errors.New("invalid_customer")
	ErrInvalidRange    = errors.New("invalid_hold_range")
	ErrHoldNotFound    = errors.New("hold_not_found")
)
