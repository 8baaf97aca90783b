// Package domain contains persistence models for deliveries.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DeliveryStatus represents delivery lifecycle states. pending is the only
// non-terminal state: delivered, missed and partial are final for that date.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusMissed    DeliveryStatus = "missed"
	DeliveryStatusPartial   DeliveryStatus = "partial"
)

// Delivery is one customer's drop for one date. The storage layer enforces at
// most one row per (customer_id, delivery_date); the scheduler depends on the
// unique constraint for idempotent re-runs.
type Delivery struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	CustomerID   snowflake.ID      `gorm:"not null;uniqueIndex:ux_deliveries_customer_date,priority:1" json:"customer_id"`
	DeliveryDate time.Time         `gorm:"type:date;not null;uniqueIndex:ux_deliveries_customer_date,priority:2" json:"delivery_date"`
	Status       DeliveryStatus    `gorm:"type:text;not null;default:'pending'" json:"status"`
	DeliveryTime *time.Time        `gorm:"" json:"delivery_time,omitempty"`
	Notes        string            `gorm:"type:text;not null;default:''" json:"notes,omitempty"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Delivery) TableName() string { return "deliveries" }

// DeliveryItem is one product line on a delivery. Items are mutable while the
// parent delivery is pending and frozen once it reaches a terminal status.
type DeliveryItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	DeliveryID  snowflake.ID    `gorm:"not null;index" json:"delivery_id"`
	ProductID   snowflake.ID    `gorm:"not null" json:"product_id"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (DeliveryItem) TableName() string { return "delivery_items" }
