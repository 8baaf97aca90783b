// Package domain contains persistence models for the product catalog.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Product is a deliverable catalog item. BasePrice is the per-unit price a
// delivery item falls back to when no price rule matches.
type Product struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	Code      string          `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Name      string          `gorm:"not null" json:"name"`
	Unit      string          `gorm:"type:text;not null;default:'litre'" json:"unit"`
	BasePrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"base_price"`
	Active    bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

var ErrNotFound = errors.New("product_not_found")
