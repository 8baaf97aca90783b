// Package domain contains persistence models for delivery subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Subscription is a standing daily order: this customer receives this
// quantity of this product every day the customer is not on hold. At most one
// row exists per (customer, product).
type Subscription struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_subscriptions_customer_product,priority:1" json:"customer_id"`
	ProductID  snowflake.ID    `gorm:"not null;uniqueIndex:ux_subscriptions_customer_product,priority:2" json:"product_id"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Active     bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }
