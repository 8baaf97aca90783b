// Package domain contains persistence models for quality-based price rules.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// AdjustmentType describes how a matching rule changes the running price.
type AdjustmentType string

const (
	// AdjustmentFixed adds a per-unit amount (may be negative).
	AdjustmentFixed AdjustmentType = "fixed"
	// AdjustmentPercentage multiplies the running price by (1 + pct/100).
	AdjustmentPercentage AdjustmentType = "percentage"
)

// PriceRule adjusts a product's unit price based on optional milk quality
// readings (fat %, solids-not-fat %). A nil ProductID scopes the rule to all
// products. Multiple matching rules stack; ordering is defined by the
// resolver, not by the table.
type PriceRule struct {
	ID             snowflake.ID     `gorm:"primaryKey" json:"id"`
	ProductID      *snowflake.ID    `gorm:"index" json:"product_id,omitempty"`
	MinFat         *decimal.Decimal `gorm:"type:decimal(6,3)" json:"min_fat,omitempty"`
	MaxFat         *decimal.Decimal `gorm:"type:decimal(6,3)" json:"max_fat,omitempty"`
	MinSNF         *decimal.Decimal `gorm:"column:min_snf;type:decimal(6,3)" json:"min_snf,omitempty"`
	MaxSNF         *decimal.Decimal `gorm:"column:max_snf;type:decimal(6,3)" json:"max_snf,omitempty"`
	Adjustment     decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"adjustment"`
	AdjustmentType AdjustmentType   `gorm:"type:text;not null" json:"adjustment_type"`
	Active         bool             `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (PriceRule) TableName() string { return "price_rules" }

// QualityReading carries the optional measurements taken at delivery or
// collection time.
type QualityReading struct {
	FatPct *decimal.Decimal
	SNFPct *decimal.Decimal
}

type CreateRuleRequest struct {
	ProductID      *snowflake.ID
	MinFat         *decimal.Decimal
	MaxFat         *decimal.Decimal
	MinSNF         *decimal.Decimal
	MaxSNF         *decimal.Decimal
	Adjustment     decimal.Decimal
	AdjustmentType AdjustmentType
}

type Service interface {
	CreateRule(ctx context.Context, req CreateRuleRequest) (PriceRule, error)
	DeactivateRule(ctx context.Context, id snowflake.ID) error
	// ActiveRules returns the current rule set in creation order. The
	// scheduler loads it once per run so every customer in a batch prices
	// against the same snapshot.
	ActiveRules(ctx context.Context) ([]PriceRule, error)
	Resolve(ctx context.Context, productID snowflake.ID, basePrice decimal.Decimal, reading QualityReading) (decimal.Decimal, error)
}

var (
	ErrInvalidAdjustmentType = errors.New("invalid_adjustment_type")
	ErrInvalidRange          = errors.New("invalid_rule_range")
	ErrRuleNotFound          = errors.New("price_rule_not_found")
)
