// Package domain contains persistence models for customers.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Customer struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name      string            `gorm:"not null" json:"name"`
	Phone     string            `gorm:"type:text;not null;default:''" json:"phone,omitempty"`
	Address   string            `gorm:"type:text;not null;default:''" json:"address,omitempty"`
	Active    bool              `gorm:"not null;default:true" json:"active"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }

var (
	ErrNotFound  = errors.New("customer_not_found")
	ErrInvalidID = errors.New("invalid_customer_id")
)
