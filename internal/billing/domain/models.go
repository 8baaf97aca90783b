// Package domain contains invoices, payments and the billing lifecycle.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the invoice lifecycle state.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

// Invoice bills a customer for deliveries completed inside a period.
// FinalAmount = TotalAmount - DiscountAmount + TaxAmount, fixed at creation.
// PaidAmount only ever grows, one recorded payment at a time.
type Invoice struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	CustomerID     snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	PeriodStart    time.Time       `gorm:"type:date;not null" json:"period_start"`
	PeriodEnd      time.Time       `gorm:"type:date;not null" json:"period_end"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"final_amount"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"paid_amount"`
	PaymentStatus  PaymentStatus   `gorm:"type:text;not null;default:'pending'" json:"payment_status"`
	DueDate        time.Time       `gorm:"type:date;not null" json:"due_date"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Payment is one settlement against an invoice. Reference is a ULID assigned
// at record time so receipts can be traced back.
type Payment struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	CustomerID  snowflake.ID    `gorm:"not null" json:"customer_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	PaymentDate time.Time       `gorm:"not null" json:"payment_date"`
	Mode        string          `gorm:"type:text;not null;default:'cash'" json:"mode"`
	Reference   string          `gorm:"type:text;not null" json:"reference"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// ReconciliationReport compares invoice outstanding amounts against the
// ledger. Balanced means sum(final - paid) over all invoices equals the
// ledger balance for the customer.
type ReconciliationReport struct {
	CustomerID    snowflake.ID    `json:"customer_id"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	LedgerBalance decimal.Decimal `json:"ledger_balance"`
	Balanced      bool            `json:"balanced"`
}
