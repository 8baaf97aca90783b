// Package domain contains the append-only customer ledger.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerEntryType labels what a posting represents.
type LedgerEntryType string

const (
	// EntryTypeInvoice debits the customer for a newly issued invoice.
	EntryTypeInvoice LedgerEntryType = "invoice"
	// EntryTypePayment credits the customer for a recorded payment.
	EntryTypePayment LedgerEntryType = "payment"
)

// LedgerEntry is an immutable audit record of a debit or credit against a
// customer. Entries are never updated or deleted; (source_type, source_id)
// is unique so a retried posting cannot double-write.
type LedgerEntry struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	CustomerID   snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	EntryDate    time.Time       `gorm:"not null" json:"entry_date"`
	EntryType    LedgerEntryType `gorm:"type:text;not null" json:"entry_type"`
	SourceType   string          `gorm:"type:text;not null;uniqueIndex:ux_ledger_entries_source,priority:1" json:"source_type"`
	SourceID     snowflake.ID    `gorm:"not null;uniqueIndex:ux_ledger_entries_source,priority:2" json:"source_id"`
	DebitAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"debit_amount"`
	CreditAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"credit_amount"`
	Description  string          `gorm:"type:text;not null;default:''" json:"description"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (LedgerEntry) TableName() string { return "ledger_entries" }

type Service interface {
	// Append writes one entry inside the caller's transaction. A second
	// append for the same (source_type, source_id) is a no-op and reports
	// inserted=false.
	Append(ctx context.Context, tx *gorm.DB, entry LedgerEntry) (inserted bool, err error)
	// CustomerBalance returns sum(debits) - sum(credits) for the customer.
	CustomerBalance(ctx context.Context, customerID snowflake.ID) (decimal.Decimal, error)
	ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]LedgerEntry, error)
}

var (
	ErrInvalidCustomer = errors.New("invalid_customer")
	ErrInvalidSource   = errors.New("invalid_ledger_source")
	ErrInvalidAmounts  = errors.New("invalid_ledger_amounts")
)
