package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	InsertInvoice(ctx context.Context, db *gorm.DB, inv *Invoice) error
	FindInvoiceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	ListInvoicesByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]Invoice, error)
	// SumBillableAmount totals delivery item amounts for the customer's
	// delivered and partial deliveries inside the period, inclusive.
	SumBillableAmount(ctx context.Context, db *gorm.DB, customerID snowflake.ID, start, end time.Time) (decimal.Decimal, error)
	// ApplyPayment bumps paid_amount from priorPaid to newPaid and sets the
	// status, guarded on the prior value so concurrent payments cannot both
	// apply. Returns the number of rows changed.
	ApplyPayment(ctx context.Context, db *gorm.DB, id snowflake.ID, priorPaid, newPaid decimal.Decimal, status PaymentStatus) (int64, error)
	InsertPayment(ctx context.Context, db *gorm.DB, p *Payment) error
	ListPaymentsByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]Payment, error)
	MarkOverdue(ctx context.Context, db *gorm.DB, asOf time.Time) (int64, error)
	// SumOutstanding returns sum(final_amount - paid_amount) over all of
	// the customer's invoices.
	SumOutstanding(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (decimal.Decimal, error)
}
