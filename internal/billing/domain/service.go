package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// CreateInvoiceInput carries the parameters for invoice generation. The
// total is computed from completed deliveries in the period; discount and
// tax adjust it into the final amount.
type CreateInvoiceInput struct {
	CustomerID     snowflake.ID
	PeriodStart    time.Time
	PeriodEnd      time.Time
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
}

// RecordPaymentInput carries one payment against an invoice.
type RecordPaymentInput struct {
	InvoiceID snowflake.ID
	Amount    decimal.Decimal
	Mode      string
}

type Service interface {
	// CreateInvoice bills the customer for delivered and partial deliveries
	// inside [PeriodStart, PeriodEnd] and posts the opening debit to the
	// ledger in the same transaction.
	CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*Invoice, error)
	// RecordPayment applies one payment: invoice paid_amount and status,
	// the payment row and the ledger credit all commit together or not at
	// all.
	RecordPayment(ctx context.Context, in RecordPaymentInput) (*Payment, error)
	GetInvoice(ctx context.Context, id snowflake.ID) (*Invoice, error)
	ListInvoicesByCustomer(ctx context.Context, customerID snowflake.ID) ([]Invoice, error)
	ListPaymentsByInvoice(ctx context.Context, invoiceID snowflake.ID) ([]Payment, error)
	// MarkOverdue flips pending and partial invoices past their due date to
	// overdue and returns how many rows changed.
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
	// Reconcile checks the customer's invoice outstanding against the
	// ledger balance.
	Reconcile(ctx context.Context, customerID snowflake.ID) (*ReconciliationReport, error)
}

var (
	ErrInvoiceNotFound = errors.New("invoice_not_found")
	ErrInvalidPeriod   = errors.New("invalid_invoice_period")
	ErrInvalidCustomer = errors.New("invalid_customer")
	ErrInvalidAmount   = errors.New("invalid_payment_amount")
	ErrOverpayment     = errors.New("payment_exceeds_balance")
	ErrInvoiceSettled  = errors.New("invoice_already_settled")
	ErrPaymentConflict = errors.New("payment_conflict")
	ErrNegativeInvoice = errors.New("invoice_amount_negative")
)
