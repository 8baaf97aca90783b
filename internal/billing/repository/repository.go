package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkroute/milkroute/internal/billing/domain"
	deliverydomain "github.com/milkroute/milkroute/internal/delivery/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertInvoice(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoices (
			id, customer_id, period_start, period_end, total_amount,
			discount_amount, tax_amount, final_amount, paid_amount,
			payment_status, due_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID,
		inv.CustomerID,
		inv.PeriodStart,
		inv.PeriodEnd,
		inv.TotalAmount,
		inv.DiscountAmount,
		inv.TaxAmount,
		inv.FinalAmount,
		inv.PaidAmount,
		inv.PaymentStatus,
		inv.DueDate,
		inv.CreatedAt,
		inv.UpdatedAt,
	).Error
}

func (r *repo) FindInvoiceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, period_start, period_end, total_amount,
		        discount_amount, tax_amount, final_amount, paid_amount,
		        payment_status, due_date, created_at, updated_at
		 FROM invoices WHERE id = ?`,
		id,
	).Scan(&inv).Error
	if err != nil {
		return nil, err
	}
	if inv.ID == 0 {
		return nil, nil
	}
	return &inv, nil
}

func (r *repo) ListInvoicesByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("customer_id = ?", customerID).
		Order("period_start asc, id asc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) SumBillableAmount(ctx context.Context, db *gorm.DB, customerID snowflake.ID, start, end time.Time) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(di.total_amount), 0) AS total
		 FROM delivery_items di
		 JOIN deliveries d ON d.id = di.delivery_id
		 WHERE d.customer_id = ?
		   AND d.delivery_date >= ? AND d.delivery_date <= ?
		   AND d.status IN (?, ?)`,
		customerID,
		start,
		end,
		deliverydomain.DeliveryStatusDelivered,
		deliverydomain.DeliveryStatusPartial,
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *repo) ApplyPayment(ctx context.Context, db *gorm.DB, id snowflake.ID, priorPaid, newPaid decimal.Decimal, status domain.PaymentStatus) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET paid_amount = ?, payment_status = ?, updated_at = ?
		 WHERE id = ? AND paid_amount = ?`,
		newPaid,
		status,
		time.Now().UTC(),
		id,
		priorPaid,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, p *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (id, invoice_id, customer_id, amount, payment_date, mode, reference, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.InvoiceID,
		p.CustomerID,
		p.Amount,
		p.PaymentDate,
		p.Mode,
		p.Reference,
		p.CreatedAt,
	).Error
}

func (r *repo) ListPaymentsByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("invoice_id = ?", invoiceID).
		Order("payment_date asc, id asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) MarkOverdue(ctx context.Context, db *gorm.DB, asOf time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET payment_status = ?, updated_at = ?
		 WHERE payment_status IN (?, ?) AND due_date < ?`,
		domain.PaymentStatusOverdue,
		time.Now().UTC(),
		domain.PaymentStatusPending,
		domain.PaymentStatusPartial,
		asOf,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) SumOutstanding(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (decimal.Decimal, error) {
	var row struct {
		Outstanding decimal.Decimal
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(final_amount - paid_amount), 0) AS outstanding
		 FROM invoices WHERE customer_id = ?`,
		customerID,
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Outstanding, nil
}
