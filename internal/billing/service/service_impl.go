package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkroute/milkroute/internal/billing/domain"
	"github.com/milkroute/milkroute/internal/clock"
	"github.com/milkroute/milkroute/internal/config"
	ledgerdomain "github.com/milkroute/milkroute/internal/ledger/domain"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sourceTypeInvoice = "invoice"
	sourceTypePayment = "payment"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	GenID   *snowflake.Node
	Repo    domain.Repository
	Ledger  ledgerdomain.Service
	Billing *config.BillingConfigHolder
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	genID   *snowflake.Node
	repo    domain.Repository
	ledger  ledgerdomain.Service
	billing *config.BillingConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("billing.service"),
		clock:   p.Clock,
		genID:   p.GenID,
		repo:    p.Repo,
		ledger:  p.Ledger,
		billing: p.Billing,
	}
}

func (s *Service) CreateInvoice(ctx context.Context, in domain.CreateInvoiceInput) (*domain.Invoice, error) {
	if in.CustomerID == 0 {
		return nil, domain.ErrInvalidCustomer
	}
	start := truncateToDate(in.PeriodStart)
	end := truncateToDate(in.PeriodEnd)
	if start.IsZero() || end.Before(start) {
		return nil, domain.ErrInvalidPeriod
	}
	if in.DiscountAmount.IsNegative() || in.TaxAmount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	policy := s.billing.Current()
	now := s.clock.Now()

	var inv *domain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		total, err := s.repo.SumBillableAmount(ctx, tx, in.CustomerID, start, end)
		if err != nil {
			return err
		}
		final := total.Sub(in.DiscountAmount).Add(in.TaxAmount)
		if final.IsNegative() {
			return domain.ErrNegativeInvoice
		}

		inv = &domain.Invoice{
			ID:             s.genID.Generate(),
			CustomerID:     in.CustomerID,
			PeriodStart:    start,
			PeriodEnd:      end,
			TotalAmount:    total,
			DiscountAmount: in.DiscountAmount,
			TaxAmount:      in.TaxAmount,
			FinalAmount:    final,
			PaidAmount:     decimal.Zero,
			PaymentStatus:  domain.PaymentStatusPending,
			DueDate:        end.AddDate(0, 0, policy.DueGraceDays),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.repo.InsertInvoice(ctx, tx, inv); err != nil {
			return err
		}

		if final.IsPositive() {
			_, err = s.ledger.Append(ctx, tx, ledgerdomain.LedgerEntry{
				CustomerID:  in.CustomerID,
				EntryDate:   now,
				EntryType:   ledgerdomain.EntryTypeInvoice,
				SourceType:  sourceTypeInvoice,
				SourceID:    inv.ID,
				DebitAmount: final,
				Description: "invoice " + inv.ID.String(),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("invoice created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("customer_id", inv.CustomerID.String()),
		zap.String("final_amount", inv.FinalAmount.String()),
	)
	return inv, nil
}

func (s *Service) RecordPayment(ctx context.Context, in domain.RecordPaymentInput) (*domain.Payment, error) {
	if !in.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	mode := in.Mode
	if mode == "" {
		mode = "cash"
	}

	tolerance := decimal.NewFromFloat(s.billing.Current().OverpaymentTolerance)
	now := s.clock.Now()

	var payment *domain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.repo.FindInvoiceByID(ctx, tx, in.InvoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrInvoiceNotFound
		}
		if inv.PaymentStatus == domain.PaymentStatusPaid {
			return domain.ErrInvoiceSettled
		}

		newPaid := inv.PaidAmount.Add(in.Amount)
		if newPaid.GreaterThan(inv.FinalAmount.Add(tolerance)) {
			return domain.ErrOverpayment
		}

		status := domain.PaymentStatusPartial
		if newPaid.GreaterThanOrEqual(inv.FinalAmount) {
			status = domain.PaymentStatusPaid
		}

		// guarded on the paid amount we read; a concurrent payment that
		// landed in between leaves zero rows and the caller retries
		affected, err := s.repo.ApplyPayment(ctx, tx, inv.ID, inv.PaidAmount, newPaid, status)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrPaymentConflict
		}

		payment = &domain.Payment{
			ID:          s.genID.Generate(),
			InvoiceID:   inv.ID,
			CustomerID:  inv.CustomerID,
			Amount:      in.Amount,
			PaymentDate: now,
			Mode:        mode,
			Reference:   ulid.Make().String(),
			CreatedAt:   now,
		}
		if err := s.repo.InsertPayment(ctx, tx, payment); err != nil {
			return err
		}

		_, err = s.ledger.Append(ctx, tx, ledgerdomain.LedgerEntry{
			CustomerID:   inv.CustomerID,
			EntryDate:    now,
			EntryType:    ledgerdomain.EntryTypePayment,
			SourceType:   sourceTypePayment,
			SourceID:     payment.ID,
			CreditAmount: in.Amount,
			Description:  "payment " + payment.Reference + " on invoice " + inv.ID.String(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", payment.InvoiceID.String()),
		zap.String("amount", payment.Amount.String()),
	)
	return payment, nil
}

func (s *Service) GetInvoice(ctx context.Context, id snowflake.ID) (*domain.Invoice, error) {
	inv, err := s.repo.FindInvoiceByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrInvoiceNotFound
	}
	return inv, nil
}

func (s *Service) ListInvoicesByCustomer(ctx context.Context, customerID snowflake.ID) ([]domain.Invoice, error) {
	if customerID == 0 {
		return nil, domain.ErrInvalidCustomer
	}
	return s.repo.ListInvoicesByCustomer(ctx, s.db, customerID)
}

func (s *Service) ListPaymentsByInvoice(ctx context.Context, invoiceID snowflake.ID) ([]domain.Payment, error) {
	return s.repo.ListPaymentsByInvoice(ctx, s.db, invoiceID)
}

func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	count, err := s.repo.MarkOverdue(ctx, s.db, truncateToDate(asOf))
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.log.Info("invoices marked overdue", zap.Int64("count", count))
	}
	return count, nil
}

func (s *Service) Reconcile(ctx context.Context, customerID snowflake.ID) (*domain.ReconciliationReport, error) {
	if customerID == 0 {
		return nil, domain.ErrInvalidCustomer
	}
	outstanding, err := s.repo.SumOutstanding(ctx, s.db, customerID)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledger.CustomerBalance(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &domain.ReconciliationReport{
		CustomerID:    customerID,
		Outstanding:   outstanding,
		LedgerBalance: balance,
		Balanced:      outstanding.Equal(balance),
	}, nil
}

func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
