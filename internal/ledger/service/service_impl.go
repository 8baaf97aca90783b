package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/milkroute/milkroute/internal/ledger/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func New(p Params) ledgerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ledger.service"),
		genID: p.GenID,
	}
}

// insertEntrySQL returns the insert-or-skip statement for the dialect. The
// unique (source_type, source_id) index absorbs retried postings: mysql has
// no ON CONFLICT clause, so it gets INSERT IGNORE instead.
func insertEntrySQL(dialect string) string {
	const columns = `(
		id, customer_id, entry_date, entry_type, source_type, source_id,
		debit_amount, credit_amount, description, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if dialect == "mysql" {
		return `INSERT IGNORE INTO ledger_entries ` + columns
	}
	return `INSERT INTO ledger_entries ` + columns + `
		ON CONFLICT (source_type, source_id) DO NOTHING`
}

func (s *Service) Append(ctx context.Context, tx *gorm.DB, entry ledgerdomain.LedgerEntry) (bool, error) {
	if entry.CustomerID == 0 {
		return false, ledgerdomain.ErrInvalidCustomer
	}
	entry.SourceType = strings.TrimSpace(entry.SourceType)
	if entry.SourceType == "" || entry.SourceID == 0 {
		return false, ledgerdomain.ErrInvalidSource
	}
	if entry.DebitAmount.IsNegative() || entry.CreditAmount.IsNegative() {
		return false, ledgerdomain.ErrInvalidAmounts
	}
	// exactly one side of the posting carries the amount
	if entry.DebitAmount.IsPositive() == entry.CreditAmount.IsPositive() {
		return false, ledgerdomain.ErrInvalidAmounts
	}
	if entry.EntryDate.IsZero() {
		return false, ledgerdomain.ErrInvalidSource
	}

	result := tx.WithContext(ctx).Exec(
		insertEntrySQL(tx.Dialector.Name()),
		s.genID.Generate(),
		entry.CustomerID,
		entry.EntryDate.UTC(),
		entry.EntryType,
		entry.SourceType,
		entry.SourceID,
		entry.DebitAmount,
		entry.CreditAmount,
		entry.Description,
		time.Now().UTC(),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *Service) CustomerBalance(ctx context.Context, customerID snowflake.ID) (decimal.Decimal, error) {
	if customerID == 0 {
		return decimal.Zero, ledgerdomain.ErrInvalidCustomer
	}
	var row struct {
		Balance decimal.Decimal
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(debit_amount) - SUM(credit_amount), 0) AS balance
		 FROM ledger_entries WHERE customer_id = ?`,
		customerID,
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Balance, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]ledgerdomain.LedgerEntry, error) {
	if customerID == 0 {
		return nil, ledgerdomain.ErrInvalidCustomer
	}
	var entries []ledgerdomain.LedgerEntry
	err := s.db.WithContext(ctx).
		Model(&ledgerdomain.LedgerEntry{}).
		Where("customer_id = ?", customerID).
		Order("created_at asc, id asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
