package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	ledgerdomain "github.com/milkroute/milkroute/internal/ledger/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB, *snowflake.Node) {
	t.Helper()
	dsn := fmt.Sprintf("file:memdb_ledger_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE ledger_entries (
		id BIGINT PRIMARY KEY,
		customer_id BIGINT NOT NULL,
		entry_date TIMESTAMP NOT NULL,
		entry_type TEXT NOT NULL,
		source_type TEXT NOT NULL,
		source_id BIGINT NOT NULL,
		debit_amount NUMERIC NOT NULL DEFAULT 0,
		credit_amount NUMERIC NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		CONSTRAINT ux_ledger_entries_source UNIQUE (source_type, source_id)
	)`).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := &Service{
		db:    db,
		log:   zaptest.NewLogger(t),
		genID: node,
	}
	return svc, db, node
}

func entryDate() time.Time {
	return time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
}

func TestAppendValidation(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()

	_, err := svc.Append(ctx, db, ledgerdomain.LedgerEntry{})
	assert.ErrorIs(t, err, ledgerdomain.ErrInvalidCustomer)

	_, err = svc.Append(ctx, db, ledgerdomain.LedgerEntry{
		CustomerID:  node.Generate(),
		EntryDate:   entryDate(),
		DebitAmount: decimal.RequireFromString("10"),
	})
	assert.ErrorIs(t, err, ledgerdomain.ErrInvalidSource)

	// both sides set
	_, err = svc.Append(ctx, db, ledgerdomain.LedgerEntry{
		CustomerID:   node.Generate(),
		EntryDate:    entryDate(),
		SourceType:   "invoice",
		SourceID:     node.Generate(),
		DebitAmount:  decimal.RequireFromString("10"),
		CreditAmount: decimal.RequireFromString("10"),
	})
	assert.ErrorIs(t, err, ledgerdomain.ErrInvalidAmounts)

	// neither side set
	_, err = svc.Append(ctx, db, ledgerdomain.LedgerEntry{
		CustomerID: node.Generate(),
		EntryDate:  entryDate(),
		SourceType: "invoice",
		SourceID:   node.Generate(),
	})
	assert.ErrorIs(t, err, ledgerdomain.ErrInvalidAmounts)
}

func TestAppendIdempotentPerSource(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()
	customerID := node.Generate()
	sourceID := node.Generate()

	entry := ledgerdomain.LedgerEntry{
		CustomerID:  customerID,
		EntryDate:   entryDate(),
		EntryType:   ledgerdomain.EntryTypeInvoice,
		SourceType:  "invoice",
		SourceID:    sourceID,
		DebitAmount: decimal.RequireFromString("250"),
	}

	inserted, err := svc.Append(ctx, db, entry)
	require.NoError(t, err)
	assert.True(t, inserted)

	// a retried posting for the same source is a no-op
	inserted, err = svc.Append(ctx, db, entry)
	require.NoError(t, err)
	assert.False(t, inserted)

	balance, err := svc.CustomerBalance(ctx, customerID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("250")))

	entries, err := svc.ListByCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestInsertEntrySQLPerDialect(t *testing.T) {
	// mysql cannot parse ON CONFLICT; it must get INSERT IGNORE instead
	assert.Contains(t, insertEntrySQL("mysql"), "INSERT IGNORE INTO ledger_entries")
	assert.NotContains(t, insertEntrySQL("mysql"), "ON CONFLICT")

	for _, dialect := range []string{"postgres", "sqlite"} {
		assert.Contains(t, insertEntrySQL(dialect), "ON CONFLICT (source_type, source_id) DO NOTHING")
	}
}

// The reconciliation invariant: after any sequence of debit and credit
// postings, the customer balance equals the running sum the caller tracked.
func TestBalanceMatchesPostedAmounts(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)
	properties.Property("balance equals sum(debits) - sum(credits)", prop.ForAll(
		func(amounts []int64) bool {
			customerID := node.Generate()
			expected := decimal.Zero
			for i, raw := range amounts {
				amount := decimal.NewFromInt(raw)
				entry := ledgerdomain.LedgerEntry{
					CustomerID: customerID,
					EntryDate:  entryDate(),
					SourceID:   node.Generate(),
				}
				if i%2 == 0 {
					entry.EntryType = ledgerdomain.EntryTypeInvoice
					entry.SourceType = "invoice"
					entry.DebitAmount = amount
					expected = expected.Add(amount)
				} else {
					entry.EntryType = ledgerdomain.EntryTypePayment
					entry.SourceType = "payment"
					entry.CreditAmount = amount
					expected = expected.Sub(amount)
				}
				if _, err := svc.Append(ctx, db, entry); err != nil {
					return false
				}
			}
			balance, err := svc.CustomerBalance(ctx, customerID)
			if err != nil {
				return false
			}
			return balance.Equal(expected)
		},
		gen.SliceOf(gen.Int64Range(1, 100000)),
	))
	properties.TestingRun(t)
}
