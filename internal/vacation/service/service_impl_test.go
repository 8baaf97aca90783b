package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkroute/milkroute/internal/vacation/domain"
	"github.com/milkroute/milkroute/internal/vacation/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB, *snowflake.Node) {
	t.Helper()
	dsn := fmt.Sprintf("file:memdb_vacation_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE vacation_holds (
		id BIGINT PRIMARY KEY,
		customer_id BIGINT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := &Service{
		db:    db,
		log:   zaptest.NewLogger(t),
		genID: node,
		repo:  repository.Provide(),
	}
	return svc, db, node
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateHoldValidatesRange(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateHoldRequest{
		CustomerID: node.Generate(),
		StartDate:  date(2026, 3, 10),
		EndDate:    date(2026, 3, 5),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = svc.Create(ctx, domain.CreateHoldRequest{
		StartDate: date(2026, 3, 1),
		EndDate:   date(2026, 3, 5),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)
}

func TestOnHoldBoundariesInclusive(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()
	customerID := node.Generate()

	_, err := svc.Create(ctx, domain.CreateHoldRequest{
		CustomerID: customerID,
		StartDate:  date(2026, 3, 5),
		EndDate:    date(2026, 3, 10),
	})
	require.NoError(t, err)

	cases := []struct {
		day  time.Time
		held bool
	}{
		{date(2026, 3, 4), false},
		{date(2026, 3, 5), true},
		{date(2026, 3, 7), true},
		{date(2026, 3, 10), true},
		{date(2026, 3, 11), false},
	}
	for _, tc := range cases {
		held, err := svc.OnHold(ctx, customerID, tc.day)
		require.NoError(t, err)
		assert.Equal(t, tc.held, held, "date %s", tc.day.Format("2006-01-02"))
	}
}

func TestSingleDayHold(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()
	customerID := node.Generate()

	_, err := svc.Create(ctx, domain.CreateHoldRequest{
		CustomerID: customerID,
		StartDate:  date(2026, 3, 5),
		EndDate:    date(2026, 3, 5),
	})
	require.NoError(t, err)

	held, err := svc.OnHold(ctx, customerID, date(2026, 3, 5))
	require.NoError(t, err)
	assert.True(t, held)
}

func TestHeldCustomersForDate(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()

	onHold := node.Generate()
	offHold := node.Generate()

	_, err := svc.Create(ctx, domain.CreateHoldRequest{
		CustomerID: onHold,
		StartDate:  date(2026, 3, 1),
		EndDate:    date(2026, 3, 31),
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateHoldRequest{
		CustomerID: offHold,
		StartDate:  date(2026, 4, 1),
		EndDate:    date(2026, 4, 5),
	})
	require.NoError(t, err)

	held, err := svc.HeldCustomers(ctx, date(2026, 3, 15))
	require.NoError(t, err)
	assert.Contains(t, held, onHold)
	assert.NotContains(t, held, offHold)
}

func TestDeleteHold(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()
	customerID := node.Generate()

	hold, err := svc.Create(ctx, domain.CreateHoldRequest{
		CustomerID: customerID,
		StartDate:  date(2026, 3, 5),
		EndDate:    date(2026, 3, 10),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, hold.ID))
	assert.ErrorIs(t, svc.Delete(ctx, hold.ID), domain.ErrHoldNotFound)

	held, err := svc.OnHold(ctx, customerID, date(2026, 3, 7))
	require.NoError(t, err)
	assert.False(t, held)
}
