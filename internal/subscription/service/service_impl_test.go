package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkroute/milkroute/internal/subscription/domain"
	"github.com/milkroute/milkroute/internal/subscription/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *snowflake.Node) {
	t.Helper()
	dsn := fmt.Sprintf("file:memdb_subscription_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE subscriptions (
		id BIGINT PRIMARY KEY,
		customer_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		quantity NUMERIC NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CONSTRAINT ux_subscriptions_customer_product UNIQUE (customer_id, product_id)
	)`).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := &Service{
		db:    db,
		log:   zaptest.NewLogger(t),
		genID: node,
		repo:  repository.Provide(),
	}
	return svc, node
}

func TestCreateSubscription(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, domain.CreateSubscriptionRequest{
		CustomerID: node.Generate(),
		ProductID:  node.Generate(),
		Quantity:   decimal.RequireFromString("1.5"),
	})
	require.NoError(t, err)
	assert.True(t, sub.Active)
	assert.True(t, sub.Quantity.Equal(decimal.RequireFromString("1.5")))
}

func TestCreateSubscriptionValidation(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateSubscriptionRequest{
		ProductID: node.Generate(),
		Quantity:  decimal.RequireFromString("1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)

	_, err = svc.Create(ctx, domain.CreateSubscriptionRequest{
		CustomerID: node.Generate(),
		ProductID:  node.Generate(),
		Quantity:   decimal.Zero,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestCreateDuplicateSubscription(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()
	customerID := node.Generate()
	productID := node.Generate()

	_, err := svc.Create(ctx, domain.CreateSubscriptionRequest{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   decimal.RequireFromString("1"),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateSubscriptionRequest{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   decimal.RequireFromString("2"),
	})
	assert.ErrorIs(t, err, domain.ErrSubscriptionExists)
}

func TestUpdateQuantityAndDeactivate(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, domain.CreateSubscriptionRequest{
		CustomerID: node.Generate(),
		ProductID:  node.Generate(),
		Quantity:   decimal.RequireFromString("1"),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateQuantity(ctx, domain.UpdateQuantityRequest{
		ID:       sub.ID,
		Quantity: decimal.RequireFromString("2.5"),
	})
	require.NoError(t, err)
	assert.True(t, updated.Quantity.Equal(decimal.RequireFromString("2.5")))

	require.NoError(t, svc.Deactivate(ctx, sub.ID))
	// deactivating twice is a no-op
	require.NoError(t, svc.Deactivate(ctx, sub.ID))

	grouped, err := svc.ActiveGrouped(ctx)
	require.NoError(t, err)
	assert.NotContains(t, grouped, sub.CustomerID)
}

func TestActiveGrouped(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()
	alice := node.Generate()
	bob := node.Generate()

	for _, c := range []snowflake.ID{alice, bob} {
		_, err := svc.Create(ctx, domain.CreateSubscriptionRequest{
			CustomerID: c,
			ProductID:  node.Generate(),
			Quantity:   decimal.RequireFromString("1"),
		})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, domain.CreateSubscriptionRequest{
		CustomerID: alice,
		ProductID:  node.Generate(),
		Quantity:   decimal.RequireFromString("0.5"),
	})
	require.NoError(t, err)

	grouped, err := svc.ActiveGrouped(ctx)
	require.NoError(t, err)
	assert.Len(t, grouped[alice], 2)
	assert.Len(t, grouped[bob], 1)
}
