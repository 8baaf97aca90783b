package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkroute/milkroute/internal/clock"
	"github.com/milkroute/milkroute/internal/config"
	deliverydomain "github.com/milkroute/milkroute/internal/delivery/domain"
	deliveryrepo "github.com/milkroute/milkroute/internal/delivery/repository"
	deliveryservice "github.com/milkroute/milkroute/internal/delivery/service"
	"github.com/milkroute/milkroute/internal/observability/metrics"
	pricingdomain "github.com/milkroute/milkroute/internal/pricing/domain"
	pricingservice "github.com/milkroute/milkroute/internal/pricing/service"
	productdomain "github.com/milkroute/milkroute/internal/product/domain"
	productservice "github.com/milkroute/milkroute/internal/product/service"
	subscriptiondomain "github.com/milkroute/milkroute/internal/subscription/domain"
	subscriptionrepo "github.com/milkroute/milkroute/internal/subscription/repository"
	subscriptionservice "github.com/milkroute/milkroute/internal/subscription/service"
	vacationdomain "github.com/milkroute/milkroute/internal/vacation/domain"
	vacationrepo "github.com/milkroute/milkroute/internal/vacation/repository"
	vacationservice "github.com/milkroute/milkroute/internal/vacation/service"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	db            *gorm.DB
	node          *snowflake.Node
	clock         *clock.FakeClock
	scheduler     *Scheduler
	subscriptions subscriptiondomain.Service
	holds         vacationdomain.Service
	products      productdomain.Service
	pricing       pricingdomain.Service
	deliveries    deliverydomain.Service
	deliveryRepo  deliverydomain.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:memdb_scheduler_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE products (
			id BIGINT PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			unit TEXT NOT NULL DEFAULT 'litre',
			base_price NUMERIC NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE subscriptions (
			id BIGINT PRIMARY KEY,
			customer_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			quantity NUMERIC NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			CONSTRAINT ux_subscriptions_customer_product UNIQUE (customer_id, product_id)
		)`,
		`CREATE TABLE vacation_holds (
			id BIGINT PRIMARY KEY,
			customer_id BIGINT NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE price_rules (
			id BIGINT PRIMARY KEY,
			product_id BIGINT,
			min_fat NUMERIC,
			max_fat NUMERIC,
			min_snf NUMERIC,
			max_snf NUMERIC,
			adjustment NUMERIC NOT NULL,
			adjustment_type TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE deliveries (
			id BIGINT PRIMARY KEY,
			customer_id BIGINT NOT NULL,
			delivery_date DATE NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			delivery_time TIMESTAMP,
			notes TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			CONSTRAINT ux_deliveries_customer_date UNIQUE (customer_id, delivery_date)
		)`,
		`CREATE TABLE delivery_items (
			id BIGINT PRIMARY KEY,
			delivery_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			quantity NUMERIC NOT NULL,
			unit_price NUMERIC NOT NULL,
			total_amount NUMERIC NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 5, 30, 0, 0, time.UTC))

	subsSvc := subscriptionservice.New(subscriptionservice.Params{
		DB: db, Log: log, GenID: node, Repo: subscriptionrepo.Provide(),
	})
	vacSvc := vacationservice.New(vacationservice.Params{
		DB: db, Log: log, GenID: node, Repo: vacationrepo.Provide(),
	})
	prodSvc := productservice.New(productservice.Params{DB: db, Log: log, GenID: node})
	priceSvc := pricingservice.New(pricingservice.Params{DB: db, Log: log, GenID: node})
	delRepo := deliveryrepo.Provide()
	delSvc := deliveryservice.New(deliveryservice.Params{
		DB: db, Log: log, Clock: fake, Repo: delRepo,
	})

	sched := New(Params{
		Config:        config.Config{Scheduler: config.SchedulerConfig{BatchSize: 50}},
		DB:            db,
		Log:           log,
		Clock:         fake,
		GenID:         node,
		Subscriptions: subsSvc,
		Holds:         vacSvc,
		Products:      prodSvc,
		Pricing:       priceSvc,
		Deliveries:    delSvc,
		DeliveryRepo:  delRepo,
	})

	return &testEnv{
		db:            db,
		node:          node,
		clock:         fake,
		scheduler:     sched,
		subscriptions: subsSvc,
		holds:         vacSvc,
		products:      prodSvc,
		pricing:       priceSvc,
		deliveries:    delSvc,
		deliveryRepo:  delRepo,
	}
}

func (e *testEnv) addProduct(t *testing.T, code, basePrice string) productdomain.Product {
	t.Helper()
	product, err := e.products.Create(context.Background(), productdomain.CreateProductRequest{
		Code:      code,
		Name:      code,
		BasePrice: decimal.RequireFromString(basePrice),
	})
	require.NoError(t, err)
	return product
}

func (e *testEnv) subscribe(t *testing.T, customerID, productID snowflake.ID, qty string) {
	t.Helper()
	_, err := e.subscriptions.Create(context.Background(), subscriptiondomain.CreateSubscriptionRequest{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   decimal.RequireFromString(qty),
	})
	require.NoError(t, err)
}

func runDate() time.Time {
	return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
}

func TestScheduleOnlyCreatesPendingDeliveries(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()
	metrics.ResetSchedulerMetricsForTest()

	env := newTestEnv(t)
	ctx := context.Background()

	milk := env.addProduct(t, "MILK-1L", "60")
	curd := env.addProduct(t, "CURD-500G", "30")
	alice := env.node.Generate()
	bob := env.node.Generate()
	env.subscribe(t, alice, milk.ID, "2")
	env.subscribe(t, alice, curd.ID, "1")
	env.subscribe(t, bob, milk.ID, "1.5")

	result, err := env.scheduler.Run(ctx, runDate(), ModeScheduleOnly)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scheduled)
	assert.Zero(t, result.Delivered)
	assert.Zero(t, result.Skipped)
	assert.Empty(t, result.Errors)

	deliveries, err := env.deliveryRepo.ListByDate(ctx, env.db, runDate())
	require.NoError(t, err)
	require.Len(t, deliveries, 2)
	for _, d := range deliveries {
		assert.Equal(t, deliverydomain.DeliveryStatusPending, d.Status)
	}

	var itemCount int64
	require.NoError(t, env.db.Raw(`SELECT COUNT(*) FROM delivery_items`).Scan(&itemCount).Error)
	assert.EqualValues(t, 3, itemCount)

	assert.Equal(t, 1.0, counterValue(t, registry, "milkroute_scheduler_runs_total", map[string]string{
		"mode": string(ModeScheduleOnly),
	}))
	assert.Equal(t, 2.0, counterValue(t, registry, "milkroute_scheduler_customers_total", map[string]string{
		"mode":    string(ModeScheduleOnly),
		"outcome": metrics.OutcomeScheduled,
	}))
}

func TestReRunIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	milk := env.addProduct(t, "MILK-1L", "60")
	alice := env.node.Generate()
	env.subscribe(t, alice, milk.ID, "2")

	first, err := env.scheduler.Run(ctx, runDate(), ModeScheduleOnly)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Scheduled)

	second, err := env.scheduler.Run(ctx, runDate(), ModeScheduleOnly)
	require.NoError(t, err)
	assert.Zero(t, second.Scheduled)
	assert.Equal(t, 1, second.Skipped)

	var count int64
	require.NoError(t, env.db.Raw(
		`SELECT COUNT(*) FROM deliveries WHERE customer_id = ?`, alice,
	).Scan(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestHeldCustomerIsSkipped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	milk := env.addProduct(t, "MILK-1L", "60")
	alice := env.node.Generate()
	bob := env.node.Generate()
	env.subscribe(t, alice, milk.ID, "2")
	env.subscribe(t, bob, milk.ID, "1")

	_, err := env.holds.Create(ctx, vacationdomain.CreateHoldRequest{
		CustomerID: alice,
		StartDate:  runDate().AddDate(0, 0, -1),
		EndDate:    runDate().AddDate(0, 0, 3),
	})
	require.NoError(t, err)

	result, err := env.scheduler.Run(ctx, runDate(), ModeScheduleOnly)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scheduled)
	assert.Equal(t, 1, result.Skipped)

	var count int64
	require.NoError(t, env.db.Raw(
		`SELECT COUNT(*) FROM deliveries WHERE customer_id = ?`, alice,
	).Scan(&count).Error)
	assert.Zero(t, count)
}

func TestFullModeDeliversWithRulePricing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	milk := env.addProduct(t, "MILK-1L", "60")
	alice := env.node.Generate()
	env.subscribe(t, alice, milk.ID, "2")

	// unconstrained surcharge applies to every scheduled item
	_, err := env.pricing.CreateRule(ctx, pricingdomain.CreateRuleRequest{
		Adjustment:     decimal.RequireFromString("2"),
		AdjustmentType: pricingdomain.AdjustmentFixed,
	})
	require.NoError(t, err)

	result, err := env.scheduler.Run(ctx, runDate(), ModeFull)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)
	assert.Zero(t, result.Scheduled)

	deliveries, err := env.deliveryRepo.ListByDate(ctx, env.db, runDate())
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.Equal(t, deliverydomain.DeliveryStatusDelivered, deliveries[0].Status)

	items, err := env.deliveryRepo.ItemsByDelivery(ctx, env.db, deliveries[0].ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].UnitPrice.Equal(decimal.RequireFromString("62")))
	assert.True(t, items[0].TotalAmount.Equal(decimal.RequireFromString("124")))
}

func TestAutoDeliverPendingRechecksHolds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	milk := env.addProduct(t, "MILK-1L", "60")
	alice := env.node.Generate()
	bob := env.node.Generate()
	env.subscribe(t, alice, milk.ID, "2")
	env.subscribe(t, bob, milk.ID, "1")

	_, err := env.scheduler.Run(ctx, runDate(), ModeScheduleOnly)
	require.NoError(t, err)

	// hold placed after scheduling still blocks completion
	_, err = env.holds.Create(ctx, vacationdomain.CreateHoldRequest{
		CustomerID: alice,
		StartDate:  runDate(),
		EndDate:    runDate(),
	})
	require.NoError(t, err)

	result, err := env.scheduler.Run(ctx, runDate(), ModeAutoDeliverPending)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)
	assert.Equal(t, 1, result.Skipped)

	deliveries, err := env.deliveryRepo.ListByDate(ctx, env.db, runDate())
	require.NoError(t, err)
	for _, d := range deliveries {
		if d.CustomerID == alice {
			assert.Equal(t, deliverydomain.DeliveryStatusPending, d.Status)
		} else {
			assert.Equal(t, deliverydomain.DeliveryStatusDelivered, d.Status)
		}
	}
}

func TestAutoDeliverPendingRespectsManualDecision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	milk := env.addProduct(t, "MILK-1L", "60")
	alice := env.node.Generate()
	env.subscribe(t, alice, milk.ID, "2")

	_, err := env.scheduler.Run(ctx, runDate(), ModeScheduleOnly)
	require.NoError(t, err)

	deliveries, err := env.deliveryRepo.ListByDate(ctx, env.db, runDate())
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	require.NoError(t, env.deliveries.MarkMissed(ctx, deliveries[0].ID, "nobody home"))

	result, err := env.scheduler.Run(ctx, runDate(), ModeAutoDeliverPending)
	require.NoError(t, err)
	assert.Zero(t, result.Delivered)
	assert.Empty(t, result.Errors)

	got, err := env.deliveryRepo.FindByID(ctx, env.db, deliveries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, deliverydomain.DeliveryStatusMissed, got.Status)
}

func TestFailingCustomerDoesNotAbortRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	milk := env.addProduct(t, "MILK-1L", "60")
	alice := env.node.Generate()
	bob := env.node.Generate()
	env.subscribe(t, alice, milk.ID, "2")
	env.subscribe(t, bob, milk.ID, "1")

	// bob's product disappears from the active catalog before the run
	require.NoError(t, env.db.Exec(
		`UPDATE subscriptions SET product_id = ? WHERE customer_id = ?`,
		env.node.Generate(), bob,
	).Error)

	result, err := env.scheduler.Run(ctx, runDate(), ModeScheduleOnly)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scheduled)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, bob, result.Errors[0].CustomerID)

	// the failed customer's transaction rolled back entirely
	var count int64
	require.NoError(t, env.db.Raw(
		`SELECT COUNT(*) FROM deliveries WHERE customer_id = ?`, bob,
	).Scan(&count).Error)
	assert.Zero(t, count)
}

func TestRunRejectsUnknownMode(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.scheduler.Run(context.Background(), runDate(), Mode("bogus"))
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func counterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metricFamilies {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if labelsMatch(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}

func swapPrometheusRegistry(registry *prometheus.Registry) func() {
	oldRegisterer := prometheus.DefaultRegisterer
	oldGatherer := prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
	return func() {
		prometheus.DefaultRegisterer = oldRegisterer
		prometheus.DefaultGatherer = oldGatherer
		metrics.ResetSchedulerMetricsForTest()
	}
}
