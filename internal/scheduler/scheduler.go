// Package scheduler generates the daily delivery run and, depending on the
// mode, completes it.
package scheduler

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkroute/milkroute/internal/clock"
	"github.com/milkroute/milkroute/internal/config"
	deliverydomain "github.com/milkroute/milkroute/internal/delivery/domain"
	"github.com/milkroute/milkroute/internal/observability/metrics"
	pricingdomain "github.com/milkroute/milkroute/internal/pricing/domain"
	pricingservice "github.com/milkroute/milkroute/internal/pricing/service"
	productdomain "github.com/milkroute/milkroute/internal/product/domain"
	subscriptiondomain "github.com/milkroute/milkroute/internal/subscription/domain"
	vacationdomain "github.com/milkroute/milkroute/internal/vacation/domain"
	"github.com/milkroute/milkroute/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Mode selects how much of the day's work a run performs.
type Mode string

const (
	// ModeScheduleOnly creates pending deliveries and stops.
	ModeScheduleOnly Mode = "schedule_only"
	// ModeFull creates deliveries and marks them delivered in the same
	// per-customer transaction.
	ModeFull Mode = "full"
	// ModeAutoDeliverPending completes deliveries already scheduled for the
	// date, re-checking holds placed since they were created.
	ModeAutoDeliverPending Mode = "auto_deliver_pending"
)

// RunError records one customer the run could not process. A failing customer
// never aborts the run; the remainder of the batch still commits.
type RunError struct {
	CustomerID snowflake.ID `json:"customer_id"`
	Reason     string       `json:"reason"`
}

// RunResult summarizes one scheduler run.
type RunResult struct {
	Date      time.Time  `json:"date"`
	Mode      Mode       `json:"mode"`
	Scheduled int        `json:"scheduled"`
	Delivered int        `json:"delivered"`
	Skipped   int        `json:"skipped"`
	Errors    []RunError `json:"errors,omitempty"`
}

var ErrInvalidMode = errors.New("invalid_scheduler_mode")

// errSkipCustomer rolls back a per-customer transaction without surfacing an
// error; another run already scheduled this customer for the date.
var errSkipCustomer = errors.New("skip_customer")

type Params struct {
	fx.In

	Config        config.Config
	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	GenID         *snowflake.Node
	Subscriptions subscriptiondomain.Service
	Holds         vacationdomain.Service
	Products      productdomain.Service
	Pricing       pricingdomain.Service
	Deliveries    deliverydomain.Service
	DeliveryRepo  deliverydomain.Repository
}

type Scheduler struct {
	cfg           config.SchedulerConfig
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	genID         *snowflake.Node
	subscriptions subscriptiondomain.Service
	holds         vacationdomain.Service
	products      productdomain.Service
	pricing       pricingdomain.Service
	deliveries    deliverydomain.Service
	deliveryRepo  deliverydomain.Repository
}

func New(p Params) *Scheduler {
	cfg := p.Config.Scheduler
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	return &Scheduler{
		cfg:           cfg,
		db:            p.DB,
		log:           p.Log.Named("scheduler"),
		clock:         p.Clock,
		genID:         p.GenID,
		subscriptions: p.Subscriptions,
		holds:         p.Holds,
		products:      p.Products,
		pricing:       p.Pricing,
		deliveries:    p.Deliveries,
		deliveryRepo:  p.DeliveryRepo,
	}
}

// ParseMode validates a mode string from config or an API request.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeScheduleOnly, ModeFull, ModeAutoDeliverPending:
		return Mode(s), nil
	case "":
		return ModeScheduleOnly, nil
	default:
		return "", ErrInvalidMode
	}
}

// Run executes one scheduler pass for the given date. Re-running for the same
// date is safe: the unique constraint on (customer_id, delivery_date) turns
// duplicates into skips.
func (s *Scheduler) Run(ctx context.Context, date time.Time, mode Mode) (*RunResult, error) {
	mode, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}
	date = truncateToDate(date)

	m := metrics.Scheduler()
	m.IncRun(string(mode))
	started := s.clock.Now()
	defer func() {
		m.ObserveRunDuration(string(mode), s.clock.Now().Sub(started))
	}()

	var result *RunResult
	if mode == ModeAutoDeliverPending {
		result, err = s.completePending(ctx, date, mode)
	} else {
		result, err = s.scheduleDay(ctx, date, mode)
	}
	if err != nil {
		return nil, err
	}

	m.AddOutcome(string(mode), metrics.OutcomeScheduled, result.Scheduled)
	m.AddOutcome(string(mode), metrics.OutcomeDelivered, result.Delivered)
	m.AddOutcome(string(mode), metrics.OutcomeSkipped, result.Skipped)
	for range result.Errors {
		m.IncRunError(string(mode))
	}

	s.log.Info("scheduler run finished",
		zap.String("mode", string(mode)),
		zap.Time("date", date),
		zap.Int("scheduled", result.Scheduled),
		zap.Int("delivered", result.Delivered),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func (s *Scheduler) scheduleDay(ctx context.Context, date time.Time, mode Mode) (*RunResult, error) {
	grouped, err := s.subscriptions.ActiveGrouped(ctx)
	if err != nil {
		return nil, err
	}
	held, err := s.holds.HeldCustomers(ctx, date)
	if err != nil {
		return nil, err
	}
	catalog, err := s.products.ActiveByID(ctx)
	if err != nil {
		return nil, err
	}
	// one rule snapshot for the whole run, so every customer prices the same
	rules, err := s.pricing.ActiveRules(ctx)
	if err != nil {
		return nil, err
	}

	customerIDs := make([]snowflake.ID, 0, len(grouped))
	for id := range grouped {
		customerIDs = append(customerIDs, id)
	}
	sort.Slice(customerIDs, func(i, j int) bool { return customerIDs[i] < customerIDs[j] })

	result := &RunResult{Date: date, Mode: mode}
	for start := 0; start < len(customerIDs); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(customerIDs) {
			end = len(customerIDs)
		}
		for _, customerID := range customerIDs[start:end] {
			if _, onHold := held[customerID]; onHold {
				result.Skipped++
				continue
			}
			s.scheduleCustomer(ctx, date, mode, customerID, grouped[customerID], catalog, rules, result)
		}
	}
	return result, nil
}

// scheduleCustomer creates one customer's delivery and items in a single
// transaction, completing it as well in full mode. Failures land in
// result.Errors and never propagate.
func (s *Scheduler) scheduleCustomer(
	ctx context.Context,
	date time.Time,
	mode Mode,
	customerID snowflake.ID,
	subs []subscriptiondomain.Subscription,
	catalog map[snowflake.ID]productdomain.Product,
	rules []pricingdomain.PriceRule,
	result *RunResult,
) {
	now := s.clock.Now()
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		delivery := &deliverydomain.Delivery{
			ID:           s.genID.Generate(),
			CustomerID:   customerID,
			DeliveryDate: date,
			Status:       deliverydomain.DeliveryStatusPending,
			Metadata:     datatypes.JSONMap{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.deliveryRepo.Insert(ctx, tx, delivery); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return errSkipCustomer
			}
			return err
		}

		for _, sub := range subs {
			product, ok := catalog[sub.ProductID]
			if !ok {
				return productdomain.ErrNotFound
			}
			unitPrice := pricingservice.ResolveWithRules(rules, product.ID, product.BasePrice, pricingdomain.QualityReading{})
			item := &deliverydomain.DeliveryItem{
				ID:          s.genID.Generate(),
				DeliveryID:  delivery.ID,
				ProductID:   product.ID,
				Quantity:    sub.Quantity,
				UnitPrice:   unitPrice,
				TotalAmount: sub.Quantity.Mul(unitPrice),
				CreatedAt:   now,
			}
			if err := s.deliveryRepo.InsertItem(ctx, tx, item); err != nil {
				return err
			}
		}

		if mode == ModeFull {
			return s.deliveries.MarkDeliveredTx(ctx, tx, delivery.ID, true)
		}
		return nil
	})

	switch {
	case txErr == nil:
		if mode == ModeFull {
			result.Delivered++
		} else {
			result.Scheduled++
		}
	case errors.Is(txErr, errSkipCustomer):
		result.Skipped++
	default:
		s.log.Warn("customer scheduling failed",
			zap.String("customer_id", customerID.String()),
			zap.Error(txErr),
		)
		result.Errors = append(result.Errors, RunError{
			CustomerID: customerID,
			Reason:     txErr.Error(),
		})
	}
}

// completePending marks the date's pending deliveries delivered. Holds are
// re-checked so a hold placed after scheduling still suppresses completion,
// and deliveries already finalized by staff are left untouched.
func (s *Scheduler) completePending(ctx context.Context, date time.Time, mode Mode) (*RunResult, error) {
	pending, err := s.deliveryRepo.ListByDateAndStatus(ctx, s.db, date, deliverydomain.DeliveryStatusPending)
	if err != nil {
		return nil, err
	}
	held, err := s.holds.HeldCustomers(ctx, date)
	if err != nil {
		return nil, err
	}

	result := &RunResult{Date: date, Mode: mode}
	for _, delivery := range pending {
		if _, onHold := held[delivery.CustomerID]; onHold {
			result.Skipped++
			continue
		}
		err := s.deliveries.MarkDelivered(ctx, delivery.ID, true)
		switch {
		case err == nil:
			result.Delivered++
		case errors.Is(err, deliverydomain.ErrDeliveryAlreadyFinal):
			result.Skipped++
		default:
			s.log.Warn("auto completion failed",
				zap.String("delivery_id", delivery.ID.String()),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, RunError{
				CustomerID: delivery.CustomerID,
				Reason:     err.Error(),
			})
		}
	}
	return result, nil
}

func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
