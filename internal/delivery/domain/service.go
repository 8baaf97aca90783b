package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PartialItem states the quantity actually dropped for one product when a
// delivery is marked partial.
type PartialItem struct {
	ProductID snowflake.ID
	Quantity  decimal.Decimal
}

// Service is the delivery completion engine. It owns every status
// transition: pending -> {delivered, missed, partial}, all terminal.
//
// Automated callers (the scheduler) must pass automated=true to
// MarkDelivered; the transition then only succeeds on a delivery still in
// pending, so a staff decision to mark a delivery missed or partial is never
// overwritten by a later batch run.
type Service interface {
	MarkDelivered(ctx context.Context, id snowflake.ID, automated bool) error
	// MarkDeliveredTx is the same transition inside the caller's
	// transaction; the scheduler uses it so creation and completion of a
	// delivery commit together in full mode.
	MarkDeliveredTx(ctx context.Context, tx *gorm.DB, id snowflake.ID, automated bool) error
	MarkMissed(ctx context.Context, id snowflake.ID, reason string) error
	MarkPartial(ctx context.Context, id snowflake.ID, items []PartialItem) error
	Get(ctx context.Context, id snowflake.ID) (*Delivery, []DeliveryItem, error)
	ListByDate(ctx context.Context, date time.Time) ([]Delivery, error)
}

var (
	ErrDeliveryNotFound      = errors.New("delivery_not_found")
	ErrDeliveryAlreadyFinal  = errors.New("delivery_already_final")
	ErrInvalidPartialItems   = errors.New("invalid_partial_items")
	ErrUnknownPartialProduct = errors.New("unknown_partial_product")
)
