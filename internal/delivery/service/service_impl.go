package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkroute/milkroute/internal/clock"
	"github.com/milkroute/milkroute/internal/delivery/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("delivery.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) MarkDelivered(ctx context.Context, id snowflake.ID, automated bool) error {
	return s.MarkDeliveredTx(ctx, s.db, id, automated)
}

// MarkDeliveredTx performs the delivered transition inside the caller's
// transaction. The status guard in the UPDATE is the manual-override
// protection: a delivery staff already finalized never matches, so automation
// cannot overwrite it regardless of interleaving.
func (s *Service) MarkDeliveredTx(ctx context.Context, tx *gorm.DB, id snowflake.ID, automated bool) error {
	now := s.clock.Now()
	result := tx.WithContext(ctx).Exec(
		`UPDATE deliveries SET status = ?, delivery_time = ?, updated_at = ? WHERE id = ? AND status = ?`,
		domain.DeliveryStatusDelivered,
		now,
		now,
		id,
		domain.DeliveryStatusPending,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return s.classifyBlockedTransition(ctx, tx, id)
	}
	if automated {
		s.log.Debug("delivery auto-completed", zap.String("delivery_id", id.String()))
	}
	return nil
}

func (s *Service) MarkMissed(ctx context.Context, id snowflake.ID, reason string) error {
	now := s.clock.Now()
	result := s.db.WithContext(ctx).Exec(
		`UPDATE deliveries SET status = ?, notes = ?, updated_at = ? WHERE id = ? AND status = ?`,
		domain.DeliveryStatusMissed,
		strings.TrimSpace(reason),
		now,
		id,
		domain.DeliveryStatusPending,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return s.classifyBlockedTransition(ctx, s.db, id)
	}
	return nil
}

func (s *Service) MarkPartial(ctx context.Context, id snowflake.ID, items []domain.PartialItem) error {
	if len(items) == 0 {
		return domain.ErrInvalidPartialItems
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now()
		result := tx.WithContext(ctx).Exec(
			`UPDATE deliveries SET status = ?, delivery_time = ?, updated_at = ? WHERE id = ? AND status = ?`,
			domain.DeliveryStatusPartial,
			now,
			now,
			id,
			domain.DeliveryStatusPending,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return s.classifyBlockedTransition(ctx, tx, id)
		}

		existing, err := s.repo.ItemsByDelivery(ctx, tx, id)
		if err != nil {
			return err
		}
		byProduct := make(map[snowflake.ID]domain.DeliveryItem, len(existing))
		for _, item := range existing {
			byProduct[item.ProductID] = item
		}

		for _, partial := range items {
			current, ok := byProduct[partial.ProductID]
			if !ok {
				return domain.ErrUnknownPartialProduct
			}
			if partial.Quantity.IsNegative() || partial.Quantity.GreaterThan(current.Quantity) {
				return domain.ErrInvalidPartialItems
			}
			total := partial.Quantity.Mul(current.UnitPrice)
			if err := tx.WithContext(ctx).Exec(
				`UPDATE delivery_items SET quantity = ?, total_amount = ? WHERE id = ?`,
				partial.Quantity,
				total,
				current.ID,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// classifyBlockedTransition explains why a guarded status UPDATE matched no
// row: the delivery either does not exist or was already finalized.
func (s *Service) classifyBlockedTransition(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	delivery, err := s.repo.FindByID(ctx, tx, id)
	if err != nil {
		return err
	}
	if delivery == nil {
		return domain.ErrDeliveryNotFound
	}
	return domain.ErrDeliveryAlreadyFinal
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Delivery, []domain.DeliveryItem, error) {
	delivery, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, nil, err
	}
	if delivery == nil {
		return nil, nil, domain.ErrDeliveryNotFound
	}
	items, err := s.repo.ItemsByDelivery(ctx, s.db, id)
	if err != nil {
		return nil, nil, err
	}
	return delivery, items, nil
}

func (s *Service) ListByDate(ctx context.Context, date time.Time) ([]domain.Delivery, error) {
	return s.repo.ListByDate(ctx, s.db, date)
}
