package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkroute/milkroute/internal/subscription/domain"
	"github.com/milkroute/milkroute/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("subscription.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateSubscriptionRequest) (domain.Subscription, error) {
	if req.CustomerID == 0 {
		return domain.Subscription{}, domain.ErrInvalidCustomer
	}
	if req.ProductID == 0 {
		return domain.Subscription{}, domain.ErrInvalidProduct
	}
	if !req.Quantity.IsPositive() {
		return domain.Subscription{}, domain.ErrInvalidQuantity
	}

	now := time.Now().UTC()
	sub := domain.Subscription{
		ID:         s.genID.Generate(),
		CustomerID: req.CustomerID,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Insert(ctx, s.db, &sub); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Subscription{}, domain.ErrSubscriptionExists
		}
		return domain.Subscription{}, err
	}

	return sub, nil
}

func (s *Service) UpdateQuantity(ctx context.Context, req domain.UpdateQuantityRequest) (domain.Subscription, error) {
	if !req.Quantity.IsPositive() {
		return domain.Subscription{}, domain.ErrInvalidQuantity
	}

	sub, err := s.repo.FindByID(ctx, s.db, req.ID)
	if err != nil {
		return domain.Subscription{}, err
	}
	if sub == nil {
		return domain.Subscription{}, domain.ErrSubscriptionNotFound
	}

	sub.Quantity = req.Quantity
	sub.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, sub); err != nil {
		return domain.Subscription{}, err
	}
	return *sub, nil
}

func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) error {
	sub, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if sub == nil {
		return domain.ErrSubscriptionNotFound
	}
	if !sub.Active {
		return nil
	}

	sub.Active = false
	sub.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, s.db, sub)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]domain.Subscription, error) {
	if customerID == 0 {
		return nil, domain.ErrInvalidCustomer
	}
	return s.repo.ListByCustomer(ctx, s.db, customerID)
}

func (s *Service) ActiveGrouped(ctx context.Context) (map[snowflake.ID][]domain.Subscription, error) {
	subs, err := s.repo.ListActive(ctx, s.db)
	if err != nil {
		return nil, err
	}
	grouped := make(map[snowflake.ID][]domain.Subscription, len(subs))
	for _, sub := range subs {
		grouped[sub.CustomerID] = append(grouped[sub.CustomerID], sub)
	}
	return grouped, nil
}
