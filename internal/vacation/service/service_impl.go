package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkroute/milkroute/internal/vacation/domain"
	"github.com/milkroute/milkroute/internal/vacation/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  repository.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("vacation.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// truncateToDate normalizes a timestamp to UTC midnight so range checks
// compare whole days.
func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) Create(ctx context.Context, req domain.CreateHoldRequest) (domain.VacationHold, error) {
	if req.CustomerID == 0 {
		return domain.VacationHold{}, domain.ErrInvalidCustomer
	}
	start := truncateToDate(req.StartDate)
	end := truncateToDate(req.EndDate)
	if start.IsZero() || end.Before(start) {
		return domain.VacationHold{}, domain.ErrInvalidRange
	}

	hold := domain.VacationHold{
		ID:         s.genID.Generate(),
		CustomerID: req.CustomerID,
		StartDate:  start,
		EndDate:    end,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, &hold); err != nil {
		return domain.VacationHold{}, err
	}
	return hold, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	deleted, err := s.repo.Delete(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrHoldNotFound
	}
	return nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]domain.VacationHold, error) {
	if customerID == 0 {
		return nil, domain.ErrInvalidCustomer
	}
	return s.repo.ListByCustomer(ctx, s.db, customerID)
}

func (s *Service) OnHold(ctx context.Context, customerID snowflake.ID, date time.Time) (bool, error) {
	if customerID == 0 {
		return false, domain.ErrInvalidCustomer
	}
	count, err := s.repo.CountCovering(ctx, s.db, customerID, truncateToDate(date))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) HeldCustomers(ctx context.Context, date time.Time) (map[snowflake.ID]struct{}, error) {
	ids, err := s.repo.CoveringCustomers(ctx, s.db, truncateToDate(date))
	if err != nil {
		return nil, err
	}
	held := make(map[snowflake.ID]struct{}, len(ids))
	for _, id := range ids {
		held[id] = struct{}{}
	}
	return held, nil
}
