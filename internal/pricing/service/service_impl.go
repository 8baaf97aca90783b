package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkroute/milkroute/internal/pricing/domain"
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

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("pricing.service"),
		genID: p.GenID,
	}
}

func (s *Service) CreateRule(ctx context.Context, req domain.CreateRuleRequest) (domain.PriceRule, error) {
	switch req.AdjustmentType {
	case domain.AdjustmentFixed, domain.AdjustmentPercentage:
	default:
		return domain.PriceRule{}, domain.ErrInvalidAdjustmentType
	}
	if err := validateBounds(req.MinFat, req.MaxFat); err != nil {
		return domain.PriceRule{}, err
	}
	if err := validateBounds(req.MinSNF, req.MaxSNF); err != nil {
		return domain.PriceRule{}, err
	}

	rule := domain.PriceRule{
		ID:             s.genID.Generate(),
		ProductID:      req.ProductID,
		MinFat:         req.MinFat,
		MaxFat:         req.MaxFat,
		MinSNF:         req.MinSNF,
		MaxSNF:         req.MaxSNF,
		Adjustment:     req.Adjustment,
		AdjustmentType: req.AdjustmentType,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&rule).Error; err != nil {
		return domain.PriceRule{}, err
	}
	return rule, nil
}

func validateBounds(min, max *decimal.Decimal) error {
	if min != nil && max != nil && max.LessThan(*min) {
		return domain.ErrInvalidRange
	}
	return nil
}

func (s *Service) DeactivateRule(ctx context.Context, id snowflake.ID) error {
	result := s.db.WithContext(ctx).Exec(
		`UPDATE price_rules SET active = ? WHERE id = ? AND active = ?`,
		false,
		id,
		true,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRuleNotFound
	}
	return nil
}

func (s *Service) ActiveRules(ctx context.Context) ([]domain.PriceRule, error) {
	var rules []domain.PriceRule
	err := s.db.WithContext(ctx).
		Model(&domain.PriceRule{}).
		Where("active = ?", true).
		Order("id asc").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *Service) Resolve(ctx context.Context, productID snowflake.ID, basePrice decimal.Decimal, reading domain.QualityReading) (decimal.Decimal, error) {
	rules, err := s.ActiveRules(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return ResolveWithRules(rules, productID, basePrice, reading), nil
}
