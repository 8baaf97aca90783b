package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkroute/milkroute/internal/product/domain"
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
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("product.service"),
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProductRequest) (domain.Product, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return domain.Product{}, domain.ErrInvalidCode
	}
	unit := req.Unit
	if unit == "" {
		unit = "litre"
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      strings.TrimSpace(req.Name),
		Unit:      unit,
		BasePrice: req.BasePrice,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Product{}, domain.ErrProductExists
		}
		return domain.Product{}, err
	}
	return product, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Product, error) {
	var product domain.Product
	err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := s.db.WithContext(ctx).
		Model(&domain.Product{}).
		Order("code asc").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Service) ActiveByID(ctx context.Context) (map[snowflake.ID]domain.Product, error) {
	var products []domain.Product
	err := s.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("active = ?", true).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]domain.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}
	return byID, nil
}
