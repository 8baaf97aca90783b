package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	pricingdomain "github.com/milkroute/milkroute/internal/pricing/domain"
	"github.com/shopspring/decimal"
)

type createPriceRuleRequest struct {
	ProductID      string           `json:"product_id"`
	MinFat         *decimal.Decimal `json:"min_fat"`
	MaxFat         *decimal.Decimal `json:"max_fat"`
	MinSNF         *decimal.Decimal `json:"min_snf"`
	MaxSNF         *decimal.Decimal `json:"max_snf"`
	Adjustment     decimal.Decimal  `json:"adjustment"`
	AdjustmentType string           `json:"adjustment_type"`
}

func (s *Server) CreatePriceRule(c *gin.Context) {
	var req createPriceRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var productID *snowflake.ID
	if strings.TrimSpace(req.ProductID) != "" {
		id, err := parseIDField(req.ProductID, "product_id")
		if err != nil {
			AbortWithError(c, err)
			return
		}
		productID = &id
	}

	resp, err := s.pricingSvc.CreateRule(c.Request.Context(), pricingdomain.CreateRuleRequest{
		ProductID:      productID,
		MinFat:         req.MinFat,
		MaxFat:         req.MaxFat,
		MinSNF:         req.MinSNF,
		MaxSNF:         req.MaxSNF,
		Adjustment:     req.Adjustment,
		AdjustmentType: pricingdomain.AdjustmentType(req.AdjustmentType),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPriceRules(c *gin.Context) {
	resp, err := s.pricingSvc.ActiveRules(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivatePriceRule(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.pricingSvc.DeactivateRule(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String(), "active": false}})
}

type resolvePriceRequest struct {
	ProductID string           `json:"product_id"`
	BasePrice decimal.Decimal  `json:"base_price"`
	FatPct    *decimal.Decimal `json:"fat_pct"`
	SNFPct    *decimal.Decimal `json:"snf_pct"`
}

// ResolvePrice previews the effective unit price for a product under the
// current rule set, with optional quality readings.
func (s *Server) ResolvePrice(c *gin.Context) {
	var req resolvePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	productID, err := parseIDField(req.ProductID, "product_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	price, err := s.pricingSvc.Resolve(c.Request.Context(), productID, req.BasePrice, pricingdomain.QualityReading{
		FatPct: req.FatPct,
		SNFPct: req.SNFPct,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"product_id": productID.String(),
		"base_price": req.BasePrice,
		"unit_price": price,
	}})
}
