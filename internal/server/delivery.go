package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	deliverydomain "github.com/milkroute/milkroute/internal/delivery/domain"
	"github.com/shopspring/decimal"
)

func (s *Server) ListDeliveries(c *gin.Context) {
	date, err := parseDate(c.Query("date"), "date")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.deliverySvc.ListByDate(c.Request.Context(), date)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDelivery(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	delivery, items, err := s.deliverySvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"delivery": delivery,
		"items":    items,
	}})
}

func (s *Server) MarkDeliveryDelivered(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.deliverySvc.MarkDelivered(c.Request.Context(), id, false); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String(), "status": deliverydomain.DeliveryStatusDelivered}})
}

type markMissedRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) MarkDeliveryMissed(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var req markMissedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if err := s.deliverySvc.MarkMissed(c.Request.Context(), id, req.Reason); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String(), "status": deliverydomain.DeliveryStatusMissed}})
}

type partialItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type markPartialRequest struct {
	Items []partialItemRequest `json:"items"`
}

func (s *Server) MarkDeliveryPartial(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var req markPartialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	items := make([]deliverydomain.PartialItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := parseIDField(item.ProductID, "product_id")
		if err != nil {
			AbortWithError(c, err)
			return
		}
		items = append(items, deliverydomain.PartialItem{
			ProductID: productID,
			Quantity:  item.Quantity,
		})
	}

	if err := s.deliverySvc.MarkPartial(c.Request.Context(), id, items); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String(), "status": deliverydomain.DeliveryStatusPartial}})
}
