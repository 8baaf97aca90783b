package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	vacationdomain "github.com/milkroute/milkroute/internal/vacation/domain"
)

type createHoldRequest struct {
	CustomerID string `json:"customer_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

func (s *Server) CreateVacationHold(c *gin.Context) {
	var req createHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	customerID, err := parseIDField(req.CustomerID, "customer_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	startDate, err := parseDate(req.StartDate, "start_date")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	endDate, err := parseDate(req.EndDate, "end_date")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.vacationSvc.Create(c.Request.Context(), vacationdomain.CreateHoldRequest{
		CustomerID: customerID,
		StartDate:  startDate,
		EndDate:    endDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteVacationHold(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.vacationSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String(), "deleted": true}})
}

func (s *Server) ListCustomerHolds(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.vacationSvc.ListByCustomer(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
