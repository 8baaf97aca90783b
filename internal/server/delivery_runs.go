package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/milkroute/milkroute/internal/scheduler"
)

type deliveryRunRequest struct {
	Date string `json:"date"`
	Mode string `json:"mode"`
}

// RunDeliverySchedule triggers one scheduler pass on demand. An omitted date
// runs for today. Repeating a run for the same date is safe; already
// scheduled customers count as skipped.
func (s *Server) RunDeliverySchedule(c *gin.Context) {
	var req deliveryRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	date, err := parseDateOrNow(req.Date, "date", s.clock)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	mode, err := scheduler.ParseMode(req.Mode)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.scheduler.Run(c.Request.Context(), date, mode)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
