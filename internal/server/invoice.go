package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/milkroute/milkroute/internal/billing/domain"
	"github.com/shopspring/decimal"
)

type createInvoiceRequest struct {
	CustomerID     string          `json:"customer_id"`
	PeriodStart    string          `json:"period_start"`
	PeriodEnd      string          `json:"period_end"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	customerID, err := parseIDField(req.CustomerID, "customer_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	periodStart, err := parseDate(req.PeriodStart, "period_start")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	periodEnd, err := parseDate(req.PeriodEnd, "period_end")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.billingSvc.CreateInvoice(c.Request.Context(), billingdomain.CreateInvoiceInput{
		CustomerID:     customerID,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		DiscountAmount: req.DiscountAmount,
		TaxAmount:      req.TaxAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoice(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.billingSvc.GetInvoice(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomerInvoices(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.billingSvc.ListInvoicesByCustomer(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type recordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Mode   string          `json:"mode"`
}

func (s *Server) RecordPayment(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.billingSvc.RecordPayment(c.Request.Context(), billingdomain.RecordPaymentInput{
		InvoiceID: id,
		Amount:    req.Amount,
		Mode:      req.Mode,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoicePayments(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.billingSvc.ListPaymentsByInvoice(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SweepOverdueInvoices(c *gin.Context) {
	count, err := s.billingSvc.MarkOverdue(c.Request.Context(), time.Now().UTC())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"marked_overdue": count}})
}

func (s *Server) ReconcileCustomer(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.billingSvc.Reconcile(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
