package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/milkroute/milkroute/internal/billing/domain"
	customerdomain "github.com/milkroute/milkroute/internal/customer/domain"
	deliverydomain "github.com/milkroute/milkroute/internal/delivery/domain"
	ledgerdomain "github.com/milkroute/milkroute/internal/ledger/domain"
	pricingdomain "github.com/milkroute/milkroute/internal/pricing/domain"
	productdomain "github.com/milkroute/milkroute/internal/product/domain"
	"github.com/milkroute/milkroute/internal/scheduler"
	subscriptiondomain "github.com/milkroute/milkroute/internal/subscription/domain"
	vacationdomain "github.com/milkroute/milkroute/internal/vacation/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrConflict       = errors.New("conflict")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInternal       = errors.New("internal_error")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, customerdomain.ErrInvalidID),
		errors.Is(err, productdomain.ErrInvalidCode),
		errors.Is(err, subscriptiondomain.ErrInvalidCustomer),
		errors.Is(err, subscriptiondomain.ErrInvalidProduct),
		errors.Is(err, subscriptiondomain.ErrInvalidQuantity),
		errors.Is(err, vacationdomain.ErrInvalidCustomer),
		errors.Is(err, vacationdomain.ErrInvalidRange),
		errors.Is(err, pricingdomain.ErrInvalidAdjustmentType),
		errors.Is(err, pricingdomain.ErrInvalidRange),
		errors.Is(err, deliverydomain.ErrInvalidPartialItems),
		errors.Is(err, deliverydomain.ErrUnknownPartialProduct),
		errors.Is(err, billingdomain.ErrInvalidCustomer),
		errors.Is(err, billingdomain.ErrInvalidPeriod),
		errors.Is(err, billingdomain.ErrInvalidAmount),
		errors.Is(err, billingdomain.ErrNegativeInvoice),
		errors.Is(err, ledgerdomain.ErrInvalidCustomer),
		errors.Is(err, scheduler.ErrInvalidMode):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound),
		errors.Is(err, vacationdomain.ErrHoldNotFound),
		errors.Is(err, pricingdomain.ErrRuleNotFound),
		errors.Is(err, deliverydomain.ErrDeliveryNotFound),
		errors.Is(err, billingdomain.ErrInvoiceNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, productdomain.ErrProductExists),
		errors.Is(err, subscriptiondomain.ErrSubscriptionExists),
		errors.Is(err, deliverydomain.ErrDeliveryAlreadyFinal),
		errors.Is(err, billingdomain.ErrOverpayment),
		errors.Is(err, billingdomain.ErrInvoiceSettled),
		errors.Is(err, billingdomain.ErrPaymentConflict):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}
