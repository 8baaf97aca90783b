package server

import (
	"net/http"
	"testing"

	billingdomain "github.com/milkroute/milkroute/internal/billing/domain"
	deliverydomain "github.com/milkroute/milkroute/internal/delivery/domain"
	"github.com/milkroute/milkroute/internal/scheduler"
	subscriptiondomain "github.com/milkroute/milkroute/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", billingdomain.ErrInvoiceNotFound, http.StatusNotFound},
		{"delivery not found", deliverydomain.ErrDeliveryNotFound, http.StatusNotFound},
		{"conflict on final delivery", deliverydomain.ErrDeliveryAlreadyFinal, http.StatusConflict},
		{"overpayment", billingdomain.ErrOverpayment, http.StatusConflict},
		{"settled invoice", billingdomain.ErrInvoiceSettled, http.StatusConflict},
		{"duplicate subscription", subscriptiondomain.ErrSubscriptionExists, http.StatusConflict},
		{"bad quantity", subscriptiondomain.ErrInvalidQuantity, http.StatusBadRequest},
		{"bad mode", scheduler.ErrInvalidMode, http.StatusBadRequest},
		{"unknown", assertionError{}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := mapError(tc.err)
			assert.Equal(t, tc.status, status)
		})
	}
}

func TestMapErrorValidationPayload(t *testing.T) {
	status, payload := mapError(newValidationError("quantity", "invalid_quantity", "invalid quantity"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", payload.Type)
	if assert.Len(t, payload.Errors, 1) {
		assert.Equal(t, "quantity", payload.Errors[0].Field)
	}
}

type assertionError struct{}

func (assertionError) Error() string { return "boom" }
