package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateSubscriptionRequest struct {
	CustomerID snowflake.ID
	ProductID  snowflake.ID
	Quantity   decimal.Decimal
}

type UpdateQuantityRequest struct {
	ID       snowflake.ID
	Quantity decimal.Decimal
}

type Service interface {
	Create(ctx context.Context, req CreateSubscriptionRequest) (Subscription, error)
	UpdateQuantity(ctx context.Context, req UpdateQuantityRequest) (Subscription, error)
	// Deactivate flips the active flag instead of deleting, so delivery
	// history keeps a valid (customer, product) reference.
	Deactivate(ctx context.Context, id snowflake.ID) error
	ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]Subscription, error)
	// ActiveGrouped returns every active subscription keyed by customer;
	// the scheduler consumes this as "what should be delivered today".
	ActiveGrouped(ctx context.Context) (map[snowflake.ID][]Subscription, error)
}

var (
	ErrInvalidCustomer      = errors.New("invalid_customer")
	ErrInvalidProduct       = errors.New("invalid_product")
	ErrInvalidQuantity      = errors.New("invalid_quantity")
	ErrSubscriptionExists   = errors.New("subscription_exists")
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
)
