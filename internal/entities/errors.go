package entities

import (
	"errors"
	"fmt"
)

var (
	// Validation, rejected before any transaction opens.
	ErrNoItems   = errors.New("order has no items")
	ErrNoAddress = errors.New("shipping address is required")

	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidOrder    = errors.New("invalid order data")

	ErrUnauthorized = errors.New("order belongs to another buyer")

	// ErrStaleOrder marks an optimistic write that lost to a concurrent one.
	ErrStaleOrder = errors.New("order was modified concurrently")
)

// InsufficientInventoryError carries enough detail for the caller to render
// an actionable message.
type InsufficientInventoryError struct {
	ProductID   string
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for %q (%s): %d available, %d requested",
		e.ProductName, e.ProductID, e.Available, e.Requested)
}

type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

type CannotCancelError struct {
	Status OrderStatus
}

func (e *CannotCancelError) Error() string {
	return fmt.Sprintf("order in status %s cannot be cancelled", e.Status)
}
