package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrOrderNotFound        = errors.New("order not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrRefundExceedsPayment = errors.New("refund exceeds payment amount")
)

// InsufficientStockError names the line that could not be fulfilled.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Want      int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s): need %d", e.Name, e.ProductID, e.Want)
}

// InvalidTransitionError reports a status change the order graph forbids.
type InvalidTransitionError struct {
	From, To OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order transition %s -> %s", e.From, e.To)
}

// CartInconsistencyError indicates a cart line whose product row no
// longer exists. Surfaced instead of silently dropping the line.
type CartInconsistencyError struct {
	ProductID string
}

func (e *CartInconsistencyError) Error() string {
	return fmt.Sprintf("cart references missing product %s", e.ProductID)
}
