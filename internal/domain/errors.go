package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")

	// ErrInvalidQuantity is returned by stock adjustments that would go negative.
	ErrInvalidQuantity = fmt.Errorf("%w: invalid quantity", ErrInvalidArgument)
)

// StockError names the product that could not cover a reservation.
type StockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (need %d, have %d)", e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// TransitionError describes a rejected status or payment edge.
type TransitionError struct {
	OrderID string
	Field   string // status | payment_status
	From    string
	To      string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %s: %s cannot move from %s to %s", e.OrderID, e.Field, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
