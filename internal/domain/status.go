package domain

import "fmt"

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled,
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

var PaymentStatuses = []PaymentStatus{PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded}

var statusNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:    {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed:  {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:    {StatusDelivered: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

var paymentNext = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending:  {PaymentPaid: true, PaymentFailed: true},
	PaymentPaid:     {PaymentRefunded: true},
	PaymentFailed:   {},
	PaymentRefunded: {},
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	if _, ok := statusNext[OrderStatus(s)]; ok {
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidArgument, s)
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	if _, ok := paymentNext[PaymentStatus(s)]; ok {
		return PaymentStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown payment status %q", ErrInvalidArgument, s)
}

// CanTransition reports whether to is a direct edge from s.
func (s OrderStatus) CanTransition(to OrderStatus) bool { return statusNext[s][to] }

func (s OrderStatus) Terminal() bool { return len(statusNext[s]) == 0 }

// Editable reports whether line items may still be changed.
func (s OrderStatus) Editable() bool { return s == StatusPending || s == StatusConfirmed }

func (p PaymentStatus) CanTransition(to PaymentStatus) bool { return paymentNext[p][to] }

func (p PaymentStatus) Terminal() bool { return len(paymentNext[p]) == 0 }

// ValidCombination reports whether an order may rest in (status, payment).
// A cancelled order never keeps captured money.
func ValidCombination(status OrderStatus, payment PaymentStatus) bool {
	if _, ok := statusNext[status]; !ok {
		return false
	}
	if _, ok := paymentNext[payment]; !ok {
		return false
	}
	return !(status == StatusCancelled && payment == PaymentPaid)
}
