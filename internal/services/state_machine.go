package services

import (
	"fmt"
	"sort"
	"time"

	"milkpoint/internal/domain"
	"milkpoint/internal/store"
)

// OrderStateMachine applies validated status and payment transitions to an
// order staged in a transaction. Stock side effects go through the ledger in
// the same transaction.
type OrderStateMachine struct {
	Ledger *InventoryService
}

// StockProducts returns the products whose locks a move to next requires.
func (m *OrderStateMachine) StockProducts(o domain.Order, next domain.OrderStatus) []string {
	if next != domain.StatusCancelled || !o.Status.CanTransition(next) {
		return nil
	}
	ids := make([]string, 0, len(o.Items))
	for id := range o.Quantities() {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Transition moves o to next. It reports false when o already is in next.
// Cancelling releases every item back to the ledger and turns a captured
// payment into a refund.
func (m *OrderStateMachine) Transition(tx *store.Tx, o domain.Order, next domain.OrderStatus, now time.Time) (domain.Order, bool, error) {
	if o.Status == next {
		return o, false, nil
	}
	if !o.Status.CanTransition(next) {
		return o, false, &domain.TransitionError{OrderID: o.ID, Field: "status", From: string(o.Status), To: string(next)}
	}

	out := o.Clone()
	if next == domain.StatusCancelled {
		for _, id := range m.StockProducts(o, next) {
			if err := m.Ledger.release(tx, id, o.Quantities()[id]); err != nil {
				return o, false, fmt.Errorf("release stock for order %s: %w", o.ID, err)
			}
		}
		if out.PaymentStatus == domain.PaymentPaid {
			out.PaymentStatus = domain.PaymentRefunded
		}
	}
	out.Status = next
	out.UpdatedAt = now
	if err := out.CheckInvariants(); err != nil {
		return o, false, err
	}
	if err := tx.PutOrder(out); err != nil {
		return o, false, err
	}
	return out, true, nil
}

// TransitionPayment moves the payment sub-machine of o to next.
func (m *OrderStateMachine) TransitionPayment(tx *store.Tx, o domain.Order, next domain.PaymentStatus, now time.Time) (domain.Order, bool, error) {
	if o.PaymentStatus == next {
		return o, false, nil
	}
	if !o.PaymentStatus.CanTransition(next) || !domain.ValidCombination(o.Status, next) {
		return o, false, &domain.TransitionError{OrderID: o.ID, Field: "payment_status", From: string(o.PaymentStatus), To: string(next)}
	}
	out := o.Clone()
	out.PaymentStatus = next
	out.UpdatedAt = now
	if err := out.CheckInvariants(); err != nil {
		return o, false, err
	}
	if err := tx.PutOrder(out); err != nil {
		return o, false, err
	}
	return out, true, nil
}
