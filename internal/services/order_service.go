package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"milkpoint/internal/authz"
	"milkpoint/internal/domain"
	"milkpoint/internal/events"
	"milkpoint/internal/store"
	"milkpoint/internal/validate"
)

type ItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type CustomerInput struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,phone"`
}

type CreateOrderInput struct {
	Customer        CustomerInput `json:"customer"`
	ShippingAddress string        `json:"shipping_address" validate:"required,max=500"`
	Notes           string        `json:"notes" validate:"max=1000"`
	Items           []ItemInput   `json:"items" validate:"required,min=1,dive"`
}

type OrderFilter struct {
	Status        domain.OrderStatus
	PaymentStatus domain.PaymentStatus
	Limit         int
}

// line is one merged product line of a request, in first-seen order.
type line struct {
	productID string
	qty       int
}

func mergeItems(items []ItemInput) ([]line, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one item", domain.ErrInvalidArgument)
	}
	idx := map[string]int{}
	var out []line
	for _, it := range items {
		id, ok := validate.ID(it.ProductID)
		if !ok {
			return nil, fmt.Errorf("%w: product id %q", domain.ErrInvalidArgument, it.ProductID)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for %s must be positive", domain.ErrInvalidArgument, id)
		}
		if i, seen := idx[id]; seen {
			out[i].qty += it.Quantity
			continue
		}
		idx[id] = len(out)
		out = append(out, line{productID: id, qty: it.Quantity})
	}
	return out, nil
}

func lineIDs(ls []line) []string {
	ids := make([]string, len(ls))
	for i, l := range ls {
		ids[i] = l.productID
	}
	return ids
}

type OrderService struct {
	Store   *store.Store
	Catalog *CatalogService
	Ledger  *InventoryService
	Machine *OrderStateMachine
	Events  events.Publisher
}

func NewOrderService(st *store.Store, cat *CatalogService, inv *InventoryService, ev events.Publisher) *OrderService {
	return &OrderService{
		Store:   st,
		Catalog: cat,
		Ledger:  inv,
		Machine: &OrderStateMachine{Ledger: inv},
		Events:  ev,
	}
}

// CreateOrder reserves stock for every line and records the order, or
// changes nothing.
func (s *OrderService) CreateOrder(ctx context.Context, actor authz.Principal, in CreateOrderInput) (domain.Order, error) {
	if err := actor.Authorize(authz.OpOrderCreate); err != nil {
		return domain.Order{}, err
	}
	if err := validate.Struct(in); err != nil {
		return domain.Order{}, err
	}
	lines, err := mergeItems(in.Items)
	if err != nil {
		return domain.Order{}, err
	}

	tx := s.Store.Begin(ctx)
	defer tx.Rollback()
	if err := tx.LockProducts(lineIDs(lines)...); err != nil {
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	o := domain.Order{
		ID: uuid.NewString(),
		Customer: domain.Customer{
			Name:  strings.TrimSpace(in.Customer.Name),
			Email: strings.TrimSpace(in.Customer.Email),
			Phone: strings.TrimSpace(in.Customer.Phone),
		},
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
		Status:          domain.StatusPending,
		PaymentStatus:   domain.PaymentPending,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, l := range lines {
		it, err := s.Catalog.snapshot(tx, l.productID, l.qty)
		if err != nil {
			return domain.Order{}, err
		}
		if err := s.Ledger.reserve(tx, l.productID, l.qty); err != nil {
			return domain.Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	o.Recompute()
	if err := o.CheckInvariants(); err != nil {
		return domain.Order{}, err
	}
	if err := tx.PutOrder(o); err != nil {
		return domain.Order{}, err
	}
	if _, err := tx.Commit(); err != nil {
		return domain.Order{}, err
	}
	publish(ctx, s.Events, events.TypeOrderCreated, o.ID, actor.UserID, o)
	return o, nil
}

// UpdateStatus moves an order along its status edges. Moving to the current
// status returns the order unchanged.
func (s *OrderService) UpdateStatus(ctx context.Context, actor authz.Principal, orderID string, next domain.OrderStatus) (domain.Order, error) {
	if err := actor.Authorize(authz.OpOrderStatus); err != nil {
		return domain.Order{}, err
	}
	if _, err := domain.ParseOrderStatus(string(next)); err != nil {
		return domain.Order{}, err
	}

	tx := s.Store.Begin(ctx)
	defer tx.Rollback()
	if err := tx.LockOrders(orderID); err != nil {
		return domain.Order{}, err
	}
	cur, err := tx.Order(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := tx.LockProducts(s.Machine.StockProducts(cur, next)...); err != nil {
		return domain.Order{}, err
	}
	out, changed, err := s.Machine.Transition(tx, cur, next, time.Now().UTC())
	if err != nil {
		return domain.Order{}, err
	}
	if !changed {
		return cur, nil
	}
	if _, err := tx.Commit(); err != nil {
		return domain.Order{}, err
	}
	publish(ctx, s.Events, events.TypeOrderStatusChanged, out.ID, actor.UserID, map[string]any{
		"from": cur.Status, "to": out.Status, "payment_status": out.PaymentStatus,
	})
	return out, nil
}

// CancelOrder cancels an order, releasing its stock and refunding a captured payment.
func (s *OrderService) CancelOrder(ctx context.Context, actor authz.Principal, orderID string) (domain.Order, error) {
	return s.UpdateStatus(ctx, actor, orderID, domain.StatusCancelled)
}

func (s *OrderService) UpdatePaymentStatus(ctx context.Context, actor authz.Principal, orderID string, next domain.PaymentStatus) (domain.Order, error) {
	if err := actor.Authorize(authz.OpOrderPayment); err != nil {
		return domain.Order{}, err
	}
	if _, err := domain.ParsePaymentStatus(string(next)); err != nil {
		return domain.Order{}, err
	}

	tx := s.Store.Begin(ctx)
	defer tx.Rollback()
	if err := tx.LockOrders(orderID); err != nil {
		return domain.Order{}, err
	}
	cur, err := tx.Order(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	out, changed, err := s.Machine.TransitionPayment(tx, cur, next, time.Now().UTC())
	if err != nil {
		return domain.Order{}, err
	}
	if !changed {
		return cur, nil
	}
	if _, err := tx.Commit(); err != nil {
		return domain.Order{}, err
	}
	publish(ctx, s.Events, events.TypePaymentStatusChanged, out.ID, actor.UserID, map[string]any{
		"from": cur.PaymentStatus, "to": out.PaymentStatus,
	})
	return out, nil
}

// UpdateItems replaces the lines of a pending or confirmed order. Stock moves
// by the per-product difference; lines for products already on the order keep
// their name and price snapshot.
func (s *OrderService) UpdateItems(ctx context.Context, actor authz.Principal, orderID string, items []ItemInput) (domain.Order, error) {
	if err := actor.Authorize(authz.OpOrderEdit); err != nil {
		return domain.Order{}, err
	}
	lines, err := mergeItems(items)
	if err != nil {
		return domain.Order{}, err
	}

	tx := s.Store.Begin(ctx)
	defer tx.Rollback()
	if err := tx.LockOrders(orderID); err != nil {
		return domain.Order{}, err
	}
	cur, err := tx.Order(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !cur.Status.Editable() {
		return domain.Order{}, fmt.Errorf("%w: order %s is %s and can no longer be edited", domain.ErrConflict, orderID, cur.Status)
	}

	before := map[string]domain.OrderItem{}
	for _, it := range cur.Items {
		before[it.ProductID] = it
	}
	ids := lineIDs(lines)
	for id := range before {
		ids = append(ids, id)
	}
	if err := tx.LockProducts(ids...); err != nil {
		return domain.Order{}, err
	}

	out := cur.Clone()
	out.Items = out.Items[:0:0]
	kept := map[string]bool{}
	for _, l := range lines {
		old, had := before[l.productID]
		if !had {
			it, err := s.Catalog.snapshot(tx, l.productID, l.qty)
			if err != nil {
				return domain.Order{}, err
			}
			if err := s.Ledger.reserve(tx, l.productID, l.qty); err != nil {
				return domain.Order{}, err
			}
			out.Items = append(out.Items, it)
			continue
		}
		kept[l.productID] = true
		switch d := l.qty - old.Quantity; {
		case d > 0:
			err = s.Ledger.reserve(tx, l.productID, d)
		case d < 0:
			err = s.Ledger.release(tx, l.productID, -d)
		}
		if err != nil {
			return domain.Order{}, err
		}
		old.Quantity = l.qty
		out.Items = append(out.Items, old)
	}
	for id, old := range before {
		if kept[id] {
			continue
		}
		if err := s.Ledger.release(tx, id, old.Quantity); err != nil {
			return domain.Order{}, err
		}
	}

	out.Recompute()
	out.UpdatedAt = time.Now().UTC()
	if err := out.CheckInvariants(); err != nil {
		return domain.Order{}, err
	}
	if err := tx.PutOrder(out); err != nil {
		return domain.Order{}, err
	}
	if _, err := tx.Commit(); err != nil {
		return domain.Order{}, err
	}
	publish(ctx, s.Events, events.TypeOrderItemsChanged, out.ID, actor.UserID, out)
	return out, nil
}

func (s *OrderService) ListOrders(actor authz.Principal, f OrderFilter) ([]domain.Order, error) {
	if err := actor.Authorize(authz.OpOrderList); err != nil {
		return nil, err
	}
	all := s.Store.Orders()
	out := make([]domain.Order, 0, len(all))
	for _, o := range all {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
			continue
		}
		out = append(out, o)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (s *OrderService) GetOrder(actor authz.Principal, id string) (domain.Order, error) {
	if err := actor.Authorize(authz.OpOrderList); err != nil {
		return domain.Order{}, err
	}
	o, ok := s.Store.Order(id)
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
	}
	return o, nil
}
