package services

import (
	"context"
	"fmt"
	"time"

	"milkpoint/internal/authz"
	"milkpoint/internal/domain"
	"milkpoint/internal/events"
	"milkpoint/internal/store"
)

// LowStockThreshold is the quantity below which a product reports LOW_STOCK.
const LowStockThreshold = 5

// InventoryService is the single authority for product stock counts. Every
// adjustment runs under the product's lock, either in its own transaction or
// inside a caller's.
type InventoryService struct {
	Store  *store.Store
	Events events.Publisher
}

func NewInventoryService(st *store.Store, ev events.Publisher) *InventoryService {
	return &InventoryService{Store: st, Events: ev}
}

func (s *InventoryService) reserve(tx *store.Tx, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: reserve quantity must be positive, got %d", domain.ErrInvalidArgument, qty)
	}
	p, err := tx.Product(productID)
	if err != nil {
		return err
	}
	if p.StockQuantity < qty {
		return &domain.StockError{ProductID: productID, Requested: qty, Available: p.StockQuantity}
	}
	p.StockQuantity -= qty
	p.UpdatedAt = time.Now().UTC()
	return tx.PutProduct(p)
}

// release returns stock previously reserved. A non-positive qty is a caller bug.
func (s *InventoryService) release(tx *store.Tx, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("inventory: release of %d units of %s", qty, productID)
	}
	p, err := tx.Product(productID)
	if err != nil {
		return err
	}
	p.StockQuantity += qty
	p.UpdatedAt = time.Now().UTC()
	return tx.PutProduct(p)
}

func (s *InventoryService) adjust(tx *store.Tx, productID string, delta int) (domain.Product, error) {
	p, err := tx.Product(productID)
	if err != nil {
		return domain.Product{}, err
	}
	if p.StockQuantity+delta < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock of %s would become %d", domain.ErrInvalidQuantity, productID, p.StockQuantity+delta)
	}
	p.StockQuantity += delta
	p.UpdatedAt = time.Now().UTC()
	return p, tx.PutProduct(p)
}

func (s *InventoryService) single(ctx context.Context, productID string, fn func(tx *store.Tx) error) (domain.Product, error) {
	tx := s.Store.Begin(ctx)
	defer tx.Rollback()
	if err := tx.LockProducts(productID); err != nil {
		return domain.Product{}, err
	}
	if err := fn(tx); err != nil {
		return domain.Product{}, err
	}
	p, err := tx.Product(productID)
	if err != nil {
		return domain.Product{}, err
	}
	if _, err := tx.Commit(); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// Reserve takes qty units of a product or fails with domain.ErrInsufficientStock.
func (s *InventoryService) Reserve(ctx context.Context, productID string, qty int) (domain.Product, error) {
	return s.single(ctx, productID, func(tx *store.Tx) error { return s.reserve(tx, productID, qty) })
}

// Release gives back qty units. Callers must not release more than they reserved.
func (s *InventoryService) Release(ctx context.Context, productID string, qty int) (domain.Product, error) {
	return s.single(ctx, productID, func(tx *store.Tx) error { return s.release(tx, productID, qty) })
}

// Adjust applies a stocktake correction.
func (s *InventoryService) Adjust(ctx context.Context, actor authz.Principal, productID string, delta int) (domain.Product, error) {
	if err := actor.Authorize(authz.OpStockAdjust); err != nil {
		return domain.Product{}, err
	}
	var before int
	p, err := s.single(ctx, productID, func(tx *store.Tx) error {
		cur, err := tx.Product(productID)
		if err != nil {
			return err
		}
		before = cur.StockQuantity
		_, err = s.adjust(tx, productID, delta)
		return err
	})
	if err != nil {
		return domain.Product{}, err
	}
	publish(ctx, s.Events, events.TypeStockAdjusted, productID, actor.UserID, map[string]any{
		"product_id": productID, "delta": delta, "before": before, "after": p.StockQuantity,
	})
	return p, nil
}

// CheckAvailability converts stock to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(productID string) (domain.Availability, error) {
	p, ok := s.Store.Product(productID)
	if !ok {
		return domain.Availability{}, fmt.Errorf("%w: product %s", domain.ErrNotFound, productID)
	}
	qty := p.StockQuantity
	if !p.IsActive {
		qty = 0
	}
	status := "OUT_OF_STOCK"
	switch {
	case qty >= LowStockThreshold:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}
