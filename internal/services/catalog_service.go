package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"milkpoint/internal/authz"
	"milkpoint/internal/domain"
	"milkpoint/internal/events"
	"milkpoint/internal/store"
	"milkpoint/internal/validate"
)

// ProductInput is the editable part of a product.
type ProductInput struct {
	Name          string          `json:"name" validate:"required,max=120"`
	Description   string          `json:"description" validate:"max=1000"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category" validate:"required"`
	Unit          string          `json:"unit" validate:"required,max=20"`
	ImageURL      string          `json:"image_url" validate:"omitempty,url"`
	StockQuantity *int            `json:"stock_quantity" validate:"omitempty,gte=0"`
	IsActive      *bool           `json:"is_active"`
}

func (in ProductInput) check() (domain.Category, error) {
	if err := validate.Struct(in); err != nil {
		return "", err
	}
	if _, ok := validate.Name(in.Name); !ok {
		return "", fmt.Errorf("%w: product name", domain.ErrInvalidArgument)
	}
	if in.Price.IsNegative() {
		return "", fmt.Errorf("%w: price must not be negative", domain.ErrInvalidArgument)
	}
	return domain.ParseCategory(in.Category)
}

type ProductFilter struct {
	Category      domain.Category
	Active        *bool
	AvailableOnly bool // active with stock on hand
	Query         string
}

func (f ProductFilter) match(p domain.Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Active != nil && p.IsActive != *f.Active {
		return false
	}
	if f.AvailableOnly && (!p.Orderable() || p.StockQuantity <= 0) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	return true
}

type CatalogService struct {
	Store  *store.Store
	Events events.Publisher
}

func NewCatalogService(st *store.Store, ev events.Publisher) *CatalogService {
	return &CatalogService{Store: st, Events: ev}
}

func (s *CatalogService) ListProducts(actor authz.Principal, f ProductFilter) ([]domain.Product, error) {
	if err := actor.Authorize(authz.OpProductList); err != nil {
		return nil, err
	}
	all := s.Store.Products()
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if f.match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *CatalogService) GetProduct(actor authz.Principal, id string) (domain.Product, error) {
	if err := actor.Authorize(authz.OpProductList); err != nil {
		return domain.Product{}, err
	}
	p, ok := s.Store.Product(id)
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
	}
	return p, nil
}

func initialStock(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor authz.Principal, in ProductInput) (domain.Product, error) {
	if err := actor.Authorize(authz.OpProductCreate); err != nil {
		return domain.Product{}, err
	}
	cat, err := in.check()
	if err != nil {
		return domain.Product{}, err
	}
	now := time.Now().UTC()
	p := domain.Product{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Price:         in.Price,
		Category:      cat,
		Unit:          in.Unit,
		ImageURL:      in.ImageURL,
		StockQuantity: initialStock(in.StockQuantity),
		IsActive:      in.IsActive == nil || *in.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	tx := s.Store.Begin(ctx)
	defer tx.Rollback()
	if err := tx.PutProduct(p); err != nil {
		return domain.Product{}, err
	}
	if _, err := tx.Commit(); err != nil {
		return domain.Product{}, err
	}
	publish(ctx, s.Events, events.TypeProductSaved, p.ID, actor.UserID, p)
	return p, nil
}

// UpdateProduct replaces the editable fields of a product. Existing order
// items keep their name and price snapshots. Stock is not editable here: a
// stock value that differs from the one on hand is a Conflict.
func (s *CatalogService) UpdateProduct(ctx context.Context, actor authz.Principal, id string, in ProductInput) (domain.Product, error) {
	if err := actor.Authorize(authz.OpProductUpdate); err != nil {
		return domain.Product{}, err
	}
	cat, err := in.check()
	if err != nil {
		return domain.Product{}, err
	}
	tx := s.Store.Begin(ctx)
	defer tx.Rollback()
	if err := tx.LockProducts(id); err != nil {
		return domain.Product{}, err
	}
	p, err := tx.Product(id)
	if err != nil {
		return domain.Product{}, err
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.Category = cat
	p.Unit = in.Unit
	p.ImageURL = in.ImageURL
	// stock only moves through the ledger
	if in.StockQuantity != nil && *in.StockQuantity != p.StockQuantity {
		return domain.Product{}, fmt.Errorf("%w: product %s has %d in stock, edit carried %d; use a stock adjustment",
			domain.ErrConflict, id, p.StockQuantity, *in.StockQuantity)
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	p.UpdatedAt = time.Now().UTC()
	if err := tx.PutProduct(p); err != nil {
		return domain.Product{}, err
	}
	if _, err := tx.Commit(); err != nil {
		return domain.Product{}, err
	}
	publish(ctx, s.Events, events.TypeProductSaved, p.ID, actor.UserID, p)
	return p, nil
}

// SetActive toggles whether new orders may reference the product.
func (s *CatalogService) SetActive(ctx context.Context, actor authz.Principal, id string, active bool) (domain.Product, error) {
	if err := actor.Authorize(authz.OpProductActivate); err != nil {
		return domain.Product{}, err
	}
	tx := s.Store.Begin(ctx)
	defer tx.Rollback()
	if err := tx.LockProducts(id); err != nil {
		return domain.Product{}, err
	}
	p, err := tx.Product(id)
	if err != nil {
		return domain.Product{}, err
	}
	if p.IsActive == active {
		return p, nil
	}
	p.IsActive = active
	p.UpdatedAt = time.Now().UTC()
	if err := tx.PutProduct(p); err != nil {
		return domain.Product{}, err
	}
	if _, err := tx.Commit(); err != nil {
		return domain.Product{}, err
	}
	publish(ctx, s.Events, events.TypeProductSaved, p.ID, actor.UserID, p)
	return p, nil
}

func (s *CatalogService) Activate(ctx context.Context, actor authz.Principal, id string) (domain.Product, error) {
	return s.SetActive(ctx, actor, id, true)
}

func (s *CatalogService) Deactivate(ctx context.Context, actor authz.Principal, id string) (domain.Product, error) {
	return s.SetActive(ctx, actor, id, false)
}

// DeleteProduct removes a product no order references. The reference scan
// runs under the product lock; order writers that add a reference hold the
// same lock until their order is visible.
func (s *CatalogService) DeleteProduct(ctx context.Context, actor authz.Principal, id string) error {
	if err := actor.Authorize(authz.OpProductDelete); err != nil {
		return err
	}
	tx := s.Store.Begin(ctx)
	defer tx.Rollback()
	if err := tx.LockProducts(id); err != nil {
		return err
	}
	for _, o := range s.Store.Orders() {
		if o.References(id) {
			return fmt.Errorf("%w: product %s is referenced by order %s", domain.ErrConflict, id, o.ID)
		}
	}
	if err := tx.DeleteProduct(id); err != nil {
		return err
	}
	if _, err := tx.Commit(); err != nil {
		return err
	}
	publish(ctx, s.Events, events.TypeProductDeleted, id, actor.UserID, map[string]string{"product_id": id})
	return nil
}

// snapshot builds an order line from a locked product.
func (s *CatalogService) snapshot(tx *store.Tx, productID string, qty int) (domain.OrderItem, error) {
	p, err := tx.Product(productID)
	if err != nil {
		return domain.OrderItem{}, err
	}
	if !p.Orderable() {
		return domain.OrderItem{}, fmt.Errorf("%w: product %s is inactive", domain.ErrInvalidArgument, productID)
	}
	return domain.NewOrderItem(uuid.NewString(), p, qty), nil
}
