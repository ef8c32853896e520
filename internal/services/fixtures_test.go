package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"milkpoint/internal/authz"
	"milkpoint/internal/domain"
	"milkpoint/internal/events"
	"milkpoint/internal/services"
	"milkpoint/internal/store"
)

var (
	admin     = authz.Principal{UserID: "u-admin", Role: domain.RoleAdmin}
	moderator = authz.Principal{UserID: "u-mod", Role: domain.RoleModerator}
	customer  = authz.Principal{UserID: "u-user", Role: domain.RoleUser}
)

type env struct {
	st     *store.Store
	rec    *events.Recorder
	inv    *services.InventoryService
	cat    *services.CatalogService
	orders *services.OrderService
	users  *services.UserService
	dash   *services.DashboardService
}

func product(id, name string, price string, stock int) domain.Product {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.Product{
		ID:            id,
		Name:          name,
		Price:         decimal.RequireFromString(price),
		Category:      domain.CategoryMilk,
		Unit:          "litre",
		StockQuantity: stock,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func newEnv(t *testing.T, products ...domain.Product) *env {
	t.Helper()
	st := store.New(nil)
	st.Load(products, nil, []domain.User{
		{ID: "u-admin", Email: "admin@milkpoint.com", FullName: "Admin", Role: domain.RoleAdmin},
		{ID: "u-mod", Email: "mod@milkpoint.com", FullName: "Moderator", Role: domain.RoleModerator},
		{ID: "u-user", Email: "user@milkpoint.com", FullName: "Customer", Role: domain.RoleUser},
	})
	rec := events.NewRecorder(256)
	inv := services.NewInventoryService(st, rec)
	cat := services.NewCatalogService(st, rec)
	return &env{
		st:     st,
		rec:    rec,
		inv:    inv,
		cat:    cat,
		orders: services.NewOrderService(st, cat, inv, rec),
		users:  services.NewUserService(st, rec),
		dash:   &services.DashboardService{Store: st},
	}
}

func orderInput(items ...services.ItemInput) services.CreateOrderInput {
	return services.CreateOrderInput{
		Customer:        services.CustomerInput{Name: "Asha", Email: "asha@example.com", Phone: "+91 98765 43210"},
		ShippingAddress: "12 Dairy Lane",
		Items:           items,
	}
}

func item(productID string, qty int) services.ItemInput {
	return services.ItemInput{ProductID: productID, Quantity: qty}
}

func (e *env) stock(t *testing.T, id string) int {
	t.Helper()
	p, ok := e.st.Product(id)
	require.True(t, ok, "product %s", id)
	return p.StockQuantity
}

func (e *env) create(t *testing.T, items ...services.ItemInput) domain.Order {
	t.Helper()
	o, err := e.orders.CreateOrder(context.Background(), admin, orderInput(items...))
	require.NoError(t, err)
	return o
}
