package handlers

import (
	"github.com/jmoiron/sqlx"

	"milkpoint/internal/config"
	"milkpoint/internal/events"
	"milkpoint/internal/repos"
	"milkpoint/internal/services"
	"milkpoint/internal/store"
)

type Deps struct {
	Auth             *services.AuthService
	AuthHandler      *AuthHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	OrderHandler     *OrderHandler
	AdminHandler     *AdminHandler
}

func NewDeps(db *sqlx.DB, st *store.Store, cfg config.Config, ev events.Publisher) *Deps {
	userRepo := repos.NewUserRepo(db)

	authSvc := &services.AuthService{Store: st, Sessions: userRepo}
	invSvc := services.NewInventoryService(st, ev)
	catalogSvc := services.NewCatalogService(st, ev)
	orderSvc := services.NewOrderService(st, catalogSvc, invSvc, ev)
	userSvc := services.NewUserService(st, ev)

	return &Deps{
		Auth:             authSvc,
		AuthHandler:      &AuthHandler{Auth: authSvc, CookieSecure: cfg.CookieSecure},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		OrderHandler:     &OrderHandler{Orders: orderSvc},
		AdminHandler:     &AdminHandler{Users: userSvc, Dashboard: &services.DashboardService{Store: st}},
	}
}
