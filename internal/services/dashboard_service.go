package services

import (
	"github.com/shopspring/decimal"

	"milkpoint/internal/authz"
	"milkpoint/internal/domain"
	"milkpoint/internal/store"
)

const recentOrders = 5

type Stats struct {
	TotalProducts  int                 `json:"total_products"`
	ActiveProducts int                 `json:"active_products"`
	LowStock       int                 `json:"low_stock"`
	TotalOrders    int                 `json:"total_orders"`
	PendingOrders  int                 `json:"pending_orders"`
	TotalUsers     int                 `json:"total_users"`
	UsersByRole    map[domain.Role]int `json:"users_by_role"`
	TotalRevenue   decimal.Decimal     `json:"total_revenue"`
	RecentOrders   []domain.Order      `json:"recent_orders"`
}

type DashboardService struct {
	Store *store.Store
}

// Stats summarizes the catalog, orders and users. Revenue counts paid orders only.
func (s *DashboardService) Stats(actor authz.Principal) (Stats, error) {
	if err := actor.Authorize(authz.OpDashboardView); err != nil {
		return Stats{}, err
	}
	st := Stats{UsersByRole: map[domain.Role]int{}, TotalRevenue: decimal.Zero}

	for _, p := range s.Store.Products() {
		st.TotalProducts++
		if p.IsActive {
			st.ActiveProducts++
			if p.StockQuantity < LowStockThreshold {
				st.LowStock++
			}
		}
	}
	orders := s.Store.Orders()
	st.TotalOrders = len(orders)
	for _, o := range orders {
		if o.Status == domain.StatusPending {
			st.PendingOrders++
		}
		if o.PaymentStatus == domain.PaymentPaid {
			st.TotalRevenue = st.TotalRevenue.Add(o.TotalAmount)
		}
	}
	if len(orders) > recentOrders {
		orders = orders[:recentOrders]
	}
	st.RecentOrders = orders

	users := s.Store.Users()
	st.TotalUsers = len(users)
	for _, u := range users {
		st.UsersByRole[u.Role]++
	}
	return st, nil
}
