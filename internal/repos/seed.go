package repos

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"milkpoint/internal/domain"
	applog "milkpoint/internal/log"
	"milkpoint/internal/store"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "Passw0rd!"

// SeedDemo inserts the demo catalog, accounts and one order when the
// database has no products and no users. It is a no-op otherwise.
func (s *SQLStore) SeedDemo(ctx context.Context) (bool, error) {
	var n int
	if err := s.DB.GetContext(ctx, &n, `SELECT (SELECT COUNT(*) FROM products) + (SELECT COUNT(*) FROM users)`); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	cs, err := demoData(time.Now().UTC())
	if err != nil {
		return false, err
	}
	if err := s.Commit(ctx, cs); err != nil {
		return false, err
	}
	applog.Info(nil, "db.seed", map[string]any{"products": len(cs.Products), "users": len(cs.Users), "orders": len(cs.Orders)})
	return true, nil
}

func demoData(now time.Time) (store.ChangeSet, error) {
	mk := func(id, name, desc, price string, cat domain.Category, unit string, stock int, active bool) domain.Product {
		return domain.Product{
			ID: id, Name: name, Description: desc, Price: decimal.RequireFromString(price),
			Category: cat, Unit: unit, StockQuantity: stock, IsActive: active,
			CreatedAt: now, UpdatedAt: now,
		}
	}
	products := []domain.Product{
		mk("prd-cow-milk", "Fresh Cow Milk", "Pure village cow milk delivered fresh every morning", "60", domain.CategoryMilk, "litre", 120, true),
		mk("prd-buffalo-milk", "Buffalo Milk", "Rich and creamy buffalo milk", "75", domain.CategoryMilk, "litre", 80, true),
		mk("prd-a2-ghee", "A2 Desi Ghee", "Traditional A2 cow ghee made using bilona method", "950", domain.CategoryGhee, "kg", 25, true),
		mk("prd-curd", "Homemade Curd", "Thick and natural curd", "55", domain.CategoryCurd, "kg", 60, false),
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return store.ChangeSet{}, err
	}
	users := []domain.User{
		{ID: "u-admin", Email: "admin@milkpoint.com", FullName: "Admin User", Phone: "9876543210", Role: domain.RoleAdmin, CreatedAt: now, Hash: string(hash)},
		{ID: "u-john", Email: "john@example.com", FullName: "John Doe", Role: domain.RoleUser, CreatedAt: now, Hash: string(hash)},
		{ID: "u-jane", Email: "moderator@example.com", FullName: "Jane Smith", Phone: "9123456789", Role: domain.RoleModerator, CreatedAt: now, Hash: string(hash)},
	}

	// the order's quantities are already taken out of the stock above
	order := domain.Order{
		ID:              "ord-demo-1",
		Customer:        domain.Customer{Name: "Rahul Sharma", Email: "rahul@gmail.com", Phone: "9876543210"},
		ShippingAddress: "Hyderabad, Telangana",
		Items: []domain.OrderItem{
			domain.NewOrderItem("itm-demo-1", products[0], 2),
			domain.NewOrderItem("itm-demo-2", products[2], 1),
		},
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentPaid,
		Notes:         "Deliver before 6 PM",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.Recompute()
	products[0].StockQuantity -= 2
	products[2].StockQuantity--

	return store.ChangeSet{Products: products, Orders: []domain.Order{order}, Users: users}, nil
}
