package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryMilk       Category = "Milk"
	CategoryDairy      Category = "Dairy"
	CategoryGhee       Category = "Ghee"
	CategoryButter     Category = "Butter"
	CategoryCurd       Category = "Curd"
	CategoryPaneer     Category = "Paneer"
	CategoryButtermilk Category = "Buttermilk"
	CategoryOther      Category = "Other"
)

// Categories lists the closed set of product categories in display order.
var Categories = []Category{
	CategoryMilk, CategoryDairy, CategoryGhee, CategoryButter,
	CategoryCurd, CategoryPaneer, CategoryButtermilk, CategoryOther,
}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, s)
}

type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Category      Category        `json:"category"`
	Unit          string          `json:"unit"`
	ImageURL      string          `json:"image_url,omitempty"`
	StockQuantity int             `json:"stock_quantity"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Orderable reports whether new orders may reference the product.
func (p Product) Orderable() bool { return p.IsActive }

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// OrderItem carries a snapshot of the product at the time it was ordered.
type OrderItem struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

func NewOrderItem(id string, p Product, qty int) OrderItem {
	return OrderItem{
		ID:          id,
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    qty,
		UnitPrice:   p.Price,
		TotalPrice:  p.Price.Mul(decimal.NewFromInt(int64(qty))),
	}
}

type Order struct {
	ID              string          `json:"id"`
	Customer        Customer        `json:"customer"`
	ShippingAddress string          `json:"shipping_address"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Clone returns a copy that shares no slice memory with o.
func (o Order) Clone() Order {
	o.Items = append([]OrderItem(nil), o.Items...)
	return o
}

// Recompute derives item totals and the order total from quantities and unit prices.
func (o *Order) Recompute() {
	total := decimal.Zero
	for i := range o.Items {
		it := &o.Items[i]
		it.TotalPrice = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(it.TotalPrice)
	}
	o.TotalAmount = total
}

// Quantities sums item quantities per product.
func (o Order) Quantities() map[string]int {
	out := make(map[string]int, len(o.Items))
	for _, it := range o.Items {
		out[it.ProductID] += it.Quantity
	}
	return out
}

// References reports whether any item of the order points at productID.
func (o Order) References(productID string) bool {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// CheckInvariants verifies the order-level consistency rules.
func (o Order) CheckInvariants() error {
	total := decimal.Zero
	for _, it := range o.Items {
		if it.Quantity <= 0 {
			return fmt.Errorf("order %s: item %s has quantity %d", o.ID, it.ProductID, it.Quantity)
		}
		if !it.TotalPrice.Equal(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))) {
			return fmt.Errorf("order %s: item %s total does not match quantity x unit price", o.ID, it.ProductID)
		}
		total = total.Add(it.TotalPrice)
	}
	if !total.Equal(o.TotalAmount) {
		return fmt.Errorf("order %s: total %s does not match item sum %s", o.ID, o.TotalAmount, total)
	}
	if !ValidCombination(o.Status, o.PaymentStatus) {
		return fmt.Errorf("order %s: status %s with payment %s", o.ID, o.Status, o.PaymentStatus)
	}
	return nil
}

// Availability is the coarse stock signal shown next to a product.
type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}
