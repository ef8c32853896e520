package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"milkpoint/internal/domain"
)

type orderRow struct {
	ID              string          `db:"id"`
	CustomerName    string          `db:"customer_name"`
	CustomerEmail   string          `db:"customer_email"`
	CustomerPhone   string          `db:"customer_phone"`
	ShippingAddress string          `db:"shipping_address"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	Status          string          `db:"status"`
	PaymentStatus   string          `db:"payment_status"`
	Notes           string          `db:"notes"`
	CreatedAt       string          `db:"created_at"`
	UpdatedAt       string          `db:"updated_at"`
}

type orderItemRow struct {
	ID          string          `db:"id"`
	OrderID     string          `db:"order_id"`
	Position    int             `db:"position"`
	ProductID   string          `db:"product_id"`
	ProductName string          `db:"product_name"`
	Quantity    int             `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	TotalPrice  decimal.Decimal `db:"total_price"`
}

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// List loads every order with its items, newest first.
func (r *OrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, `
	  SELECT id, customer_name, customer_email, customer_phone, shipping_address, total_amount,
	         status, payment_status, notes, created_at, updated_at
	  FROM orders
	  ORDER BY created_at DESC, id
	`); err != nil {
		return nil, err
	}
	var items []orderItemRow
	if err := r.db.SelectContext(ctx, &items, `
	  SELECT id, order_id, position, product_id, product_name, quantity, unit_price, total_price
	  FROM order_items
	  ORDER BY order_id, position
	`); err != nil {
		return nil, err
	}
	byOrder := map[string][]domain.OrderItem{}
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], domain.OrderItem{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		})
	}

	out := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		created, err := parseTime(row.CreatedAt)
		if err != nil {
			return nil, err
		}
		updated, err := parseTime(row.UpdatedAt)
		if err != nil {
			return nil, err
		}
		o := domain.Order{
			ID:              row.ID,
			Customer:        domain.Customer{Name: row.CustomerName, Email: row.CustomerEmail, Phone: row.CustomerPhone},
			ShippingAddress: row.ShippingAddress,
			Items:           byOrder[row.ID],
			TotalAmount:     row.TotalAmount,
			Status:          domain.OrderStatus(row.Status),
			PaymentStatus:   domain.PaymentStatus(row.PaymentStatus),
			Notes:           row.Notes,
			CreatedAt:       created,
			UpdatedAt:       updated,
		}
		if err := o.CheckInvariants(); err != nil {
			return nil, fmt.Errorf("load orders: %w", err)
		}
		out = append(out, o)
	}
	return out, nil
}

// upsertOrder writes the header and replaces the item lines.
func upsertOrder(ctx context.Context, tx *sqlx.Tx, o domain.Order) error {
	if _, err := tx.NamedExecContext(ctx, `
	  INSERT INTO orders(id, customer_name, customer_email, customer_phone, shipping_address, total_amount,
	                     status, payment_status, notes, created_at, updated_at)
	  VALUES(:id, :customer_name, :customer_email, :customer_phone, :shipping_address, :total_amount,
	         :status, :payment_status, :notes, :created_at, :updated_at)
	  ON CONFLICT(id) DO UPDATE SET
	    customer_name=excluded.customer_name, customer_email=excluded.customer_email,
	    customer_phone=excluded.customer_phone, shipping_address=excluded.shipping_address,
	    total_amount=excluded.total_amount, status=excluded.status,
	    payment_status=excluded.payment_status, notes=excluded.notes, updated_at=excluded.updated_at
	`, orderRow{
		ID:              o.ID,
		CustomerName:    o.Customer.Name,
		CustomerEmail:   o.Customer.Email,
		CustomerPhone:   o.Customer.Phone,
		ShippingAddress: o.ShippingAddress,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		Notes:           o.Notes,
		CreatedAt:       formatTime(o.CreatedAt),
		UpdatedAt:       formatTime(o.UpdatedAt),
	}); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id=?`, o.ID); err != nil {
		return err
	}
	for i, it := range o.Items {
		if _, err := tx.NamedExecContext(ctx, `
		  INSERT INTO order_items(id, order_id, position, product_id, product_name, quantity, unit_price, total_price)
		  VALUES(:id, :order_id, :position, :product_id, :product_name, :quantity, :unit_price, :total_price)
		`, orderItemRow{
			ID:          it.ID,
			OrderID:     o.ID,
			Position:    i,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		}); err != nil {
			return err
		}
	}
	return nil
}
