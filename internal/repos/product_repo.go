package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"milkpoint/internal/domain"
)

type productRow struct {
	ID            string          `db:"id"`
	Name          string          `db:"name"`
	Description   string          `db:"description"`
	Price         decimal.Decimal `db:"price"`
	Category      string          `db:"category"`
	Unit          string          `db:"unit"`
	ImageURL      string          `db:"image_url"`
	StockQuantity int             `db:"stock_quantity"`
	IsActive      bool            `db:"is_active"`
	CreatedAt     string          `db:"created_at"`
	UpdatedAt     string          `db:"updated_at"`
}

func toProductRow(p domain.Product) productRow {
	return productRow{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Category:      string(p.Category),
		Unit:          p.Unit,
		ImageURL:      p.ImageURL,
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
		CreatedAt:     formatTime(p.CreatedAt),
		UpdatedAt:     formatTime(p.UpdatedAt),
	}
}

func (r productRow) domain() (domain.Product, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	return domain.Product{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		Category:      domain.Category(r.Category),
		Unit:          r.Unit,
		ImageURL:      r.ImageURL,
		StockQuantity: r.StockQuantity,
		IsActive:      r.IsActive,
		CreatedAt:     created,
		UpdatedAt:     updated,
	}, nil
}

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, `
	  SELECT id, name, description, price, category, unit, image_url, stock_quantity, is_active, created_at, updated_at
	  FROM products
	  ORDER BY LOWER(name), id
	`); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		p, err := row.domain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func upsertProduct(ctx context.Context, tx *sqlx.Tx, p domain.Product) error {
	_, err := tx.NamedExecContext(ctx, `
	  INSERT INTO products(id, name, description, price, category, unit, image_url, stock_quantity, is_active, created_at, updated_at)
	  VALUES(:id, :name, :description, :price, :category, :unit, :image_url, :stock_quantity, :is_active, :created_at, :updated_at)
	  ON CONFLICT(id) DO UPDATE SET
	    name=excluded.name, description=excluded.description, price=excluded.price,
	    category=excluded.category, unit=excluded.unit, image_url=excluded.image_url,
	    stock_quantity=excluded.stock_quantity, is_active=excluded.is_active, updated_at=excluded.updated_at
	`, toProductRow(p))
	return err
}

func deleteProduct(ctx context.Context, tx *sqlx.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id=?`, id)
	return err
}
