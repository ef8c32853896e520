package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"milkpoint/internal/domain"
	"milkpoint/internal/store"
)

// SQLStore writes store change sets to sqlite, one database transaction per
// change set.
type SQLStore struct {
	DB       *sqlx.DB
	Products *ProductRepo
	Orders   *OrderRepo
	Users    *UserRepo
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{
		DB:       db,
		Products: NewProductRepo(db),
		Orders:   NewOrderRepo(db),
		Users:    NewUserRepo(db),
	}
}

var _ store.Persister = (*SQLStore)(nil)

func (s *SQLStore) Commit(ctx context.Context, cs store.ChangeSet) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range cs.Products {
		if err := upsertProduct(ctx, tx, p); err != nil {
			return fmt.Errorf("save product %s: %w", p.ID, err)
		}
	}
	for _, id := range cs.DeletedProducts {
		if err := deleteProduct(ctx, tx, id); err != nil {
			return fmt.Errorf("delete product %s: %w", id, err)
		}
	}
	for _, o := range cs.Orders {
		if err := upsertOrder(ctx, tx, o); err != nil {
			return fmt.Errorf("save order %s: %w", o.ID, err)
		}
	}
	for _, u := range cs.Users {
		if err := upsertUser(ctx, tx, u); err != nil {
			return fmt.Errorf("save user %s: %w", u.ID, err)
		}
	}
	return tx.Commit()
}

// LoadAll reads everything the in-memory store needs at startup.
func (s *SQLStore) LoadAll(ctx context.Context) ([]domain.Product, []domain.Order, []domain.User, error) {
	products, err := s.Products.List(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load products: %w", err)
	}
	orders, err := s.Orders.List(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	users, err := s.Users.List(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load users: %w", err)
	}
	return products, orders, users, nil
}

// Open loads sqlite contents into a new store that persists through s.
func (s *SQLStore) Open(ctx context.Context) (*store.Store, error) {
	products, orders, users, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	st := store.New(s)
	st.Load(products, orders, users)
	return st, nil
}
