// Package store is the process-wide entity arena. Every product, order and
// user sits in its own slot: an exclusive mutex that serializes writers and an
// atomically swapped immutable version that readers load without locking.
package store

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"milkpoint/internal/domain"
)

// Persister durably records a committed change set. It runs while the
// transaction still holds its locks; an error aborts the commit.
type Persister interface {
	Commit(ctx context.Context, cs ChangeSet) error
}

// ChangeSet is everything one transaction writes.
type ChangeSet struct {
	Products        []domain.Product
	DeletedProducts []string
	Orders          []domain.Order
	Users           []domain.User
}

func (cs ChangeSet) Empty() bool {
	return len(cs.Products) == 0 && len(cs.DeletedProducts) == 0 && len(cs.Orders) == 0 && len(cs.Users) == 0
}

type slot[T any] struct {
	mu  sync.Mutex
	cur atomic.Pointer[T]
}

func newSlot[T any](v T) *slot[T] {
	s := &slot[T]{}
	s.cur.Store(&v)
	return s
}

type Store struct {
	mu       sync.RWMutex // guards the maps, not the entities
	products map[string]*slot[domain.Product]
	orders   map[string]*slot[domain.Order]
	users    map[string]*slot[domain.User]
	persist  Persister
}

// New returns an empty store. p may be nil for a memory-only store.
func New(p Persister) *Store {
	return &Store{
		products: map[string]*slot[domain.Product]{},
		orders:   map[string]*slot[domain.Order]{},
		users:    map[string]*slot[domain.User]{},
		persist:  p,
	}
}

// Load seeds the store with already-persisted entities. It replaces nothing
// that is in flight and is meant to be called once at startup.
func (s *Store) Load(products []domain.Product, orders []domain.Order, users []domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		s.products[p.ID] = newSlot(p)
	}
	for _, o := range orders {
		s.orders[o.ID] = newSlot(o.Clone())
	}
	for _, u := range users {
		s.users[u.ID] = newSlot(u)
	}
}

func (s *Store) productSlot(id string) *slot[domain.Product] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products[id]
}

func (s *Store) orderSlot(id string) *slot[domain.Order] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders[id]
}

func (s *Store) userSlot(id string) *slot[domain.User] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[id]
}

// Product returns the last committed version of a product.
func (s *Store) Product(id string) (domain.Product, bool) {
	sl := s.productSlot(id)
	if sl == nil {
		return domain.Product{}, false
	}
	p := sl.cur.Load()
	if p == nil {
		return domain.Product{}, false
	}
	return *p, true
}

// Products returns a snapshot of all products ordered by name.
func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	out := make([]domain.Product, 0, len(s.products))
	for _, sl := range s.products {
		if p := sl.cur.Load(); p != nil {
			out = append(out, *p)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) Order(id string) (domain.Order, bool) {
	sl := s.orderSlot(id)
	if sl == nil {
		return domain.Order{}, false
	}
	o := sl.cur.Load()
	if o == nil {
		return domain.Order{}, false
	}
	return o.Clone(), true
}

// Orders returns a snapshot of all orders, newest first.
func (s *Store) Orders() []domain.Order {
	s.mu.RLock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, sl := range s.orders {
		if o := sl.cur.Load(); o != nil {
			out = append(out, o.Clone())
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) User(id string) (domain.User, bool) {
	sl := s.userSlot(id)
	if sl == nil {
		return domain.User{}, false
	}
	u := sl.cur.Load()
	if u == nil {
		return domain.User{}, false
	}
	return *u, true
}

// Users returns a snapshot of all users ordered by email.
func (s *Store) Users() []domain.User {
	s.mu.RLock()
	out := make([]domain.User, 0, len(s.users))
	for _, sl := range s.users {
		if u := sl.cur.Load(); u != nil {
			out = append(out, *u)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}
