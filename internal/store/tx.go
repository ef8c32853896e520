package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"milkpoint/internal/domain"
)

var (
	// ErrLockOrder is returned when a transaction would acquire locks out of
	// the global order (orders, then products; each ascending and in one call).
	ErrLockOrder = errors.New("store: lock acquired out of order")
	ErrNotLocked = errors.New("store: entity not locked by transaction")
	ErrTxDone    = errors.New("store: transaction already finished")
)

// Tx stages writes against locked entities. Nothing is visible to readers
// until Commit; Rollback (or a failed Commit) discards every staged write.
type Tx struct {
	s   *Store
	ctx context.Context

	orders   map[string]*slot[domain.Order]
	products map[string]*slot[domain.Product]
	users    map[string]*slot[domain.User]
	unlocks  []func()

	lockedOrders, lockedProducts bool

	stagedOrders   map[string]domain.Order
	stagedProducts map[string]domain.Product
	stagedUsers    map[string]domain.User
	deleted        map[string]bool

	done bool
}

func (s *Store) Begin(ctx context.Context) *Tx {
	return &Tx{
		s:              s,
		ctx:            ctx,
		orders:         map[string]*slot[domain.Order]{},
		products:       map[string]*slot[domain.Product]{},
		users:          map[string]*slot[domain.User]{},
		stagedOrders:   map[string]domain.Order{},
		stagedProducts: map[string]domain.Product{},
		stagedUsers:    map[string]domain.User{},
		deleted:        map[string]bool{},
	}
}

func sortedUnique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func lockSlot[T any](tx *Tx, sl *slot[T]) bool {
	sl.mu.Lock()
	tx.unlocks = append(tx.unlocks, sl.mu.Unlock)
	return sl.cur.Load() != nil
}

// LockOrders acquires the given orders in ascending id order. It must be
// called at most once and before LockProducts.
func (tx *Tx) LockOrders(ids ...string) error {
	if tx.done {
		return ErrTxDone
	}
	if tx.lockedOrders || tx.lockedProducts {
		return ErrLockOrder
	}
	if err := tx.ctx.Err(); err != nil {
		return err
	}
	tx.lockedOrders = true
	for _, id := range sortedUnique(ids) {
		sl := tx.s.orderSlot(id)
		if sl == nil {
			return fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
		}
		if !lockSlot(tx, sl) {
			return fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
		}
		tx.orders[id] = sl
	}
	return nil
}

// LockProducts acquires the given products in ascending id order. It must be
// called at most once per transaction.
func (tx *Tx) LockProducts(ids ...string) error {
	if tx.done {
		return ErrTxDone
	}
	if tx.lockedProducts {
		return ErrLockOrder
	}
	if err := tx.ctx.Err(); err != nil {
		return err
	}
	tx.lockedProducts = true
	for _, id := range sortedUnique(ids) {
		sl := tx.s.productSlot(id)
		if sl == nil {
			return fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
		}
		if !lockSlot(tx, sl) {
			return fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
		}
		tx.products[id] = sl
	}
	return nil
}

// LockUser acquires a single user. Users are never locked together with
// orders or products.
func (tx *Tx) LockUser(id string) error {
	if tx.done {
		return ErrTxDone
	}
	if len(tx.users) > 0 || tx.lockedOrders || tx.lockedProducts {
		return ErrLockOrder
	}
	if err := tx.ctx.Err(); err != nil {
		return err
	}
	sl := tx.s.userSlot(id)
	if sl == nil || !lockSlot(tx, sl) {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	tx.users[id] = sl
	return nil
}

// Product returns the staged or committed version of a locked product.
func (tx *Tx) Product(id string) (domain.Product, error) {
	if tx.deleted[id] {
		return domain.Product{}, fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
	}
	if p, ok := tx.stagedProducts[id]; ok {
		return p, nil
	}
	sl, ok := tx.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %s", ErrNotLocked, id)
	}
	return *sl.cur.Load(), nil
}

// PutProduct stages p. Existing products must be locked; unknown ids are inserts.
func (tx *Tx) PutProduct(p domain.Product) error {
	if tx.done {
		return ErrTxDone
	}
	if _, ok := tx.products[p.ID]; !ok && tx.s.productSlot(p.ID) != nil {
		return fmt.Errorf("%w: product %s", ErrNotLocked, p.ID)
	}
	delete(tx.deleted, p.ID)
	tx.stagedProducts[p.ID] = p
	return nil
}

func (tx *Tx) DeleteProduct(id string) error {
	if tx.done {
		return ErrTxDone
	}
	if _, ok := tx.products[id]; !ok {
		return fmt.Errorf("%w: product %s", ErrNotLocked, id)
	}
	delete(tx.stagedProducts, id)
	tx.deleted[id] = true
	return nil
}

func (tx *Tx) Order(id string) (domain.Order, error) {
	if o, ok := tx.stagedOrders[id]; ok {
		return o.Clone(), nil
	}
	sl, ok := tx.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: order %s", ErrNotLocked, id)
	}
	return sl.cur.Load().Clone(), nil
}

// PutOrder stages o. Existing orders must be locked; unknown ids are inserts.
func (tx *Tx) PutOrder(o domain.Order) error {
	if tx.done {
		return ErrTxDone
	}
	if _, ok := tx.orders[o.ID]; !ok && tx.s.orderSlot(o.ID) != nil {
		return fmt.Errorf("%w: order %s", ErrNotLocked, o.ID)
	}
	tx.stagedOrders[o.ID] = o.Clone()
	return nil
}

func (tx *Tx) User(id string) (domain.User, error) {
	if u, ok := tx.stagedUsers[id]; ok {
		return u, nil
	}
	sl, ok := tx.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("%w: user %s", ErrNotLocked, id)
	}
	return *sl.cur.Load(), nil
}

func (tx *Tx) PutUser(u domain.User) error {
	if tx.done {
		return ErrTxDone
	}
	if _, ok := tx.users[u.ID]; !ok && tx.s.userSlot(u.ID) != nil {
		return fmt.Errorf("%w: user %s", ErrNotLocked, u.ID)
	}
	tx.stagedUsers[u.ID] = u
	return nil
}

func (tx *Tx) changes() ChangeSet {
	var cs ChangeSet
	for _, id := range sortedKeys(tx.stagedProducts) {
		cs.Products = append(cs.Products, tx.stagedProducts[id])
	}
	for _, id := range sortedKeys(tx.deleted) {
		cs.DeletedProducts = append(cs.DeletedProducts, id)
	}
	for _, id := range sortedKeys(tx.stagedOrders) {
		cs.Orders = append(cs.Orders, tx.stagedOrders[id].Clone())
	}
	for _, id := range sortedKeys(tx.stagedUsers) {
		cs.Users = append(cs.Users, tx.stagedUsers[id])
	}
	return cs
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Commit persists the staged writes (when the store has a Persister), then
// publishes them and releases every lock. On error nothing is published.
func (tx *Tx) Commit() (ChangeSet, error) {
	if tx.done {
		return ChangeSet{}, ErrTxDone
	}
	defer tx.release()

	if err := tx.ctx.Err(); err != nil {
		return ChangeSet{}, err
	}
	cs := tx.changes()
	if cs.Empty() {
		return cs, nil
	}
	if tx.s.persist != nil {
		if err := tx.s.persist.Commit(tx.ctx, cs); err != nil {
			return ChangeSet{}, fmt.Errorf("store: persist: %w", err)
		}
	}
	tx.publish(cs)
	return cs, nil
}

func (tx *Tx) publish(cs ChangeSet) {
	var inserts bool
	for _, p := range cs.Products {
		if sl, ok := tx.products[p.ID]; ok {
			v := p
			sl.cur.Store(&v)
		} else {
			inserts = true
		}
	}
	for _, o := range cs.Orders {
		if sl, ok := tx.orders[o.ID]; ok {
			v := o
			sl.cur.Store(&v)
		} else {
			inserts = true
		}
	}
	for _, u := range cs.Users {
		if sl, ok := tx.users[u.ID]; ok {
			v := u
			sl.cur.Store(&v)
		} else {
			inserts = true
		}
	}
	if !inserts && len(cs.DeletedProducts) == 0 {
		return
	}

	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	for _, p := range cs.Products {
		if _, ok := tx.products[p.ID]; !ok {
			tx.s.products[p.ID] = newSlot(p)
		}
	}
	for _, o := range cs.Orders {
		if _, ok := tx.orders[o.ID]; !ok {
			tx.s.orders[o.ID] = newSlot(o)
		}
	}
	for _, u := range cs.Users {
		if _, ok := tx.users[u.ID]; !ok {
			tx.s.users[u.ID] = newSlot(u)
		}
	}
	for _, id := range cs.DeletedProducts {
		tx.products[id].cur.Store(nil)
		delete(tx.s.products, id)
	}
}

// Rollback discards staged writes and releases locks. Safe to call after Commit.
func (tx *Tx) Rollback() {
	if tx.done {
		return
	}
	tx.release()
}

func (tx *Tx) release() {
	tx.done = true
	for i := len(tx.unlocks) - 1; i >= 0; i-- {
		tx.unlocks[i]()
	}
	tx.unlocks = nil
}
