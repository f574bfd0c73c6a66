// Package memstore keeps orders in process memory. Writes made through a
// unit of work become visible only on Commit.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/orderdesk/internal/order"
)

const counterStart = 1000

type Store struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]*order.Order
	messages []*order.Message

	counterMu     sync.Mutex
	nextOrderNo   int
	nextInvoiceNo int

	// locks holds a one-slot semaphore per order, taken for the life of a unit of work.
	locks sync.Map
}

func New() *Store {
	return &Store{
		orders:        make(map[uuid.UUID]*order.Order),
		nextOrderNo:   counterStart,
		nextInvoiceNo: counterStart,
	}
}

func (s *Store) GetOrder(_ context.Context, id uuid.UUID) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}

	return o.Clone(), nil
}

func (s *Store) LoadOrders(_ context.Context, filter order.ListFilter) ([]*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*order.Order

	for _, o := range s.orders {
		if matches(o, filter) {
			out = append(out, o.Clone())
		}
	}

	slices.SortFunc(out, func(a, b *order.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return out, nil
}

func matches(o *order.Order, f order.ListFilter) bool {
	switch {
	case f.Status != nil && o.Status != *f.Status:
		return false
	case f.CustomerID != nil && o.CustomerID != *f.CustomerID:
		return false
	case f.CreatedBy != nil && o.CreatedBy != *f.CreatedBy:
		return false
	case f.StartDate != nil && o.CreatedAt.Before(*f.StartDate):
		return false
	case f.EndDate != nil && !o.CreatedAt.Before(*f.EndDate):
		return false
	}

	return true
}

func (s *Store) ListMessages(_ context.Context, orderID uuid.UUID) ([]*order.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*order.Message

	for _, m := range s.messages {
		if m.OrderID == orderID {
			c := *m
			out = append(out, &c)
		}
	}

	return out, nil
}

func (s *Store) NextOrderNumber(context.Context) (string, error) {
	s.counterMu.Lock()
	defer s.counterMu.Unlock()

	n := s.nextOrderNo
	s.nextOrderNo++

	return fmt.Sprintf("ORD-%d", n), nil
}

func (s *Store) NextInvoiceNumber(context.Context) (string, error) {
	s.counterMu.Lock()
	defer s.counterMu.Unlock()

	n := s.nextInvoiceNo
	s.nextInvoiceNo++

	return fmt.Sprintf("INV-%d", n), nil
}

func (s *Store) Begin(ctx context.Context, orderID uuid.UUID) (order.UnitOfWork, error) {
	v, _ := s.locks.LoadOrStore(orderID, make(chan struct{}, 1))
	lock := v.(chan struct{})

	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &unitOfWork{store: s, orderID: orderID, lock: lock}, nil
}

type pendingSave struct {
	order       *order.Order
	baseVersion int
}

type unitOfWork struct {
	store    *Store
	orderID  uuid.UUID
	lock     chan struct{}
	saves    []pendingSave
	messages []*order.Message
	done     bool
}

func (u *unitOfWork) GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	for i := len(u.saves) - 1; i >= 0; i-- {
		if u.saves[i].order.ID == id {
			return u.saves[i].order.Clone(), nil
		}
	}

	return u.store.GetOrder(ctx, id)
}

func (u *unitOfWork) SaveOrder(_ context.Context, o *order.Order) error {
	if u.done {
		return fmt.Errorf("unit of work already finished")
	}

	if err := u.checkVersion(o); err != nil {
		return err
	}

	base := o.Version
	o.Version++
	u.saves = append(u.saves, pendingSave{order: o.Clone(), baseVersion: base})

	return nil
}

func (u *unitOfWork) AppendMessage(_ context.Context, m *order.Message) error {
	if u.done {
		return fmt.Errorf("unit of work already finished")
	}

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	c := *m
	u.messages = append(u.messages, &c)

	return nil
}

func (u *unitOfWork) Commit() error {
	if u.done {
		return fmt.Errorf("unit of work already finished")
	}

	defer u.finish()

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// Only the first save of each order is checked against the store; later
	// saves in the same unit build on it.
	checked := make(map[uuid.UUID]bool)

	for _, p := range u.saves {
		if checked[p.order.ID] {
			continue
		}

		current, exists := s.orders[p.order.ID]
		if err := checkVersion(current, exists, p.baseVersion); err != nil {
			return err
		}

		checked[p.order.ID] = true
	}

	for _, p := range u.saves {
		s.orders[p.order.ID] = p.order
	}

	s.messages = append(s.messages, u.messages...)

	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.done {
		return nil
	}

	u.finish()

	return nil
}

func (u *unitOfWork) finish() {
	u.done = true
	u.saves = nil
	u.messages = nil
	<-u.lock
}

func (u *unitOfWork) checkVersion(o *order.Order) error {
	for i := len(u.saves) - 1; i >= 0; i-- {
		if p := u.saves[i].order; p.ID == o.ID {
			return checkVersion(p, true, o.Version)
		}
	}

	u.store.mu.RLock()
	defer u.store.mu.RUnlock()

	current, exists := u.store.orders[o.ID]

	return checkVersion(current, exists, o.Version)
}

func checkVersion(current *order.Order, exists bool, version int) error {
	switch {
	case version == 0 && exists:
		return fmt.Errorf("%w: order %s already exists", order.ErrConcurrency, current.ID)
	case version != 0 && !exists:
		return order.ErrNotFound
	case exists && current.Version != version:
		return fmt.Errorf("%w: order %s is at version %d, not %d", order.ErrConcurrency, current.ID, current.Version, version)
	}

	return nil
}
