package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gitlab.connectwisedev.com/sportshop-backend/models"
	"gitlab.connectwisedev.com/sportshop-backend/store"
)

type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]models.Order
}

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]models.Order)}
}

func (s *OrderStore) Get(_ context.Context, orderID string) (models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderID]
	if !ok {
		return models.Order{}, store.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *OrderStore) ListByUser(_ context.Context, userID string, status models.OrderStatus, limit int) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.UserID != userID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *OrderStore) Put(_ context.Context, o models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.OrderID] = cloneOrder(o)
	return nil
}

func (s *OrderStore) Complete(_ context.Context, orderID string, at time.Time, completedBy, saleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return store.ErrNotFound
	}
	if o.Status != models.OrderStatusPending {
		return store.ErrStateConflict
	}
	ts := at
	o.Status = models.OrderStatusCompleted
	o.CompletedAt = &ts
	o.CompletedBy = completedBy
	o.SaleID = saleID
	o.UpdatedAt = at
	s.orders[orderID] = o
	return nil
}

func (s *OrderStore) Cancel(_ context.Context, orderID string, at time.Time, cancelledBy, reason, adminNotes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return store.ErrNotFound
	}
	if o.Status != models.OrderStatusPending {
		return store.ErrStateConflict
	}
	ts := at
	o.Status = models.OrderStatusCancelled
	o.CancelledAt = &ts
	o.CancelledBy = cancelledBy
	o.CancellationReason = reason
	o.AdminNotes = adminNotes
	o.UpdatedAt = at
	s.orders[orderID] = o
	return nil
}

func cloneOrder(o models.Order) models.Order {
	c := o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	if o.CompletedAt != nil {
		ts := *o.CompletedAt
		c.CompletedAt = &ts
	}
	if o.CancelledAt != nil {
		ts := *o.CancelledAt
		c.CancelledAt = &ts
	}
	return c
}
