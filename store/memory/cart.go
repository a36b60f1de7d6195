package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gitlab.connectwisedev.com/sportshop-backend/models"
	"gitlab.connectwisedev.com/sportshop-backend/store"
)

type cartKey struct {
	userID    string
	productID string
}

type CartStore struct {
	mu    sync.RWMutex
	items map[cartKey]models.CartItem
}

func NewCartStore() *CartStore {
	return &CartStore{items: make(map[cartKey]models.CartItem)}
}

func (s *CartStore) Get(_ context.Context, userID, productID string) (models.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[cartKey{userID, productID}]
	if !ok {
		return models.CartItem{}, store.ErrNotFound
	}
	return item, nil
}

func (s *CartStore) ListByUser(_ context.Context, userID string) ([]models.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.CartItem
	for key, item := range s.items {
		if key.userID == userID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out, nil
}

func (s *CartStore) ListByProduct(_ context.Context, productID string) ([]models.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.CartItem
	for key, item := range s.items {
		if key.productID == productID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *CartStore) Put(_ context.Context, item models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[cartKey{item.UserID, item.ProductID}] = item
	return nil
}

func (s *CartStore) UpdateQuantity(_ context.Context, userID, productID string, quantity int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := cartKey{userID, productID}
	item, ok := s.items[key]
	if !ok {
		return store.ErrNotFound
	}
	item.Quantity = quantity
	item.UpdatedAt = at
	s.items[key] = item
	return nil
}

func (s *CartStore) Delete(_ context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := cartKey{userID, productID}
	if _, ok := s.items[key]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, key)
	return nil
}
