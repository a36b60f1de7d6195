package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gitlab.connectwisedev.com/sportshop-backend/models"
	"gitlab.connectwisedev.com/sportshop-backend/store"
)

type SaleStore struct {
	mu    sync.RWMutex
	sales map[string]models.Sale
}

func NewSaleStore() *SaleStore {
	return &SaleStore{sales: make(map[string]models.Sale)}
}

func (s *SaleStore) Get(_ context.Context, saleID string) (models.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sale, ok := s.sales[saleID]
	if !ok {
		return models.Sale{}, store.ErrNotFound
	}
	return cloneSale(sale), nil
}

func (s *SaleStore) List(_ context.Context, filter store.SaleFilter) ([]models.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Sale
	for _, sale := range s.sales {
		if !filter.Since.IsZero() && sale.CompletedAt.Before(filter.Since) {
			continue
		}
		out = append(out, cloneSale(sale))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, nil
}

func (s *SaleStore) Put(_ context.Context, sale models.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales[sale.SaleID] = cloneSale(sale)
	return nil
}

func (s *SaleStore) Cancel(_ context.Context, saleID string, at time.Time, cancelledBy, reason, adminNotes string, stockRestored bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[saleID]
	if !ok {
		return store.ErrNotFound
	}
	if sale.Status == models.SaleStatusCancelled {
		return store.ErrStateConflict
	}
	ts := at
	sale.Status = models.SaleStatusCancelled
	sale.CancelledAt = &ts
	sale.CancelledBy = cancelledBy
	sale.CancellationReason = reason
	if adminNotes != "" {
		sale.AdminNotes = adminNotes
	}
	sale.StockRestored = stockRestored
	s.sales[saleID] = sale
	return nil
}

func cloneSale(sale models.Sale) models.Sale {
	c := sale
	c.Items = append([]models.OrderItem(nil), sale.Items...)
	if sale.CancelledAt != nil {
		ts := *sale.CancelledAt
		c.CancelledAt = &ts
	}
	return c
}
