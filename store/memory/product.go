// Package memory provides mutex-guarded in-memory store implementations.
// They honor the same conditional-write semantics as the Postgres stores and
// back the service tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gitlab.connectwisedev.com/sportshop-backend/models"
	"gitlab.connectwisedev.com/sportshop-backend/store"
)

type ProductStore struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[string]models.Product)}
}

func (s *ProductStore) Get(_ context.Context, id string) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return models.Product{}, store.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (s *ProductStore) List(_ context.Context, filter store.ProductFilter) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Product
	for _, p := range s.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Gender != "" && p.Gender != filter.Gender {
			continue
		}
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *ProductStore) Put(_ context.Context, p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; ok {
		return store.ErrDuplicate
	}
	s.products[p.ID] = cloneProduct(p)
	return nil
}

func (s *ProductStore) Update(_ context.Context, p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	// Same columns the SQL update touches; reviews, counters and version
	// belong to their own conditional writes.
	existing.Category = p.Category
	existing.Name = p.Name
	existing.Price = p.Price
	existing.Stock = p.Stock
	existing.Gender = p.Gender
	existing.Description = p.Description
	existing.ImageURL = p.ImageURL
	existing.Images = append([]models.ProductImage(nil), p.Images...)
	existing.IsActive = p.IsActive
	existing.UpdatedAt = p.UpdatedAt
	s.products[p.ID] = existing
	return nil
}

func (s *ProductStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *ProductStore) CommitStock(_ context.Context, id string, qty int, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	if p.Stock < qty {
		return 0, store.ErrInsufficientStock
	}
	p.Stock -= qty
	p.SalesCount += qty
	ts := at
	p.LastSold = &ts
	p.UpdatedAt = at
	s.products[id] = p
	return p.Stock, nil
}

func (s *ProductStore) RestoreStock(_ context.Context, id string, qty int, at time.Time) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return models.Product{}, store.ErrNotFound
	}
	p.Stock += qty
	p.SalesCount -= qty
	if p.SalesCount < 0 {
		p.SalesCount = 0
	}
	ts := at
	p.LastRestocked = &ts
	p.UpdatedAt = at
	s.products[id] = p
	return cloneProduct(p), nil
}

func (s *ProductStore) UpdateReviews(_ context.Context, id string, version int, reviews []models.Review, averageRating float64, reviewCount int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return store.ErrNotFound
	}
	if p.Version != version {
		return store.ErrVersionConflict
	}
	p.Reviews = append([]models.Review(nil), reviews...)
	p.AverageRating = averageRating
	p.ReviewCount = reviewCount
	p.Version++
	p.UpdatedAt = at
	s.products[id] = p
	return nil
}

func cloneProduct(p models.Product) models.Product {
	c := p
	c.Images = append([]models.ProductImage(nil), p.Images...)
	c.Reviews = append([]models.Review(nil), p.Reviews...)
	if p.LastSold != nil {
		ts := *p.LastSold
		c.LastSold = &ts
	}
	if p.LastRestocked != nil {
		ts := *p.LastRestocked
		c.LastRestocked = &ts
	}
	return c
}
