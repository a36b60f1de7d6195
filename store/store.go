// Package store defines the persistence contracts the workflows depend on.
// The contracts mirror what the backing document store actually offers:
// point lookups, partition queries, filtered scans and single-record
// conditional writes. No multi-record transaction is exposed — callers that
// need multi-step effects commit each step individually.
package store

import (
	"context"
	"errors"
	"time"

	"gitlab.connectwisedev.com/sportshop-backend/models"
)

var (
	// ErrNotFound: the referenced record does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate: a record with the same key already exists.
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrInsufficientStock: a conditional stock commit found less stock
	// than requested.
	ErrInsufficientStock = errors.New("store: insufficient stock")
	// ErrVersionConflict: a versioned write lost the race; re-read and retry.
	ErrVersionConflict = errors.New("store: version conflict")
	// ErrStateConflict: a conditional status transition found the record in
	// a different state than required.
	ErrStateConflict = errors.New("store: state conflict")
)

// ProductFilter narrows ListProducts. Zero values mean "no filter".
type ProductFilter struct {
	Category   string
	Gender     string
	ActiveOnly bool
}

// SaleFilter narrows ListSales. A zero Since means the whole ledger.
type SaleFilter struct {
	Since time.Time
}

// ProductStore owns the products table, including the embedded review list
// and the stock counters.
type ProductStore interface {
	Get(ctx context.Context, id string) (models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	// Put inserts a new product; ErrDuplicate if the id is taken.
	Put(ctx context.Context, p models.Product) error
	// Update rewrites the admin-editable product fields by id. Reviews and
	// their aggregates are only written through UpdateReviews.
	Update(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id string) error

	// CommitStock atomically decrements stock by qty and increments the
	// sales counter, only when stock >= qty. Returns the stock level after
	// the decrement. ErrInsufficientStock when the condition fails.
	CommitStock(ctx context.Context, id string, qty int, at time.Time) (int, error)
	// RestoreStock atomically increments stock by qty and decrements the
	// sales counter, flooring the counter at zero. Returns the product
	// after the update.
	RestoreStock(ctx context.Context, id string, qty int, at time.Time) (models.Product, error)
	// UpdateReviews replaces the embedded review list and rating aggregate,
	// conditional on the version read earlier. ErrVersionConflict when a
	// concurrent writer got there first.
	UpdateReviews(ctx context.Context, id string, version int, reviews []models.Review, averageRating float64, reviewCount int, at time.Time) error
}

// CartStore owns per-user cart lines, keyed by (userId, productId).
type CartStore interface {
	Get(ctx context.Context, userID, productID string) (models.CartItem, error)
	ListByUser(ctx context.Context, userID string) ([]models.CartItem, error)
	// ListByProduct supports the delete-product cascade check.
	ListByProduct(ctx context.Context, productID string) ([]models.CartItem, error)
	// Put inserts or replaces a cart line.
	Put(ctx context.Context, item models.CartItem) error
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int, at time.Time) error
	Delete(ctx context.Context, userID, productID string) error
}

// OrderStore owns orders. Status transitions are conditional writes so the
// pending precondition is enforced at the store, not only in the workflow.
type OrderStore interface {
	Get(ctx context.Context, orderID string) (models.Order, error)
	// ListByUser returns the user's orders newest first. status "" means
	// all statuses; limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID string, status models.OrderStatus, limit int) ([]models.Order, error)
	Put(ctx context.Context, o models.Order) error
	// Complete transitions pending -> completed with the audit fields.
	// ErrStateConflict when the order is not pending.
	Complete(ctx context.Context, orderID string, at time.Time, completedBy, saleID string) error
	// Cancel transitions pending -> cancelled, soft-deleting with audit
	// fields. ErrStateConflict when the order is not pending.
	Cancel(ctx context.Context, orderID string, at time.Time, cancelledBy, reason, adminNotes string) error
}

// SaleStore owns the sale ledger.
type SaleStore interface {
	Get(ctx context.Context, saleID string) (models.Sale, error)
	// List returns sales newest first by completion time.
	List(ctx context.Context, filter SaleFilter) ([]models.Sale, error)
	Put(ctx context.Context, s models.Sale) error
	// Cancel marks the sale cancelled with audit fields, conditional on it
	// not being cancelled already.
	Cancel(ctx context.Context, saleID string, at time.Time, cancelledBy, reason, adminNotes string, stockRestored bool) error
}
