package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.connectwisedev.com/sportshop-backend/models"
	"gitlab.connectwisedev.com/sportshop-backend/store"
)

func seed(t *testing.T, s *ProductStore, id string, stock int) {
	t.Helper()
	require.NoError(t, s.Put(context.Background(), models.Product{
		ID: id, Category: "zapatillas", Name: "Producto", Price: 10,
		Stock: stock, Gender: models.GenderUnisex, IsActive: true,
	}))
}

func TestCommitStockConditional(t *testing.T) {
	s := NewProductStore()
	ctx := context.Background()
	seed(t, s, "P1", 5)
	now := time.Now().UTC()

	newStock, err := s.CommitStock(ctx, "P1", 3, now)
	require.NoError(t, err)
	assert.Equal(t, 2, newStock)

	// Short by one: the write must not go through at all.
	_, err = s.CommitStock(ctx, "P1", 3, now)
	assert.ErrorIs(t, err, store.ErrInsufficientStock)

	got, err := s.Get(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
	assert.Equal(t, 3, got.SalesCount)

	_, err = s.CommitStock(ctx, "MISSING", 1, now)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRestoreStockFloorsSalesCount(t *testing.T) {
	s := NewProductStore()
	ctx := context.Background()
	seed(t, s, "P1", 5)
	now := time.Now().UTC()

	// Restoring more than was ever sold must not drive salesCount negative.
	p, err := s.RestoreStock(ctx, "P1", 4, now)
	require.NoError(t, err)
	assert.Equal(t, 9, p.Stock)
	assert.Equal(t, 0, p.SalesCount)
	assert.NotNil(t, p.LastRestocked)
}

func TestUpdateReviewsVersionCheck(t *testing.T) {
	s := NewProductStore()
	ctx := context.Background()
	seed(t, s, "P1", 5)
	now := time.Now().UTC()

	reviews := []models.Review{{ReviewID: "REV-1", UserID: "u1", Rating: 5, CreatedAt: now}}
	require.NoError(t, s.UpdateReviews(ctx, "P1", 0, reviews, 5.0, 1, now))

	// Stale version loses.
	err := s.UpdateReviews(ctx, "P1", 0, nil, 0, 0, now)
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	got, err := s.Get(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.Len(t, got.Reviews, 1)
}

func TestUpdateLeavesReviewsAlone(t *testing.T) {
	s := NewProductStore()
	ctx := context.Background()
	seed(t, s, "P1", 5)
	now := time.Now().UTC()

	stale, err := s.Get(ctx, "P1")
	require.NoError(t, err)

	// A review lands between the admin's read and their write.
	reviews := []models.Review{{ReviewID: "REV-1", UserID: "u1", Rating: 4, CreatedAt: now}}
	require.NoError(t, s.UpdateReviews(ctx, "P1", 0, reviews, 4.0, 1, now))

	stale.Price = 12.50
	require.NoError(t, s.Update(ctx, stale))

	got, err := s.Get(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 12.50, got.Price)
	assert.Len(t, got.Reviews, 1)
	assert.Equal(t, 4.0, got.AverageRating)
	assert.Equal(t, 1, got.ReviewCount)
	assert.Equal(t, 1, got.Version)
}

func TestPutDuplicate(t *testing.T) {
	s := NewProductStore()
	ctx := context.Background()
	seed(t, s, "P1", 5)

	err := s.Put(ctx, models.Product{ID: "P1", Name: "Otro", Price: 1, Gender: models.GenderUnisex})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewProductStore()
	ctx := context.Background()
	seed(t, s, "P1", 5)

	got, err := s.Get(ctx, "P1")
	require.NoError(t, err)
	got.Stock = 999
	got.Reviews = append(got.Reviews, models.Review{ReviewID: "REV-X"})

	again, err := s.Get(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 5, again.Stock)
	assert.Empty(t, again.Reviews)
}
