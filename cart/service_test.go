package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/sportshop-backend/models"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/apperr"
	"gitlab.connectwisedev.com/sportshop-backend/store/memory"
)

func newTestService(t *testing.T) (*Service, *memory.ProductStore) {
	t.Helper()
	products := memory.NewProductStore()
	return NewService(memory.NewCartStore(), products, zap.NewNop()), products
}

func seedProduct(t *testing.T, products *memory.ProductStore, id string, price float64, stock int) {
	t.Helper()
	require.NoError(t, products.Put(context.Background(), models.Product{
		ID:        id,
		Category:  "zapatillas",
		Name:      "Producto " + id,
		Price:     price,
		Stock:     stock,
		Gender:    models.GenderUnisex,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}))
}

func TestAddNewItem(t *testing.T) {
	svc, products := newTestService(t)
	seedProduct(t, products, "P1", 19.99, 10)

	result, err := svc.Add(context.Background(), "user-1", AddInput{ProductID: "P1", Quantity: 2})
	require.NoError(t, err)

	assert.Equal(t, "added", result.Action)
	assert.Equal(t, 2, result.NewQuantity)
	assert.Equal(t, "Producto P1", result.ProductName)
	// Snapshot fields are copied from the product.
	assert.Equal(t, 19.99, result.Item.ProductPrice)
	assert.Equal(t, "zapatillas", result.Item.ProductCategory)
}

func TestAddDefaultsQuantityToOne(t *testing.T) {
	svc, products := newTestService(t)
	seedProduct(t, products, "P1", 10, 5)

	result, err := svc.Add(context.Background(), "user-1", AddInput{ProductID: "P1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewQuantity)
}

func TestAddMergesQuantities(t *testing.T) {
	svc, products := newTestService(t)
	seedProduct(t, products, "P1", 10, 10)
	ctx := context.Background()

	_, err := svc.Add(ctx, "user-1", AddInput{ProductID: "P1", Quantity: 2})
	require.NoError(t, err)

	result, err := svc.Add(ctx, "user-1", AddInput{ProductID: "P1", Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, "updated", result.Action)
	assert.Equal(t, 2, result.PreviousQuantity)
	assert.Equal(t, 5, result.NewQuantity)
}

func TestAddInsufficientStock(t *testing.T) {
	svc, products := newTestService(t)
	seedProduct(t, products, "P1", 10, 3)

	_, err := svc.Add(context.Background(), "user-1", AddInput{ProductID: "P1", Quantity: 5})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Insufficient stock", verr.Error())
	assert.Equal(t, 3, verr.Fields()["availableStock"])
}

func TestAddMergeExceedsStock(t *testing.T) {
	svc, products := newTestService(t)
	seedProduct(t, products, "P1", 10, 5)
	ctx := context.Background()

	_, err := svc.Add(ctx, "user-1", AddInput{ProductID: "P1", Quantity: 4})
	require.NoError(t, err)

	_, err = svc.Add(ctx, "user-1", AddInput{ProductID: "P1", Quantity: 2})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Insufficient stock for total quantity", verr.Error())
	assert.Equal(t, 4, verr.Fields()["currentInCart"])
	assert.Equal(t, 6, verr.Fields()["totalRequested"])

	// The existing line keeps its old quantity.
	view, getErr := svc.Get(ctx, "user-1")
	require.NoError(t, getErr)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 4, view.Items[0].Quantity)
}

func TestAddUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Add(context.Background(), "user-1", AddInput{ProductID: "NOPE"})
	var nerr *apperr.NotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestUpdateQuantity(t *testing.T) {
	svc, products := newTestService(t)
	seedProduct(t, products, "P1", 10, 10)
	ctx := context.Background()

	_, err := svc.Add(ctx, "user-1", AddInput{ProductID: "P1", Quantity: 2})
	require.NoError(t, err)

	item, err := svc.UpdateQuantity(ctx, "user-1", "P1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, item.Quantity)
}

func TestUpdateQuantityValidation(t *testing.T) {
	svc, products := newTestService(t)
	seedProduct(t, products, "P1", 10, 10)
	ctx := context.Background()

	_, err := svc.Add(ctx, "user-1", AddInput{ProductID: "P1", Quantity: 2})
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, "user-1", "P1", 0)
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.UpdateQuantity(ctx, "user-1", "P1", 11)
	require.ErrorAs(t, err, &verr)

	_, err = svc.UpdateQuantity(ctx, "user-1", "MISSING", 1)
	var nerr *apperr.NotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestRemove(t *testing.T) {
	svc, products := newTestService(t)
	seedProduct(t, products, "P1", 10, 10)
	ctx := context.Background()

	_, err := svc.Add(ctx, "user-1", AddInput{ProductID: "P1", Quantity: 3})
	require.NoError(t, err)

	removed, err := svc.Remove(ctx, "user-1", "P1")
	require.NoError(t, err)
	assert.Equal(t, "P1", removed.ProductID)
	assert.Equal(t, 3, removed.Quantity)

	view, err := svc.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, view.Summary.IsEmpty)

	_, err = svc.Remove(ctx, "user-1", "P1")
	var nerr *apperr.NotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestGetAggregatesCart(t *testing.T) {
	svc, products := newTestService(t)
	seedProduct(t, products, "P1", 19.99, 10)
	seedProduct(t, products, "P2", 5.50, 10)
	ctx := context.Background()

	_, err := svc.Add(ctx, "user-1", AddInput{ProductID: "P1", Quantity: 2})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "user-1", AddInput{ProductID: "P2", Quantity: 3})
	require.NoError(t, err)

	view, err := svc.Get(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 2, view.Summary.TotalItems)
	assert.Equal(t, 5, view.Summary.TotalQuantity)
	assert.Equal(t, 56.48, view.Summary.TotalPrice) // 39.98 + 16.50
	assert.False(t, view.Summary.IsEmpty)
	assert.Equal(t, 5, view.CategoryBreakdown["zapatillas"].TotalQuantity)
}

func TestGetEmptyCart(t *testing.T) {
	svc, _ := newTestService(t)

	view, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotNil(t, view.Items)
	assert.Empty(t, view.Items)
	assert.True(t, view.Summary.IsEmpty)
	assert.Zero(t, view.Summary.TotalPrice)
}
