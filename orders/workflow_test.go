package orders

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

type fixture struct {
	service  *Service
	products *memory.ProductStore
	carts    *memory.CartStore
	orders   *memory.OrderStore
	sales    *memory.SaleStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		products: memory.NewProductStore(),
		carts:    memory.NewCartStore(),
		orders:   memory.NewOrderStore(),
		sales:    memory.NewSaleStore(),
	}
	f.service = NewService(f.orders, f.sales, f.carts, f.products, zap.NewNop())
	return f
}

func (f *fixture) seedProduct(t *testing.T, id string, price float64, stock int) models.Product {
	t.Helper()
	p := models.Product{
		ID:        id,
		Category:  "zapatillas",
		Name:      "Producto " + id,
		Price:     price,
		Stock:     stock,
		Gender:    models.GenderUnisex,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.products.Put(context.Background(), p))
	return p
}

func (f *fixture) seedCartLine(t *testing.T, userID string, p models.Product, qty int) {
	t.Helper()
	require.NoError(t, f.carts.Put(context.Background(), models.CartItem{
		UserID:          userID,
		ProductID:       p.ID,
		Quantity:        qty,
		ProductName:     p.Name,
		ProductPrice:    p.Price,
		ProductCategory: p.Category,
		AddedAt:         time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}))
}

func validCustomer() models.CustomerInfo {
	return models.CustomerInfo{Name: "Maria Lopez", Phone: "+54 11 5555-0001"}
}

func TestCreateOrderFromCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p1 := f.seedProduct(t, "PROD1", 10.00, 5)
	p2 := f.seedProduct(t, "PROD2", 25.50, 3)
	f.seedCartLine(t, "user-1", p1, 2)
	f.seedCartLine(t, "user-1", p2, 1)

	order, err := f.service.Create(ctx, "user-1", "maria@example.com", CreateInput{CustomerInfo: validCustomer()})
	require.NoError(t, err)

	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{6}$`, order.OrderID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, 2, order.Summary.TotalItems)
	assert.Equal(t, 3, order.Summary.TotalQuantity)
	assert.Equal(t, 45.50, order.Summary.TotalAmount)
	assert.Equal(t, "maria@example.com", order.CustomerInfo.Email)
	assert.Equal(t, "user-1", order.CustomerInfo.UserID)

	// The cart is cleared once the order exists.
	items, err := f.carts.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, items)

	// Stock is untouched until completion.
	got, err := f.products.Get(ctx, "PROD1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
}

func TestCreateOrderUsesCartPriceSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.seedProduct(t, "PROD1", 10.00, 5)
	f.seedCartLine(t, "user-1", p, 2)

	// Price change after add-to-cart must not affect the checkout total.
	p.Price = 15.00
	require.NoError(t, f.products.Update(ctx, p))

	order, err := f.service.Create(ctx, "user-1", "", CreateInput{CustomerInfo: validCustomer()})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 10.00, order.Items[0].UnitPrice)
	assert.Equal(t, 20.00, order.Items[0].Subtotal)
	assert.Equal(t, 20.00, order.Summary.TotalAmount)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), "user-1", "", CreateInput{CustomerInfo: validCustomer()})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "empty cart")
}

func TestCreateOrderMissingCustomerInfo(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "PROD1", 10, 5)
	f.seedCartLine(t, "user-1", p, 1)

	_, err := f.service.Create(context.Background(), "user-1", "", CreateInput{
		CustomerInfo: models.CustomerInfo{Name: "Maria Lopez"},
	})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCreateOrderReportsEveryStockIssue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p1 := f.seedProduct(t, "PROD1", 10, 1)
	p2 := f.seedProduct(t, "PROD2", 20, 5)
	f.seedCartLine(t, "user-1", p1, 3) // short
	f.seedCartLine(t, "user-1", p2, 2) // fine
	f.seedCartLine(t, "user-1", models.Product{ID: "GONE", Name: "Borrado", Price: 1}, 1)

	_, err := f.service.Create(ctx, "user-1", "", CreateInput{CustomerInfo: validCustomer()})
	var serr *apperr.StockConflictError
	require.ErrorAs(t, err, &serr)
	assert.Len(t, serr.Issues, 2)

	// All or nothing: no order was created and the cart survives.
	items, listErr := f.carts.ListByUser(ctx, "user-1")
	require.NoError(t, listErr)
	assert.Len(t, items, 3)
}

func TestCompleteOrderCommitsStockAndWritesSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p1 := f.seedProduct(t, "P1", 10.00, 5)
	f.seedCartLine(t, "user-1", p1, 2)

	order, err := f.service.Create(ctx, "user-1", "maria@example.com", CreateInput{CustomerInfo: validCustomer()})
	require.NoError(t, err)

	// Creation leaves stock alone.
	got, err := f.products.Get(ctx, "P1")
	require.NoError(t, err)
	require.Equal(t, 5, got.Stock)

	result, err := f.service.Complete(ctx, order.OrderID, "admin@shop.com", CompleteInput{})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCompleted, result.Order.Status)
	assert.Equal(t, "admin@shop.com", result.Order.CompletedBy)
	assert.Empty(t, result.StockErrors)

	require.Len(t, result.StockUpdates, 1)
	assert.Equal(t, 5, result.StockUpdates[0].PreviousStock)
	assert.Equal(t, 3, result.StockUpdates[0].NewStock)

	got, err = f.products.Get(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
	assert.Equal(t, 2, got.SalesCount)
	assert.NotNil(t, got.LastSold)

	sale, err := f.sales.Get(ctx, result.Sale.SaleID)
	require.NoError(t, err)
	assert.Regexp(t, `^SALE-\d{8}-[0-9A-F]{6}$`, sale.SaleID)
	assert.Equal(t, order.OrderID, sale.OriginalOrderID)
	assert.Equal(t, models.SaleStatusCompleted, sale.Status)
	assert.Equal(t, 20.00, sale.Summary.TotalAmount)
	assert.Equal(t, "pickup", sale.DeliveryMethod)
	assert.Equal(t, "cash", sale.PaymentMethod)

	stored, err := f.orders.Get(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, sale.SaleID, stored.SaleID)
}

func TestCompleteOrderNotPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.seedProduct(t, "P1", 10, 5)
	f.seedCartLine(t, "user-1", p, 1)
	order, err := f.service.Create(ctx, "user-1", "", CreateInput{CustomerInfo: validCustomer()})
	require.NoError(t, err)

	_, err = f.service.Complete(ctx, order.OrderID, "admin@shop.com", CompleteInput{})
	require.NoError(t, err)

	// Second completion is rejected and changes nothing.
	_, err = f.service.Complete(ctx, order.OrderID, "admin@shop.com", CompleteInput{})
	var serr *apperr.InvalidStateError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Error(), "completed")

	got, getErr := f.products.Get(ctx, "P1")
	require.NoError(t, getErr)
	assert.Equal(t, 4, got.Stock)
}

func TestCompleteOrderRevalidatesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.seedProduct(t, "P1", 10, 5)
	f.seedCartLine(t, "user-1", p, 4)
	order, err := f.service.Create(ctx, "user-1", "", CreateInput{CustomerInfo: validCustomer()})
	require.NoError(t, err)

	// Stock drained between creation and completion.
	_, err = f.products.CommitStock(ctx, "P1", 3, time.Now().UTC())
	require.NoError(t, err)

	_, err = f.service.Complete(ctx, order.OrderID, "admin@shop.com", CompleteInput{})
	var serr *apperr.StockConflictError
	require.ErrorAs(t, err, &serr)
	require.Len(t, serr.Issues, 1)
	assert.Equal(t, 2, serr.Issues[0].AvailableStock)

	// The order stays pending and no sale was recorded.
	got, getErr := f.orders.Get(ctx, order.OrderID)
	require.NoError(t, getErr)
	assert.Equal(t, models.OrderStatusPending, got.Status)
}

func TestCompleteOrderNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Complete(context.Background(), "ORD-20260101-FFFFFF", "admin@shop.com", CompleteInput{})
	var nerr *apperr.NotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestCancelOrderSoftDeletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.seedProduct(t, "P1", 10, 5)
	f.seedCartLine(t, "user-1", p, 2)
	order, err := f.service.Create(ctx, "user-1", "", CreateInput{CustomerInfo: validCustomer()})
	require.NoError(t, err)

	cancelled, err := f.service.CancelOrder(ctx, order.OrderID, "admin@shop.com", CancelOrderInput{Reason: "Customer request"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, "Customer request", cancelled.CancellationReason)
	assert.NotNil(t, cancelled.CancelledAt)

	// The record survives; no stock was committed, so none is restored.
	stored, err := f.orders.Get(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, stored.Status)

	got, err := f.products.Get(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
}

func TestCancelOrderDefaultsReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.seedProduct(t, "P1", 10, 5)
	f.seedCartLine(t, "user-1", p, 1)
	order, err := f.service.Create(ctx, "user-1", "", CreateInput{CustomerInfo: validCustomer()})
	require.NoError(t, err)

	cancelled, err := f.service.CancelOrder(ctx, order.OrderID, "admin@shop.com", CancelOrderInput{})
	require.NoError(t, err)
	assert.Equal(t, "Cancelled by admin", cancelled.CancellationReason)
}

func TestCancelOrderNotPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.seedProduct(t, "P1", 10, 5)
	f.seedCartLine(t, "user-1", p, 1)
	order, err := f.service.Create(ctx, "user-1", "", CreateInput{CustomerInfo: validCustomer()})
	require.NoError(t, err)

	_, err = f.service.CancelOrder(ctx, order.OrderID, "admin@shop.com", CancelOrderInput{})
	require.NoError(t, err)

	_, err = f.service.CancelOrder(ctx, order.OrderID, "admin@shop.com", CancelOrderInput{})
	var serr *apperr.InvalidStateError
	require.ErrorAs(t, err, &serr)
}

func TestCancelSaleRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.seedProduct(t, "P1", 10, 5)
	f.seedCartLine(t, "user-1", p, 2)
	order, err := f.service.Create(ctx, "user-1", "", CreateInput{CustomerInfo: validCustomer()})
	require.NoError(t, err)
	completed, err := f.service.Complete(ctx, order.OrderID, "admin@shop.com", CompleteInput{})
	require.NoError(t, err)

	result, err := f.service.CancelSale(ctx, completed.Sale.SaleID, "admin@shop.com", CancelSaleInput{})
	require.NoError(t, err)

	assert.True(t, result.StockRestored)
	assert.Empty(t, result.RestoreErrors)
	require.Len(t, result.Restored, 1)
	assert.Equal(t, 2, result.Restored[0].QuantityRestored)
	assert.Equal(t, 5, result.Restored[0].NewStock)
	assert.Equal(t, "Sale cancelled by admin", result.Sale.CancellationReason)

	got, err := f.products.Get(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
	assert.Equal(t, 0, got.SalesCount)
	assert.NotNil(t, got.LastRestocked)

	// The original order keeps its completed status.
	stored, err := f.orders.Get(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, stored.Status)
}

func TestCancelSaleWithoutRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.seedProduct(t, "P1", 10, 5)
	f.seedCartLine(t, "user-1", p, 2)
	order, err := f.service.Create(ctx, "user-1", "", CreateInput{CustomerInfo: validCustomer()})
	require.NoError(t, err)
	completed, err := f.service.Complete(ctx, order.OrderID, "admin@shop.com", CompleteInput{})
	require.NoError(t, err)

	noRestore := false
	result, err := f.service.CancelSale(ctx, completed.Sale.SaleID, "admin@shop.com", CancelSaleInput{RestoreStock: &noRestore})
	require.NoError(t, err)
	assert.False(t, result.StockRestored)
	assert.Empty(t, result.Restored)

	got, err := f.products.Get(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
}

func TestCancelSaleAlreadyCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.seedProduct(t, "P1", 10, 5)
	f.seedCartLine(t, "user-1", p, 1)
	order, err := f.service.Create(ctx, "user-1", "", CreateInput{CustomerInfo: validCustomer()})
	require.NoError(t, err)
	completed, err := f.service.Complete(ctx, order.OrderID, "admin@shop.com", CompleteInput{})
	require.NoError(t, err)

	_, err = f.service.CancelSale(ctx, completed.Sale.SaleID, "admin@shop.com", CancelSaleInput{})
	require.NoError(t, err)

	_, err = f.service.CancelSale(ctx, completed.Sale.SaleID, "admin@shop.com", CancelSaleInput{})
	var serr *apperr.InvalidStateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Sale is already cancelled", serr.Error())

	// A double cancel must not restore stock twice.
	got, getErr := f.products.Get(ctx, "P1")
	require.NoError(t, getErr)
	assert.Equal(t, 5, got.Stock)
}

func TestCancelSaleSkipsDeletedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p1 := f.seedProduct(t, "P1", 10, 5)
	p2 := f.seedProduct(t, "P2", 20, 5)
	f.seedCartLine(t, "user-1", p1, 1)
	f.seedCartLine(t, "user-1", p2, 1)
	order, err := f.service.Create(ctx, "user-1", "", CreateInput{CustomerInfo: validCustomer()})
	require.NoError(t, err)
	completed, err := f.service.Complete(ctx, order.OrderID, "admin@shop.com", CompleteInput{})
	require.NoError(t, err)

	require.NoError(t, f.products.Delete(ctx, "P2"))

	result, err := f.service.CancelSale(ctx, completed.Sale.SaleID, "admin@shop.com", CancelSaleInput{})
	require.NoError(t, err)
	assert.Len(t, result.Restored, 1)
	require.Len(t, result.RestoreErrors, 1)
	assert.Equal(t, "P2", result.RestoreErrors[0].ProductID)

	// The surviving product still got its stock back.
	got, getErr := f.products.Get(ctx, "P1")
	require.NoError(t, getErr)
	assert.Equal(t, 5, got.Stock)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.seedProduct(t, "P1", 10, 50)
	for i := 0; i < 3; i++ {
		f.seedCartLine(t, "user-1", p, 1)
		order, err := f.service.Create(ctx, "user-1", "", CreateInput{CustomerInfo: validCustomer()})
		require.NoError(t, err)
		if i == 0 {
			_, err = f.service.Complete(ctx, order.OrderID, "admin@shop.com", CompleteInput{})
			require.NoError(t, err)
		}
	}

	page, err := f.service.ListOrders(ctx, "user-1", "", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)
	assert.Equal(t, 2, page.StatusBreakdown["pending"].Count)
	assert.Equal(t, 20.0, page.StatusBreakdown["pending"].TotalAmount)
	assert.Equal(t, 1, page.StatusBreakdown["completed"].Count)

	pending, err := f.service.ListOrders(ctx, "user-1", models.OrderStatusPending, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, pending.Count)

	limited, err := f.service.ListOrders(ctx, "user-1", "", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, limited.Count)

	_, err = f.service.ListOrders(ctx, "user-1", "shipped", 10)
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
}
