// Package orders implements the order lifecycle and the sale ledger. Stock
// is validated when an order is created but only committed when an admin
// completes it, so abandoned orders never strand inventory.
package orders

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/sportshop-backend/models"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/apperr"
	"gitlab.connectwisedev.com/sportshop-backend/store"
)

const (
	defaultDeliveryMethod = "pickup"
	defaultPaymentMethod  = "cash"
)

// Service runs the order workflow against the four stores. The store has no
// multi-record transactions, so completion is a sequence of individually
// committed conditional writes; partial failures are logged and surfaced in
// the result rather than rolled back.
type Service struct {
	orders   store.OrderStore
	sales    store.SaleStore
	carts    store.CartStore
	products store.ProductStore
	log      *zap.Logger
}

func NewService(orders store.OrderStore, sales store.SaleStore, carts store.CartStore, products store.ProductStore, log *zap.Logger) *Service {
	return &Service{orders: orders, sales: sales, carts: carts, products: products, log: log}
}

// CreateInput is the checkout payload. The user identity comes from the
// token; the body only carries contact data and fulfilment choices.
type CreateInput struct {
	CustomerInfo   models.CustomerInfo `json:"customerInfo"`
	PaymentMethod  string              `json:"paymentMethod,omitempty"`
	DeliveryMethod string              `json:"deliveryMethod,omitempty"`
}

// Create turns the user's whole cart into a pending order. Every line is
// validated against current stock and the call fails with the full issue
// list if any line is short; stock itself is not decremented here. The cart
// is cleared afterwards, tolerating per-line failures.
func (s *Service) Create(ctx context.Context, userID, email string, input CreateInput) (models.Order, error) {
	if input.CustomerInfo.Name == "" || input.CustomerInfo.Phone == "" {
		return models.Order{}, apperr.NewValidation("Customer name and phone are required")
	}

	items, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return models.Order{}, apperr.NewInternal("Failed to read cart", err)
	}
	if len(items) == 0 {
		return models.Order{}, apperr.NewValidation("Cannot create order with empty cart")
	}

	var (
		orderItems []models.OrderItem
		issues     []apperr.StockIssue
		summary    models.OrderSummary
	)
	for _, line := range items {
		product, err := s.products.Get(ctx, line.ProductID)
		if err == store.ErrNotFound {
			issues = append(issues, apperr.StockIssue{
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Issue:       "Product no longer exists",
			})
			continue
		}
		if err != nil {
			return models.Order{}, apperr.NewInternal("Failed to load product", err)
		}
		if product.Stock < line.Quantity {
			issues = append(issues, apperr.StockIssue{
				ProductID:         product.ID,
				ProductName:       product.Name,
				Issue:             "Insufficient stock",
				RequestedQuantity: line.Quantity,
				AvailableStock:    product.Stock,
			})
			continue
		}

		// Order lines carry the price and name the user saw in the cart,
		// not whatever the product record says at checkout time.
		subtotal := round2(line.ProductPrice * float64(line.Quantity))
		orderItems = append(orderItems, models.OrderItem{
			ProductID:       line.ProductID,
			ProductName:     line.ProductName,
			ProductCategory: line.ProductCategory,
			ProductGender:   product.Gender,
			ProductImageURL: line.ProductImageURL,
			UnitPrice:       line.ProductPrice,
			Quantity:        line.Quantity,
			Subtotal:        subtotal,
		})
		summary.TotalItems++
		summary.TotalQuantity += line.Quantity
		summary.TotalAmount = round2(summary.TotalAmount + subtotal)
	}
	if len(issues) > 0 {
		// All or nothing: one short line rejects the whole checkout.
		return models.Order{}, apperr.NewStockConflict("Some items in your cart are unavailable", issues)
	}

	now := time.Now().UTC()
	info := input.CustomerInfo
	info.UserID = userID
	if info.Email == "" {
		info.Email = email
	}

	order := models.Order{
		OrderID:        newOrderID(now),
		CreatedAt:      now,
		UserID:         userID,
		Status:         models.OrderStatusPending,
		CustomerInfo:   info,
		Items:          orderItems,
		Summary:        summary,
		PaymentMethod:  input.PaymentMethod,
		DeliveryMethod: input.DeliveryMethod,
		UpdatedAt:      now,
	}
	if err := s.orders.Put(ctx, order); err != nil {
		return models.Order{}, apperr.NewInternal("Failed to create order", err)
	}

	// The order is already committed; a cart line that refuses to go away
	// is not worth failing the checkout over.
	for _, line := range items {
		if err := s.carts.Delete(ctx, userID, line.ProductID); err != nil && err != store.ErrNotFound {
			s.log.Warn("failed to clear cart line after order creation",
				zap.String("order_id", order.OrderID),
				zap.String("product_id", line.ProductID),
				zap.Error(err))
		}
	}

	s.log.Info("order created",
		zap.String("order_id", order.OrderID),
		zap.String("user_id", userID),
		zap.Int("items", summary.TotalItems),
		zap.Float64("total", summary.TotalAmount))
	return order, nil
}

// CompleteInput carries the fulfilment details an admin records when
// closing an order.
type CompleteInput struct {
	DeliveryMethod string `json:"deliveryMethod,omitempty"`
	PaymentMethod  string `json:"paymentMethod,omitempty"`
	AdminNotes     string `json:"adminNotes,omitempty"`
}

// StockUpdate reports one product's stock commit during order completion.
type StockUpdate struct {
	ProductID     string `json:"productId"`
	ProductName   string `json:"productName"`
	QuantitySold  int    `json:"quantitySold"`
	PreviousStock int    `json:"previousStock"`
	NewStock      int    `json:"newStock"`
}

// CompleteResult is the completion outcome: the sale record plus the
// per-product stock commits, including the ones that failed.
type CompleteResult struct {
	Order        models.Order        `json:"order"`
	Sale         models.Sale         `json:"sale"`
	StockUpdates []StockUpdate       `json:"stockUpdates"`
	StockErrors  []apperr.StockIssue `json:"stockErrors,omitempty"`
}

// Complete finishes a pending order: it writes the sale record, commits
// stock per line, and flips the order to completed. The three steps commit
// independently; a line whose stock commit fails is reported in StockErrors
// but does not undo the sale.
func (s *Service) Complete(ctx context.Context, orderID, completedBy string, input CompleteInput) (CompleteResult, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err == store.ErrNotFound {
		return CompleteResult{}, orderNotFound(orderID)
	}
	if err != nil {
		return CompleteResult{}, apperr.NewInternal("Failed to load order", err)
	}
	if order.Status != models.OrderStatusPending {
		return CompleteResult{}, apperr.NewInvalidState(
			fmt.Sprintf("Order cannot be completed. Current status: %s", order.Status),
			string(order.Status))
	}

	// Re-validate stock before committing anything; the order may be old.
	previousStock := make(map[string]int, len(order.Items))
	var issues []apperr.StockIssue
	for _, item := range order.Items {
		product, err := s.products.Get(ctx, item.ProductID)
		if err == store.ErrNotFound {
			issues = append(issues, apperr.StockIssue{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Issue:       "Product no longer exists",
			})
			continue
		}
		if err != nil {
			return CompleteResult{}, apperr.NewInternal("Failed to load product", err)
		}
		if product.Stock < item.Quantity {
			issues = append(issues, apperr.StockIssue{
				ProductID:         product.ID,
				ProductName:       product.Name,
				Issue:             "Insufficient stock",
				RequestedQuantity: item.Quantity,
				AvailableStock:    product.Stock,
			})
			continue
		}
		previousStock[item.ProductID] = product.Stock
	}
	if len(issues) > 0 {
		return CompleteResult{}, apperr.NewStockConflict("Cannot complete order due to stock issues", issues)
	}

	now := time.Now().UTC()
	deliveryMethod := orDefault(input.DeliveryMethod, orDefault(order.DeliveryMethod, defaultDeliveryMethod))
	paymentMethod := orDefault(input.PaymentMethod, orDefault(order.PaymentMethod, defaultPaymentMethod))

	sale := models.Sale{
		SaleID:            newSaleID(now),
		CompletedAt:       now,
		OriginalOrderID:   order.OrderID,
		UserID:            order.UserID,
		CustomerName:      order.CustomerInfo.Name,
		CustomerEmail:     order.CustomerInfo.Email,
		Items:             order.Items,
		Summary:           order.Summary,
		Status:            models.SaleStatusCompleted,
		CompletedBy:       completedBy,
		DeliveryMethod:    deliveryMethod,
		PaymentMethod:     paymentMethod,
		AdminNotes:        input.AdminNotes,
		OriginalOrderDate: order.CreatedAt,
	}

	// Step 1: the sale record. If this fails nothing has changed yet.
	if err := s.sales.Put(ctx, sale); err != nil {
		return CompleteResult{}, apperr.NewInternal("Failed to record sale", err)
	}

	// Step 2: commit stock per line. Each commit is conditional, so a
	// concurrent completion cannot oversell; a failed line is surfaced
	// instead of aborting the ones that already committed.
	result := CompleteResult{Sale: sale}
	for _, item := range order.Items {
		newStock, err := s.products.CommitStock(ctx, item.ProductID, item.Quantity, now)
		if err != nil {
			s.log.Error("stock commit failed during order completion",
				zap.String("order_id", orderID),
				zap.String("sale_id", sale.SaleID),
				zap.String("product_id", item.ProductID),
				zap.Error(err))
			issue := apperr.StockIssue{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Issue:       "Stock update failed",
			}
			if err == store.ErrInsufficientStock {
				issue.Issue = "Insufficient stock"
				issue.RequestedQuantity = item.Quantity
			}
			result.StockErrors = append(result.StockErrors, issue)
			continue
		}
		result.StockUpdates = append(result.StockUpdates, StockUpdate{
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			QuantitySold:  item.Quantity,
			PreviousStock: previousStock[item.ProductID],
			NewStock:      newStock,
		})
	}

	// Step 3: flip the order. A state conflict here means another admin
	// completed or cancelled it between our read and now.
	if err := s.orders.Complete(ctx, orderID, now, completedBy, sale.SaleID); err != nil {
		if err == store.ErrStateConflict {
			return CompleteResult{}, apperr.NewInvalidState(
				"Order was modified concurrently and is no longer pending", "")
		}
		if err == store.ErrNotFound {
			return CompleteResult{}, orderNotFound(orderID)
		}
		return CompleteResult{}, apperr.NewInternal("Failed to mark order completed", err)
	}

	order.Status = models.OrderStatusCompleted
	order.CompletedAt = &now
	order.CompletedBy = completedBy
	order.SaleID = sale.SaleID
	order.UpdatedAt = now
	order.DeliveryMethod = deliveryMethod
	order.PaymentMethod = paymentMethod
	result.Order = order

	s.log.Info("order completed",
		zap.String("order_id", orderID),
		zap.String("sale_id", sale.SaleID),
		zap.String("completed_by", completedBy),
		zap.Int("stock_errors", len(result.StockErrors)))
	return result, nil
}

// CancelOrderInput is the admin payload for cancelling a pending order.
type CancelOrderInput struct {
	Reason     string `json:"reason,omitempty"`
	AdminNotes string `json:"adminNotes,omitempty"`
}

// CancelOrder soft-deletes a pending order. The record stays with the
// audit fields filled in; stock was never committed, so none is restored.
func (s *Service) CancelOrder(ctx context.Context, orderID, cancelledBy string, input CancelOrderInput) (models.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err == store.ErrNotFound {
		return models.Order{}, orderNotFound(orderID)
	}
	if err != nil {
		return models.Order{}, apperr.NewInternal("Failed to load order", err)
	}
	if order.Status != models.OrderStatusPending {
		return models.Order{}, apperr.NewInvalidState(
			fmt.Sprintf("Order cannot be cancelled. Current status: %s", order.Status),
			string(order.Status))
	}

	reason := orDefault(input.Reason, "Cancelled by admin")
	now := time.Now().UTC()
	if err := s.orders.Cancel(ctx, orderID, now, cancelledBy, reason, input.AdminNotes); err != nil {
		if err == store.ErrStateConflict {
			return models.Order{}, apperr.NewInvalidState(
				"Order was modified concurrently and is no longer pending", "")
		}
		if err == store.ErrNotFound {
			return models.Order{}, orderNotFound(orderID)
		}
		return models.Order{}, apperr.NewInternal("Failed to cancel order", err)
	}

	order.Status = models.OrderStatusCancelled
	order.CancelledAt = &now
	order.CancelledBy = cancelledBy
	order.CancellationReason = reason
	order.AdminNotes = input.AdminNotes
	order.UpdatedAt = now

	s.log.Info("order cancelled",
		zap.String("order_id", orderID),
		zap.String("cancelled_by", cancelledBy),
		zap.String("reason", reason))
	return order, nil
}

// StatusTotals is one entry of the per-status order breakdown.
type StatusTotals struct {
	Count       int     `json:"count"`
	TotalAmount float64 `json:"totalAmount"`
}

// OrdersPage is the user's order listing, newest first, with a status
// breakdown over the returned page.
type OrdersPage struct {
	Orders          []models.Order          `json:"orders"`
	Count           int                     `json:"count"`
	StatusBreakdown map[string]StatusTotals `json:"statusBreakdown"`
}

func (s *Service) ListOrders(ctx context.Context, userID string, status models.OrderStatus, limit int) (OrdersPage, error) {
	if status != "" && status != models.OrderStatusPending &&
		status != models.OrderStatusCompleted && status != models.OrderStatusCancelled {
		return OrdersPage{}, apperr.NewValidationWithFields("Invalid status filter",
			map[string]interface{}{"validStatuses": []string{"pending", "completed", "cancelled"}})
	}

	orders, err := s.orders.ListByUser(ctx, userID, status, limit)
	if err != nil {
		return OrdersPage{}, apperr.NewInternal("Failed to list orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}

	breakdown := map[string]StatusTotals{}
	for _, o := range orders {
		totals := breakdown[string(o.Status)]
		totals.Count++
		totals.TotalAmount = round2(totals.TotalAmount + o.Summary.TotalAmount)
		breakdown[string(o.Status)] = totals
	}
	return OrdersPage{Orders: orders, Count: len(orders), StatusBreakdown: breakdown}, nil
}

func orderNotFound(orderID string) *apperr.NotFoundError {
	return apperr.NewNotFoundWithFields("Order not found",
		map[string]interface{}{"orderId": orderID})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// newOrderID returns IDs like ORD-20260829-3F2A1C.
func newOrderID(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), randomSuffix())
}

// newSaleID returns IDs like SALE-20260829-9B04E7.
func newSaleID(now time.Time) string {
	return fmt.Sprintf("SALE-%s-%s", now.Format("20060102"), randomSuffix())
}

func randomSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}
