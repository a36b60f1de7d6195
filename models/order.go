package models

import (
	"time"
)

// OrderStatus is the lifecycle state of an order. Transitions are
// one-directional: pending -> completed XOR pending -> cancelled.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// CustomerInfo is the contact data captured when the order is placed.
// Name and phone are required; the rest is optional.
type CustomerInfo struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Email           string `json:"email,omitempty"`
	UserID          string `json:"userId,omitempty"`
	ShippingAddress string `json:"shippingAddress,omitempty"`
	OrderNotes      string `json:"orderNotes,omitempty"`
}

// OrderItem is an immutable snapshot of one cart line at order creation.
// Category and gender are copied so sales statistics never need to look the
// product back up.
type OrderItem struct {
	ProductID       string  `json:"productId"`
	ProductName     string  `json:"productName"`
	ProductCategory string  `json:"productCategory"`
	ProductGender   string  `json:"productGender,omitempty"`
	ProductImageURL string  `json:"productImageUrl,omitempty"`
	UnitPrice       float64 `json:"unitPrice"`
	Quantity        int     `json:"quantity"`
	Subtotal        float64 `json:"subtotal"`
}

// OrderSummary holds the aggregated totals of an order or sale. Invariant:
// TotalAmount equals the sum of item subtotals at creation time.
type OrderSummary struct {
	TotalItems    int     `json:"totalItems"`
	TotalQuantity int     `json:"totalQuantity"`
	TotalAmount   float64 `json:"totalAmount"`
}

// Order is a customer's placed order, keyed by (orderId, createdAt). Stock
// is not committed while the order is pending; completion does that.
type Order struct {
	OrderID      string       `json:"orderId"`
	CreatedAt    time.Time    `json:"createdAt"`
	UserID       string       `json:"userId"`
	Status       OrderStatus  `json:"status"`
	CustomerInfo CustomerInfo `json:"customerInfo"`
	Items        []OrderItem  `json:"items"`
	Summary      OrderSummary `json:"summary"`

	PaymentMethod  string    `json:"paymentMethod,omitempty"`
	DeliveryMethod string    `json:"deliveryMethod,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`

	// Completion audit fields, set when status becomes completed.
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CompletedBy string     `json:"completedBy,omitempty"`
	SaleID      string     `json:"saleId,omitempty"`

	// Cancellation audit fields, set when status becomes cancelled. Orders
	// are soft-deleted so the record survives for auditing.
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancelledBy        string     `json:"cancelledBy,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty"`
	AdminNotes         string     `json:"adminNotes,omitempty"`
}
