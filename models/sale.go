package models

import (
	"time"
)

// SaleStatus is the lifecycle state of a sale record.
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// Sale is the immutable record of a fulfilled order, keyed by
// (saleId, completedAt). Items and summary are snapshot copies of the order
// at completion time; cancelling a sale restores stock without touching the
// original order.
type Sale struct {
	SaleID          string       `json:"saleId"`
	CompletedAt     time.Time    `json:"completedAt"`
	OriginalOrderID string       `json:"originalOrderId"`
	UserID          string       `json:"userId,omitempty"`
	CustomerName    string       `json:"customerName,omitempty"`
	CustomerEmail   string       `json:"customerEmail,omitempty"`
	Items           []OrderItem  `json:"items"`
	Summary         OrderSummary `json:"summary"`
	Status          SaleStatus   `json:"status"`

	CompletedBy       string    `json:"completedBy,omitempty"`
	DeliveryMethod    string    `json:"deliveryMethod,omitempty"`
	PaymentMethod     string    `json:"paymentMethod,omitempty"`
	AdminNotes        string    `json:"adminNotes,omitempty"`
	OriginalOrderDate time.Time `json:"originalOrderDate,omitempty"`

	// Cancellation audit fields.
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancelledBy        string     `json:"cancelledBy,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty"`
	StockRestored      bool       `json:"stockRestored,omitempty"`
}
