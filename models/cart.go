package models

import (
	"time"
)

// CartItem is one pending selection in a user's cart, keyed by
// (userId, productId). Product name, price and category are denormalized
// snapshots taken when the item was added.
type CartItem struct {
	UserID          string    `json:"userId"`
	ProductID       string    `json:"productId"`
	Quantity        int       `json:"quantity"`
	ProductName     string    `json:"productName"`
	ProductPrice    float64   `json:"productPrice"`
	ProductCategory string    `json:"productCategory"`
	ProductImageURL string    `json:"productImageUrl,omitempty"`
	AddedAt         time.Time `json:"addedAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Subtotal is the line total at the snapshot price.
func (i CartItem) Subtotal() float64 {
	return i.ProductPrice * float64(i.Quantity)
}

// CartSummary aggregates a user's cart for the GET /cart response.
type CartSummary struct {
	TotalItems    int     `json:"totalItems"`
	TotalQuantity int     `json:"totalQuantity"`
	TotalPrice    float64 `json:"totalPrice"`
	IsEmpty       bool    `json:"isEmpty"`
}

// CartCategoryTotals breaks a cart down by product category.
type CartCategoryTotals struct {
	TotalQuantity int     `json:"totalQuantity"`
	TotalPrice    float64 `json:"totalPrice"`
}
