// Package cart implements the per-user shopping cart: adding and merging
// lines with stock validation, quantity updates, removal and the aggregated
// cart view.
package cart

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"gitlab.connectwisedev.com/sportshop-backend/models"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/apperr"
	"gitlab.connectwisedev.com/sportshop-backend/store"
)

// Service validates cart writes against current product stock. Stock is not
// reserved here; orders re-validate at creation and commit at completion.
type Service struct {
	carts    store.CartStore
	products store.ProductStore
	log      *zap.Logger
}

func NewService(carts store.CartStore, products store.ProductStore, log *zap.Logger) *Service {
	return &Service{carts: carts, products: products, log: log}
}

// AddInput is the add-to-cart payload. Quantity defaults to 1.
type AddInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity,omitempty"`
}

// AddResult reports whether the add created a new line or merged into an
// existing one.
type AddResult struct {
	Action           string          `json:"action"` // "added" or "updated"
	ProductName      string          `json:"productName"`
	PreviousQuantity int             `json:"previousQuantity,omitempty"`
	NewQuantity      int             `json:"newQuantity"`
	Item             models.CartItem `json:"item"`
}

// Add puts a product in the user's cart. Adding a product already in the
// cart sums the quantities; the combined total is validated against stock.
func (s *Service) Add(ctx context.Context, userID string, input AddInput) (AddResult, error) {
	if input.ProductID == "" {
		return AddResult{}, apperr.NewValidation("productId is required")
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return AddResult{}, apperr.NewValidation("Quantity must be greater than 0")
	}

	product, err := s.products.Get(ctx, input.ProductID)
	if err == store.ErrNotFound {
		return AddResult{}, apperr.NewNotFoundWithFields("Product not found",
			map[string]interface{}{"productId": input.ProductID})
	}
	if err != nil {
		return AddResult{}, apperr.NewInternal("Failed to load product", err)
	}

	now := time.Now().UTC()
	existing, err := s.carts.Get(ctx, userID, input.ProductID)
	switch err {
	case nil:
		previous := existing.Quantity
		total := previous + quantity
		if product.Stock < total {
			return AddResult{}, apperr.NewValidationWithFields(
				"Insufficient stock for total quantity",
				map[string]interface{}{
					"currentInCart":  existing.Quantity,
					"requestedToAdd": quantity,
					"totalRequested": total,
					"availableStock": product.Stock,
				})
		}
		if err := s.carts.UpdateQuantity(ctx, userID, input.ProductID, total, now); err != nil {
			return AddResult{}, apperr.NewInternal("Failed to update cart item", err)
		}
		existing.Quantity = total
		existing.UpdatedAt = now
		s.log.Info("cart item quantity merged",
			zap.String("user_id", userID),
			zap.String("product_id", input.ProductID),
			zap.Int("quantity", total))
		return AddResult{
			Action:           "updated",
			ProductName:      product.Name,
			PreviousQuantity: previous,
			NewQuantity:      total,
			Item:             existing,
		}, nil

	case store.ErrNotFound:
		if product.Stock < quantity {
			return AddResult{}, apperr.NewValidationWithFields(
				"Insufficient stock",
				map[string]interface{}{
					"requestedQuantity": quantity,
					"availableStock":    product.Stock,
				})
		}
		item := models.CartItem{
			UserID:          userID,
			ProductID:       product.ID,
			Quantity:        quantity,
			ProductName:     product.Name,
			ProductPrice:    product.Price,
			ProductCategory: product.Category,
			ProductImageURL: product.ImageURL,
			AddedAt:         now,
			UpdatedAt:       now,
		}
		if err := s.carts.Put(ctx, item); err != nil {
			return AddResult{}, apperr.NewInternal("Failed to add cart item", err)
		}
		s.log.Info("cart item added",
			zap.String("user_id", userID),
			zap.String("product_id", input.ProductID),
			zap.Int("quantity", quantity))
		return AddResult{
			Action:      "added",
			ProductName: product.Name,
			NewQuantity: quantity,
			Item:        item,
		}, nil

	default:
		return AddResult{}, apperr.NewInternal("Failed to read cart", err)
	}
}

// UpdateQuantity sets the absolute quantity of an existing cart line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (models.CartItem, error) {
	if productID == "" {
		return models.CartItem{}, apperr.NewValidation("productId is required")
	}
	if quantity <= 0 {
		return models.CartItem{}, apperr.NewValidation("Quantity must be greater than 0")
	}

	item, err := s.carts.Get(ctx, userID, productID)
	if err == store.ErrNotFound {
		return models.CartItem{}, apperr.NewNotFoundWithFields("Item not found in cart",
			map[string]interface{}{"productId": productID})
	}
	if err != nil {
		return models.CartItem{}, apperr.NewInternal("Failed to read cart", err)
	}

	product, err := s.products.Get(ctx, productID)
	if err == store.ErrNotFound {
		return models.CartItem{}, apperr.NewNotFoundWithFields("Product no longer exists",
			map[string]interface{}{"productId": productID})
	}
	if err != nil {
		return models.CartItem{}, apperr.NewInternal("Failed to load product", err)
	}
	if product.Stock < quantity {
		return models.CartItem{}, apperr.NewValidationWithFields(
			"Insufficient stock",
			map[string]interface{}{
				"requestedQuantity": quantity,
				"availableStock":    product.Stock,
			})
	}

	now := time.Now().UTC()
	if err := s.carts.UpdateQuantity(ctx, userID, productID, quantity, now); err != nil {
		return models.CartItem{}, apperr.NewInternal("Failed to update cart item", err)
	}
	item.Quantity = quantity
	item.UpdatedAt = now
	s.log.Info("cart item updated",
		zap.String("user_id", userID),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity))
	return item, nil
}

// RemovedItem describes the cart line a Remove call dropped.
type RemovedItem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
}

func (s *Service) Remove(ctx context.Context, userID, productID string) (RemovedItem, error) {
	if productID == "" {
		return RemovedItem{}, apperr.NewValidation("productId is required")
	}
	item, err := s.carts.Get(ctx, userID, productID)
	if err == store.ErrNotFound {
		return RemovedItem{}, apperr.NewNotFoundWithFields("Item not found in cart",
			map[string]interface{}{"productId": productID})
	}
	if err != nil {
		return RemovedItem{}, apperr.NewInternal("Failed to read cart", err)
	}
	if err := s.carts.Delete(ctx, userID, productID); err != nil && err != store.ErrNotFound {
		return RemovedItem{}, apperr.NewInternal("Failed to remove cart item", err)
	}
	s.log.Info("cart item removed",
		zap.String("user_id", userID),
		zap.String("product_id", productID))
	return RemovedItem{
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
	}, nil
}

// View is the aggregated cart response.
type View struct {
	Items             []models.CartItem                    `json:"items"`
	Summary           models.CartSummary                   `json:"summary"`
	CategoryBreakdown map[string]models.CartCategoryTotals `json:"categoryBreakdown,omitempty"`
}

func (s *Service) Get(ctx context.Context, userID string) (View, error) {
	items, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return View{}, apperr.NewInternal("Failed to read cart", err)
	}
	if items == nil {
		items = []models.CartItem{}
	}

	view := View{Items: items, Summary: models.CartSummary{IsEmpty: len(items) == 0}}
	if len(items) == 0 {
		return view, nil
	}

	breakdown := make(map[string]models.CartCategoryTotals)
	for _, item := range items {
		view.Summary.TotalItems++
		view.Summary.TotalQuantity += item.Quantity
		view.Summary.TotalPrice += item.Subtotal()

		cat := breakdown[item.ProductCategory]
		cat.TotalQuantity += item.Quantity
		cat.TotalPrice = round2(cat.TotalPrice + item.Subtotal())
		breakdown[item.ProductCategory] = cat
	}
	view.Summary.TotalPrice = round2(view.Summary.TotalPrice)
	view.CategoryBreakdown = breakdown
	return view, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
