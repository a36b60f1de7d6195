// Package catalog implements product management: CRUD over the product
// catalog, the cached product listing, and embedded customer reviews.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/sportshop-backend/models"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/apperr"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/cache"
	"gitlab.connectwisedev.com/sportshop-backend/store"
)

// Service coordinates product reads and writes. The cart store is only used
// for the delete-product cascade check; listCache may be nil (tests, local
// runs without Redis) and every cache path degrades to the DB.
type Service struct {
	products  store.ProductStore
	carts     store.CartStore
	listCache *cache.ProductListCache
	log       *zap.Logger
}

func NewService(products store.ProductStore, carts store.CartStore, listCache *cache.ProductListCache, log *zap.Logger) *Service {
	return &Service{products: products, carts: carts, listCache: listCache, log: log}
}

// CreateProductInput is the admin-facing payload for creating a product.
// ID is optional; a PROD-prefixed one is generated when absent.
type CreateProductInput struct {
	ID          string                `json:"id,omitempty"`
	Category    string                `json:"category"`
	Name        string                `json:"name"`
	Price       float64               `json:"price"`
	Stock       int                   `json:"stock"`
	Gender      string                `json:"gender"`
	Description string                `json:"description,omitempty"`
	ImageURL    string                `json:"imageUrl,omitempty"`
	Images      []models.ProductImage `json:"images,omitempty"`
}

// CreateProduct validates and stores a new product. Duplicate IDs are a
// conflict, not an overwrite.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput, createdBy string) (models.Product, error) {
	if input.Name == "" || input.Category == "" {
		return models.Product{}, apperr.NewValidation("Product name and category are required")
	}
	if input.Price <= 0 {
		return models.Product{}, apperr.NewValidation("Price must be greater than 0")
	}
	if input.Stock < 0 {
		return models.Product{}, apperr.NewValidation("Stock cannot be negative")
	}
	if !models.IsValidGender(input.Gender) {
		return models.Product{}, apperr.NewValidationWithFields(
			fmt.Sprintf("Gender must be one of: %s", strings.Join(models.ValidGenders, ", ")),
			map[string]interface{}{"validGenders": models.ValidGenders})
	}
	if input.ID != "" && len(input.ID) < 3 {
		return models.Product{}, apperr.NewValidation("Product ID must be at least 3 characters")
	}

	now := time.Now().UTC()
	id := input.ID
	if id == "" {
		id = newProductID()
	}

	product := models.Product{
		ID:          id,
		Category:    strings.ToLower(input.Category),
		Name:        input.Name,
		Price:       input.Price,
		Stock:       input.Stock,
		Gender:      input.Gender,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Images:      normalizeImages(input.Images, input.ImageURL),
		Reviews:     []models.Review{},
		IsActive:    true,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if primary, ok := product.PrimaryImage(); ok {
		product.ImageURL = primary.URL
	}

	if err := s.products.Put(ctx, product); err != nil {
		if err == store.ErrDuplicate {
			return models.Product{}, apperr.NewConflictWithFields(
				fmt.Sprintf("Product with ID %s already exists", id),
				map[string]interface{}{"productId": id})
		}
		return models.Product{}, apperr.NewInternal("Failed to create product", err)
	}

	s.invalidateListCache(ctx)
	s.log.Info("product created",
		zap.String("product_id", product.ID),
		zap.String("category", product.Category),
		zap.String("created_by", createdBy))
	return product, nil
}

// UpdateProductInput carries a partial update. Nil pointers leave the field
// untouched; a non-nil Images replaces the whole image list.
type UpdateProductInput struct {
	Category    *string                `json:"category,omitempty"`
	Name        *string                `json:"name,omitempty"`
	Price       *float64               `json:"price,omitempty"`
	Stock       *int                   `json:"stock,omitempty"`
	Gender      *string                `json:"gender,omitempty"`
	Description *string                `json:"description,omitempty"`
	ImageURL    *string                `json:"imageUrl,omitempty"`
	Images      *[]models.ProductImage `json:"images,omitempty"`
	IsActive    *bool                  `json:"isActive,omitempty"`
}

func (s *Service) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (models.Product, error) {
	product, err := s.getOr404(ctx, id)
	if err != nil {
		return models.Product{}, err
	}

	if input.Price != nil && *input.Price <= 0 {
		return models.Product{}, apperr.NewValidation("Price must be greater than 0")
	}
	if input.Stock != nil && *input.Stock < 0 {
		return models.Product{}, apperr.NewValidation("Stock cannot be negative")
	}
	if input.Gender != nil && !models.IsValidGender(*input.Gender) {
		return models.Product{}, apperr.NewValidationWithFields(
			fmt.Sprintf("Gender must be one of: %s", strings.Join(models.ValidGenders, ", ")),
			map[string]interface{}{"validGenders": models.ValidGenders})
	}
	if input.Name != nil && *input.Name == "" {
		return models.Product{}, apperr.NewValidation("Product name cannot be empty")
	}

	if input.Category != nil {
		product.Category = strings.ToLower(*input.Category)
	}
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.Gender != nil {
		product.Gender = *input.Gender
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.ImageURL != nil {
		product.ImageURL = *input.ImageURL
	}
	if input.Images != nil {
		product.Images = normalizeImages(*input.Images, product.ImageURL)
		if primary, ok := product.PrimaryImage(); ok {
			product.ImageURL = primary.URL
		}
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		if err == store.ErrNotFound {
			return models.Product{}, productNotFound(id)
		}
		return models.Product{}, apperr.NewInternal("Failed to update product", err)
	}

	s.invalidateListCache(ctx)
	s.log.Info("product updated", zap.String("product_id", id))
	return product, nil
}

// DeleteResult reports what a product deletion touched.
type DeleteResult struct {
	ProductID        string   `json:"productId"`
	ProductName      string   `json:"productName"`
	RemovedCartLines int      `json:"removedCartLines"`
	AffectedUsers    []string `json:"affectedUsers,omitempty"`
}

// DeleteProduct removes a product. When the product still sits in carts the
// delete is rejected with a conflict unless force is set, in which case the
// cart lines are removed first. Cart cleanup failures are logged and
// skipped; a stale cart line is harmless next to a blocked delete.
func (s *Service) DeleteProduct(ctx context.Context, id string, force bool) (DeleteResult, error) {
	product, err := s.getOr404(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}

	lines, err := s.carts.ListByProduct(ctx, id)
	if err != nil {
		return DeleteResult{}, apperr.NewInternal("Failed to check carts for product", err)
	}

	result := DeleteResult{ProductID: product.ID, ProductName: product.Name}
	if len(lines) > 0 {
		affected := make([]string, 0, len(lines))
		for _, line := range lines {
			affected = append(affected, line.UserID)
		}
		if !force {
			return DeleteResult{}, apperr.NewConflictWithFields(
				fmt.Sprintf("Product is in %d cart(s). Use force=true to delete anyway", len(lines)),
				map[string]interface{}{
					"cartItemCount": len(lines),
					"affectedUsers": affected,
				})
		}
		for _, line := range lines {
			if err := s.carts.Delete(ctx, line.UserID, line.ProductID); err != nil {
				s.log.Warn("failed to remove cart line during forced product delete",
					zap.String("product_id", id),
					zap.String("user_id", line.UserID),
					zap.Error(err))
				continue
			}
			result.RemovedCartLines++
		}
		result.AffectedUsers = affected
	}

	if err := s.products.Delete(ctx, id); err != nil {
		if err == store.ErrNotFound {
			return DeleteResult{}, productNotFound(id)
		}
		return DeleteResult{}, apperr.NewInternal("Failed to delete product", err)
	}

	s.invalidateListCache(ctx)
	s.log.Info("product deleted",
		zap.String("product_id", id),
		zap.Int("removed_cart_lines", result.RemovedCartLines))
	return result, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (models.Product, error) {
	return s.getOr404(ctx, id)
}

// ListProducts returns the catalog, serving from the Redis cache when it is
// warm and falling back to the DB (repopulating the cache) otherwise. The
// returned source is "cache" or "database".
func (s *Service) ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, string, error) {
	// Filtered listings always hit the DB; only the full list is cached.
	unfiltered := filter == (store.ProductFilter{})
	if unfiltered && s.listCache != nil {
		if products, err := s.listCache.Get(ctx); err == nil {
			return products, "cache", nil
		} else {
			s.log.Info("product list cache miss", zap.Error(err))
		}
	}

	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, "", apperr.NewInternal("Failed to list products", err)
	}
	if products == nil {
		products = []models.Product{}
	}

	if unfiltered && s.listCache != nil && len(products) > 0 {
		// Repopulate off the request path; the response never waits on Redis.
		go func(products []models.Product) {
			if err := s.listCache.Populate(context.Background(), products); err != nil {
				s.log.Warn("failed to repopulate product list cache", zap.Error(err))
			}
		}(products)
	}
	return products, "database", nil
}

func (s *Service) getOr404(ctx context.Context, id string) (models.Product, error) {
	product, err := s.products.Get(ctx, id)
	if err == store.ErrNotFound {
		return models.Product{}, productNotFound(id)
	}
	if err != nil {
		return models.Product{}, apperr.NewInternal("Failed to load product", err)
	}
	return product, nil
}

func (s *Service) invalidateListCache(ctx context.Context) {
	if s.listCache == nil {
		return
	}
	if err := s.listCache.Invalidate(ctx); err != nil {
		s.log.Warn("failed to invalidate product list cache", zap.Error(err))
	}
}

func productNotFound(id string) *apperr.NotFoundError {
	return apperr.NewNotFoundWithFields("Product not found",
		map[string]interface{}{"productId": id})
}

func newProductID() string {
	return "PROD" + strings.ToUpper(uuid.NewString()[:8])
}

// normalizeImages guarantees the image list invariants: orders are
// sequential from 0 and exactly one image is primary. When no image claims
// primary, the one matching the legacy imageUrl wins, then the first.
func normalizeImages(images []models.ProductImage, legacyURL string) []models.ProductImage {
	if len(images) == 0 {
		return nil
	}
	out := append([]models.ProductImage(nil), images...)

	primaryIdx := -1
	for i, img := range out {
		if img.IsPrimary && primaryIdx == -1 {
			primaryIdx = i
		}
		out[i].IsPrimary = false
		out[i].Order = i
		if out[i].ID == "" {
			out[i].ID = "IMG" + strings.ToUpper(uuid.NewString()[:8])
		}
	}
	if primaryIdx == -1 && legacyURL != "" {
		for i, img := range out {
			if img.URL == legacyURL {
				primaryIdx = i
				break
			}
		}
	}
	if primaryIdx == -1 {
		primaryIdx = 0
	}
	out[primaryIdx].IsPrimary = true
	return out
}
