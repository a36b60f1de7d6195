package models

import (
	"time"
)

// Valid values for Product.Gender. The catalog is in Spanish, matching the
// storefront.
const (
	GenderHombre = "hombre"
	GenderMujer  = "mujer"
	GenderUnisex = "unisex"
)

// ValidGenders lists the accepted product genders in a stable order for
// error payloads.
var ValidGenders = []string{GenderHombre, GenderMujer, GenderUnisex}

// IsValidGender reports whether g is one of the accepted product genders.
func IsValidGender(g string) bool {
	return g == GenderHombre || g == GenderMujer || g == GenderUnisex
}

// Product represents a catalog item in the products table.
// Reviews and images are embedded documents, not separate tables.
type Product struct {
	ID          string         `json:"id"`
	Category    string         `json:"category"` // always lowercase
	Name        string         `json:"name"`
	Price       float64        `json:"price"`
	Stock       int            `json:"stock"`
	Gender      string         `json:"gender"`
	Description string         `json:"description,omitempty"`
	ImageURL    string         `json:"imageUrl,omitempty"` // legacy single-image field, kept in sync with the primary image
	Images      []ProductImage `json:"images,omitempty"`

	Reviews       []Review `json:"reviews,omitempty"`
	AverageRating float64  `json:"averageRating"`
	ReviewCount   int      `json:"reviewCount"`

	SalesCount    int        `json:"salesCount"`
	LastSold      *time.Time `json:"lastSold,omitempty"`
	LastRestocked *time.Time `json:"lastRestocked,omitempty"`

	IsActive  bool      `json:"isActive"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Version guards read-modify-write updates to the embedded review list.
	// Incremented on every versioned write.
	Version int `json:"-"`
}

// ProductImage is one entry of a product's ordered image list. Exactly one
// image carries IsPrimary when the list is non-empty.
type ProductImage struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Alt       string `json:"alt,omitempty"`
	IsPrimary bool   `json:"isPrimary"`
	Order     int    `json:"order"`
}

// PrimaryImage returns the primary image, falling back to the first one.
// The second return value is false when the list is empty.
func (p Product) PrimaryImage() (ProductImage, bool) {
	if len(p.Images) == 0 {
		return ProductImage{}, false
	}
	for _, img := range p.Images {
		if img.IsPrimary {
			return img, true
		}
	}
	return p.Images[0], true
}

// Review is a customer rating embedded in Product.Reviews. One review per
// (userId, productId), enforced at write time.
type Review struct {
	ReviewID    string    `json:"reviewId"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Rating      int       `json:"rating"` // 1..5
	Comment     string    `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Verified    bool      `json:"verified"`
}
