package models

import "time"

// Product represents an item in the storefront catalog.
// Price is in minor currency units (cents).
type Product struct {
	ID                string    `json:"id"`
	CategoryID        string    `json:"categoryId,omitempty"`
	CategorySlug      string    `json:"categorySlug,omitempty"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	Description       string    `json:"description"`
	Price             int64     `json:"price"`
	Currency          string    `json:"currency"`
	Stock             int       `json:"stock"`
	ImageURL          string    `json:"imageUrl,omitempty"`
	ProviderProductID string    `json:"providerProductId,omitempty"`
	Active            bool      `json:"active"`
	Rating            float64   `json:"rating"`
	ReviewCount       int       `json:"reviewCount"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ProductInput is the admin payload for creating or updating a product.
type ProductInput struct {
	CategoryID        string `json:"categoryId"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Price             int64  `json:"price"`
	Currency          string `json:"currency"`
	Stock             int    `json:"stock"`
	ImageURL          string `json:"imageUrl"`
	ProviderProductID string `json:"providerProductId"`
	Active            *bool  `json:"active,omitempty"`
}

// Product listing sort orders.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
)

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	CategorySlug    string
	Search          string
	MinPrice        *int64
	MaxPrice        *int64
	Sort            string
	Limit           int
	Offset          int
	IncludeInactive bool
}

// Category groups products.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Review is a customer's rating of a product.
type Review struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"productId"`
	UserID     string    `json:"userId"`
	AuthorName string    `json:"authorName,omitempty"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}
