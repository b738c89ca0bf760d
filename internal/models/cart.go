package models

import "time"

// Cart statuses.
const (
	CartActive     = "active"
	CartCheckedOut = "checked_out"
)

// Cart is a user's basket. Each user has at most one active cart.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Status    string     `json:"status"`
	Items     []CartItem `json:"items"`
	Subtotal  int64      `json:"subtotal"`
	Currency  string     `json:"currency,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartItem is a product line in a cart, joined with current product data.
type CartItem struct {
	ProductID         string `json:"productId"`
	Name              string `json:"name"`
	UnitPrice         int64  `json:"unitPrice"`
	Currency          string `json:"currency"`
	Quantity          int    `json:"quantity"`
	LineTotal         int64  `json:"lineTotal"`
	Stock             int    `json:"stock"`
	Active            bool   `json:"active"`
	ImageURL          string `json:"imageUrl,omitempty"`
	ProviderProductID string `json:"-"`
}

// CartItemRequest is the payload for adding or updating a cart line.
type CartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}
