package models

import "time"

// Order statuses.
const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
	OrderRefunded  = "refunded"
)

// Order represents a purchase reconciled from a provider checkout session
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	CartID          string      `json:"cartId,omitempty"`
	AddressID       string      `json:"addressId,omitempty"`
	CheckoutID      string      `json:"checkoutId"`
	ProviderOrderID string      `json:"providerOrderId,omitempty"`
	Status          string      `json:"status"`
	Currency        string      `json:"currency"`
	Subtotal        int64       `json:"subtotal"`
	Discount        int64       `json:"discount"`
	Total           int64       `json:"total"`
	CouponCode      string      `json:"couponCode,omitempty"`
	CustomerEmail   string      `json:"customerEmail,omitempty"`
	Items           []OrderItem `json:"items"`
	Address         *Address    `json:"address,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// OrderItem represents a single line in an order, priced at purchase time
type OrderItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"orderId"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"lineTotal"`
}

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status string
	Limit  int
	Offset int
}

// Address is a shipping/billing address captured at checkout.
type Address struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state,omitempty"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
	CreatedAt  time.Time `json:"createdAt"`
}
