package models

// CheckoutRequest is the payload for starting a provider checkout session.
type CheckoutRequest struct {
	CouponCode string `json:"couponCode,omitempty"`
}

// CheckoutResponse points the client at the provider's hosted checkout page.
type CheckoutResponse struct {
	CheckoutID string `json:"checkoutId"`
	URL        string `json:"url"`
	CartID     string `json:"cartId"`
	Subtotal   int64  `json:"subtotal"`
	Currency   string `json:"currency"`
}
