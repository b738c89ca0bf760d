package payment

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Webhook event types handled by the storefront.
const (
	EventCheckoutCreated = "checkout.created"
	EventCheckoutUpdated = "checkout.updated"
	EventOrderCreated    = "order.created"
	EventOrderPaid       = "order.paid"
	EventOrderRefunded   = "order.refunded"
)

// Checkout session statuses.
const (
	CheckoutOpen      = "open"
	CheckoutExpired   = "expired"
	CheckoutConfirmed = "confirmed"
	CheckoutSucceeded = "succeeded"
	CheckoutFailed    = "failed"
)

var ErrMalformedEvent = errors.New("malformed webhook event")

// Event is the webhook envelope: a type plus a type-specific payload.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ParseEvent decodes the envelope of a webhook body.
func ParseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}
	return &ev, nil
}

// Checkout decodes the payload of a checkout.* event.
func (e *Event) Checkout() (*Checkout, error) {
	var c Checkout
	if err := json.Unmarshal(e.Data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if c.ID == "" {
		return nil, fmt.Errorf("%w: checkout without id", ErrMalformedEvent)
	}
	return &c, nil
}

// Order decodes the payload of an order.* event.
func (e *Event) Order() (*Order, error) {
	var o Order
	if err := json.Unmarshal(e.Data, &o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if o.ID == "" {
		return nil, fmt.Errorf("%w: order without id", ErrMalformedEvent)
	}
	return &o, nil
}

// Address is the billing address collected by the provider.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
}

// Empty reports whether no address fields were collected.
func (a *Address) Empty() bool {
	return a == nil || (a.Line1 == "" && a.City == "" && a.PostalCode == "" && a.Country == "")
}

// Checkout is the provider's representation of a pending purchase.
type Checkout struct {
	ID                     string   `json:"id"`
	URL                    string   `json:"url"`
	Status                 string   `json:"status"`
	Amount                 int64    `json:"amount"`
	DiscountAmount         int64    `json:"discount_amount"`
	TotalAmount            int64    `json:"total_amount"`
	Currency               string   `json:"currency"`
	CustomerEmail          string   `json:"customer_email"`
	CustomerName           string   `json:"customer_name"`
	CustomerBillingAddress *Address `json:"customer_billing_address"`
	Metadata               Metadata `json:"metadata"`
}

// Customer is the buyer attached to a provider order.
type Customer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Order is the provider's record of a completed checkout.
type Order struct {
	ID             string    `json:"id"`
	Status         string    `json:"status"`
	CheckoutID     string    `json:"checkout_id"`
	Subtotal       int64     `json:"subtotal_amount"`
	DiscountAmount int64     `json:"discount_amount"`
	TotalAmount    int64     `json:"total_amount"`
	Currency       string    `json:"currency"`
	BillingAddress *Address  `json:"billing_address"`
	Customer       *Customer `json:"customer"`
	Metadata       Metadata  `json:"metadata"`
}

// Metadata holds the key/value pairs attached at checkout creation. Values
// may arrive as strings, numbers or booleans.
type Metadata map[string]any

// String returns the metadata value for key rendered as a string.
func (m Metadata) String(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
