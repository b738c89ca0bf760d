package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/payment"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

// WebhookService reconciles provider events into local orders. Each event is
// applied in a single transaction, and lookups by checkout id make redelivery
// and out-of-order delivery converge on one order.
type WebhookService struct {
	store  *repository.Store
	logger *slog.Logger
}

func NewWebhookService(store *repository.Store, logger *slog.Logger) *WebhookService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookService{store: store, logger: logger}
}

// purchase is the provider data needed to create or advance an order,
// whichever event type carried it.
type purchase struct {
	checkoutID      string
	providerOrderID string
	email           string
	name            string
	currency        string
	total           int64
	hasTotal        bool
	address         *payment.Address
	metadata        payment.Metadata
}

func fromCheckout(c *payment.Checkout) purchase {
	return purchase{
		checkoutID: c.ID,
		email:      c.CustomerEmail,
		name:       c.CustomerName,
		currency:   c.Currency,
		total:      c.TotalAmount,
		hasTotal:   c.TotalAmount > 0 || c.Amount > 0,
		address:    c.CustomerBillingAddress,
		metadata:   c.Metadata,
	}
}

func fromOrder(o *payment.Order) purchase {
	p := purchase{
		checkoutID:      o.CheckoutID,
		providerOrderID: o.ID,
		currency:        o.Currency,
		total:           o.TotalAmount,
		hasTotal:        o.TotalAmount > 0 || o.Subtotal > 0,
		address:         o.BillingAddress,
		metadata:        o.Metadata,
	}
	if o.Customer != nil {
		p.email, p.name = o.Customer.Email, o.Customer.Name
	}
	return p
}

// Handle applies one webhook event. eventID is the webhook-id header; when
// set, a repeated id returns ErrDuplicateEvent without touching any row.
func (s *WebhookService) Handle(ctx context.Context, eventID string, ev *payment.Event) error {
	return s.store.InTx(ctx, func(r repository.Repos) error {
		if eventID != "" {
			seen, err := r.WebhookEvents.Seen(ctx, eventID)
			if err != nil {
				return err
			}
			if seen {
				return ErrDuplicateEvent
			}
		}

		if err := s.apply(ctx, r, ev); err != nil {
			return err
		}

		if eventID == "" {
			return nil
		}
		return r.WebhookEvents.Record(ctx, eventID, ev.Type)
	})
}

func (s *WebhookService) apply(ctx context.Context, r repository.Repos, ev *payment.Event) error {
	switch ev.Type {
	case payment.EventCheckoutUpdated:
		c, err := ev.Checkout()
		if err != nil {
			return err
		}
		switch c.Status {
		case payment.CheckoutSucceeded:
			return s.fulfil(ctx, r, fromCheckout(c), models.OrderPaid)
		case payment.CheckoutFailed, payment.CheckoutExpired:
			return s.advance(ctx, r, c.ID, "", models.OrderCancelled)
		}
		return nil

	case payment.EventOrderCreated, payment.EventOrderPaid:
		o, err := ev.Order()
		if err != nil {
			return err
		}
		if o.CheckoutID == "" {
			return fmt.Errorf("%w: order %s without checkout id", payment.ErrMalformedEvent, o.ID)
		}
		status := models.OrderPending
		if ev.Type == payment.EventOrderPaid || o.Status == "paid" {
			status = models.OrderPaid
		}
		return s.fulfil(ctx, r, fromOrder(o), status)

	case payment.EventOrderRefunded:
		o, err := ev.Order()
		if err != nil {
			return err
		}
		return s.advance(ctx, r, o.CheckoutID, o.ID, models.OrderRefunded)
	}

	s.logger.Debug("ignoring webhook event", "type", ev.Type)
	return nil
}

// advance moves an existing order forward. Events for checkouts with no
// local order are acknowledged and dropped.
func (s *WebhookService) advance(ctx context.Context, r repository.Repos, checkoutID, providerOrderID, status string) error {
	o, err := r.Orders.GetByCheckoutID(ctx, checkoutID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		s.logger.Info("no order for checkout", "checkout_id", checkoutID, "status", status)
		return nil
	}
	if err != nil {
		return err
	}
	return s.update(ctx, r, o, providerOrderID, status)
}

func (s *WebhookService) update(ctx context.Context, r repository.Repos, o *models.Order, providerOrderID, status string) error {
	if providerOrderID != "" && o.ProviderOrderID == "" {
		if err := r.Orders.SetProviderOrderID(ctx, o.ID, providerOrderID); err != nil {
			return err
		}
	}
	if !advances(o.Status, status) {
		return nil
	}
	if err := r.Orders.UpdateStatus(ctx, o.ID, status); err != nil {
		return err
	}
	s.logger.Info("order status updated", "order_id", o.ID, "from", o.Status, "to", status)
	return nil
}

// advances reports whether a provider event may move an order from one
// status to another. Provider events never move an order backwards.
func advances(from, to string) bool {
	switch to {
	case models.OrderPaid, models.OrderCancelled:
		return from == models.OrderPending
	case models.OrderRefunded:
		return from == models.OrderPaid || from == models.OrderShipped || from == models.OrderDelivered
	}
	return false
}

// fulfil creates the order for a checkout, or advances it when it already exists
func (s *WebhookService) fulfil(ctx context.Context, r repository.Repos, p purchase, status string) error {
	existing, err := r.Orders.GetByCheckoutID(ctx, p.checkoutID)
	if err == nil {
		return s.update(ctx, r, existing, p.providerOrderID, status)
	}
	if !errors.Is(err, repository.ErrOrderNotFound) {
		return err
	}

	cartID := p.metadata.String(MetaCartID)
	userID := p.metadata.String(MetaUserID)
	if cartID == "" || userID == "" {
		return fmt.Errorf("%w: checkout %s", ErrMissingMetadata, p.checkoutID)
	}

	cart, err := r.Carts.GetByID(ctx, cartID)
	if err != nil {
		return fmt.Errorf("checkout %s: %w", p.checkoutID, err)
	}
	if cart.UserID != userID {
		return fmt.Errorf("%w: checkout %s", ErrCartMismatch, p.checkoutID)
	}
	lines, err := r.Carts.Items(ctx, cartID)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return fmt.Errorf("%w: checkout %s", ErrEmptyCart, p.checkoutID)
	}

	order := &models.Order{
		UserID:          userID,
		CartID:          cartID,
		CheckoutID:      p.checkoutID,
		ProviderOrderID: p.providerOrderID,
		Status:          status,
		CouponCode:      p.metadata.String(MetaCouponCode),
		CustomerEmail:   p.email,
		Items:           make([]models.OrderItem, 0, len(lines)),
	}

	if !p.address.Empty() {
		addr := &models.Address{
			UserID:     userID,
			Name:       p.name,
			Line1:      p.address.Line1,
			Line2:      p.address.Line2,
			City:       p.address.City,
			State:      p.address.State,
			PostalCode: p.address.PostalCode,
			Country:    p.address.Country,
		}
		if err := r.Addresses.Create(ctx, addr); err != nil {
			return err
		}
		order.AddressID = addr.ID
	}

	for _, it := range lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal,
		})
		order.Subtotal += it.LineTotal
	}

	order.Currency, order.Total = lines[0].Currency, order.Subtotal
	if p.currency != "" {
		order.Currency = p.currency
	}
	// The provider total is what was charged, tax included, so it may
	// exceed the cart subtotal.
	if p.hasTotal {
		order.Total = p.total
	}
	order.Discount = max(order.Subtotal-order.Total, 0)

	if err := r.Orders.Create(ctx, order); err != nil {
		return err
	}
	for _, it := range lines {
		if err := r.Products.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	if err := r.Carts.MarkCheckedOut(ctx, cartID); err != nil {
		return err
	}

	s.logger.Info("order created from checkout",
		"order_id", order.ID,
		"checkout_id", p.checkoutID,
		"status", status,
		"total", order.Total,
	)
	return nil
}

// IsPermanent reports whether a reconciliation error will fail again on
// redelivery, as opposed to a storage failure worth retrying.
func IsPermanent(err error) bool {
	for _, target := range []error{
		payment.ErrMalformedEvent,
		ErrMissingMetadata,
		ErrCartMismatch,
		ErrEmptyCart,
		repository.ErrCartNotFound,
		repository.ErrInvalidReference,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
