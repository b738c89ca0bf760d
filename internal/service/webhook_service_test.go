package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/payment"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

type webhookFixture struct {
	store   *repository.Store
	svc     *WebhookService
	user    *models.Profile
	waffle  *models.Product
	pie     *models.Product
	cart    *models.Cart
	metaRaw map[string]any
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	ctx := context.Background()
	s := newTestStore(t)
	carts := NewCartService(s)

	f := &webhookFixture{
		store:  s,
		svc:    NewWebhookService(s, discardLogger()),
		user:   seedUser(t, s, "buyer@example.com"),
		waffle: seedProduct(t, s, "Waffle", 650, 10),
		pie:    seedProduct(t, s, "Pie", 400, 1),
	}
	_, err := carts.AddItem(ctx, f.user.ID, models.CartItemRequest{ProductID: f.waffle.ID, Quantity: 2})
	require.NoError(t, err)
	f.cart, err = carts.AddItem(ctx, f.user.ID, models.CartItemRequest{ProductID: f.pie.ID, Quantity: 1})
	require.NoError(t, err)

	f.metaRaw = map[string]any{MetaCartID: f.cart.ID, MetaUserID: f.user.ID, MetaCouponCode: "HAPPYHRS"}
	return f
}

func event(t *testing.T, typ string, data any) *payment.Event {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return &payment.Event{Type: typ, Data: raw}
}

func (f *webhookFixture) checkoutEvent(t *testing.T, status string) *payment.Event {
	return event(t, payment.EventCheckoutUpdated, map[string]any{
		"id":             "chk_1",
		"status":         status,
		"amount":         1700,
		"total_amount":   1500,
		"currency":       "usd",
		"customer_email": "buyer@example.com",
		"customer_name":  "Jane Buyer",
		"customer_billing_address": map[string]any{
			"line1": "1 Main St", "city": "Springfield", "postal_code": "12345", "country": "US",
		},
		"metadata": f.metaRaw,
	})
}

func (f *webhookFixture) orderEvent(t *testing.T, typ, status string) *payment.Event {
	return event(t, typ, map[string]any{
		"id":           "ord_1",
		"status":       status,
		"checkout_id":  "chk_1",
		"total_amount": 1500,
		"currency":     "usd",
		"customer":     map[string]any{"email": "buyer@example.com", "name": "Jane Buyer"},
		"metadata":     f.metaRaw,
	})
}

func TestWebhookService_CheckoutSucceededCreatesOrder(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)

	require.NoError(t, f.svc.Handle(ctx, "evt_1", f.checkoutEvent(t, payment.CheckoutSucceeded)))

	o, err := f.store.Orders.GetByCheckoutID(ctx, "chk_1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, o.Status)
	assert.Equal(t, f.user.ID, o.UserID)
	assert.Equal(t, f.cart.ID, o.CartID)
	assert.Equal(t, int64(1700), o.Subtotal)
	assert.Equal(t, int64(1500), o.Total)
	assert.Equal(t, int64(200), o.Discount)
	assert.Equal(t, "HAPPYHRS", o.CouponCode)
	assert.Equal(t, "buyer@example.com", o.CustomerEmail)
	require.Len(t, o.Items, 2)
	require.NotNil(t, o.Address)
	assert.Equal(t, "Jane Buyer", o.Address.Name)
	assert.Equal(t, "Springfield", o.Address.City)

	waffle, err := f.store.Products.GetByID(ctx, f.waffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, waffle.Stock)
	pie, err := f.store.Products.GetByID(ctx, f.pie.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pie.Stock)

	cart, err := f.store.Carts.GetByID(ctx, f.cart.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CartCheckedOut, cart.Status)
}

func TestWebhookService_TaxedTotalIsKept(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)

	ev := event(t, payment.EventCheckoutUpdated, map[string]any{
		"id":           "chk_1",
		"status":       payment.CheckoutSucceeded,
		"amount":       1700,
		"total_amount": 1870,
		"currency":     "usd",
		"metadata":     f.metaRaw,
	})
	require.NoError(t, f.svc.Handle(ctx, "evt_tax", ev))

	o, err := f.store.Orders.GetByCheckoutID(ctx, "chk_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1700), o.Subtotal)
	assert.Equal(t, int64(1870), o.Total)
	assert.Equal(t, int64(0), o.Discount)
	assert.Nil(t, o.Address)
}

func TestWebhookService_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)
	ev := f.checkoutEvent(t, payment.CheckoutSucceeded)

	require.NoError(t, f.svc.Handle(ctx, "evt_1", ev))
	assert.ErrorIs(t, f.svc.Handle(ctx, "evt_1", ev), ErrDuplicateEvent)

	// same checkout under a new delivery id converges on the existing order
	require.NoError(t, f.svc.Handle(ctx, "evt_2", ev))
	require.NoError(t, f.svc.Handle(ctx, "evt_3", f.orderEvent(t, payment.EventOrderPaid, "paid")))

	orders, err := f.store.Orders.ListByUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ord_1", orders[0].ProviderOrderID)

	waffle, err := f.store.Products.GetByID(ctx, f.waffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, waffle.Stock)
}

func TestWebhookService_OrderLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)

	require.NoError(t, f.svc.Handle(ctx, "evt_1", f.orderEvent(t, payment.EventOrderCreated, "pending")))
	o, err := f.store.Orders.GetByCheckoutID(ctx, "chk_1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, o.Status)
	assert.Equal(t, "ord_1", o.ProviderOrderID)
	assert.Nil(t, o.Address)

	require.NoError(t, f.svc.Handle(ctx, "evt_2", f.orderEvent(t, payment.EventOrderPaid, "paid")))
	o, err = f.store.Orders.GetByCheckoutID(ctx, "chk_1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, o.Status)

	// a late order.created never moves the order backwards
	require.NoError(t, f.svc.Handle(ctx, "evt_3", f.orderEvent(t, payment.EventOrderCreated, "pending")))
	o, err = f.store.Orders.GetByCheckoutID(ctx, "chk_1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, o.Status)

	require.NoError(t, f.svc.Handle(ctx, "evt_4", f.orderEvent(t, payment.EventOrderRefunded, "refunded")))
	o, err = f.store.Orders.GetByCheckoutID(ctx, "chk_1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderRefunded, o.Status)
}

func TestWebhookService_FailedCheckoutCancelsPending(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)

	// nothing to cancel yet
	require.NoError(t, f.svc.Handle(ctx, "evt_0", f.checkoutEvent(t, payment.CheckoutExpired)))
	_, err := f.store.Orders.GetByCheckoutID(ctx, "chk_1")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)

	require.NoError(t, f.svc.Handle(ctx, "evt_1", f.orderEvent(t, payment.EventOrderCreated, "pending")))
	require.NoError(t, f.svc.Handle(ctx, "evt_2", f.checkoutEvent(t, payment.CheckoutFailed)))

	o, err := f.store.Orders.GetByCheckoutID(ctx, "chk_1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, o.Status)
}

func TestWebhookService_IgnoredEvents(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)

	require.NoError(t, f.svc.Handle(ctx, "evt_1", f.checkoutEvent(t, payment.CheckoutOpen)))
	require.NoError(t, f.svc.Handle(ctx, "evt_2", event(t, payment.EventCheckoutCreated, map[string]any{"id": "chk_1"})))
	require.NoError(t, f.svc.Handle(ctx, "evt_3", event(t, "subscription.created", map[string]any{"id": "sub_1"})))
	require.NoError(t, f.svc.Handle(ctx, "", f.orderEvent(t, payment.EventOrderRefunded, "refunded")))

	orders, err := f.store.Orders.ListByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	seen, err := f.store.WebhookEvents.Seen(ctx, "evt_3")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestWebhookService_PermanentFailures(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)

	tests := []struct {
		name string
		ev   *payment.Event
	}{
		{"no metadata", event(t, payment.EventOrderPaid, map[string]any{"id": "ord_9", "checkout_id": "chk_9"})},
		{"no checkout id", event(t, payment.EventOrderPaid, map[string]any{"id": "ord_9", "metadata": f.metaRaw})},
		{"bad payload", &payment.Event{Type: payment.EventCheckoutUpdated, Data: json.RawMessage(`[1,2]`)}},
		{"unknown cart", event(t, payment.EventOrderPaid, map[string]any{
			"id": "ord_9", "checkout_id": "chk_9",
			"metadata": map[string]any{MetaCartID: "00000000-0000-0000-0000-000000000000", MetaUserID: f.user.ID},
		})},
		{"foreign cart", event(t, payment.EventOrderPaid, map[string]any{
			"id": "ord_9", "checkout_id": "chk_9",
			"metadata": map[string]any{MetaCartID: f.cart.ID, MetaUserID: "someone-else"},
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.Handle(ctx, "evt_"+tt.name, tt.ev)
			require.Error(t, err)
			assert.True(t, IsPermanent(err), err.Error())

			seen, serr := f.store.WebhookEvents.Seen(ctx, "evt_"+tt.name)
			require.NoError(t, serr)
			assert.False(t, seen, "failed events are not recorded")
		})
	}

	cart, err := f.store.Carts.GetByID(ctx, f.cart.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CartActive, cart.Status)
}
