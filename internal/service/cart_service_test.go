package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/payment"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

func TestCartService_AddAndTotals(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := NewCartService(s)
	u := seedUser(t, s, "cart@example.com")
	waffle := seedProduct(t, s, "Waffle", 650, 10)
	pie := seedProduct(t, s, "Pie", 400, 3)

	cart, err := svc.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, models.CartActive, cart.Status)

	_, err = svc.AddItem(ctx, u.ID, models.CartItemRequest{ProductID: waffle.ID, Quantity: 2})
	require.NoError(t, err)
	cart, err = svc.AddItem(ctx, u.ID, models.CartItemRequest{ProductID: waffle.ID, Quantity: 1})
	require.NoError(t, err)
	cart, err = svc.AddItem(ctx, u.ID, models.CartItemRequest{ProductID: pie.ID, Quantity: 2})
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, int64(1950), cart.Items[0].LineTotal)
	assert.Equal(t, int64(1950+800), cart.Subtotal)
	assert.Equal(t, "usd", cart.Currency)
}

func TestCartService_AddItemErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := NewCartService(s)
	u := seedUser(t, s, "cart@example.com")
	p := seedProduct(t, s, "Cookie", 100, 2)
	hidden := seedProduct(t, s, "Hidden", 100, 2)
	hidden.Active = false
	require.NoError(t, s.Products.Update(ctx, hidden))

	tests := []struct {
		name string
		req  models.CartItemRequest
		want error
	}{
		{"zero quantity", models.CartItemRequest{ProductID: p.ID, Quantity: 0}, ErrInvalidQuantity},
		{"negative quantity", models.CartItemRequest{ProductID: p.ID, Quantity: -2}, ErrInvalidQuantity},
		{"over stock", models.CartItemRequest{ProductID: p.ID, Quantity: 3}, ErrInsufficientStock},
		{"inactive", models.CartItemRequest{ProductID: hidden.ID, Quantity: 1}, ErrProductUnavailable},
		{"unknown", models.CartItemRequest{ProductID: "00000000-0000-0000-0000-000000000000", Quantity: 1}, repository.ErrProductNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddItem(ctx, u.ID, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// existing quantity counts against stock
	_, err := svc.AddItem(ctx, u.ID, models.CartItemRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, u.ID, models.CartItemRequest{ProductID: p.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCartService_SetRemoveClear(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := NewCartService(s)
	u := seedUser(t, s, "cart@example.com")
	a := seedProduct(t, s, "Scone", 300, 5)
	b := seedProduct(t, s, "Muffin", 250, 5)

	cart, err := svc.SetQuantity(ctx, u.ID, a.ID, 4)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	_, err = svc.SetQuantity(ctx, u.ID, a.ID, 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	_, err = svc.SetQuantity(ctx, u.ID, a.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	cart, err = svc.SetQuantity(ctx, u.ID, a.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = svc.AddItem(ctx, u.ID, models.CartItemRequest{ProductID: a.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, u.ID, models.CartItemRequest{ProductID: b.ID, Quantity: 1})
	require.NoError(t, err)

	cart, err = svc.RemoveItem(ctx, u.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, b.ID, cart.Items[0].ProductID)

	cart, err = svc.Clear(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.Subtotal)
}

type fakeProvider struct {
	got payment.CheckoutRequest
	err error
}

func (f *fakeProvider) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (*payment.Checkout, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.got = req
	return &payment.Checkout{ID: "chk_123", URL: "https://polar.test/checkout/chk_123", Status: payment.CheckoutOpen}, nil
}

type couponSet map[string]bool

func (c couponSet) IsValid(_ context.Context, code string) bool { return c[code] }

func TestCheckoutService_CreateSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	carts := NewCartService(s)
	u := seedUser(t, s, "buyer@example.com")
	a := seedProduct(t, s, "Waffle", 650, 10)
	b := seedProduct(t, s, "Pie", 400, 10)

	provider := &fakeProvider{}
	svc := NewCheckoutService(s, provider, couponSet{"HAPPYHRS": true}, "https://shop.test/success", discardLogger())

	_, err := svc.CreateSession(ctx, u.ID, u.Email, models.CheckoutRequest{})
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = carts.AddItem(ctx, u.ID, models.CartItemRequest{ProductID: a.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, u.ID, models.CartItemRequest{ProductID: b.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = svc.CreateSession(ctx, u.ID, u.Email, models.CheckoutRequest{CouponCode: "NOPE1234"})
	assert.ErrorIs(t, err, ErrInvalidCoupon)

	resp, err := svc.CreateSession(ctx, u.ID, u.Email, models.CheckoutRequest{CouponCode: " happyhrs "})
	require.NoError(t, err)
	assert.Equal(t, "chk_123", resp.CheckoutID)
	assert.Equal(t, "https://polar.test/checkout/chk_123", resp.URL)
	assert.Equal(t, int64(1700), resp.Subtotal)
	assert.Equal(t, "usd", resp.Currency)

	assert.Equal(t, []string{"polar-waffle", "polar-pie"}, provider.got.Products)
	assert.Equal(t, int64(1700), provider.got.Amount)
	assert.Equal(t, "HAPPYHRS", provider.got.DiscountCode)
	assert.Equal(t, "https://shop.test/success", provider.got.SuccessURL)
	assert.Equal(t, map[string]string{
		MetaCartID:     resp.CartID,
		MetaUserID:     u.ID,
		MetaCouponCode: "HAPPYHRS",
	}, provider.got.Metadata)

	// the cart stays active until payment is confirmed
	cart, err := carts.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.CartID, cart.ID)
}

func TestCheckoutService_Unavailable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	carts := NewCartService(s)
	u := seedUser(t, s, "buyer@example.com")
	p := seedProduct(t, s, "Tart", 500, 2)

	_, err := carts.AddItem(ctx, u.ID, models.CartItemRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = NewCheckoutService(s, nil, nil, "", discardLogger()).CreateSession(ctx, u.ID, u.Email, models.CheckoutRequest{})
	assert.ErrorIs(t, err, ErrPaymentUnavailable)

	svc := NewCheckoutService(s, &fakeProvider{}, nil, "", discardLogger())
	_, err = svc.CreateSession(ctx, u.ID, u.Email, models.CheckoutRequest{CouponCode: "ANYCODE1"})
	assert.ErrorIs(t, err, ErrInvalidCoupon)

	p.Stock = 1
	require.NoError(t, s.Products.Update(ctx, p))
	_, err = svc.CreateSession(ctx, u.ID, u.Email, models.CheckoutRequest{})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	p.Stock, p.ProviderProductID = 5, ""
	require.NoError(t, s.Products.Update(ctx, p))
	_, err = svc.CreateSession(ctx, u.ID, u.Email, models.CheckoutRequest{})
	assert.ErrorIs(t, err, ErrProductUnavailable)

	p.ProviderProductID = "polar-tart"
	require.NoError(t, s.Products.Update(ctx, p))
	failing := NewCheckoutService(s, &fakeProvider{err: errors.New("polar down")}, nil, "", discardLogger())
	_, err = failing.CreateSession(ctx, u.ID, u.Email, models.CheckoutRequest{})
	assert.ErrorContains(t, err, "polar down")
}
