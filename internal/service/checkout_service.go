package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/payment"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

// Checkout metadata keys, echoed back by the provider on checkout and order events.
const (
	MetaCartID     = "cart_id"
	MetaUserID     = "user_id"
	MetaCouponCode = "coupon_code"
)

// CheckoutProvider opens hosted checkout sessions. *payment.Client implements it.
type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.Checkout, error)
}

// CouponChecker reports whether a promo code is valid. *coupon.Validator implements it.
type CouponChecker interface {
	IsValid(ctx context.Context, code string) bool
}

type CheckoutService struct {
	store      *repository.Store
	provider   CheckoutProvider
	coupons    CouponChecker
	successURL string
	logger     *slog.Logger
}

// NewCheckoutService wires checkout. A nil coupons checker rejects every code.
func NewCheckoutService(store *repository.Store, provider CheckoutProvider, coupons CouponChecker, successURL string, logger *slog.Logger) *CheckoutService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutService{
		store:      store,
		provider:   provider,
		coupons:    coupons,
		successURL: successURL,
		logger:     logger,
	}
}

// CreateSession validates the user's active cart and opens a provider checkout for it.
// The cart stays active until the provider confirms payment through a webhook.
func (s *CheckoutService) CreateSession(ctx context.Context, userID, email string, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	if s.provider == nil {
		return nil, ErrPaymentUnavailable
	}

	code := strings.ToUpper(strings.TrimSpace(req.CouponCode))
	if code != "" && (s.coupons == nil || !s.coupons.IsValid(ctx, code)) {
		return nil, ErrInvalidCoupon
	}

	var cart *models.Cart
	err := s.store.InTx(ctx, func(r repository.Repos) error {
		var err error
		cart, err = loadCart(ctx, r, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	products := make([]string, 0, len(cart.Items))
	seen := make(map[string]bool)
	for _, it := range cart.Items {
		if !it.Active || it.ProviderProductID == "" {
			return nil, fmt.Errorf("%w: %q", ErrProductUnavailable, it.Name)
		}
		if it.Quantity > it.Stock {
			return nil, fmt.Errorf("%w: %d of %q available", ErrInsufficientStock, it.Stock, it.Name)
		}
		if it.Currency != cart.Currency {
			return nil, fmt.Errorf("%w: cart mixes currencies", ErrInvalidInput)
		}
		if !seen[it.ProviderProductID] {
			seen[it.ProviderProductID] = true
			products = append(products, it.ProviderProductID)
		}
	}

	metadata := map[string]string{
		MetaCartID: cart.ID,
		MetaUserID: userID,
	}
	if code != "" {
		metadata[MetaCouponCode] = code
	}

	checkout, err := s.provider.CreateCheckout(ctx, payment.CheckoutRequest{
		Products:      products,
		Amount:        cart.Subtotal,
		CustomerEmail: email,
		SuccessURL:    s.successURL,
		DiscountCode:  code,
		Metadata:      metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}

	s.logger.Info("checkout session created",
		"checkout_id", checkout.ID,
		"cart_id", cart.ID,
		"user_id", userID,
		"subtotal", cart.Subtotal,
	)

	return &models.CheckoutResponse{
		CheckoutID: checkout.ID,
		URL:        checkout.URL,
		CartID:     cart.ID,
		Subtotal:   cart.Subtotal,
		Currency:   cart.Currency,
	}, nil
}
