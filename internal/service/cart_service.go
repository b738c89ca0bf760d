package service

import (
	"context"
	"fmt"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

// CartService manages the caller's active cart. Every mutation runs in a
// transaction so the stock check and the write see the same quantities.
type CartService struct {
	store *repository.Store
}

func NewCartService(store *repository.Store) *CartService {
	return &CartService{store: store}
}

// GetCart returns the user's active cart, creating an empty one on first use
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	var cart *models.Cart
	err := s.store.InTx(ctx, func(r repository.Repos) error {
		var err error
		cart, err = loadCart(ctx, r, userID)
		return err
	})
	return cart, err
}

// AddItem adds quantity of a product, merging with an existing line
func (s *CartService) AddItem(ctx context.Context, userID string, req models.CartItemRequest) (*models.Cart, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var cart *models.Cart
	err := s.store.InTx(ctx, func(r repository.Repos) error {
		c, err := r.Carts.GetOrCreateActive(ctx, userID)
		if err != nil {
			return err
		}
		current, err := r.Carts.ItemQuantity(ctx, c.ID, req.ProductID)
		if err != nil {
			return err
		}
		if err := checkAvailable(ctx, r, req.ProductID, current+req.Quantity); err != nil {
			return err
		}
		if err := r.Carts.UpsertItem(ctx, c.ID, req.ProductID, req.Quantity); err != nil {
			return err
		}
		cart, err = loadCart(ctx, r, userID)
		return err
	})
	return cart, err
}

// SetQuantity replaces a line's quantity; zero removes the line
func (s *CartService) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	var cart *models.Cart
	err := s.store.InTx(ctx, func(r repository.Repos) error {
		c, err := r.Carts.GetOrCreateActive(ctx, userID)
		if err != nil {
			return err
		}
		if quantity == 0 {
			err = r.Carts.RemoveItem(ctx, c.ID, productID)
		} else {
			if err := checkAvailable(ctx, r, productID, quantity); err != nil {
				return err
			}
			err = r.Carts.SetItemQuantity(ctx, c.ID, productID, quantity)
		}
		if err != nil {
			return err
		}
		cart, err = loadCart(ctx, r, userID)
		return err
	})
	return cart, err
}

// RemoveItem drops a product from the cart. Removing an absent line is not an error.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	return s.SetQuantity(ctx, userID, productID, 0)
}

// Clear empties the active cart
func (s *CartService) Clear(ctx context.Context, userID string) (*models.Cart, error) {
	var cart *models.Cart
	err := s.store.InTx(ctx, func(r repository.Repos) error {
		c, err := r.Carts.GetOrCreateActive(ctx, userID)
		if err != nil {
			return err
		}
		if err := r.Carts.Clear(ctx, c.ID); err != nil {
			return err
		}
		cart, err = loadCart(ctx, r, userID)
		return err
	})
	return cart, err
}

func checkAvailable(ctx context.Context, r repository.Repos, productID string, quantity int) error {
	p, err := r.Products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if !p.Active {
		return ErrProductUnavailable
	}
	if quantity > p.Stock {
		return fmt.Errorf("%w: %d of %q available", ErrInsufficientStock, p.Stock, p.Name)
	}
	return nil
}

func loadCart(ctx context.Context, r repository.Repos, userID string) (*models.Cart, error) {
	cart, err := r.Carts.GetOrCreateActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := r.Carts.Items(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	cart.Subtotal, cart.Currency = totals(items)
	return cart, nil
}

func totals(items []models.CartItem) (int64, string) {
	var subtotal int64
	currency := ""
	for _, it := range items {
		subtotal += it.LineTotal
		if currency == "" {
			currency = it.Currency
		}
	}
	return subtotal, currency
}
