package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/google/uuid"
)

type CartRepository struct {
	q DBTX
}

const cartColumns = "id, user_id, status, created_at, updated_at"

func scanCart(row interface{ Scan(...any) error }) (models.Cart, error) {
	var c models.Cart
	err := row.Scan(&c.ID, &c.UserID, &c.Status, scanTime(&c.CreatedAt), scanTime(&c.UpdatedAt))
	return c, err
}

// GetByID returns a cart header without its items
func (r *CartRepository) GetByID(ctx context.Context, id string) (*models.Cart, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+cartColumns+" FROM carts WHERE id = ?", id)
	return r.one(row)
}

// GetActive returns the user's active cart header
func (r *CartRepository) GetActive(ctx context.Context, userID string) (*models.Cart, error) {
	row := r.q.QueryRowContext(ctx,
		"SELECT "+cartColumns+" FROM carts WHERE user_id = ? AND status = ?", userID, models.CartActive)
	return r.one(row)
}

func (r *CartRepository) one(row *sql.Row) (*models.Cart, error) {
	c, err := scanCart(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return &c, nil
}

// GetOrCreateActive returns the user's active cart, creating it when absent.
// A concurrent creator losing the unique index race re-reads the winner's cart.
func (r *CartRepository) GetOrCreateActive(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := r.GetActive(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}

	ts := formatTime(now())
	_, err = r.q.ExecContext(ctx,
		"INSERT INTO carts (id, user_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), userID, models.CartActive, ts, ts,
	)
	if err != nil && !isUniqueViolation(err) {
		return nil, translateWriteErr("create cart", err)
	}
	return r.GetActive(ctx, userID)
}

// Items returns the cart lines joined with current product data
func (r *CartRepository) Items(ctx context.Context, cartID string) ([]models.CartItem, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT ci.product_id, p.name, p.price, p.currency, ci.quantity, p.stock, p.active, p.image_url, p.provider_product_id
		FROM cart_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = ?
		ORDER BY ci.added_at ASC, p.name ASC`, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	items := make([]models.CartItem, 0)
	for rows.Next() {
		var it models.CartItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.UnitPrice, &it.Currency, &it.Quantity,
			&it.Stock, &it.Active, &it.ImageURL, &it.ProviderProductID); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		it.LineTotal = it.UnitPrice * int64(it.Quantity)
		items = append(items, it)
	}
	return items, rows.Err()
}

// ItemQuantity returns the quantity of productID in the cart, or 0.
func (r *CartRepository) ItemQuantity(ctx context.Context, cartID, productID string) (int, error) {
	var qty int
	err := r.q.QueryRowContext(ctx,
		"SELECT quantity FROM cart_items WHERE cart_id = ? AND product_id = ?", cartID, productID,
	).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get cart item: %w", err)
	}
	return qty, nil
}

// UpsertItem adds qty of productID, incrementing an existing line
func (r *CartRepository) UpsertItem(ctx context.Context, cartID, productID string, qty int) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity, added_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + excluded.quantity`,
		cartID, productID, qty, formatTime(now()),
	)
	if err != nil {
		return translateWriteErr("add cart item", err)
	}
	return r.touch(ctx, cartID)
}

// SetItemQuantity replaces the quantity of an existing or new line
func (r *CartRepository) SetItemQuantity(ctx context.Context, cartID, productID string, qty int) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity, added_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = excluded.quantity`,
		cartID, productID, qty, formatTime(now()),
	)
	if err != nil {
		return translateWriteErr("set cart item", err)
	}
	return r.touch(ctx, cartID)
}

func (r *CartRepository) RemoveItem(ctx context.Context, cartID, productID string) error {
	if _, err := r.q.ExecContext(ctx,
		"DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?", cartID, productID); err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return r.touch(ctx, cartID)
}

func (r *CartRepository) Clear(ctx context.Context, cartID string) error {
	if _, err := r.q.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = ?", cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return r.touch(ctx, cartID)
}

// MarkCheckedOut retires the cart so the next GetOrCreateActive starts a new one.
func (r *CartRepository) MarkCheckedOut(ctx context.Context, cartID string) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE carts SET status = ?, updated_at = ? WHERE id = ?",
		models.CartCheckedOut, formatTime(now()), cartID,
	)
	if err != nil {
		return fmt.Errorf("check out cart: %w", err)
	}
	return expectOne(res, ErrCartNotFound)
}

func (r *CartRepository) touch(ctx context.Context, cartID string) error {
	_, err := r.q.ExecContext(ctx, "UPDATE carts SET updated_at = ? WHERE id = ?", formatTime(now()), cartID)
	return err
}
