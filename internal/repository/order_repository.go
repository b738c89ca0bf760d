package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/google/uuid"
)

type OrderRepository struct {
	q DBTX
}

const orderColumns = `id, user_id, COALESCE(cart_id, ''), COALESCE(address_id, ''), checkout_id, provider_order_id,
	status, currency, subtotal, discount, total, coupon_code, customer_email, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.UserID, &o.CartID, &o.AddressID, &o.CheckoutID, &o.ProviderOrderID,
		&o.Status, &o.Currency, &o.Subtotal, &o.Discount, &o.Total, &o.CouponCode, &o.CustomerEmail,
		scanTime(&o.CreatedAt), scanTime(&o.UpdatedAt))
	return o, err
}

// Create inserts the order and its items. Callers wanting atomicity run it inside Store.InTx.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	ts := now()
	o.CreatedAt, o.UpdatedAt = ts, ts

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, cart_id, address_id, checkout_id, provider_order_id, status, currency,
			subtotal, discount, total, coupon_code, customer_email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, nullable(o.CartID), nullable(o.AddressID), o.CheckoutID, o.ProviderOrderID, o.Status, o.Currency,
		o.Subtotal, o.Discount, o.Total, o.CouponCode, o.CustomerEmail, formatTime(ts), formatTime(ts),
	)
	if err != nil {
		return translateWriteErr("create order", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.OrderID = o.ID
		if item.LineTotal != item.UnitPrice*int64(item.Quantity) {
			return fmt.Errorf("item %d: line total mismatch", i)
		}
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, unit_price, quantity, line_total)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.OrderID, item.ProductID, item.Name, item.UnitPrice, item.Quantity, item.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item %d: %w", i, err)
		}
	}
	return nil
}

// GetByID returns the order with its items and address
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return r.getOne(ctx, "id", id)
}

// GetByCheckoutID finds the order reconciled from a provider checkout session
func (r *OrderRepository) GetByCheckoutID(ctx context.Context, checkoutID string) (*models.Order, error) {
	return r.getOne(ctx, "checkout_id", checkoutID)
}

func (r *OrderRepository) getOne(ctx context.Context, column, value string) (*models.Order, error) {
	o, err := scanOrder(r.q.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE "+column+" = ?", value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := r.hydrate(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser returns the user's order history, newest first
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY created_at DESC", userID)
}

// List returns orders for the back-office, optionally filtered by status
func (r *OrderRepository) List(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders"
	var args []any
	if f.Status != "" {
		query += " WHERE status = ?"
		args = append(args, f.Status)
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}
	return r.list(ctx, query, args...)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]models.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Release the connection before issuing the per-order item queries.
	rows.Close()

	for i := range orders {
		if err := r.hydrate(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *OrderRepository) hydrate(ctx context.Context, o *models.Order) error {
	items, err := r.items(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Items = items

	if o.AddressID != "" {
		a, err := scanAddress(r.q.QueryRowContext(ctx, "SELECT "+addressColumns+" FROM addresses WHERE id = ?", o.AddressID))
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("get order address: %w", err)
		}
		if err == nil {
			o.Address = &a
		}
	}
	return nil
}

func (r *OrderRepository) items(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, unit_price, quantity, line_total
		FROM order_items WHERE order_id = ? ORDER BY rowid`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	items := make([]models.OrderItem, 0)
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.UnitPrice, &it.Quantity, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateStatus sets the order status
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE orders SET status = ?, updated_at = ? WHERE id = ?", status, formatTime(now()), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return expectOne(res, ErrOrderNotFound)
}

// SetProviderOrderID links the local order to the provider's order record
func (r *OrderRepository) SetProviderOrderID(ctx context.Context, id, providerOrderID string) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE orders SET provider_order_id = ?, updated_at = ? WHERE id = ?", providerOrderID, formatTime(now()), id)
	if err != nil {
		return fmt.Errorf("set provider order id: %w", err)
	}
	return expectOne(res, ErrOrderNotFound)
}
