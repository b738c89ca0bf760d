package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

// orderTransitions lists the statuses an admin may move an order to.
var orderTransitions = map[string][]string{
	models.OrderPending:   {models.OrderPaid, models.OrderCancelled},
	models.OrderPaid:      {models.OrderShipped, models.OrderRefunded, models.OrderCancelled},
	models.OrderShipped:   {models.OrderDelivered},
	models.OrderDelivered: {models.OrderRefunded},
}

// ValidOrderStatus reports whether status is a known order status
func ValidOrderStatus(status string) bool {
	switch status {
	case models.OrderPending, models.OrderPaid, models.OrderShipped,
		models.OrderDelivered, models.OrderCancelled, models.OrderRefunded:
		return true
	}
	return false
}

// CanTransition reports whether an order in status from may move to status to
func CanTransition(from, to string) bool {
	return slices.Contains(orderTransitions[from], to)
}

// OrderService handles business logic for orders
type OrderService struct {
	repo *repository.OrderRepository
}

// NewOrderService creates a new order service
func NewOrderService(repo *repository.OrderRepository) *OrderService {
	return &OrderService{repo: repo}
}

// ListForUser returns the user's order history, newest first
func (s *OrderService) ListForUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// GetForUser returns one of the user's orders. Orders of other users read as not found.
func (s *OrderService) GetForUser(ctx context.Context, userID, orderID string) (*models.Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

// List returns all orders for the back-office, optionally filtered by status
func (s *OrderService) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	if filter.Status != "" && !ValidOrderStatus(filter.Status) {
		return nil, ErrInvalidStatus
	}
	return s.repo.List(ctx, filter)
}

func (s *OrderService) Get(ctx context.Context, orderID string) (*models.Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// UpdateStatus moves an order along the fulfilment lifecycle
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	if !ValidOrderStatus(status) {
		return nil, ErrInvalidStatus
	}
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, status)
	}
	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, orderID)
}
