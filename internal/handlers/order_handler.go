package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/storefront/internal/middleware"
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/service"
)

// ProfileReader looks up the caller's profile. *service.AuthService implements it.
type ProfileReader interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// OrderHandler handles checkout and order-related HTTP requests
type OrderHandler struct {
	orderService    *service.OrderService
	checkoutService *service.CheckoutService
	profiles        ProfileReader
	log             *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, checkoutService *service.CheckoutService, profiles ProfileReader, log *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService:    orderService,
		checkoutService: checkoutService,
		profiles:        profiles,
		log:             log,
	}
}

// Checkout handles POST /api/checkout
// Opens a provider checkout for the caller's active cart. The order itself is
// created when the provider reports the payment through a webhook.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest

	// an empty body means no coupon
	if err := decodeOptionalJSON(r, &req); err != nil {
		h.log.Info("failed to decode checkout request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	userID := middleware.UserID(r.Context())
	profile, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		respondError(w, h.log, "failed to load profile for checkout", err, "user_id", userID)
		return
	}

	session, err := h.checkoutService.CreateSession(r.Context(), userID, profile.Email, req)
	if err != nil {
		respondError(w, h.log, "failed to create checkout", err, "user_id", userID)
		return
	}

	WriteJSON(w, http.StatusCreated, session, h.log)
}

func decodeOptionalJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil || len(body) == 0 {
		return err
	}
	return json.Unmarshal(body, v)
}

// ListOrders handles GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListForUser(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, h.log, "failed to list orders", err)
		return
	}
	WriteJSON(w, http.StatusOK, orders, h.log)
}

// GetOrder handles GET /api/orders/{orderId}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderId", h.log)
	if !ok {
		return
	}
	order, err := h.orderService.GetForUser(r.Context(), middleware.UserID(r.Context()), orderID)
	if err != nil {
		respondError(w, h.log, "failed to get order", err, "order_id", orderID)
		return
	}
	WriteJSON(w, http.StatusOK, order, h.log)
}

// AdminListOrders handles GET /api/admin/orders?status=
func (h *OrderHandler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.log)
		return
	}
	filter := models.OrderFilter{Status: r.URL.Query().Get("status"), Limit: limit, Offset: offset}

	orders, err := h.orderService.List(r.Context(), filter)
	if err != nil {
		respondError(w, h.log, "failed to list orders", err, "status", filter.Status)
		return
	}
	WriteJSON(w, http.StatusOK, orders, h.log)
}

// AdminGetOrder handles GET /api/admin/orders/{orderId}
func (h *OrderHandler) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderId", h.log)
	if !ok {
		return
	}
	order, err := h.orderService.Get(r.Context(), orderID)
	if err != nil {
		respondError(w, h.log, "failed to get order", err, "order_id", orderID)
		return
	}
	WriteJSON(w, http.StatusOK, order, h.log)
}

type statusUpdate struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/admin/orders/{orderId}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderId", h.log)
	if !ok {
		return
	}
	var req statusUpdate
	if !decodeJSON(w, r, &req, h.log) {
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			h.log.Warn("rejected order status change", "order_id", orderID, "status", req.Status)
		}
		respondError(w, h.log, "failed to update order status", err, "order_id", orderID)
		return
	}

	h.log.Info("order status updated", "order_id", orderID, "status", order.Status)
	WriteJSON(w, http.StatusOK, order, h.log)
}
