package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/storefront/internal/middleware"
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/service"
)

// CartHandler handles the authenticated caller's cart
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

func NewCartHandler(service *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: service, logger: logger}
}

// GetCart handles GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, h.logger, "failed to get cart", err)
		return
	}
	WriteJSON(w, http.StatusOK, cart, h.logger)
}

// ClearCart handles DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.Clear(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, h.logger, "failed to clear cart", err)
		return
	}
	WriteJSON(w, http.StatusOK, cart, h.logger)
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req models.CartItemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if !validUUID(req.ProductID) {
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.logger)
		return
	}

	cart, err := h.service.AddItem(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		respondError(w, h.logger, "failed to add cart item", err, "productId", req.ProductID)
		return
	}
	WriteJSON(w, http.StatusOK, cart, h.logger)
}

type quantityUpdate struct {
	Quantity *int `json:"quantity"`
}

// UpdateItem handles PUT /api/cart/items/{productId}. Quantity 0 removes the line.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productId", h.logger)
	if !ok {
		return
	}
	var req quantityUpdate
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.Quantity == nil {
		WriteError(w, http.StatusBadRequest, "quantity is required", h.logger)
		return
	}

	cart, err := h.service.SetQuantity(r.Context(), middleware.UserID(r.Context()), productID, *req.Quantity)
	if err != nil {
		respondError(w, h.logger, "failed to update cart item", err, "productId", productID)
		return
	}
	WriteJSON(w, http.StatusOK, cart, h.logger)
}

// RemoveItem handles DELETE /api/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productId", h.logger)
	if !ok {
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), middleware.UserID(r.Context()), productID)
	if err != nil {
		respondError(w, h.logger, "failed to remove cart item", err, "productId", productID)
		return
	}
	WriteJSON(w, http.StatusOK, cart, h.logger)
}
