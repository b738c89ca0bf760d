package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/storefront/internal/middleware"
	"github.com/Lixing-Zhang/storefront/internal/service"
)

type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

func NewReviewHandler(service *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: service, logger: logger}
}

// List handles GET /api/products/{productId}/reviews
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productId", h.logger)
	if !ok {
		return
	}
	reviews, err := h.service.List(r.Context(), productID)
	if err != nil {
		respondError(w, h.logger, "failed to list reviews", err, "productId", productID)
		return
	}
	WriteJSON(w, http.StatusOK, reviews, h.logger)
}

// Create handles POST /api/products/{productId}/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productId", h.logger)
	if !ok {
		return
	}
	var in service.ReviewInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}

	review, err := h.service.Add(r.Context(), middleware.UserID(r.Context()), productID, in)
	if err != nil {
		respondError(w, h.logger, "failed to add review", err, "productId", productID)
		return
	}
	WriteJSON(w, http.StatusCreated, review, h.logger)
}
