package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// couponValidator is satisfied by *coupon.Validator
type couponValidator interface {
	IsValid(ctx context.Context, code string) bool
	GetStats() map[string]interface{}
}

// CouponResponse reports whether a discount code would be accepted at checkout
type CouponResponse struct {
	Valid   bool   `json:"valid"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// CouponHandler lets the storefront check discount codes ahead of checkout
type CouponHandler struct {
	validator couponValidator
	logger    *slog.Logger
}

func NewCouponHandler(validator couponValidator, logger *slog.Logger) *CouponHandler {
	return &CouponHandler{
		validator: validator,
		logger:    logger,
	}
}

// ValidateCoupon handles GET /api/coupons/{couponCode}
// Codes are normalized the same way checkout normalizes them.
func (h *CouponHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "couponCode")))

	if code != "" && h.validator.IsValid(r.Context(), code) {
		WriteJSON(w, http.StatusOK, CouponResponse{Valid: true, Code: code}, h.logger)
		return
	}

	h.logger.Debug("coupon rejected", "code", code)
	WriteJSON(w, http.StatusNotFound, CouponResponse{
		Code:    code,
		Message: "Coupon not found or invalid",
	}, h.logger)
}

// GetStats handles GET /api/coupons/stats
func (h *CouponHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.validator.GetStats(), h.logger)
}
