package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/storefront/internal/middleware"
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/service"
)

// AddressLister returns the addresses captured from a user's checkouts
type AddressLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.Address, error)
}

// AuthHandler serves registration, login and the caller's own profile
type AuthHandler struct {
	auth      *service.AuthService
	addresses AddressLister
	logger    *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, addresses AddressLister, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, addresses: addresses, logger: logger}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if !decodeJSON(w, r, &creds, h.logger) {
		return
	}

	resp, err := h.auth.Register(r.Context(), creds)
	if err != nil {
		respondError(w, h.logger, "registration failed", err)
		return
	}

	h.logger.Info("profile registered", "user_id", resp.Profile.ID, "role", resp.Profile.Role)
	WriteJSON(w, http.StatusCreated, resp, h.logger)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if !decodeJSON(w, r, &creds, h.logger) {
		return
	}

	resp, err := h.auth.Login(r.Context(), creds)
	if err != nil {
		respondError(w, h.logger, "login failed", err)
		return
	}
	WriteJSON(w, http.StatusOK, resp, h.logger)
}

// GetProfile handles GET /api/profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	profile, err := h.auth.GetProfile(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, "failed to get profile", err, "user_id", userID)
		return
	}
	WriteJSON(w, http.StatusOK, profile, h.logger)
}

type profileUpdate struct {
	FullName string `json:"fullName"`
}

// UpdateProfile handles PUT /api/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileUpdate
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	userID := middleware.UserID(r.Context())
	profile, err := h.auth.UpdateProfile(r.Context(), userID, req.FullName)
	if err != nil {
		respondError(w, h.logger, "failed to update profile", err, "user_id", userID)
		return
	}
	WriteJSON(w, http.StatusOK, profile, h.logger)
}

// ListAddresses handles GET /api/addresses
func (h *AuthHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	addresses, err := h.addresses.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, "failed to list addresses", err, "user_id", userID)
		return
	}
	WriteJSON(w, http.StatusOK, addresses, h.logger)
}

// ListUsers handles GET /api/admin/users
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	users, err := h.auth.ListUsers(r.Context(), limit, offset)
	if err != nil {
		respondError(w, h.logger, "failed to list users", err)
		return
	}
	WriteJSON(w, http.StatusOK, users, h.logger)
}

type roleUpdate struct {
	Role string `json:"role"`
}

// SetRole handles PATCH /api/admin/users/{userId}/role
func (h *AuthHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", h.logger)
	if !ok {
		return
	}
	var req roleUpdate
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	profile, err := h.auth.SetRole(r.Context(), userID, req.Role)
	if err != nil {
		respondError(w, h.logger, "failed to set role", err, "user_id", userID)
		return
	}

	h.logger.Info("role changed", "user_id", userID, "role", profile.Role, "by", middleware.UserID(r.Context()))
	WriteJSON(w, http.StatusOK, profile, h.logger)
}
