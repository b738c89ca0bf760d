package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/storefront/internal/service"
)

// CategoryHandler serves the public category list and admin category management
type CategoryHandler struct {
	service *service.CategoryService
	logger  *slog.Logger
}

func NewCategoryHandler(service *service.CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{service: service, logger: logger}
}

// List handles GET /api/categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		respondError(w, h.logger, "failed to list categories", err)
		return
	}
	WriteJSON(w, http.StatusOK, categories, h.logger)
}

// Get handles GET /api/categories/{slug}
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	category, err := h.service.GetBySlug(r.Context(), slug)
	if err != nil {
		respondError(w, h.logger, "failed to get category", err, "slug", slug)
		return
	}
	WriteJSON(w, http.StatusOK, category, h.logger)
}

// Create handles POST /api/admin/categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}
	category, err := h.service.Create(r.Context(), in)
	if err != nil {
		respondError(w, h.logger, "failed to create category", err)
		return
	}
	WriteJSON(w, http.StatusCreated, category, h.logger)
}

// Update handles PUT /api/admin/categories/{categoryId}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "categoryId", h.logger)
	if !ok {
		return
	}
	var in service.CategoryInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}
	category, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		respondError(w, h.logger, "failed to update category", err, "categoryId", id)
		return
	}
	WriteJSON(w, http.StatusOK, category, h.logger)
}

// Delete handles DELETE /api/admin/categories/{categoryId}
// Products in the category are kept without one.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "categoryId", h.logger)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, "failed to delete category", err, "categoryId", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
