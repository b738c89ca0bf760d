package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/service"
)

// MaxImageSize bounds product image uploads.
const MaxImageSize = 5 << 20

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// ListProducts handles GET /api/products
// Query: category, q, min_price, max_price, sort, limit, offset. Inactive products are hidden.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilter(r)
	if err != nil {
		h.logger.Info("invalid product filter", "query", r.URL.RawQuery, "error", err)
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	products, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		respondError(w, h.logger, "failed to list products", err)
		return
	}

	WriteJSON(w, http.StatusOK, products, h.logger)
}

func productFilter(r *http.Request) (models.ProductFilter, error) {
	q := r.URL.Query()
	f := models.ProductFilter{
		CategorySlug: q.Get("category"),
		Search:       strings.TrimSpace(q.Get("q")),
		Sort:         q.Get("sort"),
	}

	switch f.Sort {
	case "", models.SortNewest, models.SortPriceAsc, models.SortPriceDesc, models.SortName:
	default:
		return f, fmt.Errorf("unknown sort %q", f.Sort)
	}

	for _, bound := range []struct {
		name string
		dst  **int64
	}{
		{"min_price", &f.MinPrice},
		{"max_price", &f.MaxPrice},
	} {
		raw := q.Get(bound.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return f, fmt.Errorf("%s must be a non-negative integer", bound.name)
		}
		*bound.dst = &v
	}

	var err error
	f.Limit, f.Offset, err = pagination(r)
	return f, err
}

// GetProduct handles GET /api/products/{productId}
// - 200: successful operation
// - 400: Invalid ID supplied
// - 404: Product not found
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productId", h.logger)
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), productID)
	if err != nil {
		respondError(w, h.logger, "failed to get product", err, "productId", productID)
		return
	}

	WriteJSON(w, http.StatusOK, product, h.logger)
}

// CreateProduct handles POST /api/admin/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in models.ProductInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}

	product, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		respondError(w, h.logger, "failed to create product", err)
		return
	}

	h.logger.Info("product created", "productId", product.ID, "slug", product.Slug)
	WriteJSON(w, http.StatusCreated, product, h.logger)
}

// UpdateProduct handles PUT /api/admin/products/{productId}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productId", h.logger)
	if !ok {
		return
	}
	var in models.ProductInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), productID, in)
	if err != nil {
		respondError(w, h.logger, "failed to update product", err, "productId", productID)
		return
	}

	WriteJSON(w, http.StatusOK, product, h.logger)
}

// DeleteProduct handles DELETE /api/admin/products/{productId}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productId", h.logger)
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), productID); err != nil {
		respondError(w, h.logger, "failed to delete product", err, "productId", productID)
		return
	}

	h.logger.Info("product deleted", "productId", productID)
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage handles POST /api/admin/products/{productId}/image
// Expects a multipart form with an "image" file of at most MaxImageSize bytes.
// The stored content type is sniffed from the file, not taken from the client.
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productId", h.logger)
	if !ok {
		return
	}

	// headroom for the multipart envelope
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageSize+64<<10)
	if err := r.ParseMultipartForm(MaxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "Image must be at most 5 MiB", h.logger)
			return
		}
		h.logger.Info("invalid multipart upload", "productId", productID, "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid multipart form", h.logger)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		WriteError(w, http.StatusBadRequest, `Missing "image" file`, h.logger)
		return
	}
	defer file.Close()

	if header.Size > MaxImageSize {
		WriteError(w, http.StatusRequestEntityTooLarge, "Image must be at most 5 MiB", h.logger)
		return
	}

	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		WriteError(w, http.StatusBadRequest, "Empty image file", h.logger)
		return
	}
	contentType := http.DetectContentType(sniff[:n])
	if !strings.HasPrefix(contentType, "image/") {
		WriteError(w, http.StatusBadRequest, "File must be an image", h.logger)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		respondError(w, h.logger, "failed to rewind upload", err, "productId", productID)
		return
	}

	product, err := h.service.UploadImage(r.Context(), productID, contentType, file)
	if err != nil {
		respondError(w, h.logger, "failed to upload product image", err, "productId", productID)
		return
	}

	h.logger.Info("product image uploaded", "productId", productID, "url", product.ImageURL, "bytes", header.Size)
	WriteJSON(w, http.StatusOK, product, h.logger)
}
