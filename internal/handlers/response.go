package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Lixing-Zhang/storefront/internal/repository"
	"github.com/Lixing-Zhang/storefront/internal/service"
)

const (
	maxJSONBody  = 1 << 20
	maxPageLimit = 100
)

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response in JSON format
func WriteError(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}

// errorStatus maps service and repository errors to an HTTP status and a
// client-facing message. Unknown errors are internal.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return http.StatusNotFound, "Product not found"
	case errors.Is(err, repository.ErrCategoryNotFound):
		return http.StatusNotFound, "Category not found"
	case errors.Is(err, repository.ErrProfileNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, repository.ErrOrderNotFound):
		return http.StatusNotFound, "Order not found"
	case errors.Is(err, repository.ErrCartNotFound):
		return http.StatusNotFound, "Cart not found"
	case errors.Is(err, repository.ErrAddressNotFound):
		return http.StatusNotFound, "Address not found"

	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, err.Error()
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "Resource already exists"
	case errors.Is(err, service.ErrProductUnavailable),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, err.Error()

	case errors.Is(err, repository.ErrInvalidReference):
		return http.StatusBadRequest, "Referenced resource does not exist"
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrPasswordTooLong),
		errors.Is(err, service.ErrInvalidCoupon),
		errors.Is(err, service.ErrEmptyCart):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrImagesUnavailable),
		errors.Is(err, service.ErrPaymentUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	}
	return http.StatusInternalServerError, "Internal server error"
}

// respondError logs err and writes the mapped error response. Client errors
// are logged at info level, server errors at error level.
func respondError(w http.ResponseWriter, logger *slog.Logger, msg string, err error, attrs ...any) {
	status, message := errorStatus(err)
	attrs = append(attrs, "error", err, "status", status)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, attrs...)
	} else {
		logger.Info(msg, attrs...)
	}
	WriteError(w, status, message, logger)
}

// pathID returns the named URL parameter when it is a well-formed UUID.
// Otherwise it writes a 400 and returns false.
func pathID(w http.ResponseWriter, r *http.Request, name string, logger *slog.Logger) (string, bool) {
	id := chi.URLParam(r, name)
	if !validUUID(id) {
		logger.Warn("invalid ID format", name, id)
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", logger)
		return "", false
	}
	return id, true
}

func validUUID(s string) bool {
	return uuid.Validate(s) == nil
}

// decodeJSON decodes a bounded request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, logger *slog.Logger) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		logger.Info("invalid request body", "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", logger)
		return false
	}
	return true
}

// pagination reads limit and offset query parameters. Limit is capped at
// maxPageLimit; an offset without a limit pages by maxPageLimit.
func pagination(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if limit, err = queryInt(q.Get("limit"), "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(q.Get("offset"), "offset"); err != nil {
		return 0, 0, err
	}
	if limit > maxPageLimit || (limit == 0 && offset > 0) {
		limit = maxPageLimit
	}
	return limit, offset, nil
}

func queryInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}
