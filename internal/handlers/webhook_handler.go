package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/storefront/internal/payment"
	"github.com/Lixing-Zhang/storefront/internal/service"
)

const maxWebhookBody = 1 << 20

// EventProcessor applies a verified provider event. *service.WebhookService implements it.
type EventProcessor interface {
	Handle(ctx context.Context, eventID string, ev *payment.Event) error
}

// WebhookHandler receives Polar deliveries on two endpoints that differ only
// in how failures are reported back to the provider:
//   - Strict answers 400 for payloads that will never succeed and 500 for
//     failures worth a redelivery.
//   - Lenient answers 200 for anything that passed signature verification,
//     so the provider never retries.
//
// A nil verifier accepts unsigned deliveries.
type WebhookHandler struct {
	verifier *payment.Verifier
	events   EventProcessor
	logger   *slog.Logger
}

func NewWebhookHandler(verifier *payment.Verifier, events EventProcessor, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, events: events, logger: logger}
}

// webhookError carries the status the strict endpoint answers with.
type webhookError struct {
	status int
	err    error
}

func (e *webhookError) Error() string { return e.err.Error() }
func (e *webhookError) Unwrap() error { return e.err }

// Strict handles POST /api/webhooks/polar
func (h *WebhookHandler) Strict(w http.ResponseWriter, r *http.Request) {
	resp, err := h.process(w, r)
	if err != nil {
		var we *webhookError
		errors.As(err, &we)
		if we.status >= http.StatusInternalServerError {
			h.logger.Error("webhook processing failed", "error", err, "webhook_id", r.Header.Get(payment.HeaderWebhookID))
		} else {
			h.logger.Warn("webhook rejected", "error", err, "status", we.status, "webhook_id", r.Header.Get(payment.HeaderWebhookID))
		}
		WriteError(w, we.status, http.StatusText(we.status), h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, resp, h.logger)
}

// Lenient handles POST /api/polar/webhooks
func (h *WebhookHandler) Lenient(w http.ResponseWriter, r *http.Request) {
	resp, err := h.process(w, r)
	if err != nil {
		var we *webhookError
		errors.As(err, &we)
		if we.status == http.StatusUnauthorized {
			h.logger.Warn("webhook rejected", "error", err, "webhook_id", r.Header.Get(payment.HeaderWebhookID))
			WriteError(w, we.status, http.StatusText(we.status), h.logger)
			return
		}
		h.logger.Error("webhook processing failed, acknowledging anyway",
			"error", err,
			"status", we.status,
			"webhook_id", r.Header.Get(payment.HeaderWebhookID),
		)
		WriteJSON(w, http.StatusOK, map[string]any{"received": true, "processed": false}, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, resp, h.logger)
}

// process verifies, parses and applies one delivery. Every returned error is a *webhookError.
func (h *WebhookHandler) process(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		return nil, &webhookError{http.StatusBadRequest, fmt.Errorf("read body: %w", err)}
	}

	if h.verifier != nil {
		if err := h.verifier.Verify(r.Header, body); err != nil {
			return nil, &webhookError{http.StatusUnauthorized, err}
		}
	}

	ev, err := payment.ParseEvent(body)
	if err != nil {
		return nil, &webhookError{http.StatusBadRequest, err}
	}

	eventID := r.Header.Get(payment.HeaderWebhookID)
	err = h.events.Handle(r.Context(), eventID, ev)
	switch {
	case errors.Is(err, service.ErrDuplicateEvent):
		h.logger.Info("duplicate webhook acknowledged", "webhook_id", eventID, "type", ev.Type)
		return map[string]any{"received": true, "duplicate": true}, nil
	case err != nil && service.IsPermanent(err):
		return nil, &webhookError{http.StatusBadRequest, fmt.Errorf("%s: %w", ev.Type, err)}
	case err != nil:
		return nil, &webhookError{http.StatusInternalServerError, fmt.Errorf("%s: %w", ev.Type, err)}
	}

	h.logger.Info("webhook processed", "webhook_id", eventID, "type", ev.Type)
	return map[string]any{"received": true}, nil
}
