package repository

import (
	"context"
	"fmt"
)

// WebhookEventRepository remembers delivered webhook ids so redeliveries are acknowledged without reprocessing.
type WebhookEventRepository struct {
	q DBTX
}

func (r *WebhookEventRepository) Seen(ctx context.Context, id string) (bool, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM webhook_events WHERE id = ?", id).Scan(&n); err != nil {
		return false, fmt.Errorf("lookup webhook event: %w", err)
	}
	return n > 0, nil
}

func (r *WebhookEventRepository) Record(ctx context.Context, id, eventType string) error {
	_, err := r.q.ExecContext(ctx,
		"INSERT INTO webhook_events (id, type, received_at) VALUES (?, ?, ?)",
		id, eventType, formatTime(now()),
	)
	return translateWriteErr("record webhook event", err)
}
