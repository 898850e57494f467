package events

import (
	"context"
	"log/slog"

	"anoa.com/pencraft/pkg/metrics"
)

// Emit publishes after a committed mutation. Delivery failures are logged
// and counted, never returned.
func Emit(ctx context.Context, p Publisher, subject, key string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, subject, key, payload); err != nil {
		metrics.EventPublishFailures.WithLabelValues(subject).Inc()
		slog.Warn("failed to publish event", "subject", subject, "key", key, "error", err)
	}
}
