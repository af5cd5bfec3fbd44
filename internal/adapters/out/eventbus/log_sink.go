package eventbus

import (
	"context"
	"log/slog"

	"distribution/internal/core/ports"
)

// LogSink writes events to a structured logger. It is the sink used when no
// broker is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) LogSink {
	return LogSink{logger: logger.With("component", "events")}
}

func (s LogSink) Send(ctx context.Context, event ports.DomainEvent) error {
	s.logger.InfoContext(ctx, "domain event",
		"type", event.Type,
		"aggregate_id", event.AggregateID,
		"occurred_at", event.OccurredAt,
		"payload", event.Payload,
	)
	return nil
}
