package ports

import (
	"context"
	"time"
)

// Event types published after a successful commit.
const (
	EventInventoryUpdated     = "inventory.updated"
	EventOrderUpdated         = "order.updated"
	EventDeliveryUpdated      = "delivery.updated"
	EventDistributionExecuted = "distribution.executed"
)

// DomainEvent is a notification for external consumers. Payload must be JSON
// serialisable.
type DomainEvent struct {
	Type        string    `json:"type"`
	AggregateID string    `json:"aggregateId"`
	OccurredAt  time.Time `json:"occurredAt"`
	Payload     any       `json:"payload,omitempty"`
}

// EventPublisher delivers events at most once. Publish must not block on the
// consumer and its failure never affects the operation that raised the event.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent)
}
