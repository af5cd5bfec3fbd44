package ports

import (
	"context"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates,
// lines and line reservations included.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists the status and line reservations of an existing order.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier. Inside a
	// transaction the order row is locked until commit.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// ListByIDs returns the orders in the order of ids; any missing id fails
	// with errs.ObjectNotFoundError.
	ListByIDs(ctx context.Context, ids []kernel.UUID) ([]*order.Order, error)
}
