package ports

import (
	"context"

	"distribution/internal/core/domain/model/delivery"
	"distribution/internal/core/domain/model/distribution"
	"distribution/internal/core/domain/model/kernel"
)

// PlanRepository persists distribution plans with their allocations.
type PlanRepository interface {
	Add(ctx context.Context, plan *distribution.Plan) error
	Update(ctx context.Context, plan *distribution.Plan) error
	Get(ctx context.Context, id kernel.UUID) (*distribution.Plan, error)

	// ListByOrder returns the plans holding an allocation for the order.
	ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*distribution.Plan, error)
}

// DeliveryRepository persists deliveries with their stops.
type DeliveryRepository interface {
	Add(ctx context.Context, d *delivery.Delivery) error
	Update(ctx context.Context, d *delivery.Delivery) error
	Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error)
}
