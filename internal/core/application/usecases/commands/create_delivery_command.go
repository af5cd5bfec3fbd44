package commands

import (
	"errors"
	"slices"
	"time"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"
	"distribution/internal/pkg/guard"
)

var ErrCreateDeliveryCommandIsNotConstructed = errors.New(
	"CreateDeliveryCommand must be created via NewCreateDeliveryCommand constructor",
)

// CreateDeliveryCommand schedules a route from a warehouse through the clients
// of the given orders.
type CreateDeliveryCommand struct { //nolint:recvcheck //using for validation
	deliveryID    kernel.UUID
	warehouseID   kernel.UUID
	scheduledDate time.Time
	orderIDs      []kernel.UUID

	guard guard.ConstructorGuard
}

func NewCreateDeliveryCommand(
	deliveryID, warehouseID kernel.UUID,
	scheduledDate time.Time,
	orderIDs []kernel.UUID,
) (CreateDeliveryCommand, error) {
	errList := []error{deliveryID.Validate(), warehouseID.Validate()}
	if scheduledDate.IsZero() {
		errList = append(errList, errs.NewValueIsRequiredError("scheduled date"))
	}
	if len(orderIDs) == 0 {
		errList = append(errList, errs.NewValueIsRequiredError("order ids"))
	}
	for _, id := range orderIDs {
		errList = append(errList, id.Validate())
	}
	if err := errors.Join(errList...); err != nil {
		return CreateDeliveryCommand{}, err
	}

	return CreateDeliveryCommand{
		deliveryID:    deliveryID,
		warehouseID:   warehouseID,
		scheduledDate: scheduledDate,
		orderIDs:      dedupIDs(orderIDs),
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func (c CreateDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrCreateDeliveryCommandIsNotConstructed)
}

func (c CreateDeliveryCommand) DeliveryID() kernel.UUID {
	return c.deliveryID
}

func (c CreateDeliveryCommand) WarehouseID() kernel.UUID {
	return c.warehouseID
}

func (c CreateDeliveryCommand) ScheduledDate() time.Time {
	return c.scheduledDate
}

func (c CreateDeliveryCommand) OrderIDs() []kernel.UUID {
	return slices.Clone(c.orderIDs)
}
