package commands

import (
	"context"
	"errors"

	"distribution/internal/core/domain/model/delivery"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/ports"
	"distribution/internal/pkg/guard"
)

var ErrUpdateDeliveryStopCommandIsNotConstructed = errors.New(
	"UpdateDeliveryStopCommand must be created via NewUpdateDeliveryStopCommand constructor",
)

// UpdateDeliveryStopCommand records a stop outcome. It does not move the order;
// drivers report stops, the order flow is driven separately.
type UpdateDeliveryStopCommand struct { //nolint:recvcheck //using for validation
	deliveryID kernel.UUID
	orderID    kernel.UUID
	status     delivery.StopStatus

	guard guard.ConstructorGuard
}

func NewUpdateDeliveryStopCommand(
	deliveryID, orderID kernel.UUID,
	status delivery.StopStatus,
) (UpdateDeliveryStopCommand, error) {
	if err := errors.Join(deliveryID.Validate(), orderID.Validate(), status.Validate()); err != nil {
		return UpdateDeliveryStopCommand{}, err
	}
	return UpdateDeliveryStopCommand{
		deliveryID: deliveryID,
		orderID:    orderID,
		status:     status,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateDeliveryStopCommand) Validate() error {
	return c.guard.Validate(ErrUpdateDeliveryStopCommandIsNotConstructed)
}

func (c UpdateDeliveryStopCommand) DeliveryID() kernel.UUID {
	return c.deliveryID
}

func (c UpdateDeliveryStopCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c UpdateDeliveryStopCommand) Status() delivery.StopStatus {
	return c.status
}

type UpdateDeliveryStopCommandHandler struct {
	uowFactory DeliveryUoWFactory
	env        handlerEnv
}

func NewUpdateDeliveryStopCommandHandler(
	uowFactory DeliveryUoWFactory,
	locker ports.KeyLocker,
	publisher ports.EventPublisher,
	opts ...HandlerOption,
) UpdateDeliveryStopCommandHandler {
	return UpdateDeliveryStopCommandHandler{
		uowFactory: uowFactory,
		env:        newHandlerEnv(locker, publisher, opts),
	}
}

func (h UpdateDeliveryStopCommandHandler) Handle(
	ctx context.Context,
	cmd UpdateDeliveryStopCommand,
) (*delivery.Delivery, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	unlock, _, err := h.env.lock(ctx, deliveryLockKey(cmd.DeliveryID()))
	if err != nil {
		return nil, err
	}
	defer unlock()

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	d, err := uow.DeliveryRepository().Get(ctx, cmd.DeliveryID())
	if err != nil {
		return nil, err
	}
	if _, err = d.UpdateStop(cmd.OrderID(), cmd.Status()); err != nil {
		return nil, err
	}
	if err = uow.DeliveryRepository().Update(ctx, d); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.env.publish(ctx, deliveryEvent(d, h.env.now()))
	return d, nil
}
