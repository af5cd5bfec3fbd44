package commands

import (
	"context"
	"fmt"

	"distribution/internal/core/domain/model/delivery"
	"distribution/internal/core/domain/model/order"
	"distribution/internal/core/domain/services"
	"distribution/internal/core/ports"
	"distribution/internal/pkg/errs"
)

var (
	errWarehouseHasNoLocation = fmt.Errorf("warehouse has no coordinates")
	errClientHasNoLocation    = fmt.Errorf("client has no coordinates")
)

// CreateDeliveryCommandHandler sequences the stops with the route sequencer and
// persists the delivery.
type CreateDeliveryCommandHandler struct {
	uowFactory DeliveryUoWFactory
	sequencer  services.RouteSequencer
	env        handlerEnv
}

func NewCreateDeliveryCommandHandler(
	uowFactory DeliveryUoWFactory,
	sequencer services.RouteSequencer,
	publisher ports.EventPublisher,
	opts ...HandlerOption,
) CreateDeliveryCommandHandler {
	return CreateDeliveryCommandHandler{
		uowFactory: uowFactory,
		sequencer:  sequencer,
		env:        newHandlerEnv(nil, publisher, opts),
	}
}

// Handle rejects orders that are cancelled, delivered or failed.
func (h CreateDeliveryCommandHandler) Handle(ctx context.Context, cmd CreateDeliveryCommand) (*delivery.Delivery, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	warehouse, err := uow.WarehouseRepository().Get(ctx, cmd.WarehouseID())
	if err != nil {
		return nil, err
	}
	if warehouse.Location == nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("warehouse", errWarehouseHasNoLocation)
	}

	orders, err := uow.OrderRepository().ListByIDs(ctx, cmd.OrderIDs())
	if err != nil {
		return nil, err
	}

	stops := make([]services.RouteStop, 0, len(orders))
	for _, o := range orders {
		if o.Status().IsTerminal() || o.Status() == order.Failed {
			return nil, errs.NewValueIsInvalidErrorWithCause("order",
				fmt.Errorf("order %s is %s", o.ID(), o.Status()))
		}
		client, clientErr := uow.ClientRepository().Get(ctx, o.ClientID())
		if clientErr != nil {
			return nil, clientErr
		}
		if client.Location == nil {
			return nil, errs.NewValueIsInvalidErrorWithCause("client",
				fmt.Errorf("%w: client %s of order %s", errClientHasNoLocation, client.ID, o.ID()))
		}
		stops = append(stops, services.RouteStop{OrderID: o.ID(), Location: *client.Location, Priority: o.Priority()})
	}

	route, err := h.sequencer.Sequence(*warehouse.Location, stops)
	if err != nil {
		return nil, err
	}

	deliveryStops := make([]delivery.Stop, 0, len(route.Stops))
	for _, s := range route.Stops {
		deliveryStops = append(deliveryStops, delivery.Stop{
			OrderID:        s.OrderID,
			SequenceNumber: s.Sequence,
			Destination:    s.Location,
			Priority:       s.Priority,
			HopDistanceKm:  s.HopDistanceKm,
			Status:         delivery.StopPending,
		})
	}

	d, err := delivery.NewDelivery(cmd.DeliveryID(), warehouse.ID, cmd.ScheduledDate(), deliveryStops,
		route.TotalDistanceKm, route.EstimatedMinutes)
	if err != nil {
		return nil, err
	}

	if err = uow.DeliveryRepository().Add(ctx, d); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.env.publish(ctx, deliveryEvent(d, h.env.now()))
	return d, nil
}
