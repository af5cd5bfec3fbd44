package commands

import (
	"context"
	"errors"
	"fmt"

	"distribution/internal/core/application/ledger"
	"distribution/internal/core/domain/model/catalog"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/domain/model/order"
	"distribution/internal/core/ports"
	"distribution/internal/pkg/errs"
)

var ErrWarehouseIsInactive = errors.New("warehouse is inactive")

// CreateOrderCommandHandler handles the business logic for order creation.
// All lines are reserved in one unit of work: the first short line fails the
// whole order and nothing persists.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, locker, publisher)
//	o, err := handler.Handle(ctx, cmd)
//	var lineErr *order.LineReservationError
//	if errors.As(err, &lineErr) {
//	    fmt.Printf("line %d cannot be reserved", lineErr.LineNumber)
//	}
type CreateOrderCommandHandler struct {
	uowFactory UoWFactory
	env        handlerEnv
}

// NewCreateOrderCommandHandler creates a handler for order creation operations.
func NewCreateOrderCommandHandler(
	uowFactory UoWFactory,
	locker ports.KeyLocker,
	publisher ports.EventPublisher,
	opts ...HandlerOption,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		env:        newHandlerEnv(locker, publisher, opts),
	}
}

// Handle validates the client, warehouse and products, prices the lines and
// reserves them at the order's warehouse.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	keys := []string{orderLockKey(cmd.OrderID())}
	for _, productID := range distinctProducts(cmd.Lines()) {
		stockKeys, err := ledger.StockLockKeys(ctx, uow.LotRepository(), productID, cmd.WarehouseID())
		if err != nil {
			return nil, err
		}
		keys = append(keys, stockKeys...)
	}

	unlock, keys, err := h.env.lock(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	client, err := uow.ClientRepository().Get(ctx, cmd.ClientID())
	if err != nil {
		return nil, err
	}
	warehouse, err := uow.WarehouseRepository().Get(ctx, cmd.WarehouseID())
	if err != nil {
		return nil, err
	}
	if !warehouse.Active {
		return nil, errs.NewValueIsInvalidErrorWithCause("warehouse", ErrWarehouseIsInactive)
	}

	lines, err := h.priceLines(ctx, uow, client, cmd.Lines())
	if err != nil {
		return nil, err
	}

	o, err := order.NewOrder(cmd.OrderID(), cmd.ClientID(), cmd.WarehouseID(), cmd.Priority(),
		cmd.RequiredDate(), lines, h.env.now())
	if err != nil {
		return nil, err
	}

	l := h.env.ledger(uow, keys)
	for _, line := range o.Lines() {
		portions, reserveErr := l.Reserve(ctx, line.ProductID(), o.WarehouseID(), line.Quantity(), "")
		if reserveErr != nil {
			return nil, &order.LineReservationError{
				LineNumber: line.Number(),
				ProductID:  line.ProductID(),
				Err:        reserveErr,
			}
		}
		if err = line.AddReservations(portions); err != nil {
			return nil, err
		}
	}

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	now := h.env.now()
	h.env.publish(ctx, append(inventoryEvents(l.Touched(), now), orderEvent(o, now))...)
	return o, nil
}

func (h CreateOrderCommandHandler) priceLines(
	ctx context.Context,
	uow UoW,
	client catalog.Client,
	inputs []OrderLineInput,
) ([]*order.Line, error) {
	lines := make([]*order.Line, 0, len(inputs))
	for i, in := range inputs {
		product, err := uow.ProductRepository().Get(ctx, in.ProductID)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}

		price := product.PriceFor(client.PricingTier)
		if in.UnitPrice != nil {
			price = *in.UnitPrice
		}

		line, err := order.NewLine(in.ProductID, in.Quantity, price)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func distinctProducts(lines []OrderLineInput) []kernel.UUID {
	seen := make(map[kernel.UUID]struct{}, len(lines))
	ids := make([]kernel.UUID, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}
