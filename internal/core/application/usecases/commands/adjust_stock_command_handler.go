package commands

import (
	"context"

	"distribution/internal/core/application/ledger"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/ports"
)

type AdjustStockCommandHandler struct {
	uowFactory StockUoWFactory
	env        handlerEnv
}

func NewAdjustStockCommandHandler(
	uowFactory StockUoWFactory,
	locker ports.KeyLocker,
	publisher ports.EventPublisher,
	opts ...HandlerOption,
) AdjustStockCommandHandler {
	return AdjustStockCommandHandler{
		uowFactory: uowFactory,
		env:        newHandlerEnv(locker, publisher, opts),
	}
}

// Handle applies the delta and returns the lots it changed. A positive delta on
// an unknown key opens the lot. A negative delta without location or batch is
// taken from the warehouse's lots.
func (h AdjustStockCommandHandler) Handle(ctx context.Context, cmd AdjustStockCommand) ([]*inventory.Lot, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	keys := []string{cmd.Key().LockKey()}
	if cmd.Delta() < 0 && cmd.Key().Unplaced() {
		warehouseKeys, err := ledger.StockLockKeys(ctx, uow.LotRepository(), cmd.Key().ProductID, cmd.Key().WarehouseID)
		if err != nil {
			return nil, err
		}
		keys = append(keys, warehouseKeys...)
	}

	unlock, keys, err := h.env.lock(ctx, append(keys, cmd.Info().lockKeys()...)...)
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

	if err = requireStockTargets(ctx, uow, cmd.Key().ProductID, cmd.Key().WarehouseID); err != nil {
		return nil, err
	}

	l := h.env.ledger(uow, keys)
	lots, err := l.Adjust(ctx, ledger.Adjustment{
		Key:      cmd.Key(),
		Delta:    cmd.Delta(),
		Movement: cmd.Info().ledgerMovement(),
	})
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.env.publish(ctx, inventoryEvents(l.Touched(), h.env.now())...)
	return lots, nil
}
