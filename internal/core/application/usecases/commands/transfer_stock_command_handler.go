package commands

import (
	"context"

	"distribution/internal/core/application/ledger"
	"distribution/internal/core/ports"
)

// TransferStockCommandHandler runs both legs of a transfer in one unit of work:
// a failure on either side leaves source and destination unchanged.
type TransferStockCommandHandler struct {
	uowFactory StockUoWFactory
	env        handlerEnv
}

func NewTransferStockCommandHandler(
	uowFactory StockUoWFactory,
	locker ports.KeyLocker,
	publisher ports.EventPublisher,
	opts ...HandlerOption,
) TransferStockCommandHandler {
	return TransferStockCommandHandler{
		uowFactory: uowFactory,
		env:        newHandlerEnv(locker, publisher, opts),
	}
}

func (h TransferStockCommandHandler) Handle(
	ctx context.Context,
	cmd TransferStockCommand,
) (ledger.TransferResult, error) {
	if err := cmd.Validate(); err != nil {
		return ledger.TransferResult{}, err
	}

	uow := h.uowFactory.Create()
	keys, err := h.lockKeys(ctx, uow.LotRepository(), cmd)
	if err != nil {
		return ledger.TransferResult{}, err
	}

	unlock, keys, err := h.env.lock(ctx, keys...)
	if err != nil {
		return ledger.TransferResult{}, err
	}
	defer unlock()

	if err = uow.Begin(ctx); err != nil {
		return ledger.TransferResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = requireStockTargets(ctx, uow, cmd.ProductID(), cmd.FromWarehouseID(), cmd.ToWarehouseID()); err != nil {
		return ledger.TransferResult{}, err
	}

	l := h.env.ledger(uow, keys)
	result, err := l.Transfer(ctx, ledger.TransferRequest{
		ProductID:       cmd.ProductID(),
		FromWarehouseID: cmd.FromWarehouseID(),
		ToWarehouseID:   cmd.ToWarehouseID(),
		Quantity:        cmd.Quantity(),
		LotIDs:          cmd.LotIDs(),
		Movement:        cmd.Info().ledgerMovement(),
	})
	if err != nil {
		return ledger.TransferResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return ledger.TransferResult{}, err
	}

	h.env.publish(ctx, inventoryEvents(l.Touched(), h.env.now())...)
	return result, nil
}

func (h TransferStockCommandHandler) lockKeys(
	ctx context.Context,
	lots ports.LotRepository,
	cmd TransferStockCommand,
) ([]string, error) {
	keys := cmd.Info().lockKeys()
	if len(cmd.LotIDs()) == 0 {
		transferKeys, err := ledger.TransferLockKeys(ctx, lots, cmd.ProductID(), cmd.FromWarehouseID(), cmd.ToWarehouseID())
		if err != nil {
			return nil, err
		}
		return append(keys, transferKeys...), nil
	}

	for _, id := range cmd.LotIDs() {
		lot, err := lots.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		keys = append(keys, lot.Key().LockKey(), lot.Key().WithWarehouse(cmd.ToWarehouseID()).LockKey())
	}
	return keys, nil
}
