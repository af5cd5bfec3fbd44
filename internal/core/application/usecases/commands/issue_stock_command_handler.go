package commands

import (
	"context"

	"distribution/internal/core/application/ledger"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/ports"
)

type IssueStockCommandHandler struct {
	uowFactory StockUoWFactory
	env        handlerEnv
}

func NewIssueStockCommandHandler(
	uowFactory StockUoWFactory,
	locker ports.KeyLocker,
	publisher ports.EventPublisher,
	opts ...HandlerOption,
) IssueStockCommandHandler {
	return IssueStockCommandHandler{
		uowFactory: uowFactory,
		env:        newHandlerEnv(locker, publisher, opts),
	}
}

// Handle issues the quantity and returns the lots drawn from.
func (h IssueStockCommandHandler) Handle(ctx context.Context, cmd IssueStockCommand) ([]*inventory.Lot, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	keys, err := selectedLotKeys(ctx, uow.LotRepository(), cmd.ProductID(), cmd.WarehouseID(), cmd.LotIDs())
	if err != nil {
		return nil, err
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

	l := h.env.ledger(uow, keys)
	lots, err := l.Issue(ctx, ledger.IssueRequest{
		ProductID:   cmd.ProductID(),
		WarehouseID: cmd.WarehouseID(),
		Quantity:    cmd.Quantity(),
		LotIDs:      cmd.LotIDs(),
		Movement:    cmd.Info().ledgerMovement(),
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

// selectedLotKeys returns the lock keys of the named lots, or of every lot of
// the product in the warehouse when no lot is named.
func selectedLotKeys(
	ctx context.Context,
	lots ports.LotRepository,
	productID, warehouseID kernel.UUID,
	lotIDs []kernel.UUID,
) ([]string, error) {
	if len(lotIDs) == 0 {
		return ledger.StockLockKeys(ctx, lots, productID, warehouseID)
	}

	keys := make([]string, 0, len(lotIDs))
	for _, id := range lotIDs {
		lot, err := lots.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		keys = append(keys, lot.Key().LockKey())
	}
	return keys, nil
}
