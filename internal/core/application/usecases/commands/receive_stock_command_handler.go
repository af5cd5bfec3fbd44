package commands

import (
	"context"

	"distribution/internal/core/application/ledger"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/ports"
)

// ReceiveStockCommandHandler books receipts under the lot's key lock.
//
// Example:
//
//	handler := NewReceiveStockCommandHandler(uowFactory, locker, publisher)
//	lot, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("receipt failed: %w", err)
//	}
//	fmt.Printf("lot %s now holds %d", lot.ID(), lot.Quantity())
type ReceiveStockCommandHandler struct {
	uowFactory StockUoWFactory
	env        handlerEnv
}

func NewReceiveStockCommandHandler(
	uowFactory StockUoWFactory,
	locker ports.KeyLocker,
	publisher ports.EventPublisher,
	opts ...HandlerOption,
) ReceiveStockCommandHandler {
	return ReceiveStockCommandHandler{
		uowFactory: uowFactory,
		env:        newHandlerEnv(locker, publisher, opts),
	}
}

// Handle creates the lot on its first receipt. A replayed idempotency key
// returns the lot in its current state and publishes nothing.
func (h ReceiveStockCommandHandler) Handle(ctx context.Context, cmd ReceiveStockCommand) (*inventory.Lot, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	unlock, keys, err := h.env.lock(ctx, append(cmd.Info().lockKeys(), cmd.Key().LockKey())...)
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

	if err = requireStockTargets(ctx, uow, cmd.Key().ProductID, cmd.Key().WarehouseID); err != nil {
		return nil, err
	}

	l := h.env.ledger(uow, keys)
	lot, err := l.Receive(ctx, ledgerReceipt(cmd))
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.env.publish(ctx, inventoryEvents(l.Touched(), h.env.now())...)
	return lot, nil
}

// requireStockTargets rejects movements for unknown products or warehouses.
func requireStockTargets(
	ctx context.Context,
	repos CatalogRepoFactory,
	productID kernel.UUID,
	warehouseIDs ...kernel.UUID,
) error {
	if _, err := repos.ProductRepository().Get(ctx, productID); err != nil {
		return err
	}
	for _, id := range warehouseIDs {
		if _, err := repos.WarehouseRepository().Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func ledgerReceipt(cmd ReceiveStockCommand) ledger.Receipt {
	return ledger.Receipt{
		Key:        cmd.Key(),
		Quantity:   cmd.Quantity(),
		ExpiryDate: cmd.ExpiryDate(),
		CostPrice:  cmd.CostPrice(),
		Movement:   cmd.Info().ledgerMovement(),
	}
}
