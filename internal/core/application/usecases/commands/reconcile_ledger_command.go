package commands

import (
	"context"
	"errors"

	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/ports"
	"distribution/internal/pkg/errs"
)

// ReconcileLedgerCommand has no parameters; it exists to keep the handler
// signature uniform with the other commands.
type ReconcileLedgerCommand struct{}

func NewReconcileLedgerCommand() ReconcileLedgerCommand {
	return ReconcileLedgerCommand{}
}

// ReconcileLedgerCommandHandler replays the transaction log of every lot and
// reports the lots whose quantity disagrees. It reads only. Each lot is read
// together with its log under the lot's key lock, so movements committing during
// the scan are either fully seen or not at all.
type ReconcileLedgerCommandHandler struct {
	uowFactory StockUoWFactory
	env        handlerEnv
}

func NewReconcileLedgerCommandHandler(
	uowFactory StockUoWFactory,
	locker ports.KeyLocker,
	opts ...HandlerOption,
) ReconcileLedgerCommandHandler {
	return ReconcileLedgerCommandHandler{
		uowFactory: uowFactory,
		env:        newHandlerEnv(locker, nil, opts),
	}
}

func (h ReconcileLedgerCommandHandler) Handle(
	ctx context.Context,
	_ ReconcileLedgerCommand,
) ([]inventory.Discrepancy, error) {
	lots, err := h.uowFactory.Create().LotRepository().Find(ctx, ports.LotFilter{})
	if err != nil {
		return nil, err
	}

	var discrepancies []inventory.Discrepancy
	for _, lot := range lots {
		d, ok, lotErr := h.reconcileLot(ctx, lot)
		if lotErr != nil {
			return nil, lotErr
		}
		if !ok {
			discrepancies = append(discrepancies, d)
		}
	}
	return discrepancies, nil
}

func (h ReconcileLedgerCommandHandler) reconcileLot(
	ctx context.Context,
	lot *inventory.Lot,
) (inventory.Discrepancy, bool, error) {
	unlock, keys, err := h.env.lock(ctx, lot.Key().LockKey())
	if err != nil {
		return inventory.Discrepancy{}, false, err
	}
	defer unlock()

	d, ok, err := h.env.ledger(h.uowFactory.Create(), keys).ReconcileLot(ctx, lot.ID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return inventory.Discrepancy{}, true, nil
	}
	return d, ok, err
}
