package ledger

import (
	"context"
	"slices"

	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/ports"
)

func IdempotencyLockKey(key string) string {
	return "idem:" + key
}

// StockLockKeys returns the lock keys of every lot of the product in the given
// warehouses, or in all warehouses when none is given. Reads are not locked, so
// callers compute keys before beginning the unit of work.
func StockLockKeys(
	ctx context.Context,
	lots ports.LotRepository,
	productID kernel.UUID,
	warehouseIDs ...kernel.UUID,
) ([]string, error) {
	found, err := lots.Find(ctx, ports.LotFilter{ProductID: &productID, WarehouseIDs: warehouseIDs})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(found))
	for _, lot := range found {
		keys = append(keys, lot.Key().LockKey())
	}
	return keys, nil
}

// TransferLockKeys covers the source lots and the lots they may create at the destination.
func TransferLockKeys(
	ctx context.Context,
	lots ports.LotRepository,
	productID, fromWarehouseID, toWarehouseID kernel.UUID,
) ([]string, error) {
	found, err := lots.Find(ctx, ports.LotFilter{ProductID: &productID, WarehouseID: &fromWarehouseID})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, 2*len(found))
	for _, lot := range found {
		keys = append(keys,
			lot.Key().LockKey(),
			lot.Key().WithWarehouse(toWarehouseID).LockKey(),
		)
	}
	return keys, nil
}

func PortionLockKeys(portions []inventory.Portion) []string {
	keys := make([]string, 0, len(portions))
	for _, p := range portions {
		keys = append(keys, p.Key.LockKey())
	}
	return keys
}

// Dedup sorts keys and drops duplicates.
func Dedup(keys []string) []string {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	return slices.Compact(keys)
}
