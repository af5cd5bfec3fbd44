package queries

import (
	"cmp"
	"context"
	"slices"
	"time"

	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/ports"
)

// StockLevel is the stock of one product in one warehouse. NextExpiry is the
// earliest expiry among lots with available stock.
type StockLevel struct {
	ProductID    string     `json:"productId"`
	WarehouseID  string     `json:"warehouseId"`
	Quantity     int        `json:"quantity"`
	Reserved     int        `json:"reserved"`
	Available    int        `json:"available"`
	Lots         int        `json:"lots"`
	NextExpiry   *time.Time `json:"nextExpiry,omitempty"`
	BelowReorder bool       `json:"belowReorder"`
}

type GetStockLevelsQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewGetStockLevelsQueryHandler(uowFactory ports.UnitOfWorkFactory) GetStockLevelsQueryHandler {
	return GetStockLevelsQueryHandler{uowFactory: uowFactory}
}

// Handle returns levels ordered by product then warehouse.
func (h GetStockLevelsQueryHandler) Handle(ctx context.Context, query GetStockLevelsQuery) ([]StockLevel, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	lots, err := uow.LotRepository().Find(ctx, ports.LotFilter{
		ProductID:   query.ProductID(),
		WarehouseID: query.WarehouseID(),
	})
	if err != nil {
		return nil, err
	}

	type groupKey struct {
		product, warehouse kernel.UUID
	}
	groups := make(map[groupKey]*StockLevel)
	keys := make([]groupKey, 0)
	for _, lot := range lots {
		k := groupKey{product: lot.ProductID(), warehouse: lot.WarehouseID()}
		level, ok := groups[k]
		if !ok {
			level = &StockLevel{ProductID: k.product.String(), WarehouseID: k.warehouse.String()}
			groups[k] = level
			keys = append(keys, k)
		}
		addLot(level, lot)
	}

	reorderLevels := make(map[kernel.UUID]int)
	levels := make([]StockLevel, 0, len(keys))
	for _, k := range keys {
		reorder, ok := reorderLevels[k.product]
		if !ok {
			product, getErr := uow.ProductRepository().Get(ctx, k.product)
			if getErr != nil {
				return nil, getErr
			}
			reorder = product.ReorderLevel
			reorderLevels[k.product] = reorder
		}
		level := groups[k]
		level.BelowReorder = reorder > 0 && level.Available < reorder
		levels = append(levels, *level)
	}

	slices.SortFunc(levels, func(a, b StockLevel) int {
		return cmp.Or(cmp.Compare(a.ProductID, b.ProductID), cmp.Compare(a.WarehouseID, b.WarehouseID))
	})
	return levels, nil
}

func addLot(level *StockLevel, lot *inventory.Lot) {
	level.Quantity += lot.Quantity()
	level.Reserved += lot.Reserved()
	level.Available += lot.Available()
	level.Lots++

	expiry := lot.ExpiryDate()
	if expiry == nil || lot.Available() == 0 {
		return
	}
	if level.NextExpiry == nil || expiry.Before(*level.NextExpiry) {
		e := *expiry
		level.NextExpiry = &e
	}
}
