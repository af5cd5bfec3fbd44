package queries

import (
	"errors"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/guard"
)

var ErrGetStockLevelsQueryIsNotConstructed = errors.New(
	"GetStockLevelsQuery must be created via NewGetStockLevelsQuery constructor",
)

// GetStockLevelsQuery sums lots per product and warehouse. Nil filters match
// everything.
//
// Example:
//
//	query, _ := NewGetStockLevelsQuery(&milkID, nil)
//	levels, err := handler.Handle(ctx, query)
type GetStockLevelsQuery struct {
	productID   *kernel.UUID
	warehouseID *kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetStockLevelsQuery(productID, warehouseID *kernel.UUID) (GetStockLevelsQuery, error) {
	var errList []error
	if productID != nil {
		errList = append(errList, productID.Validate())
	}
	if warehouseID != nil {
		errList = append(errList, warehouseID.Validate())
	}
	if err := errors.Join(errList...); err != nil {
		return GetStockLevelsQuery{}, err
	}
	return GetStockLevelsQuery{
		productID:   productID,
		warehouseID: warehouseID,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (q GetStockLevelsQuery) Validate() error {
	return q.guard.Validate(ErrGetStockLevelsQueryIsNotConstructed)
}

func (q GetStockLevelsQuery) ProductID() *kernel.UUID {
	return q.productID
}

func (q GetStockLevelsQuery) WarehouseID() *kernel.UUID {
	return q.warehouseID
}
