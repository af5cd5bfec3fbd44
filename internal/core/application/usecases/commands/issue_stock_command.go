package commands

import (
	"errors"
	"slices"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/guard"
)

var ErrIssueStockCommandIsNotConstructed = errors.New(
	"IssueStockCommand must be created via NewIssueStockCommand constructor",
)

// IssueStockCommand removes available stock outside the order flow: samples,
// write-offs, manual picks. Without lot ids the warehouse is drained FEFO.
type IssueStockCommand struct { //nolint:recvcheck //using for validation
	productID   kernel.UUID
	warehouseID kernel.UUID
	quantity    int
	lotIDs      []kernel.UUID
	info        MovementInfo

	guard guard.ConstructorGuard
}

func NewIssueStockCommand(
	productID, warehouseID kernel.UUID,
	quantity int,
	lotIDs []kernel.UUID,
	info MovementInfo,
) (IssueStockCommand, error) {
	cmd := IssueStockCommand{
		productID:   productID,
		warehouseID: warehouseID,
		quantity:    quantity,
		lotIDs:      slices.Clone(lotIDs),
		info:        info.normalized("issue"),
		guard:       guard.NewConstructorGuard(),
	}

	errList := []error{
		productID.Validate(),
		warehouseID.Validate(),
		positiveQuantity("quantity", quantity),
	}
	for _, id := range lotIDs {
		errList = append(errList, id.Validate())
	}
	if err := errors.Join(errList...); err != nil {
		return IssueStockCommand{}, err
	}

	return cmd, nil
}

func (c IssueStockCommand) Validate() error {
	return c.guard.Validate(ErrIssueStockCommandIsNotConstructed)
}

func (c IssueStockCommand) ProductID() kernel.UUID {
	return c.productID
}

func (c IssueStockCommand) WarehouseID() kernel.UUID {
	return c.warehouseID
}

func (c IssueStockCommand) Quantity() int {
	return c.quantity
}

func (c IssueStockCommand) LotIDs() []kernel.UUID {
	return slices.Clone(c.lotIDs)
}

func (c IssueStockCommand) Info() MovementInfo {
	return c.info
}
