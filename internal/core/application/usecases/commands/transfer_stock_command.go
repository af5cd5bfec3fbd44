package commands

import (
	"errors"
	"slices"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"
	"distribution/internal/pkg/guard"
)

var ErrTransferStockCommandIsNotConstructed = errors.New(
	"TransferStockCommand must be created via NewTransferStockCommand constructor",
)

// TransferStockCommand moves stock between warehouses keeping batch, location,
// expiry and cost.
type TransferStockCommand struct { //nolint:recvcheck //using for validation
	productID       kernel.UUID
	fromWarehouseID kernel.UUID
	toWarehouseID   kernel.UUID
	quantity        int
	lotIDs          []kernel.UUID
	info            MovementInfo

	guard guard.ConstructorGuard
}

func NewTransferStockCommand(
	productID, fromWarehouseID, toWarehouseID kernel.UUID,
	quantity int,
	lotIDs []kernel.UUID,
	info MovementInfo,
) (TransferStockCommand, error) {
	cmd := TransferStockCommand{
		productID:       productID,
		fromWarehouseID: fromWarehouseID,
		toWarehouseID:   toWarehouseID,
		quantity:        quantity,
		lotIDs:          slices.Clone(lotIDs),
		info:            info.normalized("transfer"),
		guard:           guard.NewConstructorGuard(),
	}

	var sameErr error
	if fromWarehouseID.IsEqual(toWarehouseID) {
		sameErr = errs.NewValueIsInvalidErrorWithCause("to warehouse",
			errors.New("source and destination warehouses are the same"))
	}

	errList := []error{
		productID.Validate(),
		fromWarehouseID.Validate(),
		toWarehouseID.Validate(),
		positiveQuantity("quantity", quantity),
		sameErr,
	}
	for _, id := range lotIDs {
		errList = append(errList, id.Validate())
	}
	if err := errors.Join(errList...); err != nil {
		return TransferStockCommand{}, err
	}

	return cmd, nil
}

func (c TransferStockCommand) Validate() error {
	return c.guard.Validate(ErrTransferStockCommandIsNotConstructed)
}

func (c TransferStockCommand) ProductID() kernel.UUID {
	return c.productID
}

func (c TransferStockCommand) FromWarehouseID() kernel.UUID {
	return c.fromWarehouseID
}

func (c TransferStockCommand) ToWarehouseID() kernel.UUID {
	return c.toWarehouseID
}

func (c TransferStockCommand) Quantity() int {
	return c.quantity
}

func (c TransferStockCommand) LotIDs() []kernel.UUID {
	return slices.Clone(c.lotIDs)
}

func (c TransferStockCommand) Info() MovementInfo {
	return c.info
}
