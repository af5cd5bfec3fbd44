package commands

import (
	"errors"
	"strings"

	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"
	"distribution/internal/pkg/guard"
)

var ErrAdjustStockCommandIsNotConstructed = errors.New(
	"AdjustStockCommand must be created via NewAdjustStockCommand constructor",
)

// AdjustStockCommand corrects stock after a count. Without location and batch it
// targets the warehouse as a whole. The reason is journaled as the entry's note.
type AdjustStockCommand struct { //nolint:recvcheck //using for validation
	key   inventory.LotKey
	delta int
	info  MovementInfo

	guard guard.ConstructorGuard
}

func NewAdjustStockCommand(
	productID, warehouseID kernel.UUID,
	locationID, batchNumber string,
	delta int,
	reason string,
	info MovementInfo,
) (AdjustStockCommand, error) {
	cmd := AdjustStockCommand{
		delta: delta,
		guard: guard.NewConstructorGuard(),
	}

	reason = strings.TrimSpace(reason)
	var reasonErr, deltaErr error
	if reason == "" {
		reasonErr = errs.NewValueIsRequiredError("reason")
	}
	if delta == 0 {
		deltaErr = errs.NewValueIsInvalidErrorWithCause("delta", errors.New("delta must not be zero"))
	}

	key, keyErr := inventory.NewLotKey(productID, warehouseID, locationID, batchNumber)
	if err := errors.Join(keyErr, deltaErr, reasonErr); err != nil {
		return AdjustStockCommand{}, err
	}

	info.Note = reason
	cmd.key = key
	cmd.info = info.normalized("adjustment")
	return cmd, nil
}

func (c AdjustStockCommand) Validate() error {
	return c.guard.Validate(ErrAdjustStockCommandIsNotConstructed)
}

func (c AdjustStockCommand) Key() inventory.LotKey {
	return c.key
}

func (c AdjustStockCommand) Delta() int {
	return c.delta
}

func (c AdjustStockCommand) Reason() string {
	return c.info.Note
}

func (c AdjustStockCommand) Info() MovementInfo {
	return c.info
}
