package commands

import (
	"errors"
	"time"

	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"
	"distribution/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrReceiveStockCommandIsNotConstructed = errors.New(
	"ReceiveStockCommand must be created via NewReceiveStockCommand constructor",
)

// ReceiveStockCommand books incoming goods into one lot.
//
// Example:
//
//	cmd, err := NewReceiveStockCommand(productID, warehouseID, "A-01", "B-2026-04", 120, &expiry, &cost,
//	    MovementInfo{ReferenceType: "purchase_order", ReferenceID: "PO-77", ActorID: "u-1"})
type ReceiveStockCommand struct { //nolint:recvcheck //using for validation
	key        inventory.LotKey
	quantity   int
	expiryDate *time.Time
	costPrice  *decimal.Decimal
	info       MovementInfo

	guard guard.ConstructorGuard
}

func NewReceiveStockCommand(
	productID, warehouseID kernel.UUID,
	locationID, batchNumber string,
	quantity int,
	expiryDate *time.Time,
	costPrice *decimal.Decimal,
	info MovementInfo,
) (ReceiveStockCommand, error) {
	cmd := ReceiveStockCommand{
		expiryDate: expiryDate,
		info:       info.normalized("receipt"),
		guard:      guard.NewConstructorGuard(),
	}

	key, keyErr := inventory.NewLotKey(productID, warehouseID, locationID, batchNumber)
	if err := errors.Join(
		keyErr,
		cmd.setQuantity(quantity),
		cmd.setCostPrice(costPrice),
	); err != nil {
		return ReceiveStockCommand{}, err
	}
	cmd.key = key

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ReceiveStockCommand) Validate() error {
	return c.guard.Validate(ErrReceiveStockCommandIsNotConstructed)
}

func (c ReceiveStockCommand) Key() inventory.LotKey {
	return c.key
}

func (c ReceiveStockCommand) Quantity() int {
	return c.quantity
}

func (c ReceiveStockCommand) ExpiryDate() *time.Time {
	return c.expiryDate
}

func (c ReceiveStockCommand) CostPrice() *decimal.Decimal {
	return c.costPrice
}

func (c ReceiveStockCommand) Info() MovementInfo {
	return c.info
}

func (c *ReceiveStockCommand) setQuantity(quantity int) error {
	if err := positiveQuantity("quantity", quantity); err != nil {
		return err
	}
	c.quantity = quantity
	return nil
}

func (c *ReceiveStockCommand) setCostPrice(costPrice *decimal.Decimal) error {
	if costPrice != nil && costPrice.IsNegative() {
		return errs.NewValueIsInvalidError("cost price")
	}
	c.costPrice = costPrice
	return nil
}
