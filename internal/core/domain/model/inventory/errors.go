package inventory

import (
	"errors"
	"fmt"

	"distribution/internal/core/domain/model/kernel"
)

var (
	// ErrInsufficientStock is returned when a reservation cannot be covered by the
	// available quantity of a product in a warehouse.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInsufficientAvailable is returned when an issue or adjustment would consume
	// stock that is not available.
	ErrInsufficientAvailable = errors.New("insufficient available quantity")

	// ErrOverRelease signals a reservation accounting bug: the release would drive the
	// reserved counter below zero.
	ErrOverRelease = errors.New("release exceeds reserved quantity")

	// ErrNegativeResultingStock signals an adjustment that would leave a lot with
	// negative quantity.
	ErrNegativeResultingStock = errors.New("negative resulting stock")
)

// InsufficientStockError reports a reservation that could not be covered.
type InsufficientStockError struct {
	ProductID   kernel.UUID
	WarehouseID kernel.UUID
	Requested   int
	Available   int
}

func NewInsufficientStockError(productID, warehouseID kernel.UUID, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Requested:   requested,
		Available:   available,
	}
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: product %s in warehouse %s, requested %d, available %d",
		ErrInsufficientStock, e.ProductID, e.WarehouseID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// InsufficientAvailableError reports an issue, transfer or adjustment exceeding availability.
type InsufficientAvailableError struct {
	ProductID   kernel.UUID
	WarehouseID kernel.UUID
	Requested   int
	Available   int
}

func NewInsufficientAvailableError(productID, warehouseID kernel.UUID, requested, available int) *InsufficientAvailableError {
	return &InsufficientAvailableError{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Requested:   requested,
		Available:   available,
	}
}

func (e *InsufficientAvailableError) Error() string {
	return fmt.Sprintf("%s: product %s in warehouse %s, requested %d, available %d",
		ErrInsufficientAvailable, e.ProductID, e.WarehouseID, e.Requested, e.Available)
}

func (e *InsufficientAvailableError) Unwrap() error {
	return ErrInsufficientAvailable
}

// OverReleaseError names the lot whose reserved counter would go negative.
type OverReleaseError struct {
	LotID     kernel.UUID
	Reserved  int
	Requested int
}

func NewOverReleaseError(lotID kernel.UUID, reserved, requested int) *OverReleaseError {
	return &OverReleaseError{LotID: lotID, Reserved: reserved, Requested: requested}
}

func (e *OverReleaseError) Error() string {
	return fmt.Sprintf("%s: lot %s has %d reserved, release of %d requested",
		ErrOverRelease, e.LotID, e.Reserved, e.Requested)
}

func (e *OverReleaseError) Unwrap() error {
	return ErrOverRelease
}

// NegativeResultingStockError names the lot and the rejected delta. When the
// correction targeted a whole warehouse, LotID is the zero value and Quantity is
// the warehouse total.
type NegativeResultingStockError struct {
	LotID       kernel.UUID
	ProductID   kernel.UUID
	WarehouseID kernel.UUID
	Quantity    int
	Delta       int
}

func NewNegativeResultingStockError(lotID kernel.UUID, quantity, delta int) *NegativeResultingStockError {
	return &NegativeResultingStockError{LotID: lotID, Quantity: quantity, Delta: delta}
}

func NewWarehouseNegativeResultingStockError(
	productID, warehouseID kernel.UUID,
	quantity, delta int,
) *NegativeResultingStockError {
	return &NegativeResultingStockError{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    quantity,
		Delta:       delta,
	}
}

func (e *NegativeResultingStockError) Error() string {
	if e.LotID == (kernel.UUID{}) {
		return fmt.Sprintf("%s: product %s in warehouse %s has quantity %d, delta %d",
			ErrNegativeResultingStock, e.ProductID, e.WarehouseID, e.Quantity, e.Delta)
	}
	return fmt.Sprintf("%s: lot %s has quantity %d, delta %d",
		ErrNegativeResultingStock, e.LotID, e.Quantity, e.Delta)
}

func (e *NegativeResultingStockError) Unwrap() error {
	return ErrNegativeResultingStock
}

// IsInvariantViolation reports whether err is an accounting bug rather than a
// recoverable shortage.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrOverRelease) || errors.Is(err, ErrNegativeResultingStock)
}
