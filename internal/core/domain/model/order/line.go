package order

import (
	"errors"
	"fmt"
	"slices"

	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// LineReservationError wraps the ledger failure of a single order line.
type LineReservationError struct {
	LineNumber int
	ProductID  kernel.UUID
	Err        error
}

func (e *LineReservationError) Error() string {
	return fmt.Sprintf("line %d (product %s): %v", e.LineNumber, e.ProductID, e.Err)
}

func (e *LineReservationError) Unwrap() error {
	return e.Err
}

// Line is one product requested by an order and the lot portions held for it.
type Line struct {
	number       int
	productID    kernel.UUID
	quantity     int
	unitPrice    decimal.Decimal
	reservations []inventory.Portion
}

func NewLine(productID kernel.UUID, quantity int, unitPrice decimal.Decimal) (*Line, error) {
	return RestoreLine(0, productID, quantity, unitPrice, nil)
}

func RestoreLine(
	number int,
	productID kernel.UUID,
	quantity int,
	unitPrice decimal.Decimal,
	reservations []inventory.Portion,
) (*Line, error) {
	line := &Line{number: number}

	if err := errors.Join(
		line.setProductID(productID),
		line.setQuantity(quantity),
		line.setUnitPrice(unitPrice),
	); err != nil {
		return nil, err
	}

	if err := line.AddReservations(reservations); err != nil {
		return nil, err
	}

	return line, nil
}

// Number is the 1-based position of the line within its order.
func (l *Line) Number() int {
	return l.number
}

func (l *Line) ProductID() kernel.UUID {
	return l.productID
}

func (l *Line) Quantity() int {
	return l.quantity
}

func (l *Line) UnitPrice() decimal.Decimal {
	return l.unitPrice
}

func (l *Line) Total() decimal.Decimal {
	return l.unitPrice.Mul(decimal.NewFromInt(int64(l.quantity)))
}

func (l *Line) Reservations() []inventory.Portion {
	return slices.Clone(l.reservations)
}

func (l *Line) ReservedQuantity() int {
	return inventory.SumPortions(l.reservations)
}

// AddReservations attaches held portions. A line never holds more than it requests.
func (l *Line) AddReservations(portions []inventory.Portion) error {
	total := l.ReservedQuantity() + inventory.SumPortions(portions)
	if total > l.quantity {
		return errs.NewValueIsOutOfRangeError("reserved quantity", total, 0, l.quantity)
	}
	for _, p := range portions {
		if !p.Key.ProductID.IsEqual(l.productID) {
			return errs.NewValueIsInvalidErrorWithCause("reservation",
				fmt.Errorf("lot %s holds product %s, line wants %s", p.LotID, p.Key.ProductID, l.productID))
		}
	}
	l.reservations = append(l.reservations, portions...)
	return nil
}

// TakeReservations detaches up to quantity from the held portions, newest first,
// and returns what was detached.
func (l *Line) TakeReservations(quantity int) []inventory.Portion {
	var taken []inventory.Portion
	for quantity > 0 && len(l.reservations) > 0 {
		last := &l.reservations[len(l.reservations)-1]
		take := min(last.Quantity, quantity)
		taken = append(taken, inventory.Portion{LotID: last.LotID, Key: last.Key, Quantity: take})
		last.Quantity -= take
		quantity -= take
		if last.Quantity == 0 {
			l.reservations = l.reservations[:len(l.reservations)-1]
		}
	}
	return taken
}

// ClearReservations detaches every held portion.
func (l *Line) ClearReservations() []inventory.Portion {
	taken := l.reservations
	l.reservations = nil
	return taken
}

func (l *Line) setProductID(productID kernel.UUID) error {
	if err := productID.Validate(); err != nil {
		return err
	}
	l.productID = productID
	return nil
}

func (l *Line) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}
	l.quantity = quantity
	return nil
}

func (l *Line) setUnitPrice(unitPrice decimal.Decimal) error {
	if unitPrice.IsNegative() {
		return errs.NewValueIsInvalidErrorWithCause("unit price", fmt.Errorf("%s is negative", unitPrice))
	}
	l.unitPrice = unitPrice
	return nil
}
