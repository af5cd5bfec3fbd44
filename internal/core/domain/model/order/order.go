package order

import (
	"errors"
	"fmt"
	"time"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

const (
	// PriorityHighest is the most urgent priority.
	PriorityHighest = 1
	// PriorityLowest is the least urgent priority.
	PriorityLowest = 10
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	ErrOrderHasNoLines = errs.NewValueIsRequiredError("lines")
)

// Order is the aggregate root of a sales order. Its status drives the ledger:
// creation reserves every line, cancellation releases and delivery issues the
// reservations. The aggregate only tracks which lot portions each line holds;
// the lots themselves belong to the ledger.
type Order struct {
	id           kernel.UUID
	clientID     kernel.UUID
	warehouseID  kernel.UUID
	priority     int
	requiredDate time.Time
	status       Status
	lines        []*Line
	createdAt    time.Time
	updatedAt    time.Time

	isConstructed bool
}

// NewOrder creates a pending order. Lines are numbered in the given order starting at 1.
//
// Example:
//
//	line, _ := order.NewLine(productID, 5, decimal.NewFromInt(3))
//	o, err := order.NewOrder(kernel.NewUUID(), clientID, warehouseID, 2, due, []*order.Line{line}, time.Now())
func NewOrder(
	id, clientID, warehouseID kernel.UUID,
	priority int,
	requiredDate time.Time,
	lines []*Line,
	now time.Time,
) (*Order, error) {
	for i, line := range lines {
		if line != nil {
			line.number = i + 1
		}
	}
	return RestoreOrder(id, clientID, warehouseID, priority, requiredDate, Pending, lines, now, now)
}

// RestoreOrder rebuilds an order from storage.
func RestoreOrder(
	id, clientID, warehouseID kernel.UUID,
	priority int,
	requiredDate time.Time,
	status Status,
	lines []*Line,
	createdAt, updatedAt time.Time,
) (*Order, error) {
	o := &Order{
		requiredDate:  requiredDate.UTC(),
		createdAt:     createdAt.UTC(),
		updatedAt:     updatedAt.UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setClientID(clientID),
		o.setWarehouseID(warehouseID),
		o.setPriority(priority),
		o.setStatus(status),
		o.setLines(lines),
	); err != nil {
		return nil, err
	}

	return o, nil
}

func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) ClientID() kernel.UUID {
	return o.clientID
}

// WarehouseID is the warehouse reserved against at creation.
func (o *Order) WarehouseID() kernel.UUID {
	return o.warehouseID
}

// Priority ranges from 1 (most urgent) to 10.
func (o *Order) Priority() int {
	return o.priority
}

func (o *Order) RequiredDate() time.Time {
	return o.requiredDate
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) Lines() []*Line {
	return o.lines
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// Line returns the line with the given 1-based number.
func (o *Order) Line(number int) (*Line, error) {
	if number < 1 || number > len(o.lines) {
		return nil, errs.NewObjectNotFoundError("order line", number)
	}
	return o.lines[number-1], nil
}

// Total is the sum of line totals.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.lines {
		total = total.Add(line.Total())
	}
	return total
}

// ReservedQuantity sums the portions held by all lines.
func (o *Order) ReservedQuantity() int {
	total := 0
	for _, line := range o.lines {
		total += line.ReservedQuantity()
	}
	return total
}

// TransitionTo moves the order to target. Cancelling a cancelled order is a no-op
// and reports changed == false; any other undefined edge fails with
// InvalidStateTransitionError and leaves the order untouched.
func (o *Order) TransitionTo(target Status, now time.Time) (changed bool, err error) {
	if err = target.Validate(); err != nil {
		return false, err
	}
	if o.status == Cancelled && target == Cancelled {
		return false, nil
	}
	if !o.status.CanTransitionTo(target) {
		return false, NewInvalidStateTransitionError(o.status, target)
	}

	o.status = target
	o.updatedAt = now.UTC()
	return true, nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setClientID(clientID kernel.UUID) error {
	if err := clientID.Validate(); err != nil {
		return err
	}
	o.clientID = clientID
	return nil
}

func (o *Order) setWarehouseID(warehouseID kernel.UUID) error {
	if err := warehouseID.Validate(); err != nil {
		return err
	}
	o.warehouseID = warehouseID
	return nil
}

func (o *Order) setPriority(priority int) error {
	if priority < PriorityHighest || priority > PriorityLowest {
		return errs.NewValueIsOutOfRangeError("priority", priority, PriorityHighest, PriorityLowest)
	}
	o.priority = priority
	return nil
}

func (o *Order) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.status = status
	return nil
}

func (o *Order) setLines(lines []*Line) error {
	if len(lines) == 0 {
		return ErrOrderHasNoLines
	}
	for i, line := range lines {
		if line == nil {
			return errs.NewValueIsRequiredError(fmt.Sprintf("line %d", i+1))
		}
		if line.number != i+1 {
			return errs.NewValueIsInvalidErrorWithCause("line number",
				fmt.Errorf("line at position %d is numbered %d", i+1, line.number))
		}
	}
	o.lines = lines
	return nil
}
