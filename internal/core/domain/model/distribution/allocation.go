package distribution

import (
	"errors"
	"fmt"
	"slices"

	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"
)

// AllocationStatus follows the physical handling of the allocated stock.
type AllocationStatus string

const (
	AllocationPending   AllocationStatus = "pending"
	AllocationConfirmed AllocationStatus = "confirmed"
	AllocationPicked    AllocationStatus = "picked"
	AllocationShipped   AllocationStatus = "shipped"
	AllocationDelivered AllocationStatus = "delivered"
	// AllocationCancelled is terminal: the order was cancelled before delivery.
	AllocationCancelled AllocationStatus = "cancelled"
)

var allocationSequence = []AllocationStatus{
	AllocationPending,
	AllocationConfirmed,
	AllocationPicked,
	AllocationShipped,
	AllocationDelivered,
}

func (s AllocationStatus) Validate() error {
	if s != AllocationCancelled && !slices.Contains(allocationSequence, s) {
		return errs.NewValueIsInvalidErrorWithCause("allocation status", fmt.Errorf("%q is not a valid status", string(s)))
	}
	return nil
}

func (s AllocationStatus) previous() (AllocationStatus, bool) {
	i := slices.Index(allocationSequence, s)
	if i <= 0 {
		return "", false
	}
	return allocationSequence[i-1], true
}

// Allocation binds one order line to the warehouse (and lot) chosen by the engine.
type Allocation struct {
	id            kernel.UUID
	orderID       kernel.UUID
	lineNumber    int
	productID     kernel.UUID
	warehouseID   kernel.UUID
	lotID         *kernel.UUID
	requested     int
	allocated     int
	priorityScore float64
	status        AllocationStatus
	reservations  []inventory.Portion
}

// NewAllocation creates a pending allocation of allocated units out of requested.
func NewAllocation(
	id, orderID kernel.UUID,
	lineNumber int,
	productID, warehouseID kernel.UUID,
	lotID *kernel.UUID,
	requested, allocated int,
	priorityScore float64,
) (*Allocation, error) {
	return RestoreAllocation(id, orderID, lineNumber, productID, warehouseID, lotID,
		requested, allocated, priorityScore, AllocationPending, nil)
}

func RestoreAllocation(
	id, orderID kernel.UUID,
	lineNumber int,
	productID, warehouseID kernel.UUID,
	lotID *kernel.UUID,
	requested, allocated int,
	priorityScore float64,
	status AllocationStatus,
	reservations []inventory.Portion,
) (*Allocation, error) {
	a := &Allocation{
		id:            id,
		orderID:       orderID,
		lineNumber:    lineNumber,
		productID:     productID,
		warehouseID:   warehouseID,
		lotID:         lotID,
		requested:     requested,
		allocated:     allocated,
		priorityScore: priorityScore,
		status:        status,
		reservations:  slices.Clone(reservations),
	}

	var lotErr error
	if lotID != nil {
		lotErr = lotID.Validate()
	}

	if err := errors.Join(
		id.Validate(),
		orderID.Validate(),
		productID.Validate(),
		warehouseID.Validate(),
		lotErr,
		status.Validate(),
		a.validateQuantities(),
	); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *Allocation) ID() kernel.UUID {
	return a.id
}

func (a *Allocation) OrderID() kernel.UUID {
	return a.orderID
}

func (a *Allocation) LineNumber() int {
	return a.lineNumber
}

func (a *Allocation) ProductID() kernel.UUID {
	return a.productID
}

func (a *Allocation) WarehouseID() kernel.UUID {
	return a.warehouseID
}

// LotID is the best FEFO lot at scoring time, used as a batch hint on execution.
func (a *Allocation) LotID() *kernel.UUID {
	return a.lotID
}

func (a *Allocation) RequestedQuantity() int {
	return a.requested
}

func (a *Allocation) AllocatedQuantity() int {
	return a.allocated
}

// IsPartial reports an under-allocated line.
func (a *Allocation) IsPartial() bool {
	return a.allocated < a.requested
}

func (a *Allocation) PriorityScore() float64 {
	return a.priorityScore
}

func (a *Allocation) Status() AllocationStatus {
	return a.status
}

func (a *Allocation) Reservations() []inventory.Portion {
	return slices.Clone(a.reservations)
}

// Confirm records the reservation made at execution time.
func (a *Allocation) Confirm(portions []inventory.Portion) error {
	if a.status != AllocationPending {
		return errs.NewValueIsInvalidErrorWithCause("allocation status",
			fmt.Errorf("%s allocation cannot be confirmed", a.status))
	}
	if got := inventory.SumPortions(portions); got != a.allocated {
		return errs.NewValueIsInvalidErrorWithCause("reservation",
			fmt.Errorf("reserved %d, allocated %d", got, a.allocated))
	}

	a.reservations = slices.Clone(portions)
	a.status = AllocationConfirmed
	return nil
}

// Advance moves the allocation to target when it sits on the status right before it.
// It reports whether the status changed.
func (a *Allocation) Advance(target AllocationStatus) bool {
	prev, ok := target.previous()
	if !ok || a.status != prev || target == AllocationConfirmed {
		return false
	}
	a.status = target
	return true
}

// Cancel withdraws the allocation. Delivered and cancelled allocations stay as
// they are; it reports whether the status changed.
func (a *Allocation) Cancel() bool {
	if a.status == AllocationDelivered || a.status == AllocationCancelled {
		return false
	}
	a.status = AllocationCancelled
	return true
}

func (a *Allocation) validateQuantities() error {
	if a.lineNumber < 1 {
		return errs.NewValueIsOutOfRangeError("line number", a.lineNumber, 1, "unbounded")
	}
	if a.requested <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("requested quantity", fmt.Errorf("%d is not greater than 0", a.requested))
	}
	if a.allocated <= 0 || a.allocated > a.requested {
		return errs.NewValueIsOutOfRangeError("allocated quantity", a.allocated, 1, a.requested)
	}
	return nil
}
