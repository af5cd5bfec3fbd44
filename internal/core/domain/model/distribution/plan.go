package distribution

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"
)

// PlanStatus is the lifecycle of a distribution plan.
type PlanStatus string

const (
	PlanDraft     PlanStatus = "draft"
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanCancelled PlanStatus = "cancelled"
)

func (s PlanStatus) Validate() error {
	switch s {
	case PlanDraft, PlanActive, PlanCompleted, PlanCancelled:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("plan status", fmt.Errorf("%q is not a valid status", string(s)))
	}
}

var (
	ErrPlanIsNotConstructed = errors.New("Plan must be created via NewPlan or RestorePlan")

	// ErrOrderNotAllocatable is returned when a plan is requested for an order that is
	// not confirmed or processing.
	ErrOrderNotAllocatable = errors.New("order is not allocatable")
)

// OrderNotAllocatableError names the order and the status that excluded it.
type OrderNotAllocatableError struct {
	OrderID kernel.UUID
	Status  string
}

func (e *OrderNotAllocatableError) Error() string {
	return fmt.Sprintf("%s: order %s is %s", ErrOrderNotAllocatable, e.OrderID, e.Status)
}

func (e *OrderNotAllocatableError) Unwrap() error {
	return ErrOrderNotAllocatable
}

// Plan groups the allocations of one optimisation pass.
type Plan struct {
	id             kernel.UUID
	status         PlanStatus
	warehouseScope []kernel.UUID
	orderCount     int
	totalRequested int
	allocations    []*Allocation
	createdAt      time.Time
	executedAt     *time.Time

	isConstructed bool
}

// NewPlan creates a draft plan. totalRequested covers every planned line,
// including lines that received no allocation.
func NewPlan(
	id kernel.UUID,
	warehouseScope []kernel.UUID,
	orderCount, totalRequested int,
	allocations []*Allocation,
	now time.Time,
) (*Plan, error) {
	return RestorePlan(id, PlanDraft, warehouseScope, orderCount, totalRequested, allocations, now, nil)
}

func RestorePlan(
	id kernel.UUID,
	status PlanStatus,
	warehouseScope []kernel.UUID,
	orderCount, totalRequested int,
	allocations []*Allocation,
	createdAt time.Time,
	executedAt *time.Time,
) (*Plan, error) {
	p := &Plan{
		id:             id,
		status:         status,
		warehouseScope: slices.Clone(warehouseScope),
		orderCount:     orderCount,
		totalRequested: totalRequested,
		allocations:    allocations,
		createdAt:      createdAt.UTC(),
		executedAt:     executedAt,
		isConstructed:  true,
	}

	var quantityErr error
	if orderCount < 0 || totalRequested < 0 {
		quantityErr = errs.NewValueIsInvalidErrorWithCause("plan totals",
			fmt.Errorf("orders %d and requested %d must not be negative", orderCount, totalRequested))
	}

	if err := errors.Join(id.Validate(), status.Validate(), quantityErr); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Plan) Validate() error {
	if p == nil || !p.isConstructed {
		return ErrPlanIsNotConstructed
	}
	return nil
}

func (p *Plan) ID() kernel.UUID {
	return p.id
}

func (p *Plan) Status() PlanStatus {
	return p.status
}

// WarehouseScope is empty when every active warehouse was considered.
func (p *Plan) WarehouseScope() []kernel.UUID {
	return slices.Clone(p.warehouseScope)
}

func (p *Plan) Allocations() []*Allocation {
	return p.allocations
}

func (p *Plan) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Plan) ExecutedAt() *time.Time {
	return p.executedAt
}

func (p *Plan) OrderCount() int {
	return p.orderCount
}

func (p *Plan) TotalRequested() int {
	return p.totalRequested
}

func (p *Plan) TotalAllocated() int {
	total := 0
	for _, a := range p.allocations {
		total += a.allocated
	}
	return total
}

// OptimizationScore is the mean allocation score rounded to 2 decimals, 0 for an empty plan.
func (p *Plan) OptimizationScore() float64 {
	if len(p.allocations) == 0 {
		return 0
	}
	sum := 0.0
	for _, a := range p.allocations {
		sum += a.priorityScore
	}
	return math.Round(sum/float64(len(p.allocations))*100) / 100
}

func (p *Plan) Allocation(id kernel.UUID) (*Allocation, error) {
	for _, a := range p.allocations {
		if a.id.IsEqual(id) {
			return a, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("allocation", id)
}

func (p *Plan) AllocationsForOrder(orderID kernel.UUID) []*Allocation {
	var result []*Allocation
	for _, a := range p.allocations {
		if a.orderID.IsEqual(orderID) {
			result = append(result, a)
		}
	}
	return result
}

// PendingAllocations returns the allocations execution still has to reserve.
func (p *Plan) PendingAllocations() []*Allocation {
	var result []*Allocation
	for _, a := range p.allocations {
		if a.status == AllocationPending {
			result = append(result, a)
		}
	}
	return result
}

// CanExecute reports whether Activate would succeed.
func (p *Plan) CanExecute() error {
	if p.status != PlanDraft && p.status != PlanActive {
		return errs.NewValueIsInvalidErrorWithCause("plan status",
			fmt.Errorf("%s plan cannot be executed", p.status))
	}
	return nil
}

// Activate marks the plan as executed. Re-executing an active plan retries its
// pending allocations and keeps it active.
func (p *Plan) Activate(now time.Time) error {
	if err := p.CanExecute(); err != nil {
		return err
	}
	at := now.UTC()
	p.status = PlanActive
	p.executedAt = &at
	return nil
}

// CompleteIfDelivered completes an active plan once every allocation is
// delivered or cancelled and at least one was delivered.
func (p *Plan) CompleteIfDelivered() bool {
	if p.status != PlanActive {
		return false
	}
	delivered := 0
	for _, a := range p.allocations {
		switch a.status {
		case AllocationDelivered:
			delivered++
		case AllocationCancelled:
		default:
			return false
		}
	}
	if delivered == 0 {
		return false
	}
	p.status = PlanCompleted
	return true
}

// WithdrawOrder cancels the allocations of a cancelled order. A draft or active
// plan left with nothing but cancelled allocations is cancelled; otherwise the
// plan completes when the rest is delivered. It reports whether anything changed.
func (p *Plan) WithdrawOrder(orderID kernel.UUID) bool {
	if p.status != PlanDraft && p.status != PlanActive {
		return false
	}

	changed := false
	for _, a := range p.AllocationsForOrder(orderID) {
		if a.Cancel() {
			changed = true
		}
	}
	if !changed {
		return false
	}

	if slices.ContainsFunc(p.allocations, func(a *Allocation) bool { return a.status != AllocationCancelled }) {
		p.CompleteIfDelivered()
	} else {
		p.status = PlanCancelled
	}
	return true
}

func (p *Plan) Cancel() error {
	if p.status != PlanDraft && p.status != PlanActive {
		return errs.NewValueIsInvalidErrorWithCause("plan status",
			fmt.Errorf("%s plan cannot be cancelled", p.status))
	}
	p.status = PlanCancelled
	return nil
}
