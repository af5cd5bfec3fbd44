package commands

import (
	"context"
	"errors"
	"fmt"

	"distribution/internal/core/application/ledger"
	"distribution/internal/core/domain/model/distribution"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/domain/model/order"
	"distribution/internal/core/ports"
	"distribution/internal/pkg/errs"
)

// AllocationFailure is an allocation execution could not reserve.
type AllocationFailure struct {
	AllocationID kernel.UUID
	OrderID      kernel.UUID
	LineNumber   int
	Err          error
}

type ExecutionResult struct {
	PlanID    kernel.UUID
	Status    distribution.PlanStatus
	Confirmed []kernel.UUID
	Failed    []AllocationFailure
}

type executionPayload struct {
	PlanID    string   `json:"planId"`
	Status    string   `json:"status"`
	Confirmed []string `json:"confirmed"`
	Failed    []string `json:"failed"`
}

// ExecuteDistributionPlanCommandHandler confirms a plan's pending allocations.
// Each allocation runs in its own unit of work under its own locks; a failure
// is collected and does not undo the allocations confirmed before it.
type ExecuteDistributionPlanCommandHandler struct {
	uowFactory UoWFactory
	env        handlerEnv
}

func NewExecuteDistributionPlanCommandHandler(
	uowFactory UoWFactory,
	locker ports.KeyLocker,
	publisher ports.EventPublisher,
	opts ...HandlerOption,
) ExecuteDistributionPlanCommandHandler {
	return ExecuteDistributionPlanCommandHandler{
		uowFactory: uowFactory,
		env:        newHandlerEnv(locker, publisher, opts),
	}
}

func (h ExecuteDistributionPlanCommandHandler) Handle(
	ctx context.Context,
	cmd ExecuteDistributionPlanCommand,
) (ExecutionResult, error) {
	if err := cmd.Validate(); err != nil {
		return ExecutionResult{}, err
	}

	plan, err := h.uowFactory.Create().PlanRepository().Get(ctx, cmd.PlanID())
	if err != nil {
		return ExecutionResult{}, err
	}
	if err = plan.CanExecute(); err != nil {
		return ExecutionResult{}, err
	}

	result := ExecutionResult{PlanID: plan.ID()}
	var events []ports.DomainEvent
	for _, a := range plan.PendingAllocations() {
		confirmed, touched, o, execErr := h.executeAllocation(ctx, plan.ID(), a)
		if execErr != nil {
			h.env.logger.WarnContext(ctx, "allocation not confirmed",
				"plan_id", plan.ID().String(),
				"allocation_id", a.ID().String(),
				"order_id", a.OrderID().String(),
				"error", execErr,
			)
			result.Failed = append(result.Failed, AllocationFailure{
				AllocationID: a.ID(),
				OrderID:      a.OrderID(),
				LineNumber:   a.LineNumber(),
				Err:          execErr,
			})
			continue
		}
		if !confirmed {
			continue
		}
		result.Confirmed = append(result.Confirmed, a.ID())
		now := h.env.now()
		events = append(events, inventoryEvents(touched, now)...)
		events = append(events, orderEvent(o, now))
	}

	status, err := h.activate(ctx, plan.ID())
	if err != nil {
		return ExecutionResult{}, err
	}
	result.Status = status

	events = append(events, ports.DomainEvent{
		Type:        ports.EventDistributionExecuted,
		AggregateID: plan.ID().String(),
		OccurredAt:  h.env.now(),
		Payload:     newExecutionPayload(result),
	})
	h.env.publish(ctx, events...)
	return result, nil
}

// executeAllocation moves the line's reservation to the allocated warehouse.
// confirmed is false when another execution already handled the allocation.
func (h ExecuteDistributionPlanCommandHandler) executeAllocation(
	ctx context.Context,
	planID kernel.UUID,
	pending *distribution.Allocation,
) (confirmed bool, touched []*inventory.Lot, o *order.Order, err error) {
	uow := h.uowFactory.Create()
	keys, err := h.lockKeys(ctx, uow, planID, pending)
	if err != nil {
		return false, nil, nil, err
	}

	unlock, keys, err := h.env.lock(ctx, keys...)
	if err != nil {
		return false, nil, nil, err
	}
	defer unlock()

	if err = uow.Begin(ctx); err != nil {
		return false, nil, nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	plan, err := uow.PlanRepository().Get(ctx, planID)
	if err != nil {
		return false, nil, nil, err
	}
	a, err := plan.Allocation(pending.ID())
	if err != nil {
		return false, nil, nil, err
	}
	if a.Status() != distribution.AllocationPending {
		return false, nil, nil, nil
	}

	o, err = uow.OrderRepository().Get(ctx, a.OrderID())
	if err != nil {
		return false, nil, nil, err
	}
	if !o.Status().IsAllocatable() {
		return false, nil, nil, &distribution.OrderNotAllocatableError{OrderID: o.ID(), Status: o.Status().String()}
	}
	line, err := o.Line(a.LineNumber())
	if err != nil {
		return false, nil, nil, err
	}
	if !containsAll(keys, ledger.Dedup(ledger.PortionLockKeys(line.Reservations()))) {
		return false, nil, nil, fmt.Errorf("%w: order %s", ErrLockSetChanged, o.ID())
	}

	batchHint, err := h.batchHint(ctx, uow, a)
	if err != nil {
		return false, nil, nil, err
	}

	l := h.env.ledger(uow, keys)
	if err = l.Release(ctx, line.TakeReservations(a.AllocatedQuantity())); err != nil {
		return false, nil, nil, err
	}
	portions, err := l.Reserve(ctx, a.ProductID(), a.WarehouseID(), a.AllocatedQuantity(), batchHint)
	if err != nil {
		return false, nil, nil, err
	}
	if err = errors.Join(line.AddReservations(portions), a.Confirm(portions)); err != nil {
		return false, nil, nil, err
	}
	if o.Status() == order.Confirmed {
		if _, err = o.TransitionTo(order.Processing, h.env.now()); err != nil {
			return false, nil, nil, err
		}
	}

	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return false, nil, nil, err
	}
	if err = uow.PlanRepository().Update(ctx, plan); err != nil {
		return false, nil, nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return false, nil, nil, err
	}

	return true, l.Touched(), o, nil
}

func (h ExecuteDistributionPlanCommandHandler) lockKeys(
	ctx context.Context,
	uow UoW,
	planID kernel.UUID,
	a *distribution.Allocation,
) ([]string, error) {
	keys := []string{planLockKey(planID), orderLockKey(a.OrderID())}

	o, err := uow.OrderRepository().Get(ctx, a.OrderID())
	if err != nil {
		return nil, err
	}
	if line, lineErr := o.Line(a.LineNumber()); lineErr == nil {
		keys = append(keys, ledger.PortionLockKeys(line.Reservations())...)
	}

	stockKeys, err := ledger.StockLockKeys(ctx, uow.LotRepository(), a.ProductID(), a.WarehouseID())
	if err != nil {
		return nil, err
	}
	return append(keys, stockKeys...), nil
}

// batchHint is the batch of the lot chosen at build time, if it still exists.
func (h ExecuteDistributionPlanCommandHandler) batchHint(
	ctx context.Context,
	uow UoW,
	a *distribution.Allocation,
) (string, error) {
	if a.LotID() == nil {
		return "", nil
	}
	lot, err := uow.LotRepository().Get(ctx, *a.LotID())
	if errs.IsObjectNotFound(err, "lot") {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return lot.Key().BatchNumber, nil
}

func (h ExecuteDistributionPlanCommandHandler) activate(
	ctx context.Context,
	planID kernel.UUID,
) (distribution.PlanStatus, error) {
	unlock, _, err := h.env.lock(ctx, planLockKey(planID))
	if err != nil {
		return "", err
	}
	defer unlock()

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return "", err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	plan, err := uow.PlanRepository().Get(ctx, planID)
	if err != nil {
		return "", err
	}
	if err = plan.Activate(h.env.now()); err != nil {
		return "", err
	}
	if err = uow.PlanRepository().Update(ctx, plan); err != nil {
		return "", err
	}
	if err = uow.Commit(ctx); err != nil {
		return "", err
	}
	return plan.Status(), nil
}

func newExecutionPayload(result ExecutionResult) executionPayload {
	payload := executionPayload{
		PlanID:    result.PlanID.String(),
		Status:    string(result.Status),
		Confirmed: make([]string, 0, len(result.Confirmed)),
		Failed:    make([]string, 0, len(result.Failed)),
	}
	for _, id := range result.Confirmed {
		payload.Confirmed = append(payload.Confirmed, id.String())
	}
	for _, f := range result.Failed {
		payload.Failed = append(payload.Failed, f.AllocationID.String())
	}
	return payload
}
