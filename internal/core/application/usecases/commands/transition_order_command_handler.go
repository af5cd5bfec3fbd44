package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"distribution/internal/core/application/ledger"
	"distribution/internal/core/domain/model/distribution"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/order"
	"distribution/internal/core/ports"
)

const maxLockAttempts = 3

// ErrLockSetChanged is returned when an order's reservations kept moving while
// its locks were being acquired. Callers may retry.
var ErrLockSetChanged = errors.New("order reservations changed while acquiring locks")

var errStaleLockSet = errors.New("stale lock set")

// allocationFollowUp maps order statuses to the allocation status they imply.
var allocationFollowUp = map[order.Status]distribution.AllocationStatus{
	order.Picking:   distribution.AllocationPicked,
	order.Shipped:   distribution.AllocationShipped,
	order.Delivered: distribution.AllocationDelivered,
}

// TransitionOrderCommandHandler drives the order state machine and the ledger
// effects of each edge: cancellation releases reservations, delivery issues them.
// Invalid transitions fail before any ledger call.
type TransitionOrderCommandHandler struct {
	uowFactory UoWFactory
	env        handlerEnv
}

func NewTransitionOrderCommandHandler(
	uowFactory UoWFactory,
	locker ports.KeyLocker,
	publisher ports.EventPublisher,
	opts ...HandlerOption,
) TransitionOrderCommandHandler {
	return TransitionOrderCommandHandler{
		uowFactory: uowFactory,
		env:        newHandlerEnv(locker, publisher, opts),
	}
}

// Handle applies the transition. Lock keys come from a read taken before the
// locks; when the order's reservations moved in between, the attempt is rolled
// back and retried with fresh keys.
func (h TransitionOrderCommandHandler) Handle(ctx context.Context, cmd TransitionOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		o, err := h.handle(ctx, cmd)
		if !errors.Is(err, errStaleLockSet) {
			return o, err
		}
		if attempt == maxLockAttempts {
			return nil, fmt.Errorf("%w: order %s", ErrLockSetChanged, cmd.OrderID())
		}
		h.env.logger.DebugContext(ctx, "order changed while locking, retrying",
			"order_id", cmd.OrderID().String(), "attempt", attempt)
	}
}

func (h TransitionOrderCommandHandler) handle(ctx context.Context, cmd TransitionOrderCommand) (*order.Order, error) {
	uow := h.uowFactory.Create()
	snapshot, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}
	keys, err := h.lockKeys(ctx, uow, snapshot, cmd.Target())
	if err != nil {
		return nil, err
	}

	unlock, keys, err := h.env.lock(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}

	required, err := h.lockKeys(ctx, uow, o, cmd.Target())
	if err != nil {
		return nil, err
	}
	if !containsAll(keys, required) {
		return nil, errStaleLockSet
	}

	changed, err := o.TransitionTo(cmd.Target(), h.env.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return o, nil
	}

	l := h.env.ledger(uow, keys)
	switch cmd.Target() {
	case order.Cancelled:
		for _, line := range o.Lines() {
			if err = l.Release(ctx, line.ClearReservations()); err != nil {
				return nil, err
			}
		}
	case order.Delivered:
		movement := ledger.Movement{
			Reference: inventory.Reference{Type: "order", ID: o.ID().String()},
			ActorID:   cmd.ActorID(),
		}
		for _, line := range o.Lines() {
			if _, err = l.IssueReserved(ctx, line.ClearReservations(), movement); err != nil {
				return nil, err
			}
		}
	}

	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return nil, err
	}

	if err = h.advanceAllocations(ctx, uow, o); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	now := h.env.now()
	h.env.publish(ctx, append(inventoryEvents(l.Touched(), now), orderEvent(o, now))...)
	return o, nil
}

// lockKeys covers the order, the lots its lines hold and the plans allocating it.
func (h TransitionOrderCommandHandler) lockKeys(
	ctx context.Context,
	uow UoW,
	o *order.Order,
	target order.Status,
) ([]string, error) {
	keys := []string{orderLockKey(o.ID())}
	for _, line := range o.Lines() {
		keys = append(keys, ledger.PortionLockKeys(line.Reservations())...)
	}

	if _, ok := allocationFollowUp[target]; ok || target == order.Cancelled {
		plans, err := uow.PlanRepository().ListByOrder(ctx, o.ID())
		if err != nil {
			return nil, err
		}
		for _, p := range plans {
			keys = append(keys, planLockKey(p.ID()))
		}
	}
	return keys, nil
}

func containsAll(held, required []string) bool {
	for _, k := range required {
		if !slices.Contains(held, k) {
			return false
		}
	}
	return true
}

// advanceAllocations moves the order's allocations along with the order.
// Cancelling the order withdraws its allocations.
func (h TransitionOrderCommandHandler) advanceAllocations(ctx context.Context, uow UoW, o *order.Order) error {
	target, follows := allocationFollowUp[o.Status()]
	if !follows && o.Status() != order.Cancelled {
		return nil
	}

	plans, err := uow.PlanRepository().ListByOrder(ctx, o.ID())
	if err != nil {
		return err
	}

	for _, p := range plans {
		if !h.followOrder(p, o, target) {
			continue
		}
		switch p.Status() {
		case distribution.PlanCompleted:
			h.env.logger.InfoContext(ctx, "distribution plan completed", "plan_id", p.ID().String())
		case distribution.PlanCancelled:
			h.env.logger.InfoContext(ctx, "distribution plan cancelled, every order withdrawn", "plan_id", p.ID().String())
		}
		if err = uow.PlanRepository().Update(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (h TransitionOrderCommandHandler) followOrder(
	p *distribution.Plan,
	o *order.Order,
	target distribution.AllocationStatus,
) bool {
	if o.Status() == order.Cancelled {
		return p.WithdrawOrder(o.ID())
	}

	changed := false
	for _, a := range p.AllocationsForOrder(o.ID()) {
		if a.Advance(target) {
			changed = true
		}
	}
	if changed {
		p.CompleteIfDelivered()
	}
	return changed
}
