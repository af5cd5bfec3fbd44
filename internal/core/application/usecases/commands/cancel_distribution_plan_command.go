package commands

import (
	"context"
	"errors"

	"distribution/internal/core/domain/model/distribution"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/ports"
	"distribution/internal/pkg/guard"
)

var ErrCancelDistributionPlanCommandIsNotConstructed = errors.New(
	"CancelDistributionPlanCommand must be created via NewCancelDistributionPlanCommand constructor",
)

// CancelDistributionPlanCommand stops a draft or active plan. Reservations
// already confirmed belong to the orders and are left in place.
type CancelDistributionPlanCommand struct { //nolint:recvcheck //using for validation
	planID kernel.UUID

	guard guard.ConstructorGuard
}

func NewCancelDistributionPlanCommand(planID kernel.UUID) (CancelDistributionPlanCommand, error) {
	if err := planID.Validate(); err != nil {
		return CancelDistributionPlanCommand{}, err
	}
	return CancelDistributionPlanCommand{planID: planID, guard: guard.NewConstructorGuard()}, nil
}

func (c CancelDistributionPlanCommand) Validate() error {
	return c.guard.Validate(ErrCancelDistributionPlanCommandIsNotConstructed)
}

func (c CancelDistributionPlanCommand) PlanID() kernel.UUID {
	return c.planID
}

type CancelDistributionPlanCommandHandler struct {
	uowFactory UoWFactory
	env        handlerEnv
}

func NewCancelDistributionPlanCommandHandler(
	uowFactory UoWFactory,
	locker ports.KeyLocker,
	opts ...HandlerOption,
) CancelDistributionPlanCommandHandler {
	return CancelDistributionPlanCommandHandler{
		uowFactory: uowFactory,
		env:        newHandlerEnv(locker, nil, opts),
	}
}

func (h CancelDistributionPlanCommandHandler) Handle(
	ctx context.Context,
	cmd CancelDistributionPlanCommand,
) (*distribution.Plan, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	unlock, _, err := h.env.lock(ctx, planLockKey(cmd.PlanID()))
	if err != nil {
		return nil, err
	}
	defer unlock()

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	plan, err := uow.PlanRepository().Get(ctx, cmd.PlanID())
	if err != nil {
		return nil, err
	}
	if err = plan.Cancel(); err != nil {
		return nil, err
	}
	if err = uow.PlanRepository().Update(ctx, plan); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return plan, nil
}
