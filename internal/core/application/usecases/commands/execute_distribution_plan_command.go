package commands

import (
	"errors"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/guard"
)

var ErrExecuteDistributionPlanCommandIsNotConstructed = errors.New(
	"ExecuteDistributionPlanCommand must be created via NewExecuteDistributionPlanCommand constructor",
)

type ExecuteDistributionPlanCommand struct { //nolint:recvcheck //using for validation
	planID  kernel.UUID
	actorID string

	guard guard.ConstructorGuard
}

func NewExecuteDistributionPlanCommand(planID kernel.UUID, actorID string) (ExecuteDistributionPlanCommand, error) {
	if err := planID.Validate(); err != nil {
		return ExecuteDistributionPlanCommand{}, err
	}
	return ExecuteDistributionPlanCommand{
		planID:  planID,
		actorID: actorID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c ExecuteDistributionPlanCommand) Validate() error {
	return c.guard.Validate(ErrExecuteDistributionPlanCommandIsNotConstructed)
}

func (c ExecuteDistributionPlanCommand) PlanID() kernel.UUID {
	return c.planID
}

func (c ExecuteDistributionPlanCommand) ActorID() string {
	return c.actorID
}
