package commands

import (
	"errors"
	"slices"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"
	"distribution/internal/pkg/guard"
)

var ErrBuildDistributionPlanCommandIsNotConstructed = errors.New(
	"BuildDistributionPlanCommand must be created via NewBuildDistributionPlanCommand constructor",
)

// BuildDistributionPlanCommand scores the orders against the warehouses in
// scope, or every active warehouse when the scope is empty.
type BuildDistributionPlanCommand struct { //nolint:recvcheck //using for validation
	planID         kernel.UUID
	orderIDs       []kernel.UUID
	warehouseScope []kernel.UUID

	guard guard.ConstructorGuard
}

func NewBuildDistributionPlanCommand(
	planID kernel.UUID,
	orderIDs []kernel.UUID,
	warehouseScope []kernel.UUID,
) (BuildDistributionPlanCommand, error) {
	errList := []error{planID.Validate()}
	if len(orderIDs) == 0 {
		errList = append(errList, errs.NewValueIsRequiredError("order ids"))
	}
	for _, id := range slices.Concat(orderIDs, warehouseScope) {
		errList = append(errList, id.Validate())
	}
	if err := errors.Join(errList...); err != nil {
		return BuildDistributionPlanCommand{}, err
	}

	return BuildDistributionPlanCommand{
		planID:         planID,
		orderIDs:       dedupIDs(orderIDs),
		warehouseScope: dedupIDs(warehouseScope),
		guard:          guard.NewConstructorGuard(),
	}, nil
}

func (c BuildDistributionPlanCommand) Validate() error {
	return c.guard.Validate(ErrBuildDistributionPlanCommandIsNotConstructed)
}

func (c BuildDistributionPlanCommand) PlanID() kernel.UUID {
	return c.planID
}

func (c BuildDistributionPlanCommand) OrderIDs() []kernel.UUID {
	return slices.Clone(c.orderIDs)
}

func (c BuildDistributionPlanCommand) WarehouseScope() []kernel.UUID {
	return slices.Clone(c.warehouseScope)
}

// dedupIDs drops repeated ids keeping first occurrences in order.
func dedupIDs(ids []kernel.UUID) []kernel.UUID {
	result := make([]kernel.UUID, 0, len(ids))
	for _, id := range ids {
		if !slices.ContainsFunc(result, id.IsEqual) {
			result = append(result, id)
		}
	}
	return result
}
