package queries

import (
	"context"
	"errors"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/ports"
	"distribution/internal/pkg/guard"
)

var ErrGetDistributionPlanQueryIsNotConstructed = errors.New(
	"GetDistributionPlanQuery must be created via NewGetDistributionPlanQuery constructor",
)

type GetDistributionPlanQuery struct {
	planID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetDistributionPlanQuery(planID kernel.UUID) (GetDistributionPlanQuery, error) {
	if err := planID.Validate(); err != nil {
		return GetDistributionPlanQuery{}, err
	}
	return GetDistributionPlanQuery{planID: planID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetDistributionPlanQuery) Validate() error {
	return q.guard.Validate(ErrGetDistributionPlanQueryIsNotConstructed)
}

func (q GetDistributionPlanQuery) PlanID() kernel.UUID {
	return q.planID
}

type GetDistributionPlanQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewGetDistributionPlanQueryHandler(uowFactory ports.UnitOfWorkFactory) GetDistributionPlanQueryHandler {
	return GetDistributionPlanQueryHandler{uowFactory: uowFactory}
}

func (h GetDistributionPlanQueryHandler) Handle(ctx context.Context, query GetDistributionPlanQuery) (PlanView, error) {
	if err := query.Validate(); err != nil {
		return PlanView{}, err
	}

	plan, err := h.uowFactory.Create().PlanRepository().Get(ctx, query.PlanID())
	if err != nil {
		return PlanView{}, err
	}
	return NewPlanView(plan), nil
}
