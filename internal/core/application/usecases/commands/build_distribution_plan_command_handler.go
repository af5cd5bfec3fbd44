package commands

import (
	"context"

	"distribution/internal/core/domain/model/catalog"
	"distribution/internal/core/domain/model/distribution"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/domain/model/order"
	"distribution/internal/core/domain/services"
	"distribution/internal/core/ports"
)

// BuildDistributionPlanCommandHandler produces a draft plan from a stock
// snapshot. Nothing is reserved until the plan is executed.
type BuildDistributionPlanCommandHandler struct {
	uowFactory UoWFactory
	engine     services.AllocationEngine
	env        handlerEnv
}

func NewBuildDistributionPlanCommandHandler(
	uowFactory UoWFactory,
	engine services.AllocationEngine,
	opts ...HandlerOption,
) BuildDistributionPlanCommandHandler {
	return BuildDistributionPlanCommandHandler{
		uowFactory: uowFactory,
		engine:     engine,
		env:        newHandlerEnv(nil, nil, opts),
	}
}

// PlanDraft is the built plan with the lines no warehouse could serve.
type PlanDraft struct {
	Plan        *distribution.Plan
	Unallocated []services.LineRef
}

func (h BuildDistributionPlanCommandHandler) Handle(
	ctx context.Context,
	cmd BuildDistributionPlanCommand,
) (PlanDraft, error) {
	if err := cmd.Validate(); err != nil {
		return PlanDraft{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return PlanDraft{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	input, err := h.loadInput(ctx, uow, cmd)
	if err != nil {
		return PlanDraft{}, err
	}

	now := h.env.now()
	outcome, err := h.engine.Allocate(now, input)
	if err != nil {
		return PlanDraft{}, err
	}

	plan, err := distribution.NewPlan(cmd.PlanID(), cmd.WarehouseScope(), len(input.Orders),
		outcome.TotalRequested, outcome.Allocations, now)
	if err != nil {
		return PlanDraft{}, err
	}

	if err = uow.PlanRepository().Add(ctx, plan); err != nil {
		return PlanDraft{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return PlanDraft{}, err
	}

	h.env.logger.InfoContext(ctx, "distribution plan built",
		"plan_id", plan.ID().String(),
		"orders", plan.OrderCount(),
		"allocations", len(plan.Allocations()),
		"unallocated", len(outcome.Unallocated),
		"optimization_score", plan.OptimizationScore(),
	)
	return PlanDraft{Plan: plan, Unallocated: outcome.Unallocated}, nil
}

func (h BuildDistributionPlanCommandHandler) loadInput(
	ctx context.Context,
	uow UoW,
	cmd BuildDistributionPlanCommand,
) (services.AllocationInput, error) {
	orders, err := uow.OrderRepository().ListByIDs(ctx, cmd.OrderIDs())
	if err != nil {
		return services.AllocationInput{}, err
	}

	warehouses, err := scopedWarehouses(ctx, uow.WarehouseRepository(), cmd.WarehouseScope())
	if err != nil {
		return services.AllocationInput{}, err
	}
	warehouseIDs := make([]kernel.UUID, 0, len(warehouses))
	for _, w := range warehouses {
		warehouseIDs = append(warehouseIDs, w.ID)
	}

	input := services.AllocationInput{
		Orders:     make([]services.OrderContext, 0, len(orders)),
		Warehouses: warehouses,
		Products:   make(map[kernel.UUID]catalog.Product),
		Stock:      make(map[kernel.UUID][]*inventory.Lot),
	}

	clients := make(map[kernel.UUID]catalog.Client)
	for _, o := range orders {
		client, ok := clients[o.ClientID()]
		if !ok {
			if client, err = uow.ClientRepository().Get(ctx, o.ClientID()); err != nil {
				return services.AllocationInput{}, err
			}
			clients[o.ClientID()] = client
		}
		input.Orders = append(input.Orders, services.OrderContext{Order: o, Client: client})

		if err = h.loadLineStock(ctx, uow, o, warehouseIDs, input); err != nil {
			return services.AllocationInput{}, err
		}
	}

	return input, nil
}

func (h BuildDistributionPlanCommandHandler) loadLineStock(
	ctx context.Context,
	uow UoW,
	o *order.Order,
	warehouseIDs []kernel.UUID,
	input services.AllocationInput,
) error {
	for _, line := range o.Lines() {
		productID := line.ProductID()
		if _, ok := input.Products[productID]; ok {
			continue
		}

		product, err := uow.ProductRepository().Get(ctx, productID)
		if err != nil {
			return err
		}
		input.Products[productID] = product

		if len(warehouseIDs) == 0 {
			continue
		}
		lots, err := uow.LotRepository().Find(ctx, ports.LotFilter{
			ProductID:    &productID,
			WarehouseIDs: warehouseIDs,
			OnlyInStock:  true,
		})
		if err != nil {
			return err
		}
		input.Stock[productID] = lots
	}
	return nil
}

// scopedWarehouses returns the active warehouses, narrowed to scope and in
// scope order when a scope is given. Inactive warehouses in the scope are skipped.
func scopedWarehouses(
	ctx context.Context,
	repo ports.WarehouseRepository,
	scope []kernel.UUID,
) ([]catalog.Warehouse, error) {
	if len(scope) == 0 {
		return repo.ListActive(ctx)
	}

	warehouses := make([]catalog.Warehouse, 0, len(scope))
	for _, id := range scope {
		w, err := repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if w.Active {
			warehouses = append(warehouses, w)
		}
	}
	return warehouses, nil
}
