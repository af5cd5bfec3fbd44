package commands_test

import (
	"context"
	"sync"
	"testing"

	"distribution/internal/core/application/usecases/commands"
	"distribution/internal/core/domain/model/distribution"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/domain/model/order"
	"distribution/internal/core/domain/services"
	"distribution/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// planScenario places a confirmed 10 unit order at the far south warehouse while
// the near north warehouse holds short-dated stock.
type planScenario struct {
	*world
	placed    *order.Order
	northLot  kernel.UUID
	southLot  kernel.UUID
	planDraft commands.PlanDraft
}

func newPlanScenario(t *testing.T) planScenario {
	t.Helper()

	w := newWorld(t)
	north := w.receive(t, w.north, "N-10D", 20, 10)
	south := w.receive(t, w.south, "S-90D", 100, 90)

	o, err := w.createOrder(t, w.south, 10)
	require.NoError(t, err)
	w.transition(t, o.ID(), order.Confirmed)

	cmd, err := commands.NewBuildDistributionPlanCommand(kernel.NewUUID(), []kernel.UUID{o.ID()}, nil)
	require.NoError(t, err)
	engine := services.NewAllocationEngine(services.DefaultScoringPolicy())
	draft, err := commands.NewBuildDistributionPlanCommandHandler(w.uow(), engine, w.opts()...).Handle(t.Context(), cmd)
	require.NoError(t, err)

	return planScenario{world: w, placed: o, northLot: north.ID(), southLot: south.ID(), planDraft: draft}
}

func (s planScenario) execute(t *testing.T) commands.ExecutionResult {
	t.Helper()
	cmd, err := commands.NewExecuteDistributionPlanCommand(s.planDraft.Plan.ID(), "tester")
	require.NoError(t, err)
	result, err := commands.NewExecuteDistributionPlanCommandHandler(s.uow(), s.locker, s.events, s.opts()...).
		Handle(t.Context(), cmd)
	require.NoError(t, err)
	return result
}

func TestBuildDistributionPlanCommandHandler_PrefersNearShortDatedStock(t *testing.T) {
	s := newPlanScenario(t)

	plan := s.planDraft.Plan
	assert.Equal(t, distribution.PlanDraft, plan.Status())
	assert.Empty(t, s.planDraft.Unallocated)
	require.Len(t, plan.Allocations(), 1)

	a := plan.Allocations()[0]
	assert.True(t, a.WarehouseID().IsEqual(s.north))
	require.NotNil(t, a.LotID())
	assert.True(t, a.LotID().IsEqual(s.northLot))
	assert.Equal(t, 10, a.AllocatedQuantity())
	assert.Equal(t, distribution.AllocationPending, a.Status())

	// Building reserves nothing.
	assert.Zero(t, s.lot(t, s.northLot).Reserved())
	assert.Equal(t, 10, s.lot(t, s.southLot).Reserved())
}

func TestBuildDistributionPlanCommandHandler_RejectsPendingOrder(t *testing.T) {
	w := newWorld(t)
	w.receive(t, w.north, "", 10, 0)
	o, err := w.createOrder(t, w.north, 1)
	require.NoError(t, err)

	cmd, err := commands.NewBuildDistributionPlanCommand(kernel.NewUUID(), []kernel.UUID{o.ID()}, nil)
	require.NoError(t, err)
	engine := services.NewAllocationEngine(services.DefaultScoringPolicy())
	_, err = commands.NewBuildDistributionPlanCommandHandler(w.uow(), engine).Handle(t.Context(), cmd)

	require.ErrorIs(t, err, distribution.ErrOrderNotAllocatable)
}

func TestBuildDistributionPlanCommandHandler_ScopeExcludesWarehouses(t *testing.T) {
	w := newWorld(t)
	w.receive(t, w.north, "", 10, 0)
	o, err := w.createOrder(t, w.north, 4)
	require.NoError(t, err)
	w.transition(t, o.ID(), order.Confirmed)

	cmd, err := commands.NewBuildDistributionPlanCommand(kernel.NewUUID(), []kernel.UUID{o.ID()}, []kernel.UUID{w.south})
	require.NoError(t, err)
	engine := services.NewAllocationEngine(services.DefaultScoringPolicy())
	draft, err := commands.NewBuildDistributionPlanCommandHandler(w.uow(), engine).Handle(t.Context(), cmd)

	require.NoError(t, err)
	assert.Empty(t, draft.Plan.Allocations())
	require.Len(t, draft.Unallocated, 1)
	assert.Equal(t, 4, draft.Unallocated[0].Requested)
}

func TestExecuteDistributionPlanCommandHandler_MovesReservation(t *testing.T) {
	// Arrange
	s := newPlanScenario(t)

	// Act
	result := s.execute(t)

	// Assert
	assert.Equal(t, distribution.PlanActive, result.Status)
	assert.Len(t, result.Confirmed, 1)
	assert.Empty(t, result.Failed)

	assert.Equal(t, 10, s.lot(t, s.northLot).Reserved())
	assert.Zero(t, s.lot(t, s.southLot).Reserved())

	o := s.order(t, s.placed.ID())
	assert.Equal(t, order.Processing, o.Status())
	require.Len(t, o.Lines()[0].Reservations(), 1)
	assert.True(t, o.Lines()[0].Reservations()[0].LotID.IsEqual(s.northLot))
	assert.Equal(t, 1, s.events.countOf(ports.EventDistributionExecuted))
}

func TestExecuteDistributionPlanCommandHandler_ShortageIsReportedAndRetryable(t *testing.T) {
	// Arrange
	s := newPlanScenario(t)
	issue, err := commands.NewIssueStockCommand(s.productID, s.north, 15, nil, commands.MovementInfo{})
	require.NoError(t, err)
	_, err = commands.NewIssueStockCommandHandler(s.stock(), s.locker, s.events).Handle(t.Context(), issue)
	require.NoError(t, err)

	// Act
	result := s.execute(t)

	// Assert
	assert.Equal(t, distribution.PlanActive, result.Status)
	assert.Empty(t, result.Confirmed)
	require.Len(t, result.Failed, 1)
	assert.True(t, result.Failed[0].OrderID.IsEqual(s.placed.ID()))

	assert.Equal(t, 10, s.lot(t, s.southLot).Reserved())
	assert.Zero(t, s.lot(t, s.northLot).Reserved())
	assert.Equal(t, order.Confirmed, s.order(t, s.placed.ID()).Status())

	// Restock and retry the active plan.
	s.receive(t, s.north, "N-10D", 10, 10)
	retry := s.execute(t)
	assert.Len(t, retry.Confirmed, 1)
	assert.Empty(t, retry.Failed)
	assert.Zero(t, s.lot(t, s.southLot).Reserved())
}

func TestExecuteDistributionPlanCommandHandler_CancelledPlan(t *testing.T) {
	s := newPlanScenario(t)
	cancel, err := commands.NewCancelDistributionPlanCommand(s.planDraft.Plan.ID())
	require.NoError(t, err)
	handler := commands.NewCancelDistributionPlanCommandHandler(s.uow(), s.locker)

	plan, err := handler.Handle(t.Context(), cancel)
	require.NoError(t, err)
	assert.Equal(t, distribution.PlanCancelled, plan.Status())

	_, err = handler.Handle(t.Context(), cancel)
	require.Error(t, err)

	cmd, err := commands.NewExecuteDistributionPlanCommand(s.planDraft.Plan.ID(), "tester")
	require.NoError(t, err)
	_, err = commands.NewExecuteDistributionPlanCommandHandler(s.uow(), s.locker, s.events).Handle(t.Context(), cmd)
	require.Error(t, err)
	assert.Equal(t, 10, s.lot(t, s.southLot).Reserved())
}

func TestTransitionOrderCommandHandler_DeliveryCompletesPlan(t *testing.T) {
	// Arrange
	s := newPlanScenario(t)
	s.execute(t)

	// Act
	s.transition(t, s.placed.ID(), order.Picking, order.Packed, order.Shipped, order.Delivered)

	// Assert
	plan, err := s.factory.Create().PlanRepository().Get(t.Context(), s.planDraft.Plan.ID())
	require.NoError(t, err)
	assert.Equal(t, distribution.PlanCompleted, plan.Status())
	assert.Equal(t, distribution.AllocationDelivered, plan.Allocations()[0].Status())

	north := s.lot(t, s.northLot)
	assert.Equal(t, 10, north.Quantity())
	assert.Zero(t, north.Reserved())
	assert.Equal(t, 100, s.lot(t, s.southLot).Quantity())
}

func TestTransitionOrderCommandHandler_CancelWithdrawsAllocations(t *testing.T) {
	// Arrange
	s := newPlanScenario(t)
	s.execute(t)

	// Act
	s.transition(t, s.placed.ID(), order.Cancelled)

	// Assert
	plan, err := s.factory.Create().PlanRepository().Get(t.Context(), s.planDraft.Plan.ID())
	require.NoError(t, err)
	assert.Equal(t, distribution.AllocationCancelled, plan.Allocations()[0].Status())
	assert.Equal(t, distribution.PlanCancelled, plan.Status())
	assert.Zero(t, s.lot(t, s.northLot).Reserved())
}

func TestTransitionOrderCommandHandler_CancelledOrderDoesNotBlockCompletion(t *testing.T) {
	// Arrange
	w := newWorld(t)
	w.receive(t, w.north, "B1", 20, 30)
	kept, err := w.createOrder(t, w.north, 4)
	require.NoError(t, err)
	dropped, err := w.createOrder(t, w.north, 3)
	require.NoError(t, err)
	w.transition(t, kept.ID(), order.Confirmed)
	w.transition(t, dropped.ID(), order.Confirmed)

	build, err := commands.NewBuildDistributionPlanCommand(kernel.NewUUID(), []kernel.UUID{kept.ID(), dropped.ID()}, nil)
	require.NoError(t, err)
	engine := services.NewAllocationEngine(services.DefaultScoringPolicy())
	draft, err := commands.NewBuildDistributionPlanCommandHandler(w.uow(), engine, w.opts()...).Handle(t.Context(), build)
	require.NoError(t, err)
	require.Len(t, draft.Plan.Allocations(), 2)

	execute, err := commands.NewExecuteDistributionPlanCommand(draft.Plan.ID(), "tester")
	require.NoError(t, err)
	_, err = commands.NewExecuteDistributionPlanCommandHandler(w.uow(), w.locker, w.events, w.opts()...).
		Handle(t.Context(), execute)
	require.NoError(t, err)

	// Act
	w.transition(t, dropped.ID(), order.Cancelled)
	w.transition(t, kept.ID(), order.Picking, order.Packed, order.Shipped, order.Delivered)

	// Assert
	plan, err := w.factory.Create().PlanRepository().Get(t.Context(), draft.Plan.ID())
	require.NoError(t, err)
	assert.Equal(t, distribution.PlanCompleted, plan.Status())
	assert.Equal(t, distribution.AllocationCancelled, plan.AllocationsForOrder(dropped.ID())[0].Status())
	assert.Equal(t, distribution.AllocationDelivered, plan.AllocationsForOrder(kept.ID())[0].Status())
}

// firstOrderRead runs hook once, right after the first order read returns.
type firstOrderRead struct {
	ports.OrderRepository
	once *sync.Once
	hook func()
}

func (f firstOrderRead) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	o, err := f.OrderRepository.Get(ctx, id)
	f.once.Do(f.hook)
	return o, err
}

type orderReadHookUoW struct {
	ports.UnitOfWork
	orders firstOrderRead
}

func (u orderReadHookUoW) OrderRepository() ports.OrderRepository {
	return u.orders
}

type orderReadHookFactory struct {
	w    *world
	once *sync.Once
	hook func()
}

func (f orderReadHookFactory) Create() commands.UoW {
	uow := f.w.factory.Create()
	return orderReadHookUoW{
		UnitOfWork: uow,
		orders:     firstOrderRead{OrderRepository: uow.OrderRepository(), once: f.once, hook: f.hook},
	}
}

func TestTransitionOrderCommandHandler_ReservationMovedBeforeLocking(t *testing.T) {
	// Arrange
	s := newPlanScenario(t)
	factory := orderReadHookFactory{w: s.world, once: &sync.Once{}, hook: func() {
		s.execute(t)
	}}
	cmd, err := commands.NewTransitionOrderCommand(s.placed.ID(), order.Cancelled, "tester")
	require.NoError(t, err)

	// Act
	o, err := commands.NewTransitionOrderCommandHandler(factory, s.locker, s.events, s.opts()...).Handle(t.Context(), cmd)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, order.Cancelled, o.Status())
	assert.Zero(t, s.lot(t, s.northLot).Reserved())
	assert.Zero(t, s.lot(t, s.southLot).Reserved())
	assert.Zero(t, o.ReservedQuantity())
}
