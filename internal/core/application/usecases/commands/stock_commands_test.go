package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"distribution/internal/core/application/usecases/commands"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/ports"
	"distribution/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStockUoW struct {
	mock.Mock
}

func (m *MockStockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStockUoW) LotRepository() ports.LotRepository {
	args := m.Called()
	return args.Get(0).(ports.LotRepository)
}

func (m *MockStockUoW) TransactionLogRepository() ports.TransactionLogRepository {
	args := m.Called()
	return args.Get(0).(ports.TransactionLogRepository)
}

func (m *MockStockUoW) ClientRepository() ports.ClientRepository {
	args := m.Called()
	return args.Get(0).(ports.ClientRepository)
}

func (m *MockStockUoW) ProductRepository() ports.ProductRepository {
	args := m.Called()
	return args.Get(0).(ports.ProductRepository)
}

func (m *MockStockUoW) WarehouseRepository() ports.WarehouseRepository {
	args := m.Called()
	return args.Get(0).(ports.WarehouseRepository)
}

type MockStockUoWFactory struct {
	mock.Mock
}

func (m *MockStockUoWFactory) Create() commands.StockUoW {
	args := m.Called()
	return args.Get(0).(commands.StockUoW)
}

// failingCommit delegates to a real unit of work but refuses to commit.
type failingCommit struct {
	ports.UnitOfWork
}

func (f failingCommit) Commit(context.Context) error {
	return errors.New("commit refused")
}

// afterListing runs hook once, right after the first lot listing returns.
type afterListing struct {
	ports.LotRepository
	once *sync.Once
	hook func()
}

func (a afterListing) Find(ctx context.Context, filter ports.LotFilter) ([]*inventory.Lot, error) {
	lots, err := a.LotRepository.Find(ctx, filter)
	a.once.Do(a.hook)
	return lots, err
}

type listingHookUoW struct {
	ports.UnitOfWork
	lots afterListing
}

func (u listingHookUoW) LotRepository() ports.LotRepository {
	return u.lots
}

type listingHookFactory struct {
	w    *world
	once *sync.Once
	hook func()
}

func (f listingHookFactory) Create() commands.StockUoW {
	uow := f.w.factory.Create()
	return listingHookUoW{
		UnitOfWork: uow,
		lots:       afterListing{LotRepository: uow.LotRepository(), once: f.once, hook: f.hook},
	}
}

type failingCommitFactory struct {
	w *world
}

func (f failingCommitFactory) Create() commands.StockUoW {
	return failingCommit{UnitOfWork: f.w.factory.Create()}
}

func TestReceiveStockCommandHandler_Handle(t *testing.T) {
	// Arrange
	w := newWorld(t)

	// Act
	first := w.receive(t, w.north, "B1", 40, 30)
	second := w.receive(t, w.north, "B1", 60, 30)

	// Assert
	assert.True(t, first.ID().IsEqual(second.ID()))
	assert.Equal(t, 100, w.lot(t, first.ID()).Quantity())
	assert.Equal(t, 2, w.events.countOf(ports.EventInventoryUpdated))

	entries, err := w.factory.Create().TransactionLogRepository().ListByLot(t.Context(), first.ID())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, inventory.TransactionReceive, entries[0].Type())
	assert.Equal(t, "tester", entries[0].ActorID())
}

func TestReceiveStockCommandHandler_UnknownWarehouse(t *testing.T) {
	w := newWorld(t)
	cmd, err := commands.NewReceiveStockCommand(w.productID, kernel.NewUUID(), "", "", 5, nil, nil, commands.MovementInfo{})
	require.NoError(t, err)

	_, err = commands.NewReceiveStockCommandHandler(w.stock(), w.locker, w.events).Handle(t.Context(), cmd)

	require.Error(t, err)
	assert.True(t, errs.IsObjectNotFound(err, "warehouse"))
	assert.Zero(t, w.events.countOf(ports.EventInventoryUpdated))
}

func TestReceiveStockCommandHandler_IdempotencyKey(t *testing.T) {
	// Arrange
	w := newWorld(t)
	cmd, err := commands.NewReceiveStockCommand(w.productID, w.north, "", "B1", 25, nil, nil,
		commands.MovementInfo{ReferenceType: "purchase_order", ReferenceID: "po-7", IdempotencyKey: "po-7-rcv"})
	require.NoError(t, err)
	handler := commands.NewReceiveStockCommandHandler(w.stock(), w.locker, w.events, w.opts()...)

	// Act
	first, err := handler.Handle(t.Context(), cmd)
	require.NoError(t, err)
	replay, err := handler.Handle(t.Context(), cmd)
	require.NoError(t, err)

	// Assert
	assert.True(t, first.ID().IsEqual(replay.ID()))
	assert.Equal(t, 25, w.lot(t, first.ID()).Quantity())
	assert.Equal(t, 1, w.events.countOf(ports.EventInventoryUpdated))
}

func TestReceiveStockCommandHandler_BeginFails(t *testing.T) {
	// Arrange
	ctx := t.Context()
	w := newWorld(t)
	cmd, err := commands.NewReceiveStockCommand(w.productID, w.north, "", "", 5, nil, nil, commands.MovementInfo{})
	require.NoError(t, err)

	mockUoW := new(MockStockUoW)
	mockFactory := new(MockStockUoWFactory)
	mockFactory.On("Create").Return(mockUoW).Once()
	mockUoW.On("Begin", ctx).Return(errors.New("connection refused")).Once()

	handler := commands.NewReceiveStockCommandHandler(mockFactory, w.locker, w.events)

	// Act
	_, err = handler.Handle(ctx, cmd)

	// Assert
	require.EqualError(t, err, "connection refused")
	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockUoW.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestReceiveStockCommandHandler_CommitFailsPublishesNothing(t *testing.T) {
	w := newWorld(t)
	cmd, err := commands.NewReceiveStockCommand(w.productID, w.north, "", "B9", 5, nil, nil, commands.MovementInfo{})
	require.NoError(t, err)

	_, err = commands.NewReceiveStockCommandHandler(failingCommitFactory{w: w}, w.locker, w.events).Handle(t.Context(), cmd)

	require.EqualError(t, err, "commit refused")
	assert.Zero(t, w.events.countOf(ports.EventInventoryUpdated))
	_, err = w.factory.Create().LotRepository().GetByKey(t.Context(), cmd.Key())
	assert.True(t, errs.IsObjectNotFound(err, "lot"))
}

func TestReceiveStockCommandHandler_NotConstructed(t *testing.T) {
	w := newWorld(t)

	_, err := commands.NewReceiveStockCommandHandler(w.stock(), w.locker, w.events).
		Handle(t.Context(), commands.ReceiveStockCommand{})

	require.ErrorIs(t, err, commands.ErrReceiveStockCommandIsNotConstructed)
}

func TestIssueStockCommandHandler_Handle(t *testing.T) {
	t.Run("draws FEFO and honours reservations", func(t *testing.T) {
		// Arrange
		w := newWorld(t)
		early := w.receive(t, w.north, "EARLY", 30, 10)
		late := w.receive(t, w.north, "LATE", 30, 60)
		_, err := w.createOrder(t, w.north, 20)
		require.NoError(t, err)

		cmd, err := commands.NewIssueStockCommand(w.productID, w.north, 15, nil,
			commands.MovementInfo{ReferenceType: "sale", ReferenceID: "s-1"})
		require.NoError(t, err)

		// Act
		lots, err := commands.NewIssueStockCommandHandler(w.stock(), w.locker, w.events, w.opts()...).Handle(t.Context(), cmd)

		// Assert
		require.NoError(t, err)
		require.Len(t, lots, 2)
		assert.Equal(t, 20, w.lot(t, early.ID()).Quantity())
		assert.Equal(t, 20, w.lot(t, early.ID()).Reserved())
		assert.Equal(t, 25, w.lot(t, late.ID()).Quantity())
	})

	t.Run("insufficient available", func(t *testing.T) {
		w := newWorld(t)
		lot := w.receive(t, w.north, "", 10, 0)
		cmd, err := commands.NewIssueStockCommand(w.productID, w.north, 11, nil, commands.MovementInfo{})
		require.NoError(t, err)

		_, err = commands.NewIssueStockCommandHandler(w.stock(), w.locker, w.events).Handle(t.Context(), cmd)

		var shortage *inventory.InsufficientAvailableError
		require.ErrorAs(t, err, &shortage)
		assert.Equal(t, 10, shortage.Available)
		assert.Equal(t, 10, w.lot(t, lot.ID()).Quantity())
	})

	t.Run("selected lots", func(t *testing.T) {
		w := newWorld(t)
		early := w.receive(t, w.north, "EARLY", 10, 10)
		late := w.receive(t, w.north, "LATE", 10, 60)
		cmd, err := commands.NewIssueStockCommand(w.productID, w.north, 4, []kernel.UUID{late.ID()}, commands.MovementInfo{})
		require.NoError(t, err)

		_, err = commands.NewIssueStockCommandHandler(w.stock(), w.locker, w.events).Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, 10, w.lot(t, early.ID()).Quantity())
		assert.Equal(t, 6, w.lot(t, late.ID()).Quantity())
	})
}

func TestAdjustStockCommandHandler_Handle(t *testing.T) {
	w := newWorld(t)
	lot := w.receive(t, w.north, "B1", 10, 0)
	handler := commands.NewAdjustStockCommandHandler(w.stock(), w.locker, w.events, w.opts()...)

	down, err := commands.NewAdjustStockCommand(w.productID, w.north, "", "B1", -3, "damaged", commands.MovementInfo{})
	require.NoError(t, err)
	adjusted, err := handler.Handle(t.Context(), down)
	require.NoError(t, err)
	require.Len(t, adjusted, 1)
	assert.Equal(t, 7, adjusted[0].Quantity())

	tooFar, err := commands.NewAdjustStockCommand(w.productID, w.north, "", "B1", -8, "count", commands.MovementInfo{})
	require.NoError(t, err)
	_, err = handler.Handle(t.Context(), tooFar)
	require.ErrorIs(t, err, inventory.ErrNegativeResultingStock)
	assert.Equal(t, 7, w.lot(t, lot.ID()).Quantity())

	_, err = w.createOrder(t, w.north, 5)
	require.NoError(t, err)
	belowReserved, err := commands.NewAdjustStockCommand(w.productID, w.north, "", "B1", -3, "count", commands.MovementInfo{})
	require.NoError(t, err)
	_, err = handler.Handle(t.Context(), belowReserved)
	require.ErrorIs(t, err, inventory.ErrInsufficientAvailable)
	assert.Equal(t, 7, w.lot(t, lot.ID()).Quantity())

	entries, err := w.factory.Create().TransactionLogRepository().ListByLot(t.Context(), lot.ID())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, inventory.TransactionAdjustment, entries[1].Type())
	assert.Equal(t, "damaged", entries[1].Note())
	assert.Equal(t, -3, entries[1].Quantity())
}

func TestAdjustStockCommandHandler_WarehouseWide(t *testing.T) {
	t.Run("single batched lot takes the correction", func(t *testing.T) {
		// Arrange
		w := newWorld(t)
		lot := w.receive(t, w.north, "B1", 10, 0)
		cmd, err := commands.NewAdjustStockCommand(w.productID, w.north, "", "", -5, "count", commands.MovementInfo{})
		require.NoError(t, err)

		// Act
		adjusted, err := commands.NewAdjustStockCommandHandler(w.stock(), w.locker, w.events, w.opts()...).
			Handle(t.Context(), cmd)

		// Assert
		require.NoError(t, err)
		require.Len(t, adjusted, 1)
		assert.Equal(t, lot.ID(), adjusted[0].ID())
		assert.Equal(t, 5, w.lot(t, lot.ID()).Quantity())
		lots, err := w.factory.Create().LotRepository().Find(t.Context(), ports.LotFilter{WarehouseID: &w.north})
		require.NoError(t, err)
		assert.Len(t, lots, 1)
	})

	t.Run("several lots are drawn FEFO", func(t *testing.T) {
		// Arrange
		w := newWorld(t)
		early := w.receive(t, w.north, "EARLY", 4, 10)
		late := w.receive(t, w.north, "LATE", 10, 60)
		cmd, err := commands.NewAdjustStockCommand(w.productID, w.north, "", "", -6, "shrinkage", commands.MovementInfo{})
		require.NoError(t, err)

		// Act
		adjusted, err := commands.NewAdjustStockCommandHandler(w.stock(), w.locker, w.events, w.opts()...).
			Handle(t.Context(), cmd)

		// Assert
		require.NoError(t, err)
		require.Len(t, adjusted, 2)
		assert.Equal(t, 0, w.lot(t, early.ID()).Quantity())
		assert.Equal(t, 8, w.lot(t, late.ID()).Quantity())

		entries, err := w.factory.Create().TransactionLogRepository().ListByLot(t.Context(), late.ID())
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, -2, entries[1].Quantity())
	})

	t.Run("more than the warehouse holds", func(t *testing.T) {
		w := newWorld(t)
		first := w.receive(t, w.north, "B1", 3, 0)
		second := w.receive(t, w.north, "B2", 3, 0)
		cmd, err := commands.NewAdjustStockCommand(w.productID, w.north, "", "", -7, "count", commands.MovementInfo{})
		require.NoError(t, err)

		_, err = commands.NewAdjustStockCommandHandler(w.stock(), w.locker, w.events).Handle(t.Context(), cmd)

		var negative *inventory.NegativeResultingStockError
		require.ErrorAs(t, err, &negative)
		assert.Equal(t, 6, negative.Quantity)
		assert.True(t, negative.WarehouseID.IsEqual(w.north))
		assert.Equal(t, 3, w.lot(t, first.ID()).Quantity())
		assert.Equal(t, 3, w.lot(t, second.ID()).Quantity())
	})

	t.Run("reserved stock is not adjusted away", func(t *testing.T) {
		w := newWorld(t)
		w.receive(t, w.north, "B1", 5, 10)
		w.receive(t, w.north, "B2", 5, 20)
		_, err := w.createOrder(t, w.north, 8)
		require.NoError(t, err)
		cmd, err := commands.NewAdjustStockCommand(w.productID, w.north, "", "", -3, "count", commands.MovementInfo{})
		require.NoError(t, err)

		_, err = commands.NewAdjustStockCommandHandler(w.stock(), w.locker, w.events).Handle(t.Context(), cmd)

		require.ErrorIs(t, err, inventory.ErrInsufficientAvailable)
	})

	t.Run("positive delta opens the default lot", func(t *testing.T) {
		w := newWorld(t)
		batched := w.receive(t, w.north, "B1", 3, 0)
		cmd, err := commands.NewAdjustStockCommand(w.productID, w.north, "", "", 2, "found", commands.MovementInfo{})
		require.NoError(t, err)

		adjusted, err := commands.NewAdjustStockCommandHandler(w.stock(), w.locker, w.events).Handle(t.Context(), cmd)

		require.NoError(t, err)
		require.Len(t, adjusted, 1)
		assert.NotEqual(t, batched.ID(), adjusted[0].ID())
		assert.True(t, adjusted[0].Key().Unplaced())
		assert.Equal(t, 2, adjusted[0].Quantity())
		assert.Equal(t, 3, w.lot(t, batched.ID()).Quantity())
	})
}

func TestNewAdjustStockCommand_RequiresReason(t *testing.T) {
	_, err := commands.NewAdjustStockCommand(kernel.NewUUID(), kernel.NewUUID(), "", "", 1, "  ", commands.MovementInfo{})

	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestTransferStockCommandHandler_Handle(t *testing.T) {
	t.Run("moves stock and keeps lot attributes", func(t *testing.T) {
		// Arrange
		w := newWorld(t)
		source := w.receive(t, w.north, "B1", 30, 20)
		cmd, err := commands.NewTransferStockCommand(w.productID, w.north, w.south, 12, nil,
			commands.MovementInfo{ReferenceType: "transfer_order", ReferenceID: "t-1"})
		require.NoError(t, err)

		// Act
		result, err := commands.NewTransferStockCommandHandler(w.stock(), w.locker, w.events, w.opts()...).
			Handle(t.Context(), cmd)

		// Assert
		require.NoError(t, err)
		require.Len(t, result.Target, 1)
		assert.Equal(t, 18, w.lot(t, source.ID()).Quantity())
		target := w.lot(t, result.Target[0].ID())
		assert.Equal(t, 12, target.Quantity())
		assert.True(t, target.WarehouseID().IsEqual(w.south))
		assert.Equal(t, "B1", target.Key().BatchNumber)
		require.NotNil(t, target.ExpiryDate())
		assert.True(t, target.ExpiryDate().Equal(*source.ExpiryDate()))
	})

	t.Run("shortfall changes neither warehouse", func(t *testing.T) {
		// Arrange
		w := newWorld(t)
		source := w.receive(t, w.north, "", 15, 0)
		before := len(w.events.events)
		cmd, err := commands.NewTransferStockCommand(w.productID, w.north, w.south, 20, nil, commands.MovementInfo{})
		require.NoError(t, err)

		// Act
		_, err = commands.NewTransferStockCommandHandler(w.stock(), w.locker, w.events).Handle(t.Context(), cmd)

		// Assert
		require.ErrorIs(t, err, inventory.ErrInsufficientAvailable)
		assert.Equal(t, 15, w.lot(t, source.ID()).Quantity())
		southLots, err := w.factory.Create().LotRepository().Find(t.Context(), ports.LotFilter{WarehouseID: &w.south})
		require.NoError(t, err)
		assert.Empty(t, southLots)
		assert.Len(t, w.events.events, before)
	})
}

func TestNewTransferStockCommand_SameWarehouse(t *testing.T) {
	id := kernel.NewUUID()

	_, err := commands.NewTransferStockCommand(kernel.NewUUID(), id, id, 1, nil, commands.MovementInfo{})

	require.Error(t, err)
}

func TestReconcileLedgerCommandHandler_Handle(t *testing.T) {
	w := newWorld(t)
	lot := w.receive(t, w.north, "B1", 10, 0)

	handler := commands.NewReconcileLedgerCommandHandler(w.stock(), w.locker, w.opts()...)
	discrepancies, err := handler.Handle(t.Context(), commands.NewReconcileLedgerCommand())
	require.NoError(t, err)
	assert.Empty(t, discrepancies)

	drifted, err := inventory.RestoreLot(lot.ID(), lot.Key(), 13, 0, lot.ExpiryDate(), lot.CostPrice(),
		lot.ReceivedAt(), lot.LastMovementAt())
	require.NoError(t, err)
	require.NoError(t, w.factory.Create().LotRepository().Update(t.Context(), drifted))

	discrepancies, err = handler.Handle(t.Context(), commands.NewReconcileLedgerCommand())
	require.NoError(t, err)
	require.Len(t, discrepancies, 1)
	assert.Equal(t, 13, discrepancies[0].Quantity)
	assert.Equal(t, 10, discrepancies[0].Replayed)
}

func TestReconcileLedgerCommandHandler_MovementDuringScan(t *testing.T) {
	// Arrange
	w := newWorld(t)
	lot := w.receive(t, w.north, "B1", 10, 0)
	factory := listingHookFactory{w: w, once: &sync.Once{}, hook: func() {
		w.receive(t, w.north, "B1", 5, 0)
	}}
	handler := commands.NewReconcileLedgerCommandHandler(factory, w.locker, w.opts()...)

	// Act
	discrepancies, err := handler.Handle(t.Context(), commands.NewReconcileLedgerCommand())

	// Assert
	require.NoError(t, err)
	assert.Empty(t, discrepancies)
	assert.Equal(t, 15, w.lot(t, lot.ID()).Quantity())
}
