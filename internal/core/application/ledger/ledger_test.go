package ledger_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"distribution/internal/adapters/out/locker"
	"distribution/internal/adapters/out/memory"
	"distribution/internal/core/application/ledger"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fixture struct {
	factory     *memory.UnitOfWorkFactory
	productID   kernel.UUID
	warehouseID kernel.UUID
}

func newFixture() fixture {
	return fixture{
		factory:     memory.NewUnitOfWorkFactory(memory.NewStore()),
		productID:   kernel.NewUUID(),
		warehouseID: kernel.NewUUID(),
	}
}

func (f fixture) key(t *testing.T, batch string) inventory.LotKey {
	t.Helper()
	key, err := inventory.NewLotKey(f.productID, f.warehouseID, "", batch)
	require.NoError(t, err)
	return key
}

// run executes fn on a ledger bound to a fresh unit of work and commits when fn succeeds.
func (f fixture) run(t *testing.T, fn func(l *ledger.Ledger) error, opts ...ledger.Option) error {
	t.Helper()
	ctx := context.Background()
	uow := f.factory.Create()
	require.NoError(t, uow.Begin(ctx))

	opts = append([]ledger.Option{ledger.WithClock(func() time.Time { return baseTime })}, opts...)
	l := ledger.New(uow.LotRepository(), uow.TransactionLogRepository(), opts...)
	if err := fn(l); err != nil {
		require.NoError(t, uow.Rollback(ctx))
		return err
	}
	return uow.Commit(ctx)
}

func (f fixture) receive(t *testing.T, batch string, quantity int, expiry *time.Time) *inventory.Lot {
	t.Helper()
	var lot *inventory.Lot
	err := f.run(t, func(l *ledger.Ledger) error {
		var err error
		lot, err = l.Receive(context.Background(), ledger.Receipt{
			Key:        f.key(t, batch),
			Quantity:   quantity,
			ExpiryDate: expiry,
			Movement:   ledger.Movement{Reference: inventory.Reference{Type: "po", ID: "PO-1"}, ActorID: "u-1"},
		})
		return err
	})
	require.NoError(t, err)
	return lot
}

func (f fixture) lot(t *testing.T, id kernel.UUID) *inventory.Lot {
	t.Helper()
	lot, err := f.factory.Create().LotRepository().Get(context.Background(), id)
	require.NoError(t, err)
	return lot
}

func (f fixture) entries(t *testing.T, id kernel.UUID) []*inventory.Transaction {
	t.Helper()
	entries, err := f.factory.Create().TransactionLogRepository().ListByLot(context.Background(), id)
	require.NoError(t, err)
	return entries
}

func day(offset int) *time.Time {
	d := baseTime.AddDate(0, 0, offset)
	return &d
}

func TestLedger_ReserveDrawsFEFO(t *testing.T) {
	// Arrange
	f := newFixture()
	late := f.receive(t, "LATE", 5, day(60))
	early := f.receive(t, "EARLY", 5, day(10))

	// Act
	var portions []inventory.Portion
	err := f.run(t, func(l *ledger.Ledger) error {
		var err error
		portions, err = l.Reserve(context.Background(), f.productID, f.warehouseID, 7, "")
		return err
	})

	// Assert
	require.NoError(t, err)
	require.Len(t, portions, 2)
	assert.Equal(t, early.ID(), portions[0].LotID)
	assert.Equal(t, 5, portions[0].Quantity)
	assert.Equal(t, late.ID(), portions[1].LotID)
	assert.Equal(t, 2, portions[1].Quantity)
	assert.Equal(t, 5, f.lot(t, early.ID()).Reserved())
	assert.Equal(t, 2, f.lot(t, late.ID()).Reserved())
}

func TestLedger_ReserveInsufficientLeavesLotsUntouched(t *testing.T) {
	f := newFixture()
	lot := f.receive(t, "B1", 10, nil)

	err := f.run(t, func(l *ledger.Ledger) error {
		_, err := l.Reserve(context.Background(), f.productID, f.warehouseID, 11, "")
		return err
	})

	var insufficient *inventory.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, insufficient.Available)
	assert.Zero(t, f.lot(t, lot.ID()).Reserved())
}

func TestLedger_ReserveReleaseRoundTrip(t *testing.T) {
	f := newFixture()
	lot := f.receive(t, "B1", 10, nil)

	var portions []inventory.Portion
	require.NoError(t, f.run(t, func(l *ledger.Ledger) error {
		var err error
		portions, err = l.Reserve(context.Background(), f.productID, f.warehouseID, 6, "")
		return err
	}))
	require.NoError(t, f.run(t, func(l *ledger.Ledger) error {
		return l.Release(context.Background(), portions)
	}))

	after := f.lot(t, lot.ID())
	assert.Equal(t, 10, after.Quantity())
	assert.Zero(t, after.Reserved())
	assert.Len(t, f.entries(t, lot.ID()), 1, "reservations are not journaled")
}

func TestLedger_ReleaseMoreThanReservedFails(t *testing.T) {
	f := newFixture()
	lot := f.receive(t, "B1", 10, nil)

	err := f.run(t, func(l *ledger.Ledger) error {
		return l.Release(context.Background(), []inventory.Portion{{LotID: lot.ID(), Key: lot.Key(), Quantity: 1}})
	})

	assert.ErrorIs(t, err, inventory.ErrOverRelease)
}

func TestLedger_IssueReservedDecrementsBothCounters(t *testing.T) {
	f := newFixture()
	lot := f.receive(t, "B1", 10, nil)

	var portions []inventory.Portion
	require.NoError(t, f.run(t, func(l *ledger.Ledger) error {
		var err error
		portions, err = l.Reserve(context.Background(), f.productID, f.warehouseID, 4, "")
		return err
	}))
	require.NoError(t, f.run(t, func(l *ledger.Ledger) error {
		_, err := l.IssueReserved(context.Background(), portions, ledger.Movement{
			Reference: inventory.Reference{Type: "order", ID: "o-1"},
		})
		return err
	}))

	after := f.lot(t, lot.ID())
	assert.Equal(t, 6, after.Quantity())
	assert.Zero(t, after.Reserved())
	entries := f.entries(t, lot.ID())
	require.Len(t, entries, 2)
	assert.Equal(t, inventory.TransactionIssue, entries[1].Type())
	assert.Equal(t, -4, entries[1].Quantity())
	assert.Equal(t, "order/o-1", entries[1].Reference().String())
}

func TestLedger_IssueRespectsReservations(t *testing.T) {
	// 10 on hand, 8 reserved: only 2 can be issued.
	f := newFixture()
	lot := f.receive(t, "B1", 10, nil)
	require.NoError(t, f.run(t, func(l *ledger.Ledger) error {
		_, err := l.Reserve(context.Background(), f.productID, f.warehouseID, 8, "")
		return err
	}))

	err := f.run(t, func(l *ledger.Ledger) error {
		_, err := l.Issue(context.Background(), ledger.IssueRequest{
			ProductID:   f.productID,
			WarehouseID: f.warehouseID,
			Quantity:    3,
		})
		return err
	})

	assert.ErrorIs(t, err, inventory.ErrInsufficientAvailable)
	after := f.lot(t, lot.ID())
	assert.Equal(t, 10, after.Quantity())
	assert.Equal(t, 8, after.Reserved())
}

func TestLedger_IssueFromSelectedLots(t *testing.T) {
	f := newFixture()
	first := f.receive(t, "B1", 10, day(5))
	second := f.receive(t, "B2", 10, day(50))

	require.NoError(t, f.run(t, func(l *ledger.Ledger) error {
		_, err := l.Issue(context.Background(), ledger.IssueRequest{
			ProductID:   f.productID,
			WarehouseID: f.warehouseID,
			Quantity:    4,
			LotIDs:      []kernel.UUID{second.ID()},
		})
		return err
	}))

	assert.Equal(t, 10, f.lot(t, first.ID()).Quantity())
	assert.Equal(t, 6, f.lot(t, second.ID()).Quantity())
}

func TestLedger_ReceiveIsIdempotent(t *testing.T) {
	f := newFixture()
	receipt := ledger.Receipt{
		Key:      f.key(t, "B1"),
		Quantity: 10,
		Movement: ledger.Movement{IdempotencyKey: "rcv-1"},
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, f.run(t, func(l *ledger.Ledger) error {
			_, err := l.Receive(context.Background(), receipt)
			return err
		}))
	}

	lot, err := f.factory.Create().LotRepository().GetByKey(context.Background(), receipt.Key)
	require.NoError(t, err)
	assert.Equal(t, 10, lot.Quantity())
	assert.Len(t, f.entries(t, lot.ID()), 1)
}

func TestLedger_AdjustMissingLotNegative(t *testing.T) {
	f := newFixture()

	err := f.run(t, func(l *ledger.Ledger) error {
		_, err := l.Adjust(context.Background(), ledger.Adjustment{Key: f.key(t, "NONE"), Delta: -3})
		return err
	})

	assert.ErrorIs(t, err, inventory.ErrNegativeResultingStock)
	lots, findErr := f.factory.Create().LotRepository().Find(context.Background(), ports.LotFilter{})
	require.NoError(t, findErr)
	assert.Empty(t, lots)
}

func TestLedger_AdjustUnplacedKeyOnEmptyWarehouse(t *testing.T) {
	f := newFixture()

	err := f.run(t, func(l *ledger.Ledger) error {
		_, err := l.Adjust(context.Background(), ledger.Adjustment{Key: f.key(t, ""), Delta: -2})
		return err
	})

	var negative *inventory.NegativeResultingStockError
	require.ErrorAs(t, err, &negative)
	assert.Equal(t, 0, negative.Quantity)
	assert.True(t, negative.WarehouseID.IsEqual(f.warehouseID))
	lots, findErr := f.factory.Create().LotRepository().Find(context.Background(), ports.LotFilter{})
	require.NoError(t, findErr)
	assert.Empty(t, lots)
}

func TestLedger_AdjustUnplacedKeyDrawsFromBatches(t *testing.T) {
	f := newFixture()
	lot := f.receive(t, "B1", 10, nil)

	var adjusted []*inventory.Lot
	err := f.run(t, func(l *ledger.Ledger) error {
		var adjErr error
		adjusted, adjErr = l.Adjust(context.Background(), ledger.Adjustment{Key: f.key(t, ""), Delta: -5})
		return adjErr
	})

	require.NoError(t, err)
	require.Len(t, adjusted, 1)
	assert.Equal(t, lot.ID(), adjusted[0].ID())
	assert.Equal(t, 5, f.lot(t, lot.ID()).Quantity())
}

func TestLedger_AdjustBelowReservedFails(t *testing.T) {
	f := newFixture()
	lot := f.receive(t, "B1", 10, nil)
	require.NoError(t, f.run(t, func(l *ledger.Ledger) error {
		_, err := l.Reserve(context.Background(), f.productID, f.warehouseID, 8, "")
		return err
	}))

	err := f.run(t, func(l *ledger.Ledger) error {
		_, err := l.Adjust(context.Background(), ledger.Adjustment{Key: lot.Key(), Delta: -5})
		return err
	})

	assert.ErrorIs(t, err, inventory.ErrInsufficientAvailable)
	assert.Equal(t, 10, f.lot(t, lot.ID()).Quantity())
}

func TestLedger_Transfer(t *testing.T) {
	// Arrange
	f := newFixture()
	source := f.receive(t, "B1", 10, day(20))
	destination := kernel.NewUUID()

	// Act
	var result ledger.TransferResult
	err := f.run(t, func(l *ledger.Ledger) error {
		var err error
		result, err = l.Transfer(context.Background(), ledger.TransferRequest{
			ProductID:       f.productID,
			FromWarehouseID: f.warehouseID,
			ToWarehouseID:   destination,
			Quantity:        4,
			Movement:        ledger.Movement{Reference: inventory.Reference{Type: "transfer", ID: "T-1"}},
		})
		return err
	})

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Target, 1)
	target := f.lot(t, result.Target[0].ID())
	assert.Equal(t, destination, target.WarehouseID())
	assert.Equal(t, "B1", target.Key().BatchNumber)
	assert.Equal(t, 4, target.Quantity())
	require.NotNil(t, target.ExpiryDate())
	assert.True(t, target.ExpiryDate().Equal(*day(20)))
	assert.Equal(t, 6, f.lot(t, source.ID()).Quantity())

	sourceEntries := f.entries(t, source.ID())
	targetEntries := f.entries(t, target.ID())
	assert.Equal(t, -4, sourceEntries[len(sourceEntries)-1].Quantity())
	assert.Equal(t, inventory.TransactionTransfer, sourceEntries[len(sourceEntries)-1].Type())
	require.Len(t, targetEntries, 1)
	assert.Equal(t, 4, targetEntries[0].Quantity())
}

func TestLedger_TransferToSameWarehouseFails(t *testing.T) {
	f := newFixture()
	f.receive(t, "B1", 10, nil)

	err := f.run(t, func(l *ledger.Ledger) error {
		_, err := l.Transfer(context.Background(), ledger.TransferRequest{
			ProductID:       f.productID,
			FromWarehouseID: f.warehouseID,
			ToWarehouseID:   f.warehouseID,
			Quantity:        1,
		})
		return err
	})

	assert.Error(t, err)
}

func TestLedger_TransferShortfallWritesNothing(t *testing.T) {
	f := newFixture()
	source := f.receive(t, "B1", 3, nil)

	err := f.run(t, func(l *ledger.Ledger) error {
		_, err := l.Transfer(context.Background(), ledger.TransferRequest{
			ProductID:       f.productID,
			FromWarehouseID: f.warehouseID,
			ToWarehouseID:   kernel.NewUUID(),
			Quantity:        5,
		})
		return err
	})

	assert.ErrorIs(t, err, inventory.ErrInsufficientAvailable)
	assert.Equal(t, 3, f.lot(t, source.ID()).Quantity())
	assert.Len(t, f.entries(t, source.ID()), 1)
}

func TestLedger_ReconcileReportsDrift(t *testing.T) {
	// Arrange
	f := newFixture()
	healthy := f.receive(t, "B1", 10, nil)
	drifted := f.receive(t, "B2", 10, nil)

	tampered, err := inventory.RestoreLot(drifted.ID(), drifted.Key(), 7, 0, nil, nil,
		drifted.ReceivedAt(), drifted.LastMovementAt())
	require.NoError(t, err)
	require.NoError(t, f.factory.Create().LotRepository().Update(context.Background(), tampered))

	// Act
	var discrepancies []inventory.Discrepancy
	require.NoError(t, f.run(t, func(l *ledger.Ledger) error {
		discrepancies, err = l.Reconcile(context.Background())
		return err
	}))

	// Assert
	require.Len(t, discrepancies, 1)
	assert.Equal(t, drifted.ID(), discrepancies[0].LotID)
	assert.Equal(t, 7, discrepancies[0].Quantity)
	assert.Equal(t, 10, discrepancies[0].Replayed)
	assert.NotEqual(t, healthy.ID(), discrepancies[0].LotID)
}

func TestLedger_LockedKeysRestrictMutations(t *testing.T) {
	f := newFixture()
	locked := f.receive(t, "B1", 2, nil)
	f.receive(t, "B2", 10, nil)

	err := f.run(t, func(l *ledger.Ledger) error {
		_, err := l.Reserve(context.Background(), f.productID, f.warehouseID, 5, "")
		return err
	}, ledger.WithLockedKeys([]string{locked.Key().LockKey()}))
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	err = f.run(t, func(l *ledger.Ledger) error {
		_, err := l.Receive(context.Background(), ledger.Receipt{Key: f.key(t, "B3"), Quantity: 1})
		return err
	}, ledger.WithLockedKeys([]string{locked.Key().LockKey()}))
	assert.ErrorIs(t, err, ledger.ErrKeyNotLocked)
}

func TestLedger_ConcurrentReservationsNeverOversell(t *testing.T) {
	// Arrange
	f := newFixture()
	lot := f.receive(t, "B1", 10, nil)
	keyLocker := locker.NewMemoryLocker()

	var (
		successes atomic.Int32
		shortages atomic.Int32
		wg        sync.WaitGroup
	)

	// Act
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()

			keys, err := ledger.StockLockKeys(ctx, f.factory.Create().LotRepository(), f.productID, f.warehouseID)
			if !assert.NoError(t, err) {
				return
			}
			unlock, err := keyLocker.Lock(ctx, keys...)
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			uow := f.factory.Create()
			_ = uow.Begin(ctx)
			l := ledger.New(uow.LotRepository(), uow.TransactionLogRepository(), ledger.WithLockedKeys(keys))
			if _, err = l.Reserve(ctx, f.productID, f.warehouseID, 6, ""); err != nil {
				_ = uow.Rollback(ctx)
				if assert.ErrorIs(t, err, inventory.ErrInsufficientStock) {
					shortages.Add(1)
				}
				return
			}
			if assert.NoError(t, uow.Commit(ctx)) {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	// Assert
	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(1), shortages.Load())
	assert.Equal(t, 6, f.lot(t, lot.ID()).Reserved())
}
