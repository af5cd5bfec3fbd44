package inventory_test

import (
	"testing"
	"time"

	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func newKey(t *testing.T) inventory.LotKey {
	t.Helper()
	key, err := inventory.NewLotKey(kernel.NewUUID(), kernel.NewUUID(), "A-01", "B-100")
	require.NoError(t, err)
	return key
}

func stockedLot(t *testing.T, quantity int) *inventory.Lot {
	t.Helper()
	lot, err := inventory.NewLot(kernel.NewUUID(), newKey(t), nil, nil, baseTime)
	require.NoError(t, err)
	_, err = lot.Receive(quantity, baseTime)
	require.NoError(t, err)
	return lot
}

func TestNewLot(t *testing.T) {
	t.Run("should create empty lot", func(t *testing.T) {
		cost := decimal.RequireFromString("2.50")
		expiry := baseTime.Add(48 * time.Hour)

		lot, err := inventory.NewLot(kernel.NewUUID(), newKey(t), &expiry, &cost, baseTime)

		require.NoError(t, err)
		require.NoError(t, lot.Validate())
		assert.Zero(t, lot.Quantity())
		assert.Zero(t, lot.Reserved())
		assert.True(t, lot.CostPrice().Equal(cost))
		assert.Equal(t, expiry, *lot.ExpiryDate())
	})

	t.Run("should reject missing identifiers", func(t *testing.T) {
		_, err := inventory.NewLot(kernel.UUID{}, inventory.LotKey{}, nil, nil, baseTime)

		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	})

	t.Run("should reject negative cost", func(t *testing.T) {
		cost := decimal.NewFromInt(-1)

		_, err := inventory.NewLot(kernel.NewUUID(), newKey(t), nil, &cost, baseTime)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestRestoreLot(t *testing.T) {
	t.Run("should reject reserved above quantity", func(t *testing.T) {
		_, err := inventory.RestoreLot(kernel.NewUUID(), newKey(t), 5, 6, nil, nil, baseTime, baseTime)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should restore consistent lot", func(t *testing.T) {
		lot, err := inventory.RestoreLot(kernel.NewUUID(), newKey(t), 10, 4, nil, nil, baseTime, baseTime)

		require.NoError(t, err)
		assert.Equal(t, 6, lot.Available())
	})
}

func TestLot_Validate_ZeroValue(t *testing.T) {
	var lot *inventory.Lot

	require.ErrorIs(t, lot.Validate(), inventory.ErrLotIsNotConstructed)
	require.ErrorIs(t, (&inventory.Lot{}).Validate(), inventory.ErrLotIsNotConstructed)
}

func TestLot_ReserveAndRelease(t *testing.T) {
	t.Run("reserve then second oversized reserve fails", func(t *testing.T) {
		// Arrange
		lot := stockedLot(t, 100)

		// Act
		err := lot.Reserve(60)
		require.NoError(t, err)
		err = lot.Reserve(50)

		// Assert
		require.ErrorIs(t, err, inventory.ErrInsufficientAvailable)
		assert.Equal(t, 40, lot.Available())
		assert.Equal(t, 60, lot.Reserved())
	})

	t.Run("release restores the previous reserved counter", func(t *testing.T) {
		lot := stockedLot(t, 10)
		require.NoError(t, lot.Reserve(3))
		before := lot.Reserved()

		require.NoError(t, lot.Reserve(5))
		require.NoError(t, lot.Release(5))

		assert.Equal(t, before, lot.Reserved())
	})

	t.Run("over release is rejected without clamping", func(t *testing.T) {
		lot := stockedLot(t, 10)
		require.NoError(t, lot.Reserve(2))

		err := lot.Release(3)

		var overRelease *inventory.OverReleaseError
		require.ErrorAs(t, err, &overRelease)
		assert.Equal(t, 2, overRelease.Reserved)
		assert.Equal(t, 2, lot.Reserved())
	})

	t.Run("non positive quantities are invalid", func(t *testing.T) {
		lot := stockedLot(t, 10)

		require.ErrorIs(t, lot.Reserve(0), errs.ErrValueIsInvalid)
		require.ErrorIs(t, lot.Release(-1), errs.ErrValueIsInvalid)
	})
}

func TestLot_Issue(t *testing.T) {
	t.Run("issue of available stock", func(t *testing.T) {
		lot := stockedLot(t, 10)
		require.NoError(t, lot.Reserve(4))

		_, err := lot.Issue(6, false, baseTime)

		require.NoError(t, err)
		assert.Equal(t, 4, lot.Quantity())
		assert.Equal(t, 4, lot.Reserved())
	})

	t.Run("issue beyond available fails", func(t *testing.T) {
		lot := stockedLot(t, 10)
		require.NoError(t, lot.Reserve(4))

		_, err := lot.Issue(7, false, baseTime)

		require.ErrorIs(t, err, inventory.ErrInsufficientAvailable)
		assert.Equal(t, 10, lot.Quantity())
	})

	t.Run("issue of a reservation consumes both counters", func(t *testing.T) {
		lot := stockedLot(t, 10)
		require.NoError(t, lot.Reserve(4))

		_, err := lot.Issue(4, true, baseTime)

		require.NoError(t, err)
		assert.Equal(t, 6, lot.Quantity())
		assert.Zero(t, lot.Reserved())
	})

	t.Run("issue of more than reserved is an over release", func(t *testing.T) {
		lot := stockedLot(t, 10)
		require.NoError(t, lot.Reserve(1))

		_, err := lot.Issue(2, true, baseTime)

		require.ErrorIs(t, err, inventory.ErrOverRelease)
	})
}

func TestLot_Adjust(t *testing.T) {
	t.Run("negative result is rejected", func(t *testing.T) {
		lot := stockedLot(t, 5)

		_, err := lot.Adjust(-6, baseTime)

		require.ErrorIs(t, err, inventory.ErrNegativeResultingStock)
		assert.True(t, inventory.IsInvariantViolation(err))
		assert.Equal(t, 5, lot.Quantity())
	})

	t.Run("result below reserved is rejected", func(t *testing.T) {
		lot := stockedLot(t, 5)
		require.NoError(t, lot.Reserve(4))

		_, err := lot.Adjust(-2, baseTime)

		require.ErrorIs(t, err, inventory.ErrInsufficientAvailable)
	})

	t.Run("positive and negative corrections", func(t *testing.T) {
		lot := stockedLot(t, 5)

		_, err := lot.Adjust(3, baseTime)
		require.NoError(t, err)
		_, err = lot.Adjust(-8, baseTime)
		require.NoError(t, err)

		assert.Zero(t, lot.Quantity())
	})

	t.Run("zero delta is invalid", func(t *testing.T) {
		lot := stockedLot(t, 5)

		_, err := lot.Adjust(0, baseTime)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestLot_MovementTimestampsStrictlyIncrease(t *testing.T) {
	lot := stockedLot(t, 5)

	first, err := lot.Receive(1, baseTime)
	require.NoError(t, err)
	second, err := lot.Issue(1, false, baseTime)
	require.NoError(t, err)
	third, err := lot.Adjust(1, baseTime.Add(-time.Hour))
	require.NoError(t, err)

	assert.True(t, second.After(first))
	assert.True(t, third.After(second))
	assert.Equal(t, third, lot.LastMovementAt())
}

func TestLot_DaysUntilExpiry(t *testing.T) {
	expiry := baseTime.Add(10*24*time.Hour + time.Hour)
	lot, err := inventory.NewLot(kernel.NewUUID(), newKey(t), &expiry, nil, baseTime)
	require.NoError(t, err)

	days, ok := lot.DaysUntilExpiry(baseTime)

	assert.True(t, ok)
	assert.Equal(t, 11, days)

	_, ok = stockedLot(t, 1).DaysUntilExpiry(baseTime)
	assert.False(t, ok)
}

func TestLotKey_LockKey(t *testing.T) {
	productID := kernel.MustUUIDFromString("00000000-0000-0000-0000-00000000000a")
	warehouseID := kernel.MustUUIDFromString("00000000-0000-0000-0000-00000000000b")

	key, err := inventory.NewLotKey(productID, warehouseID, " shelf-1 ", "B7")
	require.NoError(t, err)

	assert.Equal(t,
		"lot:00000000-0000-0000-0000-00000000000a:00000000-0000-0000-0000-00000000000b:shelf-1:B7",
		key.LockKey())
}
