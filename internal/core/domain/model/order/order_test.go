package order_test

import (
	"testing"
	"time"

	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/domain/model/order"
	"distribution/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func newLine(t *testing.T, productID kernel.UUID, quantity int) *order.Line {
	t.Helper()
	line, err := order.NewLine(productID, quantity, decimal.RequireFromString("1.25"))
	require.NoError(t, err)
	return line
}

func newOrder(t *testing.T, lines ...*order.Line) *order.Order {
	t.Helper()
	if len(lines) == 0 {
		lines = []*order.Line{newLine(t, kernel.NewUUID(), 4)}
	}
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), 3, now.AddDate(0, 0, 2), lines, now)
	require.NoError(t, err)
	return o
}

func portion(productID kernel.UUID, quantity int) inventory.Portion {
	return inventory.Portion{
		LotID:    kernel.NewUUID(),
		Key:      inventory.LotKey{ProductID: productID, WarehouseID: kernel.NewUUID()},
		Quantity: quantity,
	}
}

func TestNewOrder(t *testing.T) {
	t.Run("should create pending order with numbered lines", func(t *testing.T) {
		first := newLine(t, kernel.NewUUID(), 2)
		second := newLine(t, kernel.NewUUID(), 3)

		o := newOrder(t, first, second)

		require.NoError(t, o.Validate())
		assert.Equal(t, order.Pending, o.Status())
		assert.Equal(t, 1, o.Lines()[0].Number())
		assert.Equal(t, 2, o.Lines()[1].Number())
		assert.True(t, o.Total().Equal(decimal.RequireFromString("6.25")))

		line, err := o.Line(2)
		require.NoError(t, err)
		assert.Same(t, second, line)
	})

	t.Run("should fail without lines", func(t *testing.T) {
		_, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), 1, now, nil, now)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should fail with priority out of range", func(t *testing.T) {
		for _, priority := range []int{0, 11} {
			_, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), priority, now,
				[]*order.Line{newLine(t, kernel.NewUUID(), 1)}, now)

			require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
		}
	})

	t.Run("should join identifier errors", func(t *testing.T) {
		_, err := order.NewOrder(kernel.UUID{}, kernel.UUID{}, kernel.NewUUID(), 1, now,
			[]*order.Line{newLine(t, kernel.NewUUID(), 1)}, now)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "UUID must be created")
	})

	t.Run("unknown line number is not found", func(t *testing.T) {
		o := newOrder(t)

		_, err := o.Line(5)

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}

func TestNewLine(t *testing.T) {
	_, err := order.NewLine(kernel.NewUUID(), 0, decimal.Zero)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	_, err = order.NewLine(kernel.NewUUID(), 1, decimal.NewFromInt(-1))
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestLine_Reservations(t *testing.T) {
	productID := kernel.NewUUID()

	t.Run("cannot hold more than requested", func(t *testing.T) {
		line := newLine(t, productID, 5)

		require.NoError(t, line.AddReservations([]inventory.Portion{portion(productID, 3)}))
		err := line.AddReservations([]inventory.Portion{portion(productID, 3)})

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
		assert.Equal(t, 3, line.ReservedQuantity())
	})

	t.Run("rejects portions of another product", func(t *testing.T) {
		line := newLine(t, productID, 5)

		err := line.AddReservations([]inventory.Portion{portion(kernel.NewUUID(), 1)})

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("take detaches newest portions first", func(t *testing.T) {
		line := newLine(t, productID, 10)
		older := portion(productID, 4)
		newer := portion(productID, 3)
		require.NoError(t, line.AddReservations([]inventory.Portion{older, newer}))

		taken := line.TakeReservations(5)

		require.Len(t, taken, 2)
		assert.True(t, taken[0].LotID.IsEqual(newer.LotID))
		assert.Equal(t, 3, taken[0].Quantity)
		assert.True(t, taken[1].LotID.IsEqual(older.LotID))
		assert.Equal(t, 2, taken[1].Quantity)
		assert.Equal(t, 2, line.ReservedQuantity())
	})

	t.Run("clear detaches everything", func(t *testing.T) {
		line := newLine(t, productID, 10)
		require.NoError(t, line.AddReservations([]inventory.Portion{portion(productID, 4)}))

		taken := line.ClearReservations()

		assert.Equal(t, 4, inventory.SumPortions(taken))
		assert.Zero(t, line.ReservedQuantity())
	})
}

func TestOrder_TransitionTo(t *testing.T) {
	t.Run("walks the happy path", func(t *testing.T) {
		o := newOrder(t)
		path := []order.Status{
			order.Confirmed, order.Processing, order.Picking, order.Packed, order.Shipped, order.Delivered,
		}

		for _, next := range path {
			changed, err := o.TransitionTo(next, now.Add(time.Minute))
			require.NoError(t, err)
			assert.True(t, changed)
		}

		assert.Equal(t, order.Delivered, o.Status())
		assert.Equal(t, now.Add(time.Minute), o.UpdatedAt())
	})

	t.Run("rejects skipping states", func(t *testing.T) {
		o := newOrder(t)

		_, err := o.TransitionTo(order.Delivered, now)

		var transitionErr *order.InvalidStateTransitionError
		require.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, order.Pending, transitionErr.From)
		assert.Equal(t, order.Delivered, transitionErr.To)
		assert.Equal(t, order.Pending, o.Status())
	})

	t.Run("cancelling twice is a no-op", func(t *testing.T) {
		o := newOrder(t)

		changed, err := o.TransitionTo(order.Cancelled, now)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = o.TransitionTo(order.Cancelled, now)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("delivered orders cannot be cancelled", func(t *testing.T) {
		o, err := order.RestoreOrder(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), 1, now, order.Delivered,
			[]*order.Line{newLineNumbered(t, 1)}, now, now)
		require.NoError(t, err)

		_, err = o.TransitionTo(order.Cancelled, now)

		require.ErrorIs(t, err, order.ErrInvalidStateTransition)
	})

	t.Run("failed only after shipping", func(t *testing.T) {
		o := newOrder(t)

		_, err := o.TransitionTo(order.Failed, now)

		require.ErrorIs(t, err, order.ErrInvalidStateTransition)
	})
}

func TestRestoreOrder_RejectsMisnumberedLines(t *testing.T) {
	_, err := order.RestoreOrder(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), 1, now, order.Pending,
		[]*order.Line{newLineNumbered(t, 2)}, now, now)

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestOrder_ValidateZeroValue(t *testing.T) {
	var o *order.Order

	require.ErrorIs(t, o.Validate(), order.ErrOrderIsNotConstructed)
	require.ErrorIs(t, (&order.Order{}).Validate(), order.ErrOrderIsNotConstructed)
}

func newLineNumbered(t *testing.T, number int) *order.Line {
	t.Helper()
	line, err := order.RestoreLine(number, kernel.NewUUID(), 1, decimal.Zero, nil)
	require.NoError(t, err)
	return line
}
