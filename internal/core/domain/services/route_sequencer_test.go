package services_test

import (
	"testing"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/domain/services"
	"distribution/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locationEastKm(km float64) kernel.Location {
	return kernel.MustNewLocation(0, km/kmPerDegree)
}

func TestRouteSequencer_Sequence(t *testing.T) {
	sequencer := services.NewRouteSequencer(services.DefaultRoutePolicy())
	origin := kernel.MustNewLocation(0, 0)

	t.Run("closer low-priority stop first when weighted distance is smaller", func(t *testing.T) {
		// Arrange
		p := services.RouteStop{OrderID: kernel.NewUUID(), Location: *locationNorthKm(10), Priority: 1}
		q := services.RouteStop{OrderID: kernel.NewUUID(), Location: locationEastKm(3), Priority: 10}

		// Act
		route, err := sequencer.Sequence(origin, []services.RouteStop{p, q})

		// Assert
		require.NoError(t, err)
		require.Len(t, route.Stops, 2)
		assert.True(t, route.Stops[0].OrderID.IsEqual(q.OrderID))
		assert.Equal(t, 1, route.Stops[0].Sequence)
		assert.True(t, route.Stops[1].OrderID.IsEqual(p.OrderID))
		assert.Equal(t, 2, route.Stops[1].Sequence)
		assert.InDelta(t, 3, route.Stops[0].HopDistanceKm, 0.01)
	})

	t.Run("priority weighting pulls urgent stops forward", func(t *testing.T) {
		urgent := services.RouteStop{OrderID: kernel.NewUUID(), Location: *locationNorthKm(10), Priority: 1}
		relaxed := services.RouteStop{OrderID: kernel.NewUUID(), Location: locationEastKm(6), Priority: 10}

		route, err := sequencer.Sequence(origin, []services.RouteStop{relaxed, urgent})

		require.NoError(t, err)
		// relaxed weighs 6 * 1.9 = 11.4 against 10 for urgent
		assert.True(t, route.Stops[0].OrderID.IsEqual(urgent.OrderID))
	})

	t.Run("total includes the return to the origin", func(t *testing.T) {
		stop := services.RouteStop{OrderID: kernel.NewUUID(), Location: *locationNorthKm(10), Priority: 5}

		route, err := sequencer.Sequence(origin, []services.RouteStop{stop})

		require.NoError(t, err)
		assert.InDelta(t, 10, route.ReturnDistanceKm, 0.01)
		assert.InDelta(t, 20, route.TotalDistanceKm, 0.01)
		assert.InDelta(t, 60, route.EstimatedMinutes, 0.03)
	})

	t.Run("ties keep input order", func(t *testing.T) {
		loc := locationEastKm(4)
		first := services.RouteStop{OrderID: kernel.NewUUID(), Location: loc, Priority: 3}
		second := services.RouteStop{OrderID: kernel.NewUUID(), Location: loc, Priority: 3}

		route, err := sequencer.Sequence(origin, []services.RouteStop{first, second})

		require.NoError(t, err)
		assert.True(t, route.Stops[0].OrderID.IsEqual(first.OrderID))
		assert.True(t, route.Stops[1].OrderID.IsEqual(second.OrderID))
		assert.Zero(t, route.Stops[1].HopDistanceKm)
	})

	t.Run("does not modify the input", func(t *testing.T) {
		a := services.RouteStop{OrderID: kernel.NewUUID(), Location: locationEastKm(9), Priority: 1}
		b := services.RouteStop{OrderID: kernel.NewUUID(), Location: locationEastKm(1), Priority: 1}
		stops := []services.RouteStop{a, b}

		_, err := sequencer.Sequence(origin, stops)

		require.NoError(t, err)
		assert.True(t, stops[0].OrderID.IsEqual(a.OrderID))
	})

	t.Run("no stops is an empty route", func(t *testing.T) {
		route, err := sequencer.Sequence(origin, nil)

		require.NoError(t, err)
		assert.Empty(t, route.Stops)
		assert.Zero(t, route.TotalDistanceKm)
		assert.Zero(t, route.ReturnDistanceKm)
		assert.Zero(t, route.EstimatedMinutes)
	})

	t.Run("rejects bad priorities", func(t *testing.T) {
		_, err := sequencer.Sequence(origin, []services.RouteStop{
			{OrderID: kernel.NewUUID(), Location: origin, Priority: 0},
		})
		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})
}
