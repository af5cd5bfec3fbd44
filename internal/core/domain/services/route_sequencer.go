package services

import (
	"errors"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/domain/model/order"
	"distribution/internal/pkg/errs"
)

// RoutePolicy tunes the sequencer.
type RoutePolicy struct {
	// PriorityFactor scales distance by 1 + (priority - 1) * PriorityFactor.
	PriorityFactor float64 `toml:"priority_factor"`
	// MinutesPerKm converts the total distance into an estimated duration.
	MinutesPerKm float64 `toml:"minutes_per_km"`
}

func DefaultRoutePolicy() RoutePolicy {
	return RoutePolicy{
		PriorityFactor: 0.1,
		MinutesPerKm:   3,
	}
}

// RouteStop is an unsequenced destination.
type RouteStop struct {
	OrderID  kernel.UUID
	Location kernel.Location
	Priority int
}

// SequencedStop is a stop at its position in the route. HopDistanceKm is the
// distance from the previous stop, or from the origin for the first one.
type SequencedStop struct {
	RouteStop
	Sequence      int
	HopDistanceKm float64
}

// Route is the sequencer's result. TotalDistanceKm includes the return hop.
type Route struct {
	Stops            []SequencedStop
	ReturnDistanceKm float64
	TotalDistanceKm  float64
	EstimatedMinutes float64
}

// RouteSequencer orders stops with a priority-weighted nearest-neighbour
// heuristic starting from the warehouse. It is not an optimal tour.
type RouteSequencer struct {
	policy RoutePolicy
}

func NewRouteSequencer(policy RoutePolicy) RouteSequencer {
	return RouteSequencer{policy: policy}
}

// Sequence repeatedly picks the remaining stop with the smallest weighted
// distance from the current position. Ties go to the earliest stop in input order.
func (s RouteSequencer) Sequence(origin kernel.Location, stops []RouteStop) (Route, error) {
	if err := origin.Validate(); err != nil {
		return Route{}, err
	}
	for _, stop := range stops {
		if err := errors.Join(stop.OrderID.Validate(), stop.Location.Validate(), validatePriority(stop.Priority)); err != nil {
			return Route{}, err
		}
	}

	remaining := make([]RouteStop, len(stops))
	copy(remaining, stops)

	route := Route{Stops: make([]SequencedStop, 0, len(stops))}
	current := origin
	total := 0.0

	for len(remaining) > 0 {
		bestIdx := -1
		var bestWeighted, bestHop float64

		for i, candidate := range remaining {
			hop, err := current.DistanceKm(candidate.Location)
			if err != nil {
				return Route{}, err
			}
			weighted := hop * (1 + float64(candidate.Priority-1)*s.policy.PriorityFactor)
			if bestIdx < 0 || weighted < bestWeighted {
				bestIdx, bestWeighted, bestHop = i, weighted, hop
			}
		}

		chosen := remaining[bestIdx]
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)

		total += bestHop
		route.Stops = append(route.Stops, SequencedStop{
			RouteStop:     chosen,
			Sequence:      len(route.Stops) + 1,
			HopDistanceKm: round2(bestHop),
		})
		current = chosen.Location
	}

	back, err := current.DistanceKm(origin)
	if err != nil {
		return Route{}, err
	}
	total += back

	route.ReturnDistanceKm = round2(back)
	route.TotalDistanceKm = round2(total)
	route.EstimatedMinutes = round2(route.TotalDistanceKm * s.policy.MinutesPerKm)
	return route, nil
}

func validatePriority(priority int) error {
	if priority < order.PriorityHighest || priority > order.PriorityLowest {
		return errs.NewValueIsOutOfRangeError("priority", priority, order.PriorityHighest, order.PriorityLowest)
	}
	return nil
}
