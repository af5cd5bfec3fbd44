package queries

import (
	"context"
	"errors"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/domain/services"
	"distribution/internal/pkg/guard"
)

var ErrSequenceDeliveryStopsQueryIsNotConstructed = errors.New(
	"SequenceDeliveryStopsQuery must be created via NewSequenceDeliveryStopsQuery constructor",
)

// SequenceDeliveryStopsQuery orders ad hoc stops without persisting anything.
type SequenceDeliveryStopsQuery struct {
	origin kernel.Location
	stops  []services.RouteStop

	guard guard.ConstructorGuard
}

func NewSequenceDeliveryStopsQuery(origin kernel.Location, stops []services.RouteStop) (SequenceDeliveryStopsQuery, error) {
	if err := origin.Validate(); err != nil {
		return SequenceDeliveryStopsQuery{}, err
	}
	return SequenceDeliveryStopsQuery{
		origin: origin,
		stops:  append([]services.RouteStop(nil), stops...),
		guard:  guard.NewConstructorGuard(),
	}, nil
}

func (q SequenceDeliveryStopsQuery) Validate() error {
	return q.guard.Validate(ErrSequenceDeliveryStopsQueryIsNotConstructed)
}

type SequencedStopView struct {
	OrderID       string  `json:"orderId"`
	Sequence      int     `json:"sequence"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Priority      int     `json:"priority"`
	HopDistanceKm float64 `json:"hopDistanceKm"`
}

type RouteView struct {
	Stops            []SequencedStopView `json:"stops"`
	ReturnDistanceKm float64             `json:"returnDistanceKm"`
	TotalDistanceKm  float64             `json:"totalDistanceKm"`
	EstimatedMinutes float64             `json:"estimatedMinutes"`
}

type SequenceDeliveryStopsQueryHandler struct {
	sequencer services.RouteSequencer
}

func NewSequenceDeliveryStopsQueryHandler(sequencer services.RouteSequencer) SequenceDeliveryStopsQueryHandler {
	return SequenceDeliveryStopsQueryHandler{sequencer: sequencer}
}

func (h SequenceDeliveryStopsQueryHandler) Handle(_ context.Context, query SequenceDeliveryStopsQuery) (RouteView, error) {
	if err := query.Validate(); err != nil {
		return RouteView{}, err
	}

	route, err := h.sequencer.Sequence(query.origin, query.stops)
	if err != nil {
		return RouteView{}, err
	}

	view := RouteView{
		Stops:            make([]SequencedStopView, 0, len(route.Stops)),
		ReturnDistanceKm: route.ReturnDistanceKm,
		TotalDistanceKm:  route.TotalDistanceKm,
		EstimatedMinutes: route.EstimatedMinutes,
	}
	for _, s := range route.Stops {
		view.Stops = append(view.Stops, SequencedStopView{
			OrderID:       s.OrderID.String(),
			Sequence:      s.Sequence,
			Latitude:      s.Location.Latitude(),
			Longitude:     s.Location.Longitude(),
			Priority:      s.Priority,
			HopDistanceKm: s.HopDistanceKm,
		})
	}
	return view, nil
}
