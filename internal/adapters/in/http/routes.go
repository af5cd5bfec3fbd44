package http

import (
	"net/http"

	"distribution/internal/core/application/usecases/commands"
	"distribution/internal/core/application/usecases/queries"
	"distribution/internal/core/domain/model/delivery"
	"distribution/internal/core/domain/services"

	"github.com/labstack/echo/v4"
)

// SequenceRoute handles POST /api/v1/routes/sequence. Nothing is stored.
func (s *Server) SequenceRoute(c echo.Context) error {
	var req sequenceRouteRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	origin, err := req.Origin.location()
	if err != nil {
		return badRequest(c, "Invalid origin", err)
	}
	stops := make([]services.RouteStop, 0, len(req.Stops))
	for _, st := range req.Stops {
		orderID, parseErr := parseID(st.OrderID)
		if parseErr != nil {
			return badRequest(c, "Invalid order id", parseErr)
		}
		loc, locErr := st.Location.location()
		if locErr != nil {
			return badRequest(c, "Invalid stop location", locErr)
		}
		stops = append(stops, services.RouteStop{OrderID: orderID, Location: loc, Priority: st.Priority})
	}

	query, err := queries.NewSequenceDeliveryStopsQuery(origin, stops)
	if err != nil {
		return badRequest(c, "Invalid route", err)
	}

	route, err := s.h.SequenceRoute.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, route)
}

// CreateDelivery handles POST /api/v1/deliveries.
func (s *Server) CreateDelivery(c echo.Context) error {
	var req createDeliveryRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	deliveryID, err := idOrNew(req.ID)
	if err != nil {
		return badRequest(c, "Invalid delivery id", err)
	}
	warehouseID, err := parseID(req.WarehouseID)
	if err != nil {
		return badRequest(c, "Invalid warehouse id", err)
	}
	orderIDs, err := parseIDs(req.OrderIDs)
	if err != nil {
		return badRequest(c, "Invalid order id", err)
	}

	cmd, err := commands.NewCreateDeliveryCommand(deliveryID, warehouseID, req.ScheduledDate, orderIDs)
	if err != nil {
		return badRequest(c, "Invalid delivery", err)
	}

	d, err := s.h.CreateDelivery.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, queries.NewDeliveryView(d))
}

// UpdateStop handles PATCH /api/v1/deliveries/:id/stops/:orderId.
func (s *Server) UpdateStop(c echo.Context) error {
	deliveryID, err := parseID(c.Param("id"))
	if err != nil {
		return badRequest(c, "Invalid delivery id", err)
	}
	orderID, err := parseID(c.Param("orderId"))
	if err != nil {
		return badRequest(c, "Invalid order id", err)
	}

	var req updateStopRequest
	if err = bindRequest(c, &req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	cmd, err := commands.NewUpdateDeliveryStopCommand(deliveryID, orderID, delivery.StopStatus(req.Status))
	if err != nil {
		return badRequest(c, "Invalid stop update", err)
	}

	d, err := s.h.UpdateStop.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, queries.NewDeliveryView(d))
}
