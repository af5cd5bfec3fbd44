package http

import (
	"net/http"

	"distribution/internal/core/application/usecases/commands"
	"distribution/internal/core/application/usecases/queries"
	"distribution/internal/core/domain/model/order"

	"github.com/labstack/echo/v4"
)

// CreateOrder handles POST /api/v1/orders. Every line is reserved at the order's
// warehouse or the order is not created.
func (s *Server) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	orderID, err := idOrNew(req.ID)
	if err != nil {
		return badRequest(c, "Invalid order id", err)
	}
	clientID, warehouseID, err := parsePair(req.ClientID, req.WarehouseID)
	if err != nil {
		return badRequest(c, "Invalid identifier", err)
	}

	lines := make([]commands.OrderLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		productID, parseErr := parseID(l.ProductID)
		if parseErr != nil {
			return badRequest(c, "Invalid product id", parseErr)
		}
		lines = append(lines, commands.OrderLineInput{
			ProductID: productID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	cmd, err := commands.NewCreateOrderCommand(orderID, clientID, warehouseID, req.Priority,
		req.RequiredDate, lines, actorID(c))
	if err != nil {
		return badRequest(c, "Invalid order data", err)
	}

	o, err := s.h.CreateOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, queries.NewOrderView(o))
}

// GetOrder handles GET /api/v1/orders/:id.
func (s *Server) GetOrder(c echo.Context) error {
	orderID, err := parseID(c.Param("id"))
	if err != nil {
		return badRequest(c, "Invalid order id", err)
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return badRequest(c, "Invalid order id", err)
	}

	view, err := s.h.GetOrder.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// TransitionOrder handles POST /api/v1/orders/:id/transitions.
func (s *Server) TransitionOrder(c echo.Context) error {
	orderID, err := parseID(c.Param("id"))
	if err != nil {
		return badRequest(c, "Invalid order id", err)
	}

	var req transitionOrderRequest
	if err = bindRequest(c, &req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	target, err := order.ParseStatus(req.Status)
	if err != nil {
		return badRequest(c, "Invalid status", err)
	}

	cmd, err := commands.NewTransitionOrderCommand(orderID, target, actorID(c))
	if err != nil {
		return badRequest(c, "Invalid transition", err)
	}

	o, err := s.h.TransitionOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, queries.NewOrderView(o))
}
