package http

import (
	"net/http"

	"distribution/internal/core/application/usecases/commands"
	"distribution/internal/core/application/usecases/queries"
	"distribution/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
)

type transferResponse struct {
	Portions []queries.PortionView `json:"portions"`
	Source   []queries.LotView     `json:"source"`
	Target   []queries.LotView     `json:"target"`
}

// ReceiveStock handles POST /api/v1/stock/receipts.
func (s *Server) ReceiveStock(c echo.Context) error {
	var req receiveStockRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	productID, warehouseID, err := parsePair(req.ProductID, req.WarehouseID)
	if err != nil {
		return badRequest(c, "Invalid identifier", err)
	}

	cmd, err := commands.NewReceiveStockCommand(productID, warehouseID, req.LocationID, req.BatchNumber,
		req.Quantity, req.ExpiryDate, req.CostPrice, req.info(c))
	if err != nil {
		return badRequest(c, "Invalid receipt", err)
	}

	lot, err := s.h.ReceiveStock.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, queries.NewLotView(lot))
}

// IssueStock handles POST /api/v1/stock/issues.
func (s *Server) IssueStock(c echo.Context) error {
	var req issueStockRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	productID, warehouseID, err := parsePair(req.ProductID, req.WarehouseID)
	if err != nil {
		return badRequest(c, "Invalid identifier", err)
	}
	lotIDs, err := parseIDs(req.LotIDs)
	if err != nil {
		return badRequest(c, "Invalid lot id", err)
	}

	cmd, err := commands.NewIssueStockCommand(productID, warehouseID, req.Quantity, lotIDs, req.info(c))
	if err != nil {
		return badRequest(c, "Invalid issue", err)
	}

	lots, err := s.h.IssueStock.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, queries.NewLotViews(lots))
}

// AdjustStock handles POST /api/v1/stock/adjustments.
func (s *Server) AdjustStock(c echo.Context) error {
	var req adjustStockRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	productID, warehouseID, err := parsePair(req.ProductID, req.WarehouseID)
	if err != nil {
		return badRequest(c, "Invalid identifier", err)
	}

	cmd, err := commands.NewAdjustStockCommand(productID, warehouseID, req.LocationID, req.BatchNumber,
		req.Delta, req.Reason, req.info(c))
	if err != nil {
		return badRequest(c, "Invalid adjustment", err)
	}

	lots, err := s.h.AdjustStock.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, queries.NewLotViews(lots))
}

// TransferStock handles POST /api/v1/stock/transfers.
func (s *Server) TransferStock(c echo.Context) error {
	var req transferStockRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	productID, err := parseID(req.ProductID)
	if err != nil {
		return badRequest(c, "Invalid product id", err)
	}
	from, to, err := parsePair(req.FromWarehouseID, req.ToWarehouseID)
	if err != nil {
		return badRequest(c, "Invalid warehouse id", err)
	}
	lotIDs, err := parseIDs(req.LotIDs)
	if err != nil {
		return badRequest(c, "Invalid lot id", err)
	}

	cmd, err := commands.NewTransferStockCommand(productID, from, to, req.Quantity, lotIDs, req.info(c))
	if err != nil {
		return badRequest(c, "Invalid transfer", err)
	}

	result, err := s.h.TransferStock.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, transferResponse{
		Portions: queries.NewPortionViews(result.Portions),
		Source:   queries.NewLotViews(result.Source),
		Target:   queries.NewLotViews(result.Target),
	})
}

// GetStockLevels handles GET /api/v1/stock?productId=&warehouseId=.
func (s *Server) GetStockLevels(c echo.Context) error {
	productID, err := optionalID(c.QueryParam("productId"))
	if err != nil {
		return badRequest(c, "Invalid product id", err)
	}
	warehouseID, err := optionalID(c.QueryParam("warehouseId"))
	if err != nil {
		return badRequest(c, "Invalid warehouse id", err)
	}

	query, err := queries.NewGetStockLevelsQuery(productID, warehouseID)
	if err != nil {
		return badRequest(c, "Invalid stock query", err)
	}

	levels, err := s.h.StockLevels.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, levels)
}

// GetLotTransactions handles GET /api/v1/lots/:id/transactions.
func (s *Server) GetLotTransactions(c echo.Context) error {
	lotID, err := parseID(c.Param("id"))
	if err != nil {
		return badRequest(c, "Invalid lot id", err)
	}

	query, err := queries.NewGetLotTransactionsQuery(lotID)
	if err != nil {
		return badRequest(c, "Invalid lot id", err)
	}

	history, err := s.h.LotTransactions.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, history)
}

func parsePair(a, b string) (kernel.UUID, kernel.UUID, error) {
	first, err := parseID(a)
	if err != nil {
		return kernel.UUID{}, kernel.UUID{}, err
	}
	second, err := parseID(b)
	if err != nil {
		return kernel.UUID{}, kernel.UUID{}, err
	}
	return first, second, nil
}

func optionalID(s string) (*kernel.UUID, error) {
	if s == "" {
		return nil, nil //nolint:nilnil // absent filter
	}
	id, err := parseID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
