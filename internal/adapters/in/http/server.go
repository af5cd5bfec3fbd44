// Package http exposes the application use cases over a JSON API served by echo.
package http

import (
	"log/slog"
	"net/http"

	"distribution/internal/core/application/usecases/commands"
	"distribution/internal/core/application/usecases/queries"

	"github.com/labstack/echo/v4"
)

// Handlers bundles the use cases the API dispatches to.
type Handlers struct {
	// Stock commands
	ReceiveStock  commands.ReceiveStockCommandHandler
	IssueStock    commands.IssueStockCommandHandler
	AdjustStock   commands.AdjustStockCommandHandler
	TransferStock commands.TransferStockCommandHandler

	// Order and plan commands
	CreateOrder     commands.CreateOrderCommandHandler
	TransitionOrder commands.TransitionOrderCommandHandler
	BuildPlan       commands.BuildDistributionPlanCommandHandler
	ExecutePlan     commands.ExecuteDistributionPlanCommandHandler
	CancelPlan      commands.CancelDistributionPlanCommandHandler

	// Delivery commands
	CreateDelivery commands.CreateDeliveryCommandHandler
	UpdateStop     commands.UpdateDeliveryStopCommandHandler

	// Queries
	StockLevels     queries.GetStockLevelsQueryHandler
	LotTransactions queries.GetLotTransactionsQueryHandler
	GetOrder        queries.GetOrderQueryHandler
	GetPlan         queries.GetDistributionPlanQueryHandler
	SequenceRoute   queries.SequenceDeliveryStopsQueryHandler
}

// Server translates HTTP requests into commands and queries.
type Server struct {
	h      Handlers
	logger *slog.Logger
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(h Handlers, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		h:      h,
		logger: logger.With("component", "http"),
	}
}

// Register mounts every route on e and installs the request validator.
func (s *Server) Register(e *echo.Echo) {
	e.Validator = newRequestValidator()

	e.GET("/health", s.Health)

	v1 := e.Group("/api/v1")

	v1.POST("/stock/receipts", s.ReceiveStock)
	v1.POST("/stock/issues", s.IssueStock)
	v1.POST("/stock/adjustments", s.AdjustStock)
	v1.POST("/stock/transfers", s.TransferStock)
	v1.GET("/stock", s.GetStockLevels)
	v1.GET("/lots/:id/transactions", s.GetLotTransactions)

	v1.POST("/orders", s.CreateOrder)
	v1.GET("/orders/:id", s.GetOrder)
	v1.POST("/orders/:id/transitions", s.TransitionOrder)

	v1.POST("/distribution-plans", s.BuildPlan)
	v1.GET("/distribution-plans/:id", s.GetPlan)
	v1.POST("/distribution-plans/:id/execute", s.ExecutePlan)
	v1.POST("/distribution-plans/:id/cancel", s.CancelPlan)

	v1.POST("/routes/sequence", s.SequenceRoute)
	v1.POST("/deliveries", s.CreateDelivery)
	v1.PATCH("/deliveries/:id/stops/:orderId", s.UpdateStop)
}

// Health handles GET /health.
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
