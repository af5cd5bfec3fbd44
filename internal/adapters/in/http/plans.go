package http

import (
	"net/http"

	"distribution/internal/core/application/usecases/commands"
	"distribution/internal/core/application/usecases/queries"

	"github.com/labstack/echo/v4"
)

type lineRefView struct {
	OrderID    string `json:"orderId"`
	LineNumber int    `json:"lineNumber"`
	ProductID  string `json:"productId"`
	Requested  int    `json:"requested"`
}

type planDraftResponse struct {
	Plan        queries.PlanView `json:"plan"`
	Unallocated []lineRefView    `json:"unallocated"`
}

type allocationFailureView struct {
	AllocationID string `json:"allocationId"`
	OrderID      string `json:"orderId"`
	LineNumber   int    `json:"lineNumber"`
	Code         int    `json:"code"`
	Reason       string `json:"reason"`
}

type executionResponse struct {
	PlanID    string                  `json:"planId"`
	Status    string                  `json:"status"`
	Confirmed []string                `json:"confirmed"`
	Failed    []allocationFailureView `json:"failed"`
}

// BuildPlan handles POST /api/v1/distribution-plans.
func (s *Server) BuildPlan(c echo.Context) error {
	var req buildPlanRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	planID, err := idOrNew(req.ID)
	if err != nil {
		return badRequest(c, "Invalid plan id", err)
	}
	orderIDs, err := parseIDs(req.OrderIDs)
	if err != nil {
		return badRequest(c, "Invalid order id", err)
	}
	scope, err := parseIDs(req.WarehouseScope)
	if err != nil {
		return badRequest(c, "Invalid warehouse id", err)
	}

	cmd, err := commands.NewBuildDistributionPlanCommand(planID, orderIDs, scope)
	if err != nil {
		return badRequest(c, "Invalid plan request", err)
	}

	draft, err := s.h.BuildPlan.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}

	resp := planDraftResponse{
		Plan:        queries.NewPlanView(draft.Plan),
		Unallocated: make([]lineRefView, 0, len(draft.Unallocated)),
	}
	for _, ref := range draft.Unallocated {
		resp.Unallocated = append(resp.Unallocated, lineRefView{
			OrderID:    ref.OrderID.String(),
			LineNumber: ref.LineNumber,
			ProductID:  ref.ProductID.String(),
			Requested:  ref.Requested,
		})
	}
	return c.JSON(http.StatusCreated, resp)
}

// GetPlan handles GET /api/v1/distribution-plans/:id.
func (s *Server) GetPlan(c echo.Context) error {
	planID, err := parseID(c.Param("id"))
	if err != nil {
		return badRequest(c, "Invalid plan id", err)
	}

	query, err := queries.NewGetDistributionPlanQuery(planID)
	if err != nil {
		return badRequest(c, "Invalid plan id", err)
	}

	view, err := s.h.GetPlan.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// ExecutePlan handles POST /api/v1/distribution-plans/:id/execute. Allocations
// that cannot be confirmed are listed with the status their error maps to; the
// request itself succeeds.
func (s *Server) ExecutePlan(c echo.Context) error {
	planID, err := parseID(c.Param("id"))
	if err != nil {
		return badRequest(c, "Invalid plan id", err)
	}

	cmd, err := commands.NewExecuteDistributionPlanCommand(planID, actorID(c))
	if err != nil {
		return badRequest(c, "Invalid plan id", err)
	}

	result, err := s.h.ExecutePlan.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}

	resp := executionResponse{
		PlanID:    result.PlanID.String(),
		Status:    string(result.Status),
		Confirmed: make([]string, 0, len(result.Confirmed)),
		Failed:    make([]allocationFailureView, 0, len(result.Failed)),
	}
	for _, id := range result.Confirmed {
		resp.Confirmed = append(resp.Confirmed, id.String())
	}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, allocationFailureView{
			AllocationID: f.AllocationID.String(),
			OrderID:      f.OrderID.String(),
			LineNumber:   f.LineNumber,
			Code:         statusOf(f.Err),
			Reason:       f.Err.Error(),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// CancelPlan handles POST /api/v1/distribution-plans/:id/cancel.
func (s *Server) CancelPlan(c echo.Context) error {
	planID, err := parseID(c.Param("id"))
	if err != nil {
		return badRequest(c, "Invalid plan id", err)
	}

	cmd, err := commands.NewCancelDistributionPlanCommand(planID)
	if err != nil {
		return badRequest(c, "Invalid plan id", err)
	}

	plan, err := s.h.CancelPlan.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, queries.NewPlanView(plan))
}
