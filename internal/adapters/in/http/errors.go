package http

import (
	"errors"
	"log/slog"
	"net/http"

	"distribution/internal/core/application/usecases/commands"
	"distribution/internal/core/domain/model/distribution"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/order"
	"distribution/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Error is the body of every non-2xx response.
type Error struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, inventory.ErrInsufficientAvailable),
		errors.Is(err, order.ErrInvalidStateTransition),
		errors.Is(err, commands.ErrLockSetChanged):
		return http.StatusConflict
	case errors.Is(err, inventory.ErrOverRelease),
		errors.Is(err, inventory.ErrNegativeResultingStock),
		errors.Is(err, distribution.ErrOrderNotAllocatable),
		errors.Is(err, commands.ErrWarehouseIsInactive),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange),
		errors.Is(err, errs.ErrValueIsRequired):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the response for an error returned by a use case.
func (s *Server) fail(c echo.Context, err error) error {
	code := statusOf(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), "request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Path()),
			slog.Any("error", err))
		message = http.StatusText(code)
	}
	return c.JSON(code, Error{Code: code, Message: message})
}

// badRequest rejects input that never reached a use case.
func badRequest(c echo.Context, message string, err error) error {
	body := Error{Code: http.StatusBadRequest, Message: message}
	if fields := fieldErrors(err); fields != nil {
		body.Fields = fields
	} else if err != nil {
		body.Message = message + ": " + err.Error()
	}
	return c.JSON(http.StatusBadRequest, body)
}
