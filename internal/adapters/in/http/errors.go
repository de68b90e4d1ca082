package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/core/domain/model/workflow"
	"warehouse/internal/generated/servers"
	"warehouse/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// errorStatuses is checked in order; the first match wins.
var errorStatuses = []struct {
	target error
	status int
}{
	{workflow.ErrUnknownTransition, http.StatusBadRequest},
	{workflow.ErrPermissionDenied, http.StatusForbidden},
	{kernel.ErrUnknownRole, http.StatusForbidden},
	{task.ErrNotClaimedByCaller, http.StatusForbidden},
	{errs.ErrObjectNotFound, http.StatusNotFound},
	{order.ErrVersionConflict, http.StatusConflict},
	{order.ErrInvalidCurrentState, http.StatusConflict},
	{order.ErrOrderAlreadyExists, http.StatusConflict},
	{task.ErrTaskNotClaimed, http.StatusBadRequest},
	{errs.ErrValueIsRequired, http.StatusBadRequest},
	{errs.ErrValueIsInvalid, http.StatusBadRequest},
	{errs.ErrValueIsOutOfRange, http.StatusBadRequest},
}

// StatusFor maps a use case error to an HTTP status. Unrecognized errors,
// including storage failures and task.ErrDuplicateActiveTask, are 500.
func StatusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.target) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func writeError(ctx echo.Context, err error) error {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		ctx.Logger().Errorf("request failed: %v", err)
		message = http.StatusText(status)
	}
	return writeMessage(ctx, status, message)
}

func writeMessage(ctx echo.Context, status int, message string) error {
	return ctx.JSON(status, servers.Error{Code: status, Message: message})
}

// ErrorHandler renders errors that escape handlers, such as echo routing
// and parameter binding errors, in the API error shape.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	logger = logger.With("component", "HTTPErrorHandler")
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := http.StatusText(status)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			message = fmt.Sprint(he.Message)
		} else {
			logger.ErrorContext(ctx.Request().Context(), "unhandled error",
				"path", ctx.Path(), "error", err)
		}

		var writeErr error
		if ctx.Request().Method == http.MethodHead {
			writeErr = ctx.NoContent(status)
		} else {
			writeErr = writeMessage(ctx, status, message)
		}
		if writeErr != nil {
			logger.ErrorContext(ctx.Request().Context(), "failed to write error response", "error", writeErr)
		}
	}
}
