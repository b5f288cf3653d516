// Package handlers exposes the engine over HTTP. Handlers bind and translate;
// every decision lives in the services.
package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"goflare.io/redemption/errs"
)

// Response is the uniform envelope of every endpoint.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, Response{Success: true, Data: data})
}

// respondError maps the error taxonomy onto HTTP statuses. Rejections carry
// their reason so clients can render cause-specific messaging.
func respondError(c echo.Context, err error) error {
	var (
		validation *errs.ValidationError
		violation  *errs.ConstraintViolation
		transition *errs.IllegalTransition
	)
	switch {
	case errors.As(err, &validation):
		return c.JSON(http.StatusBadRequest, Response{Message: validation.Error()})
	case errors.As(err, &violation):
		return c.JSON(http.StatusUnprocessableEntity, Response{
			Message: violation.Error(),
			Data:    map[string]string{"reason": string(violation.Reason)},
		})
	case errors.As(err, &transition):
		return c.JSON(http.StatusConflict, Response{Message: transition.Error()})
	case errors.Is(err, errs.ErrNotFound):
		return c.JSON(http.StatusNotFound, Response{Message: "not found"})
	case errors.Is(err, errs.ErrConflict):
		return c.JSON(http.StatusConflict, Response{Message: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, Response{Message: "internal error"})
	}
}

func bindError(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, Response{Message: "invalid request payload"})
}

func paramID(c echo.Context, name string) (uint64, error) {
	var id uint64
	if err := echo.PathParamsBinder(c).Uint64(name, &id).BindError(); err != nil || id == 0 {
		return 0, errs.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}
