package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"eshop-backend/internal/repository"
	"eshop-backend/internal/service"
)

// httpError maps the service error taxonomy onto response codes. Anything
// unrecognized falls through to echo's 500 handler.
func httpError(err error) error {
	switch {
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidSignature),
		errors.Is(err, service.ErrInvalidPayload):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrInsufficientStock):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return err
	}
}
