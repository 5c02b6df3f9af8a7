package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/service"
)

// Error codes returned in the "code" field of error bodies.
const (
	CodeNotFound          = "not_found"
	CodeInvalidInput      = "invalid_input"
	CodeInvalidTransition = "invalid_transition"
	CodeConflict          = "conflict"
	CodeUnavailable       = "unavailable"
	CodeInternal          = "internal"
)

// badRequest writes a 400 for malformed request data detected in the handler.
func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": CodeInvalidInput})
}

// respondError maps a service error onto an HTTP response. Unknown errors
// are logged and reported as 500 without their message.
func respondError(c echo.Context, err error) error {
	var conflict *service.ConflictError
	switch {
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     conflict.Error(),
			"code":      CodeConflict,
			"conflicts": conflict.Reservations,
		})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error(), "code": CodeNotFound})
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "code": CodeInvalidInput})
	case errors.Is(err, service.ErrInvalidTransition):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "code": CodeInvalidTransition})
	case errors.Is(err, service.ErrUnavailable):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "code": CodeUnavailable})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "code": CodeConflict})
	}
	log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error", "code": CodeInternal})
}
