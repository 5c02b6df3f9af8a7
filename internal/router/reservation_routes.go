package router

// Reservation, availability and calendar routes. Every route lives under /v1
// and requires a JWT carrying one of the staff roles. Mutations also pass
// through the rate limiter; deleting a reservation is reserved to managers.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/handler"
	"github.com/iliyamo/room-reservation/internal/middleware"
)

// RegisterReservations mounts the reservation API. limit is applied to
// mutating routes; pass a pass-through middleware to disable it.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, cal *handler.CalendarHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager, middleware.RoleReceptionist),
	)

	// Reads
	g.GET("/reservations", h.List)
	g.GET("/reservations/code/:code", h.GetByCode)
	g.GET("/reservations/:id", h.Get)
	g.GET("/availability", h.Availability)
	g.GET("/calendar", cal.Calendar)

	// Writes
	g.POST("/reservations", h.Create, limit)
	g.PATCH("/reservations/:id", h.Update, limit)
	g.POST("/reservations/:id/confirm", h.Confirm, limit)
	g.POST("/reservations/:id/check-in", h.CheckIn, limit)
	g.POST("/reservations/:id/check-out", h.CheckOut, limit)
	g.POST("/reservations/:id/cancel", h.Cancel, limit)
	g.POST("/reservations/:id/reject", h.Reject, limit)
	g.POST("/reservations/:id/invoice", h.SendInvoice, limit)
	g.DELETE("/reservations/:id", h.Delete, limit,
		middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager))
}
