package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/service"
)

// CalendarHandler serves the per-room availability calendar of a branch.
type CalendarHandler struct {
	Materializer *service.Materializer
}

// NewCalendarHandler panics if m is nil.
func NewCalendarHandler(m *service.Materializer) *CalendarHandler {
	if m == nil {
		panic("nil materializer passed to NewCalendarHandler")
	}
	return &CalendarHandler{Materializer: m}
}

// Calendar handles GET /v1/calendar?branch_id&start_date&end_date with the
// optional floor_id, room_type_id and force_refresh parameters.
func (h *CalendarHandler) Calendar(c echo.Context) error {
	branchID, err := queryID(c, "branch_id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if branchID == nil {
		return badRequest(c, "branch_id is required")
	}
	start, err := queryDate(c, "start_date")
	if err != nil || start == nil {
		return badRequest(c, "start_date must be a YYYY-MM-DD date")
	}
	end, err := queryDate(c, "end_date")
	if err != nil || end == nil {
		return badRequest(c, "end_date must be a YYYY-MM-DD date")
	}
	q := model.CalendarQuery{BranchID: *branchID, Start: *start, End: *end}
	if q.FloorID, err = queryID(c, "floor_id"); err != nil {
		return badRequest(c, err.Error())
	}
	if q.RoomTypeID, err = queryID(c, "room_type_id"); err != nil {
		return badRequest(c, err.Error())
	}
	if raw := strings.TrimSpace(c.QueryParam("force_refresh")); raw != "" {
		if q.ForceRefresh, err = strconv.ParseBool(raw); err != nil {
			return badRequest(c, "invalid force_refresh")
		}
	}

	cals, err := h.Materializer.Materialize(c.Request().Context(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": cals,
		"count": len(cals),
	})
}
