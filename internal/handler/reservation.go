package handler

// HTTP handlers for reservations: CRUD, the explicit lifecycle transitions,
// the availability probe and invoice delivery. All business rules live in
// service.Manager; the handlers only decode input and map errors.

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/service"
)

// ReservationHandler exposes service.Manager over HTTP.
type ReservationHandler struct {
	Manager *service.Manager
}

// NewReservationHandler panics if manager is nil.
func NewReservationHandler(manager *service.Manager) *ReservationHandler {
	if manager == nil {
		panic("nil manager passed to NewReservationHandler")
	}
	return &ReservationHandler{Manager: manager}
}

// walkInRequest carries customer details for a booking without a customer
// id. Persist defaults to true; false books for an ephemeral customer that
// is never stored.
type walkInRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	IDCard   string `json:"id_card"`
	Persist  *bool  `json:"persist"`
}

type createReservationRequest struct {
	RoomID           FlexibleID          `json:"room_id"`
	CustomerID       FlexibleID          `json:"customer_id"`
	WalkIn           *walkInRequest      `json:"walk_in"`
	CheckIn          string              `json:"check_in"`
	CheckOut         string              `json:"check_out"`
	Adults           int                 `json:"adults"`
	Children         int                 `json:"children"`
	TotalAmountCents int64               `json:"total_amount_cents"`
	PaymentStatus    model.PaymentStatus `json:"payment_status"`
	Source           model.Source        `json:"source"`
	Note             *string             `json:"note"`
}

func (r createReservationRequest) customer() model.CustomerRef {
	if id := r.CustomerID.Ptr(); id != nil {
		return model.ExistingCustomer{ID: *id}
	}
	if r.WalkIn == nil {
		return nil
	}
	if r.WalkIn.Persist != nil && !*r.WalkIn.Persist {
		return model.EphemeralCustomer{FullName: r.WalkIn.FullName, Phone: r.WalkIn.Phone, IDCard: r.WalkIn.IDCard}
	}
	return model.WalkInCustomer{FullName: r.WalkIn.FullName, Phone: r.WalkIn.Phone, Email: r.WalkIn.Email, IDCard: r.WalkIn.IDCard}
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.RoomID.Ptr() == nil {
		return badRequest(c, "room_id is required")
	}
	checkIn, err := model.ParseDate(req.CheckIn)
	if err != nil {
		return badRequest(c, "check_in must be a YYYY-MM-DD date")
	}
	checkOut, err := model.ParseDate(req.CheckOut)
	if err != nil {
		return badRequest(c, "check_out must be a YYYY-MM-DD date")
	}
	res, err := h.Manager.Create(c.Request().Context(), model.ReservationDraft{
		RoomID:           req.RoomID.Value(),
		Customer:         req.customer(),
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		Adults:           req.Adults,
		Children:         req.Children,
		TotalAmountCents: req.TotalAmountCents,
		PaymentStatus:    req.PaymentStatus,
		Source:           req.Source,
		Note:             req.Note,
		CreatedBy:        middleware.UserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": res})
}

// List handles GET /v1/reservations. Filters: branch_id, room_id,
// customer_id, status (comma separated), check_in_from, check_in_to, search,
// page and limit.
func (h *ReservationHandler) List(c echo.Context) error {
	var f model.ReservationFilter
	var err error
	if f.BranchID, err = queryID(c, "branch_id"); err != nil {
		return badRequest(c, err.Error())
	}
	if f.RoomID, err = queryID(c, "room_id"); err != nil {
		return badRequest(c, err.Error())
	}
	if f.CustomerID, err = queryID(c, "customer_id"); err != nil {
		return badRequest(c, err.Error())
	}
	for _, raw := range strings.Split(c.QueryParam("status"), ",") {
		if s := strings.ToUpper(strings.TrimSpace(raw)); s != "" {
			f.Statuses = append(f.Statuses, model.ReservationStatus(s))
		}
	}
	if f.CheckInFrom, err = queryDate(c, "check_in_from"); err != nil {
		return badRequest(c, err.Error())
	}
	if f.CheckInTo, err = queryDate(c, "check_in_to"); err != nil {
		return badRequest(c, err.Error())
	}
	f.Search = strings.TrimSpace(c.QueryParam("search"))
	if f.Page, err = queryInt(c, "page"); err != nil {
		return badRequest(c, err.Error())
	}
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		return badRequest(c, err.Error())
	}

	items, total, err := h.Manager.List(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	f.Normalize()
	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"total": total,
		"page":  f.Page,
		"limit": f.Limit,
	})
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, "invalid reservation id")
	}
	res, err := h.Manager.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": res})
}

// GetByCode handles GET /v1/reservations/code/:code.
func (h *ReservationHandler) GetByCode(c echo.Context) error {
	res, err := h.Manager.GetByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": res})
}

// updateReservationRequest is a partial update; absent fields are kept.
type updateReservationRequest struct {
	RoomID             FlexibleID               `json:"room_id"`
	CheckIn            *string                  `json:"check_in"`
	CheckOut           *string                  `json:"check_out"`
	Adults             *int                     `json:"adults"`
	Children           *int                     `json:"children"`
	TotalAmountCents   *int64                   `json:"total_amount_cents"`
	Status             *model.ReservationStatus `json:"status"`
	PaymentStatus      *model.PaymentStatus     `json:"payment_status"`
	Source             *model.Source            `json:"source"`
	RejectReason       *string                  `json:"reject_reason"`
	CancellationReason *string                  `json:"cancellation_reason"`
	Note               *string                  `json:"note"`
}

// Update handles PATCH /v1/reservations/:id.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, "invalid reservation id")
	}
	var req updateReservationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	patch := model.ReservationPatch{
		RoomID:             req.RoomID.Ptr(),
		Adults:             req.Adults,
		Children:           req.Children,
		TotalAmountCents:   req.TotalAmountCents,
		Status:             req.Status,
		PaymentStatus:      req.PaymentStatus,
		Source:             req.Source,
		RejectReason:       req.RejectReason,
		CancellationReason: req.CancellationReason,
		Note:               req.Note,
	}
	if req.CheckIn != nil {
		d, err := model.ParseDate(*req.CheckIn)
		if err != nil {
			return badRequest(c, "check_in must be a YYYY-MM-DD date")
		}
		patch.CheckIn = &d
	}
	if req.CheckOut != nil {
		d, err := model.ParseDate(*req.CheckOut)
		if err != nil {
			return badRequest(c, "check_out must be a YYYY-MM-DD date")
		}
		patch.CheckOut = &d
	}
	res, err := h.Manager.Update(c.Request().Context(), id, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": res})
}

// Delete handles DELETE /v1/reservations/:id.
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, "invalid reservation id")
	}
	if err := h.Manager.Remove(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// transition runs a reason-less Manager transition on the :id reservation.
func (h *ReservationHandler) transition(c echo.Context, op func(context.Context, uint64) (*model.Reservation, error)) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, "invalid reservation id")
	}
	res, err := op(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": res})
}

// Confirm handles POST /v1/reservations/:id/confirm.
func (h *ReservationHandler) Confirm(c echo.Context) error { return h.transition(c, h.Manager.Confirm) }

// CheckIn handles POST /v1/reservations/:id/check-in.
func (h *ReservationHandler) CheckIn(c echo.Context) error { return h.transition(c, h.Manager.CheckIn) }

// CheckOut handles POST /v1/reservations/:id/check-out.
func (h *ReservationHandler) CheckOut(c echo.Context) error { return h.transition(c, h.Manager.CheckOut) }

type reasonRequest struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /v1/reservations/:id/cancel {reason}.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	return h.withReason(c, h.Manager.Cancel)
}

// Reject handles POST /v1/reservations/:id/reject {reason}.
func (h *ReservationHandler) Reject(c echo.Context) error {
	return h.withReason(c, h.Manager.Reject)
}

func (h *ReservationHandler) withReason(c echo.Context, op func(context.Context, uint64, string) (*model.Reservation, error)) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, "invalid reservation id")
	}
	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	res, err := op(c.Request().Context(), id, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": res})
}

// SendInvoice handles POST /v1/reservations/:id/invoice {email}.
func (h *ReservationHandler) SendInvoice(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, "invalid reservation id")
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.Manager.SendInvoice(c.Request().Context(), id, req.Email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"status": "queued"})
}

// Availability handles GET /v1/availability?room_id&check_in&check_out&exclude_id.
func (h *ReservationHandler) Availability(c echo.Context) error {
	roomID, err := queryID(c, "room_id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if roomID == nil {
		return badRequest(c, "room_id is required")
	}
	checkIn, err := queryDate(c, "check_in")
	if err != nil || checkIn == nil {
		return badRequest(c, "check_in must be a YYYY-MM-DD date")
	}
	checkOut, err := queryDate(c, "check_out")
	if err != nil || checkOut == nil {
		return badRequest(c, "check_out must be a YYYY-MM-DD date")
	}
	excludeID, err := queryID(c, "exclude_id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	conflicts, err := h.Manager.CheckAvailability(c.Request().Context(), *roomID, *checkIn, *checkOut, excludeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"available": len(conflicts) == 0,
		"conflicts": conflicts,
	})
}

func queryDate(c echo.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &d, nil
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}
