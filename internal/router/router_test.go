package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/handler"
	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/repository/memory"
	"github.com/iliyamo/room-reservation/internal/service"
	"github.com/iliyamo/room-reservation/internal/utils"
)

const secret = "router-secret"

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newAPI(t *testing.T) *echo.Echo {
	t.Helper()
	store := memory.New()
	store.AddRoom(model.Room{ID: 1, Number: "101", BranchID: 1, FloorID: 1, RoomTypeID: 1, Status: model.RoomAvailable})
	store.AddCustomer(model.Customer{FullName: "Sara Ahmadi", Phone: "+989120000001"})
	mgr := service.NewManager(store, nil)

	e := echo.New()
	RegisterRoutes(e, nil)
	RegisterReservations(e,
		handler.NewReservationHandler(mgr),
		handler.NewCalendarHandler(service.NewMaterializer(store, nil, nil)),
		secret, passThrough)
	return e
}

func token(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, sub, role, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok.Token
}

func send(e *echo.Echo, method, target, tok, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsPublic(t *testing.T) {
	e := newAPI(t)
	if rec := send(e, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d", rec.Code)
	}
}

func TestReservationRoutesRequireStaff(t *testing.T) {
	e := newAPI(t)
	if rec := send(e, http.MethodGet, "/v1/reservations", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous list = %d, want 401", rec.Code)
	}
	if rec := send(e, http.MethodGet, "/v1/reservations", token(t, "u1", "guest"), ""); rec.Code != http.StatusForbidden {
		t.Errorf("guest list = %d, want 403", rec.Code)
	}
	if rec := send(e, http.MethodGet, "/v1/reservations", token(t, "u1", middleware.RoleReceptionist), ""); rec.Code != http.StatusOK {
		t.Errorf("receptionist list = %d, want 200", rec.Code)
	}
}

func TestCreateRecordsCreatorAndDeleteNeedsManager(t *testing.T) {
	e := newAPI(t)
	desk := token(t, "desk-3", middleware.RoleReceptionist)

	in := time.Now().UTC().AddDate(0, 0, 10).Format(model.DateLayout)
	out := time.Now().UTC().AddDate(0, 0, 12).Format(model.DateLayout)
	rec := send(e, http.MethodPost, "/v1/reservations", desk,
		`{"room_id":1,"customer_id":1,"check_in":"`+in+`","check_out":"`+out+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Item model.Reservation `json:"item"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Item.CreatedBy != "desk-3" {
		t.Errorf("CreatedBy = %q, want desk-3", body.Item.CreatedBy)
	}

	if rec := send(e, http.MethodDelete, "/v1/reservations/1", desk, ""); rec.Code != http.StatusForbidden {
		t.Errorf("receptionist delete = %d, want 403", rec.Code)
	}
	if rec := send(e, http.MethodDelete, "/v1/reservations/1", token(t, "boss", middleware.RoleManager), ""); rec.Code != http.StatusNoContent {
		t.Errorf("manager delete = %d, want 204", rec.Code)
	}
}
