package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/repository/memory"
	"github.com/iliyamo/room-reservation/internal/service"
)

// Fixture rooms of branch 1.
const (
	roomStandard   = 1 // "101", floor 1, type 1
	roomDeluxe     = 2 // "102", floor 1, type 2
	roomUpstairs   = 3 // "201", floor 2, type 1
	roomMaintained = 4 // "202", floor 2, type 2, under maintenance
	otherBranch    = 5 // "301" of branch 2
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	store    *memory.Store
	clock    fixedClock
	customer model.Customer
}

// newFixture seeds a store with one branch of rooms and a customer. today
// is the server's current day.
func newFixture(t *testing.T, today string) *fixture {
	t.Helper()
	s := memory.New()
	s.AddRoom(model.Room{ID: roomStandard, Number: "101", BranchID: 1, FloorID: 1, RoomTypeID: 1, Status: model.RoomAvailable})
	s.AddRoom(model.Room{ID: roomDeluxe, Number: "102", BranchID: 1, FloorID: 1, RoomTypeID: 2, Status: model.RoomAvailable})
	s.AddRoom(model.Room{ID: roomUpstairs, Number: "201", BranchID: 1, FloorID: 2, RoomTypeID: 1, Status: model.RoomAvailable})
	s.AddRoom(model.Room{ID: roomMaintained, Number: "202", BranchID: 1, FloorID: 2, RoomTypeID: 2, Status: model.RoomMaintenance})
	s.AddRoom(model.Room{ID: otherBranch, Number: "301", BranchID: 2, FloorID: 3, RoomTypeID: 1, Status: model.RoomAvailable})
	c := s.AddCustomer(model.Customer{FullName: "Sara Ahmadi", Phone: "+989120000001"})
	return &fixture{
		store:    s,
		clock:    fixedClock{now: day(t, today).Add(10 * time.Hour)},
		customer: c,
	}
}

func (f *fixture) manager(opts ...service.ManagerOption) *service.Manager {
	return service.NewManager(f.store, f.clock, opts...)
}

// book stores an existing reservation directly, bypassing every check.
func (f *fixture) book(t *testing.T, roomID uint64, in, out string, status model.ReservationStatus) model.Reservation {
	t.Helper()
	room, ok := f.store.Room(roomID)
	if !ok {
		t.Fatalf("no room %d", roomID)
	}
	return f.store.AddReservation(model.Reservation{
		RoomID:   roomID,
		BranchID: room.BranchID,
		CheckIn:  day(t, in),
		CheckOut: day(t, out),
		Adults:   1,
		Status:   status,
	})
}

func (f *fixture) draft(t *testing.T, roomID uint64, in, out string) model.ReservationDraft {
	t.Helper()
	return model.ReservationDraft{
		RoomID:           roomID,
		Customer:         model.ExistingCustomer{ID: f.customer.ID},
		CheckIn:          day(t, in),
		CheckOut:         day(t, out),
		Adults:           2,
		TotalAmountCents: 150_00,
	}
}

func (f *fixture) roomStatus(t *testing.T, id uint64) model.RoomStatus {
	t.Helper()
	r, ok := f.store.Room(id)
	if !ok {
		t.Fatalf("no room %d", id)
	}
	return r.Status
}

// recordingSink remembers every event it is told about.
type recordingSink struct {
	mu    sync.Mutex
	kinds []service.EventKind
}

func (s *recordingSink) ReservationChanged(_ context.Context, kind service.EventKind, _ model.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds = append(s.kinds, kind)
}

// mapCache is an in-process CalendarCache with version counters per branch.
type mapCache struct {
	mu          sync.Mutex
	versions    map[uint64]int64
	entries     map[string][]model.RoomCalendar
	gets, hits  int
	invalidated []uint64
}

func newMapCache() *mapCache {
	return &mapCache{versions: map[uint64]int64{}, entries: map[string][]model.RoomCalendar{}}
}

func (c *mapCache) key(q model.CalendarQuery, version int64, today time.Time) string {
	return fmt.Sprintf("%d/v%d/%s/%s/%s/%d/%d", q.BranchID, version,
		q.Start.Format(model.DateLayout), q.End.Format(model.DateLayout), today.Format(model.DateLayout),
		idOrZero(q.FloorID), idOrZero(q.RoomTypeID))
}

func idOrZero(p *uint64) uint64 {
	if p == nil {
		return 0
	}
	return *p
}

func (c *mapCache) Version(_ context.Context, branchID uint64) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[branchID], true
}

func (c *mapCache) Get(_ context.Context, q model.CalendarQuery, version int64, today time.Time) ([]model.RoomCalendar, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	cals, ok := c.entries[c.key(q, version, today)]
	if ok {
		c.hits++
	}
	return cals, ok
}

func (c *mapCache) Set(_ context.Context, q model.CalendarQuery, version int64, today time.Time, cals []model.RoomCalendar) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(q, version, today)] = cals
}

func (c *mapCache) Invalidate(_ context.Context, branchID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[branchID]++
	c.invalidated = append(c.invalidated, branchID)
}

// fakeInvoices records invoice requests and fails when err is set.
type fakeInvoices struct {
	err  error
	sent []string
}

func (f *fakeInvoices) SendInvoice(_ context.Context, r model.Reservation, email string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, r.Code+" "+email)
	return nil
}
