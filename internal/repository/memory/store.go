// Package memory is an in-process implementation of the service stores.
// Every unit of work holds a single mutex and works on the live maps; a
// failed unit of work restores the snapshot taken when it began.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/service"
)

type data struct {
	reservations map[uint64]model.Reservation
	rooms        map[uint64]model.Room
	customers    map[uint64]model.Customer
	nextResID    uint64
	nextCustID   uint64
}

func (d *data) clone() *data {
	return &data{
		reservations: maps.Clone(d.reservations),
		rooms:        maps.Clone(d.rooms),
		customers:    maps.Clone(d.customers),
		nextResID:    d.nextResID,
		nextCustID:   d.nextCustID,
	}
}

// Store holds rooms, customers and reservations in memory.
type Store struct {
	mu sync.Mutex
	d  *data

	// FailSetStatus, when set, is returned by every RoomStore.SetStatus call.
	FailSetStatus error
}

// New returns an empty Store.
func New() *Store {
	return &Store{d: &data{
		reservations: make(map[uint64]model.Reservation),
		rooms:        make(map[uint64]model.Room),
		customers:    make(map[uint64]model.Customer),
	}}
}

// Do runs fn with exclusive access to the store and rolls every change back
// when fn fails.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, st service.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.d.clone()
	if err := fn(ctx, s.stores(true)); err != nil {
		s.d = snapshot
		return err
	}
	return nil
}

// Stores returns stores that lock per call.
func (s *Store) Stores() service.Stores { return s.stores(false) }

func (s *Store) stores(inTx bool) service.Stores {
	v := view{s: s, inTx: inTx}
	return service.Stores{
		Reservations: reservationStore{v},
		Rooms:        roomStore{v},
		Customers:    customerStore{v},
	}
}

type view struct {
	s    *Store
	inTx bool
}

func (v view) run(fn func(d *data) error) error {
	if !v.inTx {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
	}
	return fn(v.s.d)
}

// AddRoom registers a room fixture.
func (s *Store) AddRoom(r model.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.rooms[r.ID] = r
}

// AddCustomer registers a customer fixture and returns it with its id.
func (s *Store) AddCustomer(c model.Customer) model.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		s.d.nextCustID++
		c.ID = s.d.nextCustID
	} else if c.ID > s.d.nextCustID {
		s.d.nextCustID = c.ID
	}
	s.d.customers[c.ID] = c
	return c
}

// AddReservation stores a reservation fixture as is, bypassing every check.
func (s *Store) AddReservation(r model.Reservation) model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		s.d.nextResID++
		r.ID = s.d.nextResID
	} else if r.ID > s.d.nextResID {
		s.d.nextResID = r.ID
	}
	if r.Code == "" {
		r.Code = fmt.Sprintf("RSV-FIXTURE%d", r.ID)
	}
	s.d.reservations[r.ID] = r
	return r
}

// Room returns the current state of a room fixture.
func (s *Store) Room(id uint64) (model.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.d.rooms[id]
	return r, ok
}

// Customer returns the current state of a customer.
func (s *Store) Customer(id uint64) (model.Customer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.d.customers[id]
	return c, ok
}

// ReservationCount is the number of stored reservations.
func (s *Store) ReservationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.d.reservations)
}

func missing(subject string) error {
	return fmt.Errorf("%s: %w", subject, service.ErrNotFound)
}

type reservationStore struct{ v view }

func (rs reservationStore) Insert(_ context.Context, r *model.Reservation) error {
	return rs.v.run(func(d *data) error {
		for _, existing := range d.reservations {
			if existing.Code == r.Code {
				return fmt.Errorf("code %s: %w", r.Code, service.ErrDuplicateCode)
			}
		}
		d.nextResID++
		r.ID = d.nextResID
		d.reservations[r.ID] = *r
		return nil
	})
}

func (rs reservationStore) Get(_ context.Context, id uint64) (*model.Reservation, error) {
	var out model.Reservation
	err := rs.v.run(func(d *data) error {
		r, ok := d.reservations[id]
		if !ok {
			return missing(fmt.Sprintf("reservation %d", id))
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (rs reservationStore) GetByCode(_ context.Context, code string) (*model.Reservation, error) {
	var out *model.Reservation
	err := rs.v.run(func(d *data) error {
		for _, r := range d.reservations {
			if r.Code == code {
				r := r
				out = &r
				return nil
			}
		}
		return missing("reservation " + code)
	})
	return out, err
}

func (rs reservationStore) Query(_ context.Context, f model.ReservationFilter) ([]model.Reservation, int, error) {
	f.Normalize()
	var matched []model.Reservation
	_ = rs.v.run(func(d *data) error {
		for _, r := range d.reservations {
			if matches(r, f) {
				matched = append(matched, r)
			}
		}
		return nil
	})
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CheckIn.Equal(matched[j].CheckIn) {
			return matched[i].CheckIn.After(matched[j].CheckIn)
		}
		return matched[i].ID > matched[j].ID
	})
	total := len(matched)
	start := min(f.Offset(), total)
	end := min(start+f.Limit, total)
	return append([]model.Reservation{}, matched[start:end]...), total, nil
}

func matches(r model.Reservation, f model.ReservationFilter) bool {
	if f.BranchID != nil && r.BranchID != *f.BranchID {
		return false
	}
	if f.RoomID != nil && r.RoomID != *f.RoomID {
		return false
	}
	if f.CustomerID != nil && (r.CustomerID == nil || *r.CustomerID != *f.CustomerID) {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if r.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.CheckInFrom != nil && r.CheckIn.Before(model.DateOf(*f.CheckInFrom)) {
		return false
	}
	if f.CheckInTo != nil && r.CheckIn.After(model.DateOf(*f.CheckInTo)) {
		return false
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		if !strings.Contains(r.Code, s) && !strings.Contains(r.GuestName, s) && !strings.Contains(r.GuestPhone, s) {
			return false
		}
	}
	return true
}

func (rs reservationStore) Update(_ context.Context, r *model.Reservation) error {
	return rs.v.run(func(d *data) error {
		if _, ok := d.reservations[r.ID]; !ok {
			return missing(fmt.Sprintf("reservation %d", r.ID))
		}
		d.reservations[r.ID] = *r
		return nil
	})
}

func (rs reservationStore) Delete(_ context.Context, id uint64) error {
	return rs.v.run(func(d *data) error {
		if _, ok := d.reservations[id]; !ok {
			return missing(fmt.Sprintf("reservation %d", id))
		}
		delete(d.reservations, id)
		return nil
	})
}

func (rs reservationStore) ActiveForRoom(_ context.Context, roomID uint64) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	_ = rs.v.run(func(d *data) error {
		for _, r := range d.reservations {
			if r.RoomID == roomID && r.Status.Active() {
				out = append(out, r)
			}
		}
		return nil
	})
	sortByCheckIn(out)
	return out, nil
}

func (rs reservationStore) ActiveForBranch(_ context.Context, branchID uint64, start, end time.Time) ([]model.Reservation, error) {
	start, end = model.DateOf(start), model.DateOf(end)
	within := func(t time.Time) bool { return !t.Before(start) && !t.After(end) }
	out := make([]model.Reservation, 0)
	_ = rs.v.run(func(d *data) error {
		for _, r := range d.reservations {
			if r.BranchID != branchID || !r.Status.Active() {
				continue
			}
			if within(r.CheckIn) || within(r.CheckOut) || (r.CheckIn.Before(start) && r.CheckOut.After(end)) {
				out = append(out, r)
			}
		}
		return nil
	})
	sortByCheckIn(out)
	return out, nil
}

func sortByCheckIn(rs []model.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].RoomID != rs[j].RoomID {
			return rs[i].RoomID < rs[j].RoomID
		}
		return rs[i].CheckIn.Before(rs[j].CheckIn)
	})
}

type roomStore struct{ v view }

func (rs roomStore) Get(_ context.Context, id uint64) (*model.Room, error) {
	var out model.Room
	err := rs.v.run(func(d *data) error {
		r, ok := d.rooms[id]
		if !ok {
			return missing(fmt.Sprintf("room %d", id))
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Lock is Get: a unit of work already holds the whole store.
func (rs roomStore) Lock(ctx context.Context, id uint64) (*model.Room, error) {
	return rs.Get(ctx, id)
}

func (rs roomStore) List(_ context.Context, f model.RoomFilter) ([]model.Room, error) {
	out := make([]model.Room, 0)
	_ = rs.v.run(func(d *data) error {
		for _, r := range d.rooms {
			if r.BranchID != f.BranchID {
				continue
			}
			if f.RoomTypeID != nil && r.RoomTypeID != *f.RoomTypeID {
				continue
			}
			out = append(out, r)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Number != out[j].Number {
			return out[i].Number < out[j].Number
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (rs roomStore) SetStatus(_ context.Context, id uint64, status model.RoomStatus) error {
	return rs.v.run(func(d *data) error {
		if rs.v.s.FailSetStatus != nil {
			return rs.v.s.FailSetStatus
		}
		r, ok := d.rooms[id]
		if !ok {
			return missing(fmt.Sprintf("room %d", id))
		}
		r.Status = status
		r.UpdatedAt = time.Now().UTC()
		d.rooms[id] = r
		return nil
	})
}

type customerStore struct{ v view }

func (cs customerStore) Get(_ context.Context, id uint64) (*model.Customer, error) {
	var out model.Customer
	err := cs.v.run(func(d *data) error {
		c, ok := d.customers[id]
		if !ok {
			return missing(fmt.Sprintf("customer %d", id))
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (cs customerStore) FindByPhone(_ context.Context, phone string) (*model.Customer, error) {
	var out *model.Customer
	err := cs.v.run(func(d *data) error {
		var best *model.Customer
		for _, c := range d.customers {
			if c.Phone == phone && (best == nil || c.ID < best.ID) {
				c := c
				best = &c
			}
		}
		if best == nil {
			return missing("customer with phone " + phone)
		}
		out = best
		return nil
	})
	return out, err
}

func (cs customerStore) Create(_ context.Context, c *model.Customer) error {
	return cs.v.run(func(d *data) error {
		d.nextCustID++
		c.ID = d.nextCustID
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now().UTC()
		}
		d.customers[c.ID] = *c
		return nil
	})
}

func (cs customerStore) RecordSpend(_ context.Context, id uint64, amountCents int64) error {
	return cs.v.run(func(d *data) error {
		c, ok := d.customers[id]
		if !ok {
			return missing(fmt.Sprintf("customer %d", id))
		}
		c.TotalSpentCents += amountCents
		c.ReservationCount++
		d.customers[id] = c
		return nil
	})
}
