package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// MaxCalendarDays bounds the range a single calendar query may span.
const MaxCalendarDays = 366

// Materializer projects rooms and their active reservations into a
// day-by-day availability grid. It never writes.
type Materializer struct {
	uow   UnitOfWork
	clock Clock
	cache CalendarCache
}

// NewMaterializer returns a Materializer. cache may be nil.
func NewMaterializer(uow UnitOfWork, clock Clock, cache CalendarCache) *Materializer {
	if uow == nil {
		panic("nil unit of work passed to NewMaterializer")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Materializer{uow: uow, clock: clock, cache: cache}
}

// Materialize returns one calendar per matching room of the branch. With
// ForceRefresh the cache is skipped and rooms and reservations are read in a
// single unit of work against the primary store, so every write committed
// before the call is visible.
func (m *Materializer) Materialize(ctx context.Context, q model.CalendarQuery) ([]model.RoomCalendar, error) {
	if q.BranchID == 0 {
		return nil, invalidInput("branch id is required")
	}
	q.Start, q.End = model.DateOf(q.Start), model.DateOf(q.End)
	if q.End.Before(q.Start) {
		return nil, invalidInput("end date is before start date")
	}
	if days := len(model.Days(q.Start, q.End)); days > MaxCalendarDays {
		return nil, invalidInput("calendar range spans %d days, at most %d allowed", days, MaxCalendarDays)
	}
	today := Today(m.clock)

	// The version is taken before loading. A write committing meanwhile bumps
	// it, so a result built from older data is stored under a dead key.
	var (
		version   int64
		cacheable bool
	)
	if m.cache != nil {
		version, cacheable = m.cache.Version(ctx, q.BranchID)
	}
	if cacheable && !q.ForceRefresh {
		if cals, ok := m.cache.Get(ctx, q, version, today); ok {
			return cals, nil
		}
	}

	var (
		rooms        []model.Room
		reservations []model.Reservation
	)
	load := func(ctx context.Context, s Stores) error {
		var err error
		rooms, err = s.Rooms.List(ctx, model.RoomFilter{BranchID: q.BranchID, RoomTypeID: q.RoomTypeID})
		if err != nil {
			return fmt.Errorf("list rooms of branch %d: %w", q.BranchID, err)
		}
		if q.FloorID != nil {
			rooms = filterFloor(rooms, *q.FloorID)
		}
		if len(rooms) == 0 {
			return nil
		}
		reservations, err = s.Reservations.ActiveForBranch(ctx, q.BranchID, q.Start, q.End)
		if err != nil {
			return fmt.Errorf("load reservations of branch %d: %w", q.BranchID, err)
		}
		return nil
	}
	var err error
	if q.ForceRefresh {
		err = m.uow.Do(ctx, load)
	} else {
		err = load(ctx, m.uow.Stores())
	}
	if err != nil {
		return nil, err
	}

	cals := BuildCalendars(rooms, reservations, q.Start, q.End, today)
	if cacheable {
		m.cache.Set(ctx, q, version, today, cals)
	}
	return cals, nil
}

func filterFloor(rooms []model.Room, floorID uint64) []model.Room {
	out := rooms[:0:0]
	for _, r := range rooms {
		if r.FloorID == floorID {
			out = append(out, r)
		}
	}
	return out
}

// BuildCalendars expands rooms and reservations into per-day entries for
// every day of [start, end]. Housekeeping status only affects today.
func BuildCalendars(rooms []model.Room, reservations []model.Reservation, start, end, today time.Time) []model.RoomCalendar {
	byRoom := make(map[uint64][]model.Reservation, len(rooms))
	for _, r := range reservations {
		if !r.Status.Active() {
			continue
		}
		byRoom[r.RoomID] = append(byRoom[r.RoomID], r)
	}
	days := model.Days(start, end)
	today = model.DateOf(today)

	cals := make([]model.RoomCalendar, 0, len(rooms))
	for _, room := range rooms {
		held := byRoom[room.ID]
		sort.Slice(held, func(i, j int) bool { return held[i].CheckIn.Before(held[j].CheckIn) })
		cal := model.RoomCalendar{
			Room:              room,
			Reservations:      append([]model.Reservation{}, held...),
			DailyAvailability: make([]model.DayEntry, 0, len(days)),
		}
		for _, d := range days {
			entry := model.DayEntry{Date: d, Available: true}
			if occ := occupant(held, d); occ != nil {
				entry.Available = false
				entry.Reservation = occ
			} else if d.Equal(today) && room.BlockedOn(d) {
				entry.Available = false
			}
			cal.DailyAvailability = append(cal.DailyAvailability, entry)
		}
		cals = append(cals, cal)
	}
	return cals
}

// occupant picks the reservation holding day d. Overlaps should not exist,
// but if they do CheckedIn beats Confirmed beats Pending.
func occupant(held []model.Reservation, d time.Time) *model.Reservation {
	var best *model.Reservation
	for i := range held {
		r := held[i]
		if !r.Occupies(d) {
			continue
		}
		if best == nil || r.Status.Outranks(best.Status) {
			best = &r
		}
	}
	return best
}
