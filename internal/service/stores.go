package service

import (
	"context"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// ReservationStore persists reservations. Get and GetByCode wrap ErrNotFound
// when no row matches.
type ReservationStore interface {
	Insert(ctx context.Context, r *model.Reservation) error
	Get(ctx context.Context, id uint64) (*model.Reservation, error)
	GetByCode(ctx context.Context, code string) (*model.Reservation, error)
	Query(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, int, error)
	Update(ctx context.Context, r *model.Reservation) error
	Delete(ctx context.Context, id uint64) error
	// ActiveForRoom returns the room's reservations whose status occupies it.
	ActiveForRoom(ctx context.Context, roomID uint64) ([]model.Reservation, error)
	// ActiveForBranch returns active reservations of a branch that start in,
	// end in, or span the [start, end] day range.
	ActiveForBranch(ctx context.Context, branchID uint64, start, end time.Time) ([]model.Reservation, error)
}

// RoomStore reads rooms and flips their status.
type RoomStore interface {
	Get(ctx context.Context, id uint64) (*model.Room, error)
	// Lock loads a room and holds it for the rest of the unit of work so
	// that occupancy checks on the same room serialize.
	Lock(ctx context.Context, id uint64) (*model.Room, error)
	List(ctx context.Context, f model.RoomFilter) ([]model.Room, error)
	SetStatus(ctx context.Context, id uint64, status model.RoomStatus) error
}

// CustomerStore reads and creates customers and records their spend.
type CustomerStore interface {
	Get(ctx context.Context, id uint64) (*model.Customer, error)
	FindByPhone(ctx context.Context, phone string) (*model.Customer, error)
	Create(ctx context.Context, c *model.Customer) error
	RecordSpend(ctx context.Context, id uint64, amountCents int64) error
}

// Stores bundles the collaborators bound to one unit of work.
type Stores struct {
	Reservations ReservationStore
	Rooms        RoomStore
	Customers    CustomerStore
}

// UnitOfWork runs fn atomically: either every write made through the
// provided Stores commits or none does.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
	// Stores returns collaborators for reads outside any unit of work.
	Stores() Stores
}

// Clock supplies the server's notion of now.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// Today is the server's current calendar day.
func Today(c Clock) time.Time { return model.DateOf(c.Now()) }

// EventKind names a committed lifecycle change.
type EventKind string

const (
	EventCreated    EventKind = "created"
	EventUpdated    EventKind = "updated"
	EventConfirmed  EventKind = "confirmed"
	EventCheckedIn  EventKind = "checked_in"
	EventCheckedOut EventKind = "checked_out"
	EventCancelled  EventKind = "cancelled"
	EventRejected   EventKind = "rejected"
	EventDeleted    EventKind = "deleted"
)

// EventSink is told about every committed mutation. Implementations must
// not fail the caller; the reservation is already saved.
type EventSink interface {
	ReservationChanged(ctx context.Context, kind EventKind, r model.Reservation)
}

// InvoiceSender delivers a reservation's invoice by email.
type InvoiceSender interface {
	SendInvoice(ctx context.Context, r model.Reservation, email string) error
}

// CalendarCache stores materialized calendars. Entries are addressed by the
// branch version read before the data was loaded; Invalidate bumps the
// version and so makes every earlier entry for the branch unreachable.
type CalendarCache interface {
	// Version returns the branch's current version. ok is false when the
	// cache cannot be consulted.
	Version(ctx context.Context, branchID uint64) (version int64, ok bool)
	Get(ctx context.Context, q model.CalendarQuery, version int64, today time.Time) ([]model.RoomCalendar, bool)
	Set(ctx context.Context, q model.CalendarQuery, version int64, today time.Time, cals []model.RoomCalendar)
	Invalidate(ctx context.Context, branchID uint64)
}
