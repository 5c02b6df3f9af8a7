package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/room-reservation/internal/model"
)

const maxCodeAttempts = 3

// Manager owns every write to reservations: creation, field updates and the
// explicit state transitions. Each operation runs in one unit of work that
// also covers the room status and customer side effects, so a failure
// anywhere leaves storage untouched.
type Manager struct {
	uow      UnitOfWork
	clock    Clock
	newCode  func() string
	events   EventSink
	cache    CalendarCache
	invoices InvoiceSender
}

// ManagerOption configures optional collaborators of a Manager.
type ManagerOption func(*Manager)

// WithEventSink publishes committed changes to sink.
func WithEventSink(sink EventSink) ManagerOption {
	return func(m *Manager) { m.events = sink }
}

// WithCalendarCache invalidates cached calendars after every committed change.
func WithCalendarCache(c CalendarCache) ManagerOption {
	return func(m *Manager) { m.cache = c }
}

// WithInvoiceSender enables SendInvoice.
func WithInvoiceSender(s InvoiceSender) ManagerOption {
	return func(m *Manager) { m.invoices = s }
}

// WithCodeGenerator replaces the reservation code generator.
func WithCodeGenerator(gen func() string) ManagerOption {
	return func(m *Manager) { m.newCode = gen }
}

// NewManager returns a Manager running its operations through uow.
func NewManager(uow UnitOfWork, clock Clock, opts ...ManagerOption) *Manager {
	if uow == nil {
		panic("nil unit of work passed to NewManager")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	m := &Manager{uow: uow, clock: clock, newCode: NewReservationCode}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewReservationCode returns a short human-readable reservation code.
func NewReservationCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "RSV-" + raw[:10]
}

// Create books a room for the draft's stay. The room row is locked before
// the overlap check so two concurrent bookings of the same room serialize
// and the second one observes the first.
func (m *Manager) Create(ctx context.Context, d model.ReservationDraft) (*model.Reservation, error) {
	if d.RoomID == 0 {
		return nil, invalidInput("room id is required")
	}
	if d.Adults < 0 || d.Children < 0 {
		return nil, invalidInput("guest counts must not be negative")
	}
	if d.TotalAmountCents < 0 {
		return nil, invalidInput("total amount must not be negative")
	}
	if d.Customer == nil {
		return nil, invalidInput("a customer id or walk-in customer details are required")
	}
	stay, err := model.NormalizeStay(d.CheckIn, d.CheckOut)
	if err != nil {
		return nil, invalidInput("%v", err)
	}

	now := m.clock.Now()
	var created model.Reservation
	err = m.uow.Do(ctx, func(ctx context.Context, s Stores) error {
		room, err := s.Rooms.Lock(ctx, d.RoomID)
		if err != nil {
			return err
		}
		if room.Status.BlocksBooking() {
			return unavailable("room %s is under %s", room.Number, strings.ToLower(string(room.Status)))
		}
		customer, err := resolveCustomer(ctx, s.Customers, d.Customer)
		if err != nil {
			return err
		}
		conflicts, err := NewChecker(s.Reservations).Conflicts(ctx, room.ID, stay.CheckIn, stay.CheckOut, nil)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &ConflictError{RoomID: room.ID, Reservations: conflicts}
		}

		res := model.Reservation{
			RoomID:           room.ID,
			BranchID:         room.BranchID,
			CheckIn:          stay.CheckIn,
			CheckOut:         stay.CheckOut,
			Adults:           d.Adults,
			Children:         d.Children,
			TotalAmountCents: d.TotalAmountCents,
			Status:           model.StatusPending,
			PaymentStatus:    d.PaymentStatus,
			Source:           d.Source,
			Note:             d.Note,
			CreatedBy:        d.CreatedBy,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if res.Adults == 0 {
			res.Adults = 1
		}
		if res.PaymentStatus == "" {
			res.PaymentStatus = model.PaymentUnpaid
		}
		if res.Source == "" {
			res.Source = model.SourceDirect
		}
		if customer.Ephemeral {
			res.GuestName = customer.FullName
			res.GuestPhone = customer.Phone
		} else {
			id := customer.ID
			res.CustomerID = &id
		}
		if err := m.insertWithCode(ctx, s.Reservations, &res); err != nil {
			return err
		}

		// Future stays leave the room Available until their day comes.
		if stay.CheckIn.Equal(Today(m.clock)) {
			if err := s.Rooms.SetStatus(ctx, room.ID, model.RoomBooked); err != nil {
				return fmt.Errorf("mark room %d booked: %w", room.ID, err)
			}
		}
		if res.CustomerID != nil {
			if err := s.Customers.RecordSpend(ctx, *res.CustomerID, res.TotalAmountCents); err != nil {
				return fmt.Errorf("record customer spend: %w", err)
			}
		}
		created = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("reservation: created %s room=%d %s..%s", created.Code, created.RoomID,
		created.CheckIn.Format(model.DateLayout), created.CheckOut.Format(model.DateLayout))
	m.committed(ctx, EventCreated, created)
	return &created, nil
}

func (m *Manager) insertWithCode(ctx context.Context, rs ReservationStore, res *model.Reservation) error {
	var err error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		res.Code = m.newCode()
		if err = rs.Insert(ctx, res); err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateCode) {
			return fmt.Errorf("insert reservation: %w", err)
		}
	}
	return fmt.Errorf("insert reservation: %w", err)
}

// resolveCustomer turns a CustomerRef into a customer record. Walk-ins are
// matched by phone before a new customer is persisted; ephemeral customers
// are built in memory without an id and never touch storage.
func resolveCustomer(ctx context.Context, cs CustomerStore, ref model.CustomerRef) (*model.Customer, error) {
	switch c := ref.(type) {
	case model.ExistingCustomer:
		if c.ID == 0 {
			return nil, invalidInput("customer id is required")
		}
		return cs.Get(ctx, c.ID)
	case model.WalkInCustomer:
		phone := strings.TrimSpace(c.Phone)
		name := strings.TrimSpace(c.FullName)
		if phone == "" || name == "" {
			return nil, invalidInput("walk-in customer requires a name and a phone")
		}
		found, err := cs.FindByPhone(ctx, phone)
		if err == nil {
			return found, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("find customer by phone: %w", err)
		}
		cust := &model.Customer{FullName: name, Phone: phone, Email: c.Email, IDCard: c.IDCard}
		if err := cs.Create(ctx, cust); err != nil {
			return nil, fmt.Errorf("create walk-in customer: %w", err)
		}
		return cust, nil
	case model.EphemeralCustomer:
		if strings.TrimSpace(c.FullName) == "" {
			return nil, invalidInput("ephemeral customer requires a name")
		}
		return &model.Customer{
			FullName:  strings.TrimSpace(c.FullName),
			Phone:     strings.TrimSpace(c.Phone),
			IDCard:    c.IDCard,
			Ephemeral: true,
		}, nil
	}
	return nil, invalidInput("a customer id or walk-in customer details are required")
}

// Update applies patch to reservation id. A status change runs first with
// its side effects; a room or date change is re-validated against every
// other active reservation; a room change of a still active reservation frees
// the old room and marks the new one Booked regardless of the stay's dates.
func (m *Manager) Update(ctx context.Context, id uint64, patch model.ReservationPatch) (*model.Reservation, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	kind := EventUpdated
	var updated model.Reservation
	var prevBranch uint64
	err := m.uow.Do(ctx, func(ctx context.Context, s Stores) error {
		res, err := s.Reservations.Get(ctx, id)
		if err != nil {
			return err
		}
		prevBranch = res.BranchID
		now := m.clock.Now()

		if patch.Status != nil && *patch.Status != res.Status {
			if res.Status.Terminal() {
				return &TransitionError{Current: res.Status, Requested: *patch.Status}
			}
			if err := m.handleStatusChange(ctx, s, res, *patch.Status, patch, now); err != nil {
				return err
			}
			kind = statusEvent(*patch.Status)
		}

		roomID, checkIn, checkOut := res.RoomID, res.CheckIn, res.CheckOut
		if patch.RoomID != nil {
			roomID = *patch.RoomID
		}
		if patch.CheckIn != nil {
			checkIn = *patch.CheckIn
		}
		if patch.CheckOut != nil {
			checkOut = *patch.CheckOut
		}
		roomChanged := roomID != res.RoomID
		datesChanged := !model.DateOf(checkIn).Equal(model.DateOf(res.CheckIn)) ||
			!model.DateOf(checkOut).Equal(model.DateOf(res.CheckOut))

		if roomChanged || datesChanged {
			stay, err := model.NormalizeStay(checkIn, checkOut)
			if err != nil {
				return invalidInput("%v", err)
			}
			room, err := s.Rooms.Lock(ctx, roomID)
			if err != nil {
				return err
			}
			conflicts, err := NewChecker(s.Reservations).Conflicts(ctx, room.ID, stay.CheckIn, stay.CheckOut, &res.ID)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return &ConflictError{RoomID: room.ID, Reservations: conflicts}
			}
			if roomChanged {
				// A reservation that just left the active states already
				// applied its own room side effect and holds no room now.
				if res.Status.Active() {
					if err := s.Rooms.SetStatus(ctx, res.RoomID, model.RoomAvailable); err != nil {
						return fmt.Errorf("release room %d: %w", res.RoomID, err)
					}
					if err := s.Rooms.SetStatus(ctx, room.ID, model.RoomBooked); err != nil {
						return fmt.Errorf("mark room %d booked: %w", room.ID, err)
					}
				}
				res.RoomID = room.ID
				res.BranchID = room.BranchID
			}
			res.CheckIn, res.CheckOut = stay.CheckIn, stay.CheckOut
		}

		applyFields(res, patch)
		res.UpdatedAt = now
		if err := s.Reservations.Update(ctx, res); err != nil {
			return fmt.Errorf("update reservation %d: %w", res.ID, err)
		}
		updated = *res
		return nil
	})
	if err != nil {
		return nil, err
	}
	if prevBranch != updated.BranchID && m.cache != nil {
		m.cache.Invalidate(ctx, prevBranch)
	}
	m.committed(ctx, kind, updated)
	return &updated, nil
}

func validatePatch(p model.ReservationPatch) error {
	if p.Status != nil && !p.Status.Valid() {
		return invalidInput("unknown status %q", *p.Status)
	}
	if p.RoomID != nil && *p.RoomID == 0 {
		return invalidInput("room id must be positive")
	}
	if (p.Adults != nil && *p.Adults < 0) || (p.Children != nil && *p.Children < 0) {
		return invalidInput("guest counts must not be negative")
	}
	if p.TotalAmountCents != nil && *p.TotalAmountCents < 0 {
		return invalidInput("total amount must not be negative")
	}
	return nil
}

func applyFields(res *model.Reservation, p model.ReservationPatch) {
	if p.Adults != nil {
		res.Adults = *p.Adults
	}
	if p.Children != nil {
		res.Children = *p.Children
	}
	if p.TotalAmountCents != nil {
		res.TotalAmountCents = *p.TotalAmountCents
	}
	if p.PaymentStatus != nil {
		res.PaymentStatus = *p.PaymentStatus
	}
	if p.Source != nil {
		res.Source = *p.Source
	}
	if p.Note != nil {
		res.Note = p.Note
	}
	if p.RejectReason != nil && res.RejectReason == nil {
		res.RejectReason = p.RejectReason
	}
	if p.CancellationReason != nil && res.CancellationReason == nil {
		res.CancellationReason = p.CancellationReason
	}
}

// handleStatusChange moves res to status `to` as part of an update and
// applies the room side effect of the target state.
func (m *Manager) handleStatusChange(ctx context.Context, s Stores, res *model.Reservation, to model.ReservationStatus, p model.ReservationPatch, now time.Time) error {
	switch to {
	case model.StatusCancelled:
		reason, ok := nonBlank(p.CancellationReason)
		if !ok {
			return invalidInput("cancellation reason is required")
		}
		res.CancellationReason = &reason
		if err := s.Rooms.SetStatus(ctx, res.RoomID, model.RoomAvailable); err != nil {
			return fmt.Errorf("release room %d: %w", res.RoomID, err)
		}
	case model.StatusRejected:
		reason, ok := nonBlank(p.RejectReason)
		if !ok {
			return invalidInput("reject reason is required")
		}
		res.RejectReason = &reason
		if err := s.Rooms.SetStatus(ctx, res.RoomID, model.RoomAvailable); err != nil {
			return fmt.Errorf("release room %d: %w", res.RoomID, err)
		}
	case model.StatusCheckedIn:
		t := now
		res.CheckInTime = &t
	case model.StatusCheckedOut:
		t := now
		res.CheckOutTime = &t
		if err := s.Rooms.SetStatus(ctx, res.RoomID, model.RoomCleaning); err != nil {
			return fmt.Errorf("mark room %d cleaning: %w", res.RoomID, err)
		}
	}
	res.Status = to
	return nil
}

func statusEvent(s model.ReservationStatus) EventKind {
	switch s {
	case model.StatusConfirmed:
		return EventConfirmed
	case model.StatusCheckedIn:
		return EventCheckedIn
	case model.StatusCheckedOut:
		return EventCheckedOut
	case model.StatusCancelled:
		return EventCancelled
	case model.StatusRejected:
		return EventRejected
	}
	return EventUpdated
}

func nonBlank(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	v := strings.TrimSpace(*s)
	return v, v != ""
}

// Confirm moves a Pending reservation to Confirmed.
func (m *Manager) Confirm(ctx context.Context, id uint64) (*model.Reservation, error) {
	return m.transition(ctx, id, model.StatusConfirmed, EventConfirmed,
		[]model.ReservationStatus{model.StatusPending},
		func(context.Context, Stores, *model.Reservation, time.Time) error { return nil })
}

// CheckIn moves a Confirmed reservation to CheckedIn and stamps the time.
func (m *Manager) CheckIn(ctx context.Context, id uint64) (*model.Reservation, error) {
	return m.transition(ctx, id, model.StatusCheckedIn, EventCheckedIn,
		[]model.ReservationStatus{model.StatusConfirmed},
		func(_ context.Context, _ Stores, r *model.Reservation, now time.Time) error {
			r.CheckInTime = &now
			return nil
		})
}

// CheckOut moves a CheckedIn reservation to CheckedOut and sends the room
// to Cleaning.
func (m *Manager) CheckOut(ctx context.Context, id uint64) (*model.Reservation, error) {
	return m.transition(ctx, id, model.StatusCheckedOut, EventCheckedOut,
		[]model.ReservationStatus{model.StatusCheckedIn},
		func(ctx context.Context, s Stores, r *model.Reservation, now time.Time) error {
			r.CheckOutTime = &now
			if err := s.Rooms.SetStatus(ctx, r.RoomID, model.RoomCleaning); err != nil {
				return fmt.Errorf("mark room %d cleaning: %w", r.RoomID, err)
			}
			return nil
		})
}

// Cancel cancels any non-terminal reservation and frees its room.
func (m *Manager) Cancel(ctx context.Context, id uint64, reason string) (*model.Reservation, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalidInput("cancellation reason is required")
	}
	return m.transition(ctx, id, model.StatusCancelled, EventCancelled,
		model.ActiveStatuses,
		func(ctx context.Context, s Stores, r *model.Reservation, _ time.Time) error {
			r.CancellationReason = &reason
			if err := s.Rooms.SetStatus(ctx, r.RoomID, model.RoomAvailable); err != nil {
				return fmt.Errorf("release room %d: %w", r.RoomID, err)
			}
			return nil
		})
}

// Reject refuses a Pending reservation and frees its room.
func (m *Manager) Reject(ctx context.Context, id uint64, reason string) (*model.Reservation, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalidInput("reject reason is required")
	}
	return m.transition(ctx, id, model.StatusRejected, EventRejected,
		[]model.ReservationStatus{model.StatusPending},
		func(ctx context.Context, s Stores, r *model.Reservation, _ time.Time) error {
			r.RejectReason = &reason
			if err := s.Rooms.SetStatus(ctx, r.RoomID, model.RoomAvailable); err != nil {
				return fmt.Errorf("release room %d: %w", r.RoomID, err)
			}
			return nil
		})
}

type transitionFunc func(ctx context.Context, s Stores, r *model.Reservation, now time.Time) error

func (m *Manager) transition(ctx context.Context, id uint64, to model.ReservationStatus, kind EventKind, from []model.ReservationStatus, apply transitionFunc) (*model.Reservation, error) {
	var out model.Reservation
	err := m.uow.Do(ctx, func(ctx context.Context, s Stores) error {
		res, err := s.Reservations.Get(ctx, id)
		if err != nil {
			return err
		}
		if !slices.Contains(from, res.Status) {
			return &TransitionError{Current: res.Status, Requested: to, Expected: from}
		}
		now := m.clock.Now()
		if err := apply(ctx, s, res, now); err != nil {
			return err
		}
		res.Status = to
		res.UpdatedAt = now
		if err := s.Reservations.Update(ctx, res); err != nil {
			return fmt.Errorf("update reservation %d: %w", res.ID, err)
		}
		out = *res
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("reservation: %s %s", out.Code, kind)
	m.committed(ctx, kind, out)
	return &out, nil
}

// Remove deletes a reservation. A reservation that still held its room
// (anything but CheckedOut or Cancelled) frees the room first.
func (m *Manager) Remove(ctx context.Context, id uint64) error {
	var removed model.Reservation
	err := m.uow.Do(ctx, func(ctx context.Context, s Stores) error {
		res, err := s.Reservations.Get(ctx, id)
		if err != nil {
			return err
		}
		if res.Status != model.StatusCheckedOut && res.Status != model.StatusCancelled {
			if err := s.Rooms.SetStatus(ctx, res.RoomID, model.RoomAvailable); err != nil {
				return fmt.Errorf("release room %d: %w", res.RoomID, err)
			}
		}
		if err := s.Reservations.Delete(ctx, res.ID); err != nil {
			return fmt.Errorf("delete reservation %d: %w", res.ID, err)
		}
		removed = *res
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("reservation: deleted %s", removed.Code)
	m.committed(ctx, EventDeleted, removed)
	return nil
}

// Get returns a reservation by id.
func (m *Manager) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	return m.uow.Stores().Reservations.Get(ctx, id)
}

// GetByCode returns a reservation by its human-readable code.
func (m *Manager) GetByCode(ctx context.Context, code string) (*model.Reservation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, invalidInput("reservation code is required")
	}
	return m.uow.Stores().Reservations.GetByCode(ctx, code)
}

// List returns one page of reservations matching f and the total count.
func (m *Manager) List(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, int, error) {
	for _, s := range f.Statuses {
		if !s.Valid() {
			return nil, 0, invalidInput("unknown status %q", s)
		}
	}
	if f.CheckInFrom != nil && f.CheckInTo != nil && f.CheckInTo.Before(*f.CheckInFrom) {
		return nil, 0, invalidInput("check-in range end is before its start")
	}
	f.Normalize()
	return m.uow.Stores().Reservations.Query(ctx, f)
}

// CheckAvailability reports the reservations blocking roomID for the stay.
func (m *Manager) CheckAvailability(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeID *uint64) ([]model.Reservation, error) {
	stores := m.uow.Stores()
	if _, err := stores.Rooms.Get(ctx, roomID); err != nil {
		return nil, err
	}
	return NewChecker(stores.Reservations).Conflicts(ctx, roomID, checkIn, checkOut, excludeID)
}

// SendInvoice emails the invoice of reservation id to email.
func (m *Manager) SendInvoice(ctx context.Context, id uint64, email string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return invalidInput("invalid email address")
	}
	res, err := m.uow.Stores().Reservations.Get(ctx, id)
	if err == nil && m.invoices != nil {
		err = m.invoices.SendInvoice(ctx, *res, addr.Address)
		if err == nil {
			return nil
		}
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Printf("reservation: send invoice for %d: %v", id, err)
	}
	return notFound("reservation %d not found or notification service unavailable", id)
}

// committed fans a committed change out to the optional collaborators.
func (m *Manager) committed(ctx context.Context, kind EventKind, r model.Reservation) {
	if m.cache != nil {
		m.cache.Invalidate(ctx, r.BranchID)
	}
	if m.events != nil {
		m.events.ReservationChanged(ctx, kind, r)
	}
}
