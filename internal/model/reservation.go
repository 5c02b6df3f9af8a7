package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending    ReservationStatus = "PENDING"
	StatusConfirmed  ReservationStatus = "CONFIRMED"
	StatusCheckedIn  ReservationStatus = "CHECKED_IN"
	StatusCheckedOut ReservationStatus = "CHECKED_OUT"
	StatusCancelled  ReservationStatus = "CANCELLED"
	StatusRejected   ReservationStatus = "REJECTED"
)

// ActiveStatuses are the statuses that occupy a room.
var ActiveStatuses = []ReservationStatus{StatusPending, StatusConfirmed, StatusCheckedIn}

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// Active reports whether a reservation in this status blocks its room.
func (s ReservationStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCheckedIn
}

// Terminal reports whether no further transition is allowed out of s.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCheckedOut || s == StatusCancelled || s == StatusRejected
}

// occupancyRank orders active statuses when more than one reservation
// claims the same day. Higher wins.
func (s ReservationStatus) occupancyRank() int {
	switch s {
	case StatusCheckedIn:
		return 3
	case StatusConfirmed:
		return 2
	case StatusPending:
		return 1
	}
	return 0
}

// Outranks reports whether s takes precedence over other on a calendar day.
func (s ReservationStatus) Outranks(other ReservationStatus) bool {
	return s.occupancyRank() > other.occupancyRank()
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPartial  PaymentStatus = "PARTIAL"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Source is the channel a reservation came in through. It is informational
// only and never participates in availability.
type Source string

const (
	SourceDirect  Source = "DIRECT"
	SourcePhone   Source = "PHONE"
	SourceWalkIn  Source = "WALK_IN"
	SourceWebsite Source = "WEBSITE"
	SourceOTA     Source = "OTA"
)

// Reservation is a booking of one room for a range of calendar days.
// CheckIn and CheckOut are calendar days (UTC midnight) and in storage
// CheckIn is always strictly before CheckOut; the check-out day itself is
// free for another guest.
//
// CustomerID is nil for reservations made on behalf of an ephemeral
// customer; GuestName and GuestPhone then carry the only customer data.
type Reservation struct {
	ID                 uint64            `db:"id" json:"id"`
	Code               string            `db:"code" json:"code"`
	RoomID             uint64            `db:"room_id" json:"room_id"`
	CustomerID         *uint64           `db:"customer_id" json:"customer_id,omitempty"`
	GuestName          string            `db:"guest_name" json:"guest_name,omitempty"`
	GuestPhone         string            `db:"guest_phone" json:"guest_phone,omitempty"`
	BranchID           uint64            `db:"branch_id" json:"branch_id"`
	CheckIn            time.Time         `db:"check_in" json:"check_in"`
	CheckOut           time.Time         `db:"check_out" json:"check_out"`
	CheckInTime        *time.Time        `db:"check_in_time" json:"check_in_time,omitempty"`
	CheckOutTime       *time.Time        `db:"check_out_time" json:"check_out_time,omitempty"`
	Adults             int               `db:"adults" json:"adults"`
	Children           int               `db:"children" json:"children"`
	TotalAmountCents   int64             `db:"total_amount_cents" json:"total_amount_cents"`
	Status             ReservationStatus `db:"status" json:"status"`
	PaymentStatus      PaymentStatus     `db:"payment_status" json:"payment_status"`
	Source             Source            `db:"source" json:"source"`
	RejectReason       *string           `db:"reject_reason" json:"reject_reason,omitempty"`
	CancellationReason *string           `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	Note               *string           `db:"note" json:"note,omitempty"`
	CreatedBy          string            `db:"created_by" json:"created_by,omitempty"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updated_at"`
}

// Stay returns the reservation's occupied range.
func (r Reservation) Stay() Stay { return Stay{CheckIn: r.CheckIn, CheckOut: r.CheckOut} }

// Occupies reports whether the reservation holds its room on calendar day d.
// The check-in day and every day strictly before check-out are occupied. A
// row whose dates are equal still occupies its single check-in day.
func (r Reservation) Occupies(d time.Time) bool {
	d = DateOf(d)
	in, out := DateOf(r.CheckIn), DateOf(r.CheckOut)
	if d.Equal(in) {
		return true
	}
	return d.After(in) && d.Before(out)
}

// ReservationPatch carries the optional fields of an update. Nil fields are
// left untouched.
type ReservationPatch struct {
	RoomID             *uint64
	CheckIn            *time.Time
	CheckOut           *time.Time
	Adults             *int
	Children           *int
	TotalAmountCents   *int64
	Status             *ReservationStatus
	PaymentStatus      *PaymentStatus
	Source             *Source
	RejectReason       *string
	CancellationReason *string
	Note               *string
}

// ReservationDraft is the input to reservation creation.
type ReservationDraft struct {
	RoomID           uint64
	Customer         CustomerRef
	CheckIn          time.Time
	CheckOut         time.Time
	Adults           int
	Children         int
	TotalAmountCents int64
	PaymentStatus    PaymentStatus
	Source           Source
	Note             *string
	CreatedBy        string
}

// ReservationFilter narrows a reservation listing. Zero values mean "any".
type ReservationFilter struct {
	BranchID    *uint64
	RoomID      *uint64
	CustomerID  *uint64
	Statuses    []ReservationStatus
	CheckInFrom *time.Time
	CheckInTo   *time.Time
	Search      string
	Page        int
	Limit       int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize clamps paging to sane bounds.
func (f *ReservationFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
}

// Offset is the zero-based row offset of the filter's page.
func (f ReservationFilter) Offset() int { return (f.Page - 1) * f.Limit }
