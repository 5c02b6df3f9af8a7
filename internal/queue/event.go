// Package queue defines message payloads exchanged over the message broker
// and the publisher and consumer that move them.
package queue

import (
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/service"
)

const (
	// EventsQueue carries one message per committed reservation change.
	EventsQueue = "reservation.events"
	// InvoicesQueue carries invoice delivery requests.
	InvoicesQueue = "invoice.requested"
)

// ReservationEvent is published after a reservation change commits. It
// carries enough of the reservation for consumers to log or notify without
// querying the primary database.
type ReservationEvent struct {
	Kind             service.EventKind       `json:"kind"`
	ReservationID    uint64                  `json:"reservation_id"`
	Code             string                  `json:"code"`
	RoomID           uint64                  `json:"room_id"`
	BranchID         uint64                  `json:"branch_id"`
	CustomerID       *uint64                 `json:"customer_id,omitempty"`
	GuestName        string                  `json:"guest_name,omitempty"`
	CheckIn          string                  `json:"check_in"`
	CheckOut         string                  `json:"check_out"`
	Status           model.ReservationStatus `json:"status"`
	TotalAmountCents int64                   `json:"total_amount_cents"`
	OccurredAt       string                  `json:"occurred_at"`
}

// NewReservationEvent snapshots r for publishing.
func NewReservationEvent(kind service.EventKind, r model.Reservation, at time.Time) ReservationEvent {
	return ReservationEvent{
		Kind:             kind,
		ReservationID:    r.ID,
		Code:             r.Code,
		RoomID:           r.RoomID,
		BranchID:         r.BranchID,
		CustomerID:       r.CustomerID,
		GuestName:        r.GuestName,
		CheckIn:          r.CheckIn.Format(model.DateLayout),
		CheckOut:         r.CheckOut.Format(model.DateLayout),
		Status:           r.Status,
		TotalAmountCents: r.TotalAmountCents,
		OccurredAt:       at.UTC().Format(time.RFC3339),
	}
}

// InvoiceRequested asks the mailer to send a reservation's invoice.
type InvoiceRequested struct {
	ReservationID    uint64 `json:"reservation_id"`
	Code             string `json:"code"`
	Email            string `json:"email"`
	GuestName        string `json:"guest_name,omitempty"`
	CheckIn          string `json:"check_in"`
	CheckOut         string `json:"check_out"`
	Nights           int    `json:"nights"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	RequestedAt      string `json:"requested_at"`
}
