package model

import "time"

// Customer is a guest record owned by the customer management side.
type Customer struct {
	ID               uint64    `db:"id" json:"id"`
	FullName         string    `db:"full_name" json:"full_name"`
	Phone            string    `db:"phone" json:"phone"`
	Email            string    `db:"email" json:"email,omitempty"`
	IDCard           string    `db:"id_card" json:"id_card,omitempty"`
	TotalSpentCents  int64     `db:"total_spent_cents" json:"total_spent_cents"`
	ReservationCount int       `db:"reservation_count" json:"reservation_count"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`

	// Ephemeral marks a record built for a single request. It has no ID and
	// never exists in storage; reservations copy its name and phone instead.
	Ephemeral bool `db:"-" json:"ephemeral,omitempty"`
}

// CustomerRef says who a new reservation is for. It is one of
// ExistingCustomer, WalkInCustomer or EphemeralCustomer.
type CustomerRef interface {
	customerRef()
}

// ExistingCustomer refers to a persisted customer by id.
type ExistingCustomer struct {
	ID uint64
}

// WalkInCustomer is matched to an existing customer by phone, or created and
// persisted when no match exists.
type WalkInCustomer struct {
	FullName string
	Phone    string
	Email    string
	IDCard   string
}

// EphemeralCustomer is never persisted. The reservation stores the guest's
// name and phone instead of a customer id.
type EphemeralCustomer struct {
	FullName string
	Phone    string
	IDCard   string
}

func (ExistingCustomer) customerRef()  {}
func (WalkInCustomer) customerRef()    {}
func (EphemeralCustomer) customerRef() {}
