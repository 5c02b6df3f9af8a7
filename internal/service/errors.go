package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/room-reservation/internal/model"
)

// Sentinel errors for every failure kind a caller can see. Handlers
// translate them into HTTP status codes with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrConflict          = errors.New("conflict")
	ErrUnavailable       = errors.New("unavailable")

	// ErrDuplicateCode is returned by a ReservationStore when an insert
	// collides with an existing reservation code.
	ErrDuplicateCode = errors.New("duplicate reservation code")
)

// TransitionError is returned when an operation is invoked from a state
// other than the one it requires.
type TransitionError struct {
	Current   model.ReservationStatus
	Requested model.ReservationStatus
	Expected  []model.ReservationStatus
}

func (e *TransitionError) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("cannot move reservation from %s to %s", e.Current, e.Requested)
	}
	exp := make([]string, len(e.Expected))
	for i, s := range e.Expected {
		exp[i] = string(s)
	}
	return fmt.Sprintf("cannot move reservation from %s to %s: expected %s",
		e.Current, e.Requested, strings.Join(exp, " or "))
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// ConflictError lists the active reservations that block a request.
type ConflictError struct {
	RoomID       uint64
	Reservations []model.Reservation
}

func (e *ConflictError) Error() string {
	codes := make([]string, len(e.Reservations))
	for i, r := range e.Reservations {
		codes[i] = r.Code
	}
	return fmt.Sprintf("room %d is already reserved for the requested dates (%s)", e.RoomID, strings.Join(codes, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

func notFound(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrUnavailable)...)
}
