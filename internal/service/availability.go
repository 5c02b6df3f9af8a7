package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// Checker finds the active reservations that overlap a requested stay.
type Checker struct {
	reservations ReservationStore
}

// NewChecker returns a Checker reading through rs. Pass the store of a unit
// of work to check against the rows that unit can see.
func NewChecker(rs ReservationStore) *Checker {
	return &Checker{reservations: rs}
}

// Conflicts returns the active reservations on roomID whose stay overlaps
// [checkIn, checkOut) after both ends are truncated to calendar days and a
// same-day request is widened to one night. excludeID, when set, is left out
// so a reservation never conflicts with itself. An empty result means the
// room is free.
func (c *Checker) Conflicts(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeID *uint64) ([]model.Reservation, error) {
	stay, err := model.NormalizeStay(checkIn, checkOut)
	if err != nil {
		if errors.Is(err, model.ErrStayOrder) {
			return nil, invalidInput("%v", err)
		}
		return nil, err
	}
	candidates, err := c.reservations.ActiveForRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("load reservations of room %d: %w", roomID, err)
	}
	return Overlapping(stay, candidates, excludeID), nil
}

// Overlapping filters candidates down to the active ones overlapping stay.
func Overlapping(stay model.Stay, candidates []model.Reservation, excludeID *uint64) []model.Reservation {
	out := make([]model.Reservation, 0)
	for _, r := range candidates {
		if excludeID != nil && r.ID == *excludeID {
			continue
		}
		if !r.Status.Active() {
			continue
		}
		// Rows written before normalization may carry equal dates.
		existing, err := model.NormalizeStay(r.CheckIn, r.CheckOut)
		if err != nil {
			continue
		}
		if stay.Overlaps(existing) {
			out = append(out, r)
		}
	}
	return out
}
