package model

import "time"

// RoomStatus is the housekeeping state of a room.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "AVAILABLE"
	RoomBooked      RoomStatus = "BOOKED"
	RoomCleaning    RoomStatus = "CLEANING"
	RoomMaintenance RoomStatus = "MAINTENANCE"
)

// BlocksBooking reports whether the status forbids creating new reservations.
// Booked does not: a stale Booked flag must not block a non-overlapping stay.
func (s RoomStatus) BlocksBooking() bool {
	return s == RoomCleaning || s == RoomMaintenance
}

// Room is a bookable physical room. Rooms are owned by the property
// management side; this service reads them and flips Status.
type Room struct {
	ID                 uint64     `db:"id" json:"id"`
	Number             string     `db:"number" json:"number"`
	BranchID           uint64     `db:"branch_id" json:"branch_id"`
	FloorID            uint64     `db:"floor_id" json:"floor_id"`
	RoomTypeID         uint64     `db:"room_type_id" json:"room_type_id"`
	Status             RoomStatus `db:"status" json:"status"`
	MaintenanceEndDate *time.Time `db:"maintenance_end_date" json:"maintenance_end_date,omitempty"`
	CleaningEndDate    *time.Time `db:"cleaning_end_date" json:"cleaning_end_date,omitempty"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// BlockedOn reports whether housekeeping keeps the room out of service on
// day d. A Maintenance or Cleaning room is blocked unless its matching end
// date has already passed relative to d; without an end date it is blocked.
func (r Room) BlockedOn(d time.Time) bool {
	var end *time.Time
	switch r.Status {
	case RoomMaintenance:
		end = r.MaintenanceEndDate
	case RoomCleaning:
		end = r.CleaningEndDate
	default:
		return false
	}
	if end == nil {
		return true
	}
	return !DateOf(*end).Before(DateOf(d))
}

// RoomFilter selects rooms of a branch.
type RoomFilter struct {
	BranchID   uint64
	RoomTypeID *uint64
}
