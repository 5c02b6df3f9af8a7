package model

import "time"

// DayEntry is the availability of one room on one calendar day.
type DayEntry struct {
	Date        time.Time    `json:"date"`
	Available   bool         `json:"available"`
	Reservation *Reservation `json:"reservation"`
}

// RoomCalendar is the projection of a room over a queried range.
type RoomCalendar struct {
	Room              Room          `json:"room"`
	Reservations      []Reservation `json:"reservations"`
	DailyAvailability []DayEntry    `json:"daily_availability"`
}

// CalendarQuery selects the rooms and days to materialize.
type CalendarQuery struct {
	BranchID     uint64
	Start        time.Time
	End          time.Time
	FloorID      *uint64
	RoomTypeID   *uint64
	ForceRefresh bool
}
