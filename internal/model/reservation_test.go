package model

import "testing"

func TestReservationStatusSets(t *testing.T) {
	tests := []struct {
		status   ReservationStatus
		active   bool
		terminal bool
	}{
		{StatusPending, true, false},
		{StatusConfirmed, true, false},
		{StatusCheckedIn, true, false},
		{StatusCheckedOut, false, true},
		{StatusCancelled, false, true},
		{StatusRejected, false, true},
	}
	for _, tt := range tests {
		if !tt.status.Valid() {
			t.Errorf("%s.Valid() = false", tt.status)
		}
		if got := tt.status.Active(); got != tt.active {
			t.Errorf("%s.Active() = %v, want %v", tt.status, got, tt.active)
		}
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
	if ReservationStatus("ARCHIVED").Valid() {
		t.Error("unknown status reported valid")
	}
}

func TestReservationStatusOutranks(t *testing.T) {
	if !StatusCheckedIn.Outranks(StatusConfirmed) || !StatusConfirmed.Outranks(StatusPending) {
		t.Error("expected CHECKED_IN > CONFIRMED > PENDING")
	}
	if StatusPending.Outranks(StatusPending) {
		t.Error("a status must not outrank itself")
	}
}

func TestReservationOccupies(t *testing.T) {
	r := Reservation{CheckIn: day("2024-05-25"), CheckOut: day("2024-05-27")}
	want := map[string]bool{
		"2024-05-24": false,
		"2024-05-25": true,
		"2024-05-26": true,
		"2024-05-27": false,
	}
	for d, w := range want {
		if got := r.Occupies(day(d)); got != w {
			t.Errorf("Occupies(%s) = %v, want %v", d, got, w)
		}
	}

	legacy := Reservation{CheckIn: day("2024-05-25"), CheckOut: day("2024-05-25")}
	if !legacy.Occupies(day("2024-05-25")) {
		t.Error("equal-date row must occupy its check-in day")
	}
	if legacy.Occupies(day("2024-05-26")) {
		t.Error("equal-date row must not occupy the next day")
	}
}

func TestReservationFilterNormalize(t *testing.T) {
	tests := []struct {
		in               ReservationFilter
		page, limit, off int
	}{
		{ReservationFilter{}, 1, DefaultPageLimit, 0},
		{ReservationFilter{Page: 3, Limit: 10}, 3, 10, 20},
		{ReservationFilter{Page: -1, Limit: 1000}, 1, MaxPageLimit, 0},
	}
	for _, tt := range tests {
		f := tt.in
		f.Normalize()
		if f.Page != tt.page || f.Limit != tt.limit || f.Offset() != tt.off {
			t.Errorf("Normalize(%+v) = page %d limit %d offset %d, want %d %d %d",
				tt.in, f.Page, f.Limit, f.Offset(), tt.page, tt.limit, tt.off)
		}
	}
}
