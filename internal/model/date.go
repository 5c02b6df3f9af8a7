package model

import (
	"errors"
	"time"
)

// DateLayout is the wire format for calendar days.
const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar day. The year, month and day are taken
// in t's own location and the result is midnight UTC, so two instants on the
// same wall-clock day always compare equal.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// AddDays moves a calendar day by n days.
func AddDays(d time.Time, n int) time.Time {
	return DateOf(d).AddDate(0, 0, n)
}

var ErrStayOrder = errors.New("check-out date is before check-in date")

// Stay is a half-open range of calendar days [CheckIn, CheckOut).
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NormalizeStay truncates both ends to calendar days and turns a same-day
// request into a one-night stay by advancing check-out by one day. It fails
// when check-out precedes check-in.
func NormalizeStay(checkIn, checkOut time.Time) (Stay, error) {
	in, out := DateOf(checkIn), DateOf(checkOut)
	if out.Before(in) {
		return Stay{}, ErrStayOrder
	}
	if out.Equal(in) {
		out = AddDays(out, 1)
	}
	return Stay{CheckIn: in, CheckOut: out}, nil
}

// Overlaps reports whether two stays share at least one night. Touching
// ranges, where one checks out on the day the other checks in, do not.
func (s Stay) Overlaps(o Stay) bool {
	return s.CheckIn.Before(o.CheckOut) && o.CheckIn.Before(s.CheckOut)
}

// Nights is the number of occupied days.
func (s Stay) Nights() int {
	return int(DateOf(s.CheckOut).Sub(DateOf(s.CheckIn)).Hours() / 24)
}

// Days returns every calendar day from start to end inclusive.
func Days(start, end time.Time) []time.Time {
	start, end = DateOf(start), DateOf(end)
	if end.Before(start) {
		return nil
	}
	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
