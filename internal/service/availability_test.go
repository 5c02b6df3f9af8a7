package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/service"
)

func TestOverlapping(t *testing.T) {
	d := func(s string) model.Stay {
		st, err := model.NormalizeStay(day(t, s), day(t, s))
		if err != nil {
			t.Fatal(err)
		}
		return st
	}
	candidates := []model.Reservation{
		{ID: 1, CheckIn: day(t, "2024-05-25"), CheckOut: day(t, "2024-05-27"), Status: model.StatusConfirmed},
		{ID: 2, CheckIn: day(t, "2024-05-25"), CheckOut: day(t, "2024-05-27"), Status: model.StatusCancelled},
		// Legacy row stored with equal dates occupies one night.
		{ID: 3, CheckIn: day(t, "2024-05-28"), CheckOut: day(t, "2024-05-28"), Status: model.StatusPending},
	}
	tests := []struct {
		name    string
		stay    model.Stay
		exclude *uint64
		want    []uint64
	}{
		{"first night", d("2024-05-25"), nil, []uint64{1}},
		{"check-out day is free", d("2024-05-27"), nil, nil},
		{"legacy same-day row", d("2024-05-28"), nil, []uint64{3}},
		{"excluded self", d("2024-05-26"), ptr(uint64(1)), nil},
		{"spanning both", model.Stay{CheckIn: day(t, "2024-05-20"), CheckOut: day(t, "2024-06-01")}, nil, []uint64{1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.Overlapping(tt.stay, candidates, tt.exclude)
			if len(got) != len(tt.want) {
				t.Fatalf("Overlapping() = %d reservations, want %v", len(got), tt.want)
			}
			for i, r := range got {
				if r.ID != tt.want[i] {
					t.Errorf("Overlapping()[%d] = %d, want %d", i, r.ID, tt.want[i])
				}
			}
		})
	}
}

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-05-01")
	r := f.book(t, roomStandard, "2024-05-25", "2024-05-27", model.StatusConfirmed)
	m := f.manager()

	conflicts, err := m.CheckAvailability(ctx, roomStandard, day(t, "2024-05-26"), day(t, "2024-05-28"), nil)
	if err != nil {
		t.Fatalf("CheckAvailability() error = %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].ID != r.ID {
		t.Errorf("conflicts = %+v, want reservation %d", conflicts, r.ID)
	}

	conflicts, err = m.CheckAvailability(ctx, roomStandard, day(t, "2024-05-26"), day(t, "2024-05-28"), &r.ID)
	if err != nil || len(conflicts) != 0 {
		t.Errorf("CheckAvailability(exclude self) = %v, %v, want none", conflicts, err)
	}

	if _, err := m.CheckAvailability(ctx, 99, day(t, "2024-05-26"), day(t, "2024-05-28"), nil); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("unknown room error = %v, want not found", err)
	}
	if _, err := m.CheckAvailability(ctx, roomStandard, day(t, "2024-05-28"), day(t, "2024-05-26"), nil); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("inverted range error = %v, want invalid input", err)
	}
}
