package model

import "testing"

func TestRoomBlockedOn(t *testing.T) {
	end := day("2024-05-25")
	tests := []struct {
		name string
		room Room
		on   string
		want bool
	}{
		{"available", Room{Status: RoomAvailable}, "2024-05-25", false},
		{"booked", Room{Status: RoomBooked}, "2024-05-25", false},
		{"maintenance without end", Room{Status: RoomMaintenance}, "2024-05-25", true},
		{"maintenance ending today", Room{Status: RoomMaintenance, MaintenanceEndDate: &end}, "2024-05-25", true},
		{"maintenance ended yesterday", Room{Status: RoomMaintenance, MaintenanceEndDate: &end}, "2024-05-26", false},
		{"cleaning without end", Room{Status: RoomCleaning}, "2024-05-25", true},
		{"cleaning ended", Room{Status: RoomCleaning, CleaningEndDate: &end}, "2024-05-27", false},
		{"cleaning ignores maintenance end", Room{Status: RoomCleaning, MaintenanceEndDate: &end}, "2024-05-27", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.room.BlockedOn(day(tt.on)); got != tt.want {
				t.Errorf("BlockedOn(%s) = %v, want %v", tt.on, got, tt.want)
			}
		})
	}
}

func TestRoomStatusBlocksBooking(t *testing.T) {
	want := map[RoomStatus]bool{
		RoomAvailable:   false,
		RoomBooked:      false,
		RoomCleaning:    true,
		RoomMaintenance: true,
	}
	for s, w := range want {
		if got := s.BlocksBooking(); got != w {
			t.Errorf("%s.BlocksBooking() = %v, want %v", s, got, w)
		}
	}
}
