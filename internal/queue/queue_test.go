package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/service"
)

func sampleReservation() model.Reservation {
	customer := uint64(9)
	return model.Reservation{
		ID:               42,
		Code:             "RSV-0123456789",
		RoomID:           3,
		BranchID:         1,
		CustomerID:       &customer,
		CheckIn:          time.Date(2024, 5, 25, 0, 0, 0, 0, time.UTC),
		CheckOut:         time.Date(2024, 5, 27, 0, 0, 0, 0, time.UTC),
		Status:           model.StatusConfirmed,
		TotalAmountCents: 30000,
	}
}

func TestNewReservationEvent(t *testing.T) {
	at := time.Date(2024, 5, 20, 12, 0, 0, 0, time.FixedZone("X", 3600))
	ev := NewReservationEvent(service.EventConfirmed, sampleReservation(), at)
	if ev.CheckIn != "2024-05-25" || ev.CheckOut != "2024-05-27" {
		t.Errorf("stay = %s..%s", ev.CheckIn, ev.CheckOut)
	}
	if ev.OccurredAt != "2024-05-20T11:00:00Z" {
		t.Errorf("OccurredAt = %s, want UTC", ev.OccurredAt)
	}
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), `"kind":"confirmed"`) {
		t.Errorf("payload %s lacks the kind", body)
	}
}

func TestWriteEventLine(t *testing.T) {
	var b strings.Builder
	ev := NewReservationEvent(service.EventCreated, sampleReservation(), time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC))
	if err := WriteEventLine(&b, ev); err != nil {
		t.Fatalf("WriteEventLine() error = %v", err)
	}
	want := "[2024-05-20T00:00:00Z] Reservation created | reservation_id=42 | code=RSV-0123456789 | room_id=3 | branch_id=1 | customer_id=9 | stay=2024-05-25..2024-05-27 | status=CONFIRMED | total=30000 cents\n"
	if b.String() != want {
		t.Errorf("line =\n%q\nwant\n%q", b.String(), want)
	}

	b.Reset()
	ev.CustomerID = nil
	ev.GuestName = "Walk In"
	if err := WriteEventLine(&b, ev); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), `guest="Walk In"`) {
		t.Errorf("ephemeral line = %q", b.String())
	}
}

func TestConsumerHandleEventAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reservation.log")
	c := NewConsumer("amqp://unused", path)
	body, _ := json.Marshal(NewReservationEvent(service.EventCancelled, sampleReservation(), time.Now()))

	for i := 0; i < 2; i++ {
		if err := c.handleEvent(body); err != nil {
			t.Fatalf("handleEvent() error = %v", err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "Reservation cancelled"); n != 2 {
		t.Errorf("log has %d lines, want 2:\n%s", n, data)
	}
	if err := c.handleEvent([]byte("{")); err == nil {
		t.Error("handleEvent(malformed) error = nil")
	}
}

func TestHandleInvoice(t *testing.T) {
	ok, _ := json.Marshal(InvoiceRequested{ReservationID: 1, Code: "RSV-1", Email: "a@b.c", Nights: 2})
	if err := handleInvoice(ok); err != nil {
		t.Errorf("handleInvoice() error = %v", err)
	}
	noRecipient, _ := json.Marshal(InvoiceRequested{ReservationID: 1})
	if err := handleInvoice(noRecipient); err == nil {
		t.Error("handleInvoice(no email) error = nil")
	}
}
