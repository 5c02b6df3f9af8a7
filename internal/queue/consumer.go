package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer drains the events and invoice queues. Every reservation event is
// appended to a log file as one line; invoice requests are logged as sent.
type Consumer struct {
	url     string
	logPath string
}

// NewConsumer returns a consumer for the broker at url that appends event
// lines to logPath.
func NewConsumer(url, logPath string) *Consumer {
	if logPath == "" {
		logPath = filepath.Join("logs", "reservation.log")
	}
	return &Consumer{url: url, logPath: logPath}
}

// Run connects, consumes and reconnects with backoff until ctx is done.
// Processing errors are logged and the offending message is rejected so the
// server continues operating.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Printf("reservation-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("reservation-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("reservation-consumer: set QoS failed: %v", err)
	}
	for _, q := range []string{EventsQueue, InvoicesQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
	}
	events, err := ch.Consume(EventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume %s: %w", EventsQueue, err)
	}
	invoices, err := ch.Consume(InvoicesQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume %s: %w", InvoicesQueue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-events:
			if !ok {
				return errors.New("event deliveries channel closed")
			}
			settle(d, c.handleEvent(d.Body))
		case d, ok := <-invoices:
			if !ok {
				return errors.New("invoice deliveries channel closed")
			}
			settle(d, handleInvoice(d.Body))
		}
	}
}

// settle acks d, or rejects it without requeue to avoid tight loops.
func settle(d amqp.Delivery, err error) {
	if err != nil {
		log.Printf("reservation-consumer: handle message failed: %v", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func (c *Consumer) handleEvent(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	return WriteEventLine(f, ev)
}

// WriteEventLine writes ev to w as a single human-friendly line.
func WriteEventLine(w io.Writer, ev ReservationEvent) error {
	guest := ""
	if ev.CustomerID != nil {
		guest = fmt.Sprintf(" | customer_id=%d", *ev.CustomerID)
	} else if ev.GuestName != "" {
		guest = fmt.Sprintf(" | guest=%q", ev.GuestName)
	}
	_, err := fmt.Fprintf(w, "[%s] Reservation %s | reservation_id=%d | code=%s | room_id=%d | branch_id=%d%s | stay=%s..%s | status=%s | total=%d cents\n",
		ev.OccurredAt, ev.Kind, ev.ReservationID, ev.Code, ev.RoomID, ev.BranchID, guest, ev.CheckIn, ev.CheckOut, ev.Status, ev.TotalAmountCents)
	if err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func handleInvoice(body []byte) error {
	var req InvoiceRequested
	if err := json.Unmarshal(body, &req); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if req.Email == "" {
		return fmt.Errorf("invoice for reservation %d has no recipient", req.ReservationID)
	}
	log.Printf("reservation-consumer: invoice %s sent to %s (%d nights, %d cents)", req.Code, req.Email, req.Nights, req.TotalAmountCents)
	return nil
}
