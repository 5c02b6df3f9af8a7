package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/service"
)

// Publisher sends reservation events and invoice requests to RabbitMQ. One
// connection is shared and redialed after a failure. Event publishing never
// fails the caller: errors are logged and the message is dropped.
type Publisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a publisher for the broker at url. The connection is
// opened on first use.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// ReservationChanged implements service.EventSink.
func (p *Publisher) ReservationChanged(ctx context.Context, kind service.EventKind, r model.Reservation) {
	ev := NewReservationEvent(kind, r, time.Now())
	if err := p.publish(ctx, EventsQueue, "reservation."+string(kind), ev); err != nil {
		log.Printf("rabbitmq: publish %s event for reservation %d failed: %v", kind, r.ID, err)
	}
}

// SendInvoice implements service.InvoiceSender by queueing the request for
// the mailer.
func (p *Publisher) SendInvoice(ctx context.Context, r model.Reservation, email string) error {
	req := InvoiceRequested{
		ReservationID:    r.ID,
		Code:             r.Code,
		Email:            email,
		GuestName:        r.GuestName,
		CheckIn:          r.CheckIn.Format(model.DateLayout),
		CheckOut:         r.CheckOut.Format(model.DateLayout),
		Nights:           r.Stay().Nights(),
		TotalAmountCents: r.TotalAmountCents,
		RequestedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.publish(ctx, InvoicesQueue, "invoice.requested", req); err != nil {
		log.Printf("rabbitmq: publish invoice for reservation %d failed: %v", r.ID, err)
		return err
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, queue, msgType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	// Durable so messages survive broker restarts. Declaring is idempotent.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		p.reset()
		return fmt.Errorf("queue declare: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		Type:         msgType,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// channel returns the open channel, dialing when needed. p.mu must be held.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

// reset drops the current connection. p.mu must be held.
func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}
