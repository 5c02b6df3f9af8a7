package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/room-reservation/internal/model"
)

// CustomerRepo covers the slice of the customers table this service needs.
type CustomerRepo struct {
	db sqlx.ExtContext
}

// NewCustomerRepo returns a CustomerRepo bound to db.
func NewCustomerRepo(db sqlx.ExtContext) *CustomerRepo { return &CustomerRepo{db: db} }

const customerColumns = `id, full_name, phone, email, id_card, total_spent_cents, reservation_count, created_at`

func (r *CustomerRepo) Get(ctx context.Context, id uint64) (*model.Customer, error) {
	var c model.Customer
	if err := sqlx.GetContext(ctx, r.db, &c, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id); err != nil {
		return nil, notFound(err, fmt.Sprintf("customer %d", id))
	}
	return &c, nil
}

func (r *CustomerRepo) FindByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	var c model.Customer
	q := `SELECT ` + customerColumns + ` FROM customers WHERE phone = ? ORDER BY id LIMIT 1`
	if err := sqlx.GetContext(ctx, r.db, &c, q, phone); err != nil {
		return nil, notFound(err, "customer with phone "+phone)
	}
	return &c, nil
}

// Create inserts a walk-in customer and fills in its id.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO customers (full_name, phone, email, id_card, created_at)
		VALUES (:full_name, :phone, :email, :id_card, :created_at)`
	result, err := sqlx.NamedExecContext(ctx, r.db, q, c)
	if err != nil {
		return fmt.Errorf("failed to insert customer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read customer id: %w", err)
	}
	c.ID = uint64(id)
	return nil
}

// RecordSpend adds a reservation's amount to the customer's running totals.
func (r *CustomerRepo) RecordSpend(ctx context.Context, id uint64, amountCents int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE customers SET total_spent_cents = total_spent_cents + ?, reservation_count = reservation_count + 1 WHERE id = ?`,
		amountCents, id)
	if err != nil {
		return fmt.Errorf("failed to record customer spend: %w", err)
	}
	return expectOne(result, fmt.Sprintf("customer %d", id))
}
