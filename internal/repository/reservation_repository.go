package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/service"
)

// ReservationRepo stores reservations in the reservations table. It runs on
// either the pool or a transaction, whichever it was built with. DATE
// columns come back as UTC midnight because the DSN sets loc=UTC.
type ReservationRepo struct {
	db sqlx.ExtContext
}

// NewReservationRepo returns a ReservationRepo bound to db.
func NewReservationRepo(db sqlx.ExtContext) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, code, room_id, customer_id, guest_name, guest_phone, branch_id,
	check_in, check_out, check_in_time, check_out_time, adults, children, total_amount_cents,
	status, payment_status, source, reject_reason, cancellation_reason, note, created_by,
	created_at, updated_at`

// activeStatusList is the SQL literal of model.ActiveStatuses.
var activeStatusList = func() string {
	parts := make([]string, len(model.ActiveStatuses))
	for i, s := range model.ActiveStatuses {
		parts[i] = "'" + string(s) + "'"
	}
	return strings.Join(parts, ",")
}()

// Insert writes r and fills in its generated id. A collision on the unique
// code index is reported as service.ErrDuplicateCode.
func (r *ReservationRepo) Insert(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (code, room_id, customer_id, guest_name, guest_phone, branch_id,
		check_in, check_out, check_in_time, check_out_time, adults, children, total_amount_cents,
		status, payment_status, source, reject_reason, cancellation_reason, note, created_by,
		created_at, updated_at)
		VALUES (:code, :room_id, :customer_id, :guest_name, :guest_phone, :branch_id,
		:check_in, :check_out, :check_in_time, :check_out_time, :adults, :children, :total_amount_cents,
		:status, :payment_status, :source, :reject_reason, :cancellation_reason, :note, :created_by,
		:created_at, :updated_at)`
	result, err := sqlx.NamedExecContext(ctx, r.db, q, res)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("code %s: %w", res.Code, service.ErrDuplicateCode)
		}
		return fmt.Errorf("failed to insert reservation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read reservation id: %w", err)
	}
	res.ID = uint64(id)
	return nil
}

// Get returns the reservation with the given id.
func (r *ReservationRepo) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	var res model.Reservation
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	if err := sqlx.GetContext(ctx, r.db, &res, q, id); err != nil {
		return nil, notFound(err, fmt.Sprintf("reservation %d", id))
	}
	return &res, nil
}

// GetByCode returns the reservation with the given code.
func (r *ReservationRepo) GetByCode(ctx context.Context, code string) (*model.Reservation, error) {
	var res model.Reservation
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE code = ?`
	if err := sqlx.GetContext(ctx, r.db, &res, q, code); err != nil {
		return nil, notFound(err, fmt.Sprintf("reservation %s", code))
	}
	return &res, nil
}

// Query returns one page of reservations matching f, newest check-in first,
// together with the number of matching rows.
func (r *ReservationRepo) Query(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, int, error) {
	var (
		where []string
		args  []any
	)
	if f.BranchID != nil {
		where = append(where, "branch_id = ?")
		args = append(args, *f.BranchID)
	}
	if f.RoomID != nil {
		where = append(where, "room_id = ?")
		args = append(args, *f.RoomID)
	}
	if f.CustomerID != nil {
		where = append(where, "customer_id = ?")
		args = append(args, *f.CustomerID)
	}
	if len(f.Statuses) > 0 {
		where = append(where, "status IN (?)")
		args = append(args, f.Statuses)
	}
	if f.CheckInFrom != nil {
		where = append(where, "check_in >= ?")
		args = append(args, model.DateOf(*f.CheckInFrom))
	}
	if f.CheckInTo != nil {
		where = append(where, "check_in <= ?")
		args = append(args, model.DateOf(*f.CheckInTo))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(code LIKE ? OR guest_name LIKE ? OR guest_phone LIKE ?)")
		like := "%" + s + "%"
		args = append(args, like, like, like)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	countQ, countArgs, err := sqlx.In(`SELECT COUNT(*) FROM reservations`+cond, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, r.db.Rebind(countQ), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count reservations: %w", err)
	}

	listQ, listArgs, err := sqlx.In(`SELECT `+reservationColumns+` FROM reservations`+cond+
		` ORDER BY check_in DESC, id DESC LIMIT ? OFFSET ?`, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}
	items := make([]model.Reservation, 0)
	if err := sqlx.SelectContext(ctx, r.db, &items, r.db.Rebind(listQ), listArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list reservations: %w", err)
	}
	return items, total, nil
}

// Update overwrites every mutable column of res.
func (r *ReservationRepo) Update(ctx context.Context, res *model.Reservation) error {
	const q = `UPDATE reservations SET room_id = :room_id, branch_id = :branch_id,
		check_in = :check_in, check_out = :check_out, check_in_time = :check_in_time,
		check_out_time = :check_out_time, adults = :adults, children = :children,
		total_amount_cents = :total_amount_cents, status = :status, payment_status = :payment_status,
		source = :source, reject_reason = :reject_reason, cancellation_reason = :cancellation_reason,
		note = :note, updated_at = :updated_at
		WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.db, q, res)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	return expectOne(result, fmt.Sprintf("reservation %d", res.ID))
}

// Delete removes the reservation row.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	return expectOne(result, fmt.Sprintf("reservation %d", id))
}

// ActiveForRoom returns every reservation currently occupying roomID.
func (r *ReservationRepo) ActiveForRoom(ctx context.Context, roomID uint64) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE room_id = ? AND status IN (` + activeStatusList + `)
		ORDER BY check_in`
	out := make([]model.Reservation, 0)
	if err := sqlx.SelectContext(ctx, r.db, &out, q, roomID); err != nil {
		return nil, fmt.Errorf("failed to query active reservations: %w", err)
	}
	return out, nil
}

// ActiveForBranch returns the active reservations of a branch that check in
// within [start, end], check out within it, or span it entirely.
func (r *ReservationRepo) ActiveForBranch(ctx context.Context, branchID uint64, start, end time.Time) ([]model.Reservation, error) {
	start, end = model.DateOf(start), model.DateOf(end)
	q := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE branch_id = ? AND status IN (` + activeStatusList + `)
		AND ((check_in BETWEEN ? AND ?)
			OR (check_out BETWEEN ? AND ?)
			OR (check_in < ? AND check_out > ?))
		ORDER BY room_id, check_in`
	out := make([]model.Reservation, 0)
	if err := sqlx.SelectContext(ctx, r.db, &out, q, branchID, start, end, start, end, start, end); err != nil {
		return nil, fmt.Errorf("failed to query branch reservations: %w", err)
	}
	return out, nil
}
