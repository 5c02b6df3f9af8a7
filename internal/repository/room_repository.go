package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/room-reservation/internal/model"
)

// RoomRepo reads rooms and updates their status.
type RoomRepo struct {
	db sqlx.ExtContext
}

// NewRoomRepo returns a RoomRepo bound to db.
func NewRoomRepo(db sqlx.ExtContext) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = `id, number, branch_id, floor_id, room_type_id, status,
	maintenance_end_date, cleaning_end_date, updated_at`

// Get returns the room with the given id.
func (r *RoomRepo) Get(ctx context.Context, id uint64) (*model.Room, error) {
	var room model.Room
	if err := sqlx.GetContext(ctx, r.db, &room, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id); err != nil {
		return nil, notFound(err, fmt.Sprintf("room %d", id))
	}
	return &room, nil
}

// Lock reads the room with SELECT ... FOR UPDATE. Inside a transaction the
// row stays locked until the transaction ends, which serializes every
// occupancy check on that room.
func (r *RoomRepo) Lock(ctx context.Context, id uint64) (*model.Room, error) {
	var room model.Room
	if err := sqlx.GetContext(ctx, r.db, &room, `SELECT `+roomColumns+` FROM rooms WHERE id = ? FOR UPDATE`, id); err != nil {
		return nil, notFound(err, fmt.Sprintf("room %d", id))
	}
	return &room, nil
}

// List returns the rooms of a branch, optionally of one room type, ordered
// by room number.
func (r *RoomRepo) List(ctx context.Context, f model.RoomFilter) ([]model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms WHERE branch_id = ?`
	args := []any{f.BranchID}
	if f.RoomTypeID != nil {
		q += ` AND room_type_id = ?`
		args = append(args, *f.RoomTypeID)
	}
	q += ` ORDER BY number, id`
	rooms := make([]model.Room, 0)
	if err := sqlx.SelectContext(ctx, r.db, &rooms, q, args...); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

// SetStatus changes the room's housekeeping status.
func (r *RoomRepo) SetStatus(ctx context.Context, id uint64, status model.RoomStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}
	return expectOne(result, fmt.Sprintf("room %d", id))
}
