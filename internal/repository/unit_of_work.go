package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/room-reservation/internal/service"
)

// UnitOfWork runs service operations inside MySQL transactions.
type UnitOfWork struct {
	db *sqlx.DB
}

// NewUnitOfWork returns a UnitOfWork bound to db.
func NewUnitOfWork(db *sqlx.DB) *UnitOfWork {
	if db == nil {
		panic("nil database passed to NewUnitOfWork")
	}
	return &UnitOfWork{db: db}
}

// DB exposes the underlying handle for health checks.
func (u *UnitOfWork) DB() *sqlx.DB { return u.db }

// Stores returns stores reading outside any transaction.
func (u *UnitOfWork) Stores() service.Stores { return storesOn(u.db) }

// Do runs fn in a READ COMMITTED transaction. Locking reads issued through
// RoomStore.Lock keep the room row held until commit or rollback.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, s service.Stores) error) error {
	tx, err := u.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				log.Printf("repository: rollback failed: %v", rbErr)
			}
		}
	}()
	if err := fn(ctx, storesOn(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

func storesOn(ext sqlx.ExtContext) service.Stores {
	return service.Stores{
		Reservations: NewReservationRepo(ext),
		Rooms:        NewRoomRepo(ext),
		Customers:    NewCustomerRepo(ext),
	}
}
